package devkit

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/goliatone/go-banklink/core"
)

// TransportScript is one scripted exchange. When Method or Path is set the
// script only answers matching requests; otherwise scripts answer in order.
type TransportScript struct {
	Method   string
	Path     string
	Response core.TransportResponse
	Err      error
}

func Route(method string, path string, response core.TransportResponse) TransportScript {
	return TransportScript{Method: method, Path: path, Response: response}
}

func RouteError(method string, path string, err error) TransportScript {
	return TransportScript{Method: method, Path: path, Err: err}
}

type FakeTransportAdapter struct {
	mu       sync.Mutex
	kind     string
	routed   []TransportScript
	ordered  []TransportScript
	requests []core.TransportRequest
}

func NewFakeTransportAdapter(kind string, scripts ...TransportScript) *FakeTransportAdapter {
	adapter := &FakeTransportAdapter{kind: strings.TrimSpace(strings.ToLower(kind))}
	for _, script := range scripts {
		if script.isRouted() {
			adapter.routed = append(adapter.routed, script)
			continue
		}
		adapter.ordered = append(adapter.ordered, script)
	}
	return adapter
}

func (a *FakeTransportAdapter) Kind() string {
	if a == nil {
		return ""
	}
	return a.kind
}

func (a *FakeTransportAdapter) Do(_ context.Context, req core.TransportRequest) (core.TransportResponse, error) {
	if a == nil {
		return core.TransportResponse{}, fmt.Errorf("devkit: fake transport adapter is nil")
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	a.requests = append(a.requests, cloneTransportRequest(req))
	for _, script := range a.routed {
		if script.matches(req) {
			return cloneTransportResponse(script.Response), script.Err
		}
	}

	index := len(a.requests) - 1
	if index < len(a.ordered) {
		script := a.ordered[index]
		return cloneTransportResponse(script.Response), script.Err
	}
	if len(a.ordered) > 0 {
		last := a.ordered[len(a.ordered)-1]
		return cloneTransportResponse(last.Response), last.Err
	}
	return core.TransportResponse{}, fmt.Errorf("devkit: no script for %s %s", req.Method, requestPath(req.URL))
}

func (a *FakeTransportAdapter) Requests() []core.TransportRequest {
	if a == nil {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]core.TransportRequest, 0, len(a.requests))
	for _, item := range a.requests {
		out = append(out, cloneTransportRequest(item))
	}
	return out
}

// RequestsTo returns captured requests whose path ends with path.
func (a *FakeTransportAdapter) RequestsTo(path string) []core.TransportRequest {
	out := []core.TransportRequest{}
	for _, req := range a.Requests() {
		if strings.HasSuffix(requestPath(req.URL), path) {
			out = append(out, req)
		}
	}
	return out
}

func (s TransportScript) isRouted() bool {
	return strings.TrimSpace(s.Method) != "" || strings.TrimSpace(s.Path) != ""
}

func (s TransportScript) matches(req core.TransportRequest) bool {
	if method := strings.TrimSpace(s.Method); method != "" && !strings.EqualFold(method, req.Method) {
		return false
	}
	if path := strings.TrimSpace(s.Path); path != "" && !strings.HasSuffix(requestPath(req.URL), path) {
		return false
	}
	return true
}

func requestPath(raw string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return raw
	}
	return parsed.Path
}

func cloneTransportRequest(in core.TransportRequest) core.TransportRequest {
	out := core.TransportRequest{
		Method:               in.Method,
		URL:                  in.URL,
		Headers:              map[string]string{},
		Query:                map[string]string{},
		Body:                 append([]byte(nil), in.Body...),
		Metadata:             map[string]any{},
		Timeout:              in.Timeout,
		MaxResponseBodyBytes: in.MaxResponseBodyBytes,
		Idempotency:          in.Idempotency,
	}
	for key, value := range in.Headers {
		out.Headers[key] = value
	}
	for key, value := range in.Query {
		out.Query[key] = value
	}
	for key, value := range in.Metadata {
		out.Metadata[key] = value
	}
	return out
}

func cloneTransportResponse(in core.TransportResponse) core.TransportResponse {
	out := core.TransportResponse{
		StatusCode: in.StatusCode,
		Headers:    map[string]string{},
		Body:       append([]byte(nil), in.Body...),
		Metadata:   map[string]any{},
	}
	for key, value := range in.Headers {
		out.Headers[key] = value
	}
	for key, value := range in.Metadata {
		out.Metadata[key] = value
	}
	return out
}

var _ core.TransportAdapter = (*FakeTransportAdapter)(nil)
