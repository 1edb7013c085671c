package dwolla

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/goliatone/go-banklink/core"
	"github.com/goliatone/go-banklink/transport"
)

var (
	ErrMissingLocation = errors.New("dwolla: response has no location header")
	ErrDuplicate       = errors.New("dwolla: resource already exists")
	ErrValidation      = errors.New("dwolla: request failed validation")
)

// APIError is a decoded Dwolla error. Validation messages may quote the
// submitted fields, so only codes and paths are kept.
type APIError struct {
	Endpoint   string
	StatusCode int
	Code       string
	Paths      []string
	kind       error
	envelope   error
}

func (e *APIError) Error() string {
	message := fmt.Sprintf("dwolla: %s returned %d", e.Endpoint, e.StatusCode)
	if e.Code != "" {
		message += " " + e.Code
	}
	if len(e.Paths) > 0 {
		message += " (" + strings.Join(e.Paths, ", ") + ")"
	}
	return message
}

func (e *APIError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.kind != nil {
		out = append(out, e.kind)
	}
	if e.envelope != nil {
		out = append(out, e.envelope)
	}
	return out
}

type errorBody struct {
	Code     string `json:"code"`
	Embedded struct {
		Errors []struct {
			Code string `json:"code"`
			Path string `json:"path"`
		} `json:"errors"`
	} `json:"_embedded"`
}

func decodeAPIError(target string, res core.TransportResponse) error {
	var body errorBody
	_ = json.Unmarshal(res.Body, &body)

	endpoint := target
	if parsed, err := url.Parse(target); err == nil {
		endpoint = parsed.Path
	}
	apiErr := &APIError{
		Endpoint:   endpoint,
		StatusCode: res.StatusCode,
		Code:       strings.TrimSpace(body.Code),
	}
	duplicate := strings.EqualFold(apiErr.Code, "DuplicateResource")
	for _, item := range body.Embedded.Errors {
		if path := strings.TrimSpace(item.Path); path != "" {
			apiErr.Paths = append(apiErr.Paths, path)
		}
		if strings.EqualFold(item.Code, "Duplicate") {
			duplicate = true
		}
	}
	switch {
	case duplicate:
		apiErr.kind = ErrDuplicate
	case strings.EqualFold(apiErr.Code, "ValidationError"):
		apiErr.kind = ErrValidation
	}
	apiErr.envelope = transport.StatusError(ProviderID, res, map[string]any{
		"endpoint": endpoint,
		"code":     apiErr.Code,
	})
	return apiErr
}
