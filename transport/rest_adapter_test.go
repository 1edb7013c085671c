package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goliatone/go-banklink/core"
	goerrors "github.com/goliatone/go-errors"
)

func TestRESTAdapter_SendsHeadersBodyAndIdempotency(t *testing.T) {
	var captured *http.Request
	var capturedBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r
		raw, _ := io.ReadAll(r.Body)
		capturedBody = string(raw)
		w.Header().Set("Location", "https://api.example.com/customers/abc123")
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	adapter := NewRESTAdapter(server.Client())
	adapter.DefaultHeaders["X-Client"] = "banklink"
	req, err := JSONRequest(http.MethodPost, server.URL+"/customers", map[string]string{"firstName": "Ada"})
	if err != nil {
		t.Fatalf("json request: %v", err)
	}
	req.Idempotency = "idem_1"
	req.Query = map[string]string{"expand": "true"}

	res, err := adapter.Do(context.Background(), req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", res.StatusCode)
	}
	if got := Header(res, "location"); got != "https://api.example.com/customers/abc123" {
		t.Fatalf("expected location header, got %q", got)
	}
	if captured.Header.Get(HeaderIdempotencyKey) != "idem_1" {
		t.Fatalf("expected idempotency header")
	}
	if captured.Header.Get("X-Client") != "banklink" {
		t.Fatalf("expected default header")
	}
	if captured.Header.Get(HeaderContentType) != "application/json" {
		t.Fatalf("expected json content type")
	}
	if captured.URL.Query().Get("expand") != "true" {
		t.Fatalf("expected query to be applied")
	}
	if capturedBody != `{"firstName":"Ada"}` {
		t.Fatalf("unexpected body %q", capturedBody)
	}
	if res.Metadata["endpoint"] != server.URL+"/customers" {
		t.Fatalf("expected endpoint metadata without query, got %#v", res.Metadata["endpoint"])
	}
}

func TestRESTAdapter_ResponseLimitReturnsRichError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("12345"))
	}))
	defer server.Close()

	adapter := NewRESTAdapter(server.Client())
	adapter.MaxResponseBodyBytes = 4

	_, err := adapter.Do(context.Background(), core.TransportRequest{Method: http.MethodGet, URL: server.URL})
	if err == nil {
		t.Fatalf("expected response body limit error")
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryExternal {
		t.Fatalf("expected external category, got %q", rich.Category)
	}
	if rich.TextCode != core.ServiceErrorExternalFailure {
		t.Fatalf("expected %q text code, got %q", core.ServiceErrorExternalFailure, rich.TextCode)
	}
	if rich.Code != http.StatusBadGateway {
		t.Fatalf("expected %d code, got %d", http.StatusBadGateway, rich.Code)
	}
}

func TestRESTAdapter_NilAndInvalidURL(t *testing.T) {
	var adapter *RESTAdapter
	_, err := adapter.Do(context.Background(), core.TransportRequest{})
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich.TextCode != core.ServiceErrorInternal {
		t.Fatalf("expected internal envelope for nil adapter, got %v", err)
	}

	for _, raw := range []string{"", "not-a-url", "/relative/path"} {
		_, err = NewRESTAdapter(nil).Do(context.Background(), core.TransportRequest{URL: raw})
		if !goerrors.As(err, &rich) || rich.Category != goerrors.CategoryBadInput {
			t.Fatalf("expected bad input for %q, got %v", raw, err)
		}
	}
}

func TestStatusError_MapsCategoryWithoutBody(t *testing.T) {
	res := core.TransportResponse{StatusCode: http.StatusTooManyRequests, Body: []byte(`{"access_token":"access-sandbox-1"}`)}
	err := StatusError("plaid", res, map[string]any{"access_token": "access-sandbox-1", "request_id": "req_1"})

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryRateLimit || rich.TextCode != core.ServiceErrorRateLimited {
		t.Fatalf("unexpected category %q / %q", rich.Category, rich.TextCode)
	}
	if strings.Contains(err.Error(), "access-sandbox-1") {
		t.Fatalf("expected response body to stay out of the error")
	}
	if rich.Metadata["access_token"] != core.RedactedValue || rich.Metadata["request_id"] != "req_1" {
		t.Fatalf("expected redacted metadata, got %#v", rich.Metadata)
	}

	cases := map[int]goerrors.Category{
		http.StatusUnauthorized:        goerrors.CategoryAuth,
		http.StatusBadRequest:          goerrors.CategoryBadInput,
		http.StatusNotFound:            goerrors.CategoryNotFound,
		http.StatusInternalServerError: goerrors.CategoryExternal,
	}
	for status, category := range cases {
		if got := StatusCategory(status); got != category {
			t.Fatalf("expected %q for %d, got %q", category, status, got)
		}
	}
}

func TestDecodeJSON(t *testing.T) {
	var out struct {
		ItemID string `json:"item_id"`
	}
	if err := DecodeJSON(core.TransportResponse{Body: []byte(`{"item_id":"item_1"}`)}, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.ItemID != "item_1" {
		t.Fatalf("unexpected item id %q", out.ItemID)
	}
	if err := DecodeJSON(core.TransportResponse{Body: []byte(`{`)}, &out); err == nil {
		t.Fatalf("expected invalid json to fail")
	}
	if err := DecodeJSON(core.TransportResponse{}, &out); err == nil {
		t.Fatalf("expected empty body to fail")
	}
}
