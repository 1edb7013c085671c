package transport

import (
	"encoding/json"
	"net/http"

	"github.com/goliatone/go-banklink/core"
	goerrors "github.com/goliatone/go-errors"
)

// JSONRequest builds a request carrying payload as a JSON body.
func JSONRequest(method string, url string, payload any) (core.TransportRequest, error) {
	req := core.TransportRequest{
		Method:  method,
		URL:     url,
		Headers: map[string]string{HeaderContentType: "application/json", HeaderAccept: "application/json"},
	}
	if payload == nil {
		return req, nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return core.TransportRequest{}, transportWrapError(
			err,
			goerrors.CategoryInternal,
			"transport: encode json body",
			http.StatusInternalServerError,
			map[string]any{"adapter": KindREST},
		)
	}
	req.Body = body
	return req, nil
}

func DecodeJSON(res core.TransportResponse, out any) error {
	if len(res.Body) == 0 {
		return transportError(
			"transport: empty json response",
			goerrors.CategoryExternal,
			http.StatusBadGateway,
			map[string]any{"status_code": res.StatusCode},
		)
	}
	if err := json.Unmarshal(res.Body, out); err != nil {
		return transportWrapError(
			err,
			goerrors.CategoryExternal,
			"transport: decode json response",
			http.StatusBadGateway,
			map[string]any{"status_code": res.StatusCode},
		)
	}
	return nil
}
