package plaid

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-banklink/core"
	"github.com/goliatone/go-banklink/transport"
)

var (
	ErrTokenAlreadyConsumed = errors.New("plaid: public token already consumed")
	ErrTokenExpired         = errors.New("plaid: public token expired")
	ErrItemNotFound         = errors.New("plaid: item not found")
)

// APIError is a decoded Plaid error response. The upstream error_message is
// kept out of Error() since Plaid may echo request fields in it.
type APIError struct {
	Operation  string
	StatusCode int
	ErrorType  string
	ErrorCode  string
	RequestID  string
	kind       error
	envelope   error
}

func (e *APIError) Error() string {
	message := fmt.Sprintf("plaid: %s returned %d", e.Operation, e.StatusCode)
	if e.ErrorCode != "" {
		message += " " + e.ErrorCode
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
	ErrorType    string `json:"error_type"`
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
	RequestID    string `json:"request_id"`
}

func decodeAPIError(operation string, res core.TransportResponse) error {
	var body errorBody
	_ = json.Unmarshal(res.Body, &body)

	apiErr := &APIError{
		Operation:  operation,
		StatusCode: res.StatusCode,
		ErrorType:  strings.TrimSpace(body.ErrorType),
		ErrorCode:  strings.TrimSpace(body.ErrorCode),
		RequestID:  strings.TrimSpace(body.RequestID),
	}
	apiErr.kind = classify(apiErr.ErrorCode, body.ErrorMessage)
	apiErr.envelope = transport.StatusError(ProviderID, res, map[string]any{
		"operation":  operation,
		"error_type": apiErr.ErrorType,
		"error_code": apiErr.ErrorCode,
		"request_id": apiErr.RequestID,
	})
	return apiErr
}

func classify(code string, message string) error {
	switch strings.ToUpper(code) {
	case "INVALID_PUBLIC_TOKEN":
		if strings.Contains(strings.ToLower(message), "expired") {
			return ErrTokenExpired
		}
		return ErrTokenAlreadyConsumed
	case "ITEM_NOT_FOUND", "INVALID_ACCESS_TOKEN":
		return ErrItemNotFound
	default:
		return nil
	}
}
