package transport

import (
	"fmt"
	"net/http"

	"github.com/goliatone/go-banklink/core"
	goerrors "github.com/goliatone/go-errors"
)

func transportError(
	message string,
	category goerrors.Category,
	code int,
	metadata map[string]any,
) error {
	err := goerrors.New(message, category).
		WithCode(code).
		WithTextCode(transportTextCode(category))
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func transportWrapError(
	source error,
	category goerrors.Category,
	message string,
	code int,
	metadata map[string]any,
) error {
	if source == nil {
		return transportError(message, category, code, metadata)
	}
	err := goerrors.Wrap(source, category, message).
		WithCode(code).
		WithTextCode(transportTextCode(category))
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

// StatusError converts a non-2xx upstream response into a go-errors envelope.
// The response body is never copied into the error.
func StatusError(provider string, res core.TransportResponse, metadata map[string]any) error {
	category := StatusCategory(res.StatusCode)
	fields := map[string]any{
		"provider":    provider,
		"status_code": res.StatusCode,
	}
	for key, value := range metadata {
		fields[key] = value
	}
	return transportError(
		fmt.Sprintf("%s: unexpected status %d", provider, res.StatusCode),
		category,
		upstreamHTTPCode(category),
		core.RedactSensitiveMap(fields),
	)
}

func StatusCategory(status int) goerrors.Category {
	switch {
	case status == http.StatusUnauthorized:
		return goerrors.CategoryAuth
	case status == http.StatusForbidden:
		return goerrors.CategoryAuthz
	case status == http.StatusNotFound:
		return goerrors.CategoryNotFound
	case status == http.StatusConflict:
		return goerrors.CategoryConflict
	case status == http.StatusTooManyRequests:
		return goerrors.CategoryRateLimit
	case status >= 400 && status < 500:
		return goerrors.CategoryBadInput
	default:
		return goerrors.CategoryExternal
	}
}

func IsSuccess(status int) bool {
	return status >= 200 && status < 300
}

func upstreamHTTPCode(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

func transportTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return core.ServiceErrorBadInput
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return core.ServiceErrorUnauthorized
	case goerrors.CategoryNotFound:
		return core.ServiceErrorNotFound
	case goerrors.CategoryRateLimit:
		return core.ServiceErrorRateLimited
	case goerrors.CategoryExternal, goerrors.CategoryConflict:
		return core.ServiceErrorExternalFailure
	default:
		return core.ServiceErrorInternal
	}
}
