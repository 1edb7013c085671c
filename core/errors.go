package core

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ServiceErrorBadInput                   = "BANKLINK_BAD_INPUT"
	ServiceErrorCustomerProvisioningFailed = "BANKLINK_CUSTOMER_PROVISIONING_FAILED"
	ServiceErrorTokenExchangeFailed        = "BANKLINK_TOKEN_EXCHANGE_FAILED"
	ServiceErrorAccountListingFailed       = "BANKLINK_ACCOUNT_LISTING_FAILED"
	ServiceErrorNoAccountsReturned         = "BANKLINK_NO_ACCOUNTS_RETURNED"
	ServiceErrorProcessorTokenFailed       = "BANKLINK_PROCESSOR_TOKEN_FAILED"
	ServiceErrorFundingSourceFailed        = "BANKLINK_FUNDING_SOURCE_FAILED"
	ServiceErrorPersistence                = "BANKLINK_PERSISTENCE_ERROR"
	ServiceErrorMalformedURL               = "BANKLINK_MALFORMED_URL"
	ServiceErrorMalformedSharableID        = "BANKLINK_MALFORMED_SHARABLE_ID"
	ServiceErrorNotFound                   = "BANKLINK_NOT_FOUND"
	ServiceErrorExternalFailure            = "BANKLINK_EXTERNAL_FAILURE"
	ServiceErrorUnauthorized               = "BANKLINK_UNAUTHORIZED"
	ServiceErrorRateLimited                = "BANKLINK_RATE_LIMITED"
	ServiceErrorInternal                   = "BANKLINK_INTERNAL_ERROR"
)

// LinkFailedMessage is the only message surfaced to callers for a failed link.
const LinkFailedMessage = "linking failed"

var (
	ErrLinkBadInput               = errors.New("core: invalid link request")
	ErrCustomerProvisioningFailed = errors.New("core: customer provisioning failed")
	ErrTokenExchangeFailed        = errors.New("core: public token exchange failed")
	ErrAccountListingFailed       = errors.New("core: account listing failed")
	ErrNoAccountsReturned         = errors.New("core: aggregator returned no accounts")
	ErrProcessorTokenFailed       = errors.New("core: processor token creation failed")
	ErrFundingSourceCreation      = errors.New("core: funding source creation failed")
	ErrPersistence                = errors.New("core: bank account persistence failed")
	ErrMalformedURL               = errors.New("core: malformed url")
	ErrMalformedSharableID        = errors.New("core: malformed sharable id")
	ErrPublicTokenConsumed        = errors.New("core: public token already submitted")
	ErrPublicTokenLedgerFull      = errors.New("core: public token ledger is at capacity")
	ErrEmptyFundingSourceURL      = errors.New("core: funding source url is empty")
	ErrBankAccountNotFound        = errors.New("core: bank account not found")
	ErrServiceNotConfigured       = errors.New("core: service dependency is not configured")
)

type LinkErrorKind string

const (
	LinkErrorBadInput                   LinkErrorKind = "bad_input"
	LinkErrorCustomerProvisioningFailed LinkErrorKind = "customer_provisioning_failed"
	LinkErrorTokenExchangeFailed        LinkErrorKind = "token_exchange_failed"
	LinkErrorAccountListingFailed       LinkErrorKind = "account_listing_failed"
	LinkErrorNoAccountsReturned         LinkErrorKind = "no_accounts_returned"
	LinkErrorProcessorTokenFailed       LinkErrorKind = "processor_token_failed"
	LinkErrorFundingSourceCreation      LinkErrorKind = "funding_source_creation_failed"
	LinkErrorPersistence                LinkErrorKind = "persistence_error"
)

type linkErrorKindInfo struct {
	sentinel error
	category goerrors.Category
	textCode string
}

var linkErrorKinds = map[LinkErrorKind]linkErrorKindInfo{
	LinkErrorBadInput:                   {ErrLinkBadInput, goerrors.CategoryBadInput, ServiceErrorBadInput},
	LinkErrorCustomerProvisioningFailed: {ErrCustomerProvisioningFailed, goerrors.CategoryExternal, ServiceErrorCustomerProvisioningFailed},
	LinkErrorTokenExchangeFailed:        {ErrTokenExchangeFailed, goerrors.CategoryExternal, ServiceErrorTokenExchangeFailed},
	LinkErrorAccountListingFailed:       {ErrAccountListingFailed, goerrors.CategoryExternal, ServiceErrorAccountListingFailed},
	LinkErrorNoAccountsReturned:         {ErrNoAccountsReturned, goerrors.CategoryNotFound, ServiceErrorNoAccountsReturned},
	LinkErrorProcessorTokenFailed:       {ErrProcessorTokenFailed, goerrors.CategoryExternal, ServiceErrorProcessorTokenFailed},
	LinkErrorFundingSourceCreation:      {ErrFundingSourceCreation, goerrors.CategoryExternal, ServiceErrorFundingSourceFailed},
	LinkErrorPersistence:                {ErrPersistence, goerrors.CategoryInternal, ServiceErrorPersistence},
}

// LinkError is the tagged failure returned by LinkAccount. Cause messages are
// scrubbed of every secret the workflow handled before the error is built.
type LinkError struct {
	Kind  LinkErrorKind
	Stage LinkStage
	Cause error
}

func (e *LinkError) Error() string {
	if e == nil {
		return LinkFailedMessage
	}
	message := fmt.Sprintf("core: %s at %s: %s", LinkFailedMessage, e.Stage, e.Kind)
	if e.Cause != nil {
		message += ": " + e.Cause.Error()
	}
	return message
}

func (e *LinkError) Unwrap() []error {
	if e == nil {
		return nil
	}
	out := make([]error, 0, 2)
	if info, ok := linkErrorKinds[e.Kind]; ok {
		out = append(out, info.sentinel)
	}
	if e.Cause != nil {
		out = append(out, e.Cause)
	}
	return out
}

// ToServiceError renders the generic caller-facing envelope. Only the stage
// and kind travel as metadata.
func (e *LinkError) ToServiceError() *goerrors.Error {
	info, ok := linkErrorKinds[LinkErrorKind("")]
	if e != nil {
		info, ok = linkErrorKinds[e.Kind]
	}
	if !ok {
		info = linkErrorKindInfo{category: goerrors.CategoryInternal, textCode: ServiceErrorInternal}
	}
	mapped := goerrors.New(LinkFailedMessage, info.category).
		WithCode(serviceHTTPStatus(info.category)).
		WithTextCode(info.textCode)
	if e != nil {
		mapped.WithMetadata(map[string]any{
			"stage": string(e.Stage),
			"kind":  string(e.Kind),
		})
	}
	return mapped
}

func newLinkError(kind LinkErrorKind, stage LinkStage, cause error, secrets ...Secret) *LinkError {
	return &LinkError{
		Kind:  kind,
		Stage: stage,
		Cause: scrubError(cause, secrets...),
	}
}

type scrubbedError struct {
	message string
	cause   error
}

func (e *scrubbedError) Error() string { return e.message }

func (e *scrubbedError) Unwrap() error { return e.cause }

func scrubError(err error, secrets ...Secret) error {
	if err == nil {
		return nil
	}
	message := ScrubSecrets(err.Error(), secrets...)
	if message == err.Error() {
		return err
	}
	return &scrubbedError{message: message, cause: err}
}

// ScrubSecrets replaces every occurrence of the given secrets in message.
func ScrubSecrets(message string, secrets ...Secret) string {
	for _, secret := range secrets {
		raw := strings.TrimSpace(secret.Reveal())
		if raw == "" {
			continue
		}
		message = strings.ReplaceAll(message, raw, RedactedValue)
	}
	return message
}

func serviceErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var linkErr *LinkError
	if errors.As(err, &linkErr) {
		return linkErr.ToServiceError()
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureServiceErrorEnvelope(richErr)
	}

	switch {
	case errors.Is(err, ErrServiceNotConfigured):
		return newServiceError(err.Error(), goerrors.CategoryInternal, ServiceErrorInternal)
	case errors.Is(err, ErrBankAccountNotFound):
		return newServiceError(err.Error(), goerrors.CategoryNotFound, ServiceErrorNotFound)
	case errors.Is(err, ErrMalformedURL):
		return newServiceError(err.Error(), goerrors.CategoryBadInput, ServiceErrorMalformedURL)
	case errors.Is(err, ErrMalformedSharableID):
		return newServiceError(err.Error(), goerrors.CategoryBadInput, ServiceErrorMalformedSharableID)
	case errors.Is(err, ErrUserIDRequired),
		errors.Is(err, ErrPublicTokenRequired),
		errors.Is(err, ErrInconsistentCustomerRef):
		return newServiceError(err.Error(), goerrors.CategoryBadInput, ServiceErrorBadInput)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "rate limit"), strings.Contains(msg, "throttl"):
		return newServiceError(err.Error(), goerrors.CategoryRateLimit, ServiceErrorRateLimited)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"):
		return newServiceError(err.Error(), goerrors.CategoryBadInput, ServiceErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureServiceErrorEnvelope(mapped)
}

func newServiceError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureServiceErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureServiceErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = serviceHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultServiceTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultServiceTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ServiceErrorBadInput
	case goerrors.CategoryNotFound:
		return ServiceErrorNotFound
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return ServiceErrorUnauthorized
	case goerrors.CategoryRateLimit:
		return ServiceErrorRateLimited
	case goerrors.CategoryExternal:
		return ServiceErrorExternalFailure
	default:
		return ServiceErrorInternal
	}
}

func serviceHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
