package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type TransportRequest struct {
	Method               string
	URL                  string
	Headers              map[string]string
	Query                map[string]string
	Body                 []byte
	Metadata             map[string]any
	Timeout              time.Duration
	MaxResponseBodyBytes int64
	Idempotency          string
}

type TransportResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
	Metadata   map[string]any
}

type TransportAdapter interface {
	Kind() string
	Do(ctx context.Context, req TransportRequest) (TransportResponse, error)
}

// PaymentProcessor is the customer and funding-source registry.
type PaymentProcessor interface {
	CreateCustomer(ctx context.Context, profile CustomerProfile) (string, error)
	CreateFundingSource(ctx context.Context, in CreateFundingSourceInput) (string, error)
}

// Aggregator is the bank-data provider that owns items and access tokens.
type Aggregator interface {
	ExchangePublicToken(ctx context.Context, publicToken Secret) (ExchangeResult, error)
	ListAccounts(ctx context.Context, accessToken Secret) ([]AccountSummary, error)
	CreateProcessorToken(ctx context.Context, accessToken Secret, accountID string) (Secret, error)
}

type LinkTokenIssuer interface {
	CreateLinkToken(ctx context.Context, req LinkTokenRequest) (LinkToken, error)
}

type IdentifierCodec interface {
	Encode(rawID string) string
	Decode(sharableID string) (string, error)
	ExtractCustomerID(customerURL string) (string, error)
}

type BankAccountStore interface {
	Create(ctx context.Context, record BankAccountRecord) (StoredBankAccount, error)
}

// BankAccountReader results never carry the access token.
type BankAccountReader interface {
	ListByUser(ctx context.Context, userID string) ([]StoredBankAccount, error)
	GetBySharableID(ctx context.Context, sharableID string) (StoredBankAccount, error)
}

// PublicTokenLedger claims single-use public tokens. Claim returns false when
// the token was already submitted inside the ledger window.
type PublicTokenLedger interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

type SecretProvider interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

type LinkingService interface {
	LinkAccount(ctx context.Context, user UserIdentity, publicToken string) (LinkCompletion, error)
	CreateLinkToken(ctx context.Context, user UserIdentity) (LinkToken, error)
}

type LinkedAccountQueries interface {
	ListLinkedAccounts(ctx context.Context, userID string) ([]LinkedAccountView, error)
	GetLinkedAccount(ctx context.Context, sharableID string) (LinkedAccountView, error)
}
