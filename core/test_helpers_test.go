package core

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"testing"
)

type fakeAggregator struct {
	mu sync.Mutex

	exchange       ExchangeResult
	exchangeErr    error
	accounts       []AccountSummary
	accountsErr    error
	processorToken Secret
	processorErr   error
	linkToken      LinkToken
	linkTokenErr   error

	exchangeCalls  int
	listCalls      int
	processorCalls int
	linkTokenReqs  []LinkTokenRequest
	consumed       map[string]bool
}

func newFakeAggregator() *fakeAggregator {
	return &fakeAggregator{
		exchange: ExchangeResult{AccessToken: "access-sandbox-1", ItemID: "item_1"},
		accounts: []AccountSummary{
			{AccountID: "acc_1", Name: "Checking", Mask: "0000", Type: "depository", Subtype: "checking"},
			{AccountID: "acc_2", Name: "Savings", Mask: "1111", Type: "depository", Subtype: "savings"},
		},
		processorToken: "processor-sandbox-1",
		linkToken:      LinkToken{Token: "link-sandbox-1", RequestID: "req_1"},
		consumed:       map[string]bool{},
	}
}

func (a *fakeAggregator) ExchangePublicToken(_ context.Context, publicToken Secret) (ExchangeResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.exchangeCalls++
	if a.exchangeErr != nil {
		return ExchangeResult{}, a.exchangeErr
	}
	if a.consumed[publicToken.Reveal()] {
		return ExchangeResult{}, fmt.Errorf("aggregator: public token %s already consumed", publicToken.Reveal())
	}
	a.consumed[publicToken.Reveal()] = true
	return a.exchange, nil
}

func (a *fakeAggregator) ListAccounts(context.Context, Secret) ([]AccountSummary, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listCalls++
	if a.accountsErr != nil {
		return nil, a.accountsErr
	}
	return append([]AccountSummary(nil), a.accounts...), nil
}

func (a *fakeAggregator) CreateProcessorToken(context.Context, Secret, string) (Secret, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.processorCalls++
	if a.processorErr != nil {
		return "", a.processorErr
	}
	return a.processorToken, nil
}

func (a *fakeAggregator) CreateLinkToken(_ context.Context, req LinkTokenRequest) (LinkToken, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.linkTokenReqs = append(a.linkTokenReqs, req)
	if a.linkTokenErr != nil {
		return LinkToken{}, a.linkTokenErr
	}
	return a.linkToken, nil
}

type fakeProcessor struct {
	mu sync.Mutex

	customerURL      string
	customerErr      error
	fundingSourceURL string
	fundingErr       error

	profiles      []CustomerProfile
	fundingInputs []CreateFundingSourceInput
	customerCalls int
	fundingCalls  int
}

func newFakeProcessor() *fakeProcessor {
	return &fakeProcessor{
		customerURL:      "https://api-sandbox.dwolla.com/customers/cus_123",
		fundingSourceURL: "https://api-sandbox.dwolla.com/funding-sources/fs_9",
	}
}

func (p *fakeProcessor) CreateCustomer(_ context.Context, profile CustomerProfile) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.customerCalls++
	p.profiles = append(p.profiles, profile)
	if p.customerErr != nil {
		return "", p.customerErr
	}
	return p.customerURL, nil
}

func (p *fakeProcessor) CreateFundingSource(_ context.Context, in CreateFundingSourceInput) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fundingCalls++
	p.fundingInputs = append(p.fundingInputs, in)
	if p.fundingErr != nil {
		return "", p.fundingErr
	}
	return p.fundingSourceURL, nil
}

// base64Codec mirrors the identifier package without importing it.
type base64Codec struct{}

func (base64Codec) Encode(rawID string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(rawID))
}

func (base64Codec) Decode(sharableID string) (string, error) {
	decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(sharableID))
	if err != nil || len(decoded) == 0 {
		return "", fmt.Errorf("%w: %q", ErrMalformedSharableID, sharableID)
	}
	return string(decoded), nil
}

func (base64Codec) ExtractCustomerID(customerURL string) (string, error) {
	if !strings.HasPrefix(customerURL, "https://") {
		return "", fmt.Errorf("%w: %q", ErrMalformedURL, customerURL)
	}
	segments := strings.Split(strings.TrimRight(customerURL, "/"), "/")
	last := segments[len(segments)-1]
	if last == "" || len(segments) < 4 {
		return "", fmt.Errorf("%w: %q", ErrMalformedURL, customerURL)
	}
	return last, nil
}

type failingStore struct {
	calls int
}

func (s *failingStore) Create(context.Context, BankAccountRecord) (StoredBankAccount, error) {
	s.calls++
	return StoredBankAccount{}, fmt.Errorf("store: connection refused")
}

type transitionRecorder struct {
	mu          sync.Mutex
	transitions []LinkTransition
}

func (r *transitionRecorder) OnTransition(_ context.Context, transition LinkTransition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transitions = append(r.transitions, transition)
}

func (r *transitionRecorder) stages() []LinkStage {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]LinkStage, 0, len(r.transitions))
	for _, transition := range r.transitions {
		out = append(out, transition.To)
	}
	return out
}

type stubLogger struct{}

func (stubLogger) Trace(string, ...any) {}
func (stubLogger) Debug(string, ...any) {}
func (stubLogger) Info(string, ...any)  {}
func (stubLogger) Warn(string, ...any)  {}
func (stubLogger) Error(string, ...any) {}
func (stubLogger) Fatal(string, ...any) {}
func (s stubLogger) WithContext(context.Context) Logger {
	return s
}

type stubLoggerProvider struct {
	logger Logger
}

func (s stubLoggerProvider) GetLogger(string) Logger {
	return s.logger
}

type mapRawLoader struct {
	values map[string]any
}

func (l mapRawLoader) LoadRaw(context.Context) (map[string]any, error) {
	out := make(map[string]any, len(l.values))
	for key, value := range l.values {
		out[key] = value
	}
	return out, nil
}

type linkFixture struct {
	aggregator *fakeAggregator
	processor  *fakeProcessor
	store      *MemoryBankAccountStore
	observer   *transitionRecorder
	logger     *captureLogger
	metrics    *captureMetricsRecorder
	service    *Service
}

func newLinkFixture(t *testing.T, opts ...Option) *linkFixture {
	t.Helper()
	fixture := &linkFixture{
		aggregator: newFakeAggregator(),
		processor:  newFakeProcessor(),
		store:      NewMemoryBankAccountStore(),
		observer:   &transitionRecorder{},
		logger:     newCaptureLogger(),
		metrics:    &captureMetricsRecorder{},
	}
	base := []Option{
		WithAggregator(fixture.aggregator),
		WithPaymentProcessor(fixture.processor),
		WithIdentifierCodec(base64Codec{}),
		WithBankAccountStore(fixture.store),
		WithLinkObserver(fixture.observer),
		WithLoggerProvider(stubLoggerProvider{logger: fixture.logger}),
		WithLogger(fixture.logger),
		WithMetricsRecorder(fixture.metrics),
	}
	svc, err := NewService(DefaultConfig(), append(base, opts...)...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	fixture.service = svc
	return fixture
}

func testUser() UserIdentity {
	return UserIdentity{
		ID:          "usr_1",
		FirstName:   "Ada",
		LastName:    "Lovelace",
		Email:       "ada@example.com",
		Address1:    "1 Analytical Way",
		City:        "London",
		State:       "NY",
		PostalCode:  "10001",
		DateOfBirth: "1990-12-10",
		SSN:         "1234",
	}
}
