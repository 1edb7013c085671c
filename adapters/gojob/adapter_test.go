package gojob

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-banklink/core"
	"github.com/goliatone/go-banklink/security"
	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	"github.com/goliatone/go-job/queue/worker"
	glog "github.com/goliatone/go-logger/glog"
)

func TestLinkAccountMessageRoundTrip(t *testing.T) {
	ctx := context.Background()
	secrets := testSecrets(t)
	user := core.UserIdentity{
		ID:                 "usr_1",
		FirstName:          "Ada",
		LastName:           "Lovelace",
		Email:              "ada@example.com",
		DateOfBirth:        "1990-12-10",
		SSN:                core.Secret("1234"),
		PaymentCustomerID:  "cus_1",
		PaymentCustomerURL: "https://api-sandbox.dwolla.com/customers/cus_1",
	}

	msg, err := NewLinkAccountMessage(ctx, secrets, user, " public-sandbox-1 ")
	if err != nil {
		t.Fatalf("new message: %v", err)
	}
	if msg.JobID != JobIDLinkAccount {
		t.Fatalf("expected job id %q, got %q", JobIDLinkAccount, msg.JobID)
	}
	if msg.DedupPolicy != job.DedupPolicyDrop {
		t.Fatalf("expected drop dedup policy, got %q", msg.DedupPolicy)
	}
	if msg.IdempotencyKey != core.PublicTokenKey(core.Secret("public-sandbox-1")) {
		t.Fatalf("expected idempotency key to be the public token digest")
	}
	if strings.Contains(msg.IdempotencyKey, "public-sandbox-1") {
		t.Fatalf("idempotency key must not carry the raw token")
	}

	decoded, publicToken, err := DecodeLinkAccountMessage(ctx, secrets, msg)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if publicToken != "public-sandbox-1" {
		t.Fatalf("unexpected public token %q", publicToken)
	}
	if decoded.ID != "usr_1" || decoded.Email != "ada@example.com" || decoded.SSN.Reveal() != "1234" {
		t.Fatalf("unexpected decoded user %#v", decoded)
	}
	if decoded.DateOfBirth != "1990-12-10" {
		t.Fatalf("expected date of birth to survive mapping, got %q", decoded.DateOfBirth)
	}
	if !decoded.HasPaymentCustomer() {
		t.Fatalf("expected payment customer to survive mapping")
	}
}

func TestLinkAccountMessage_SealsSecretsAtRest(t *testing.T) {
	ctx := context.Background()
	user := core.UserIdentity{ID: "usr_1", DateOfBirth: "1990-12-10", SSN: core.Secret("9876")}

	msg, err := NewLinkAccountMessage(ctx, testSecrets(t), user, "public-sandbox-1")
	if err != nil {
		t.Fatalf("new message: %v", err)
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, plaintext := range []string{"public-sandbox-1", `"9876"`, "1990-12-10"} {
		if strings.Contains(string(raw), plaintext) {
			t.Fatalf("expected %q to be sealed, got %s", plaintext, raw)
		}
	}
	for _, key := range []string{"public_token", "ssn", "date_of_birth"} {
		if _, ok := msg.Parameters[key]; ok {
			t.Fatalf("expected no plaintext %q parameter", key)
		}
	}

	other, err := security.NewAppKeySecretProviderFromString("another-test-key")
	if err != nil {
		t.Fatalf("other provider: %v", err)
	}
	if _, _, err := DecodeLinkAccountMessage(ctx, other, msg); !errors.Is(err, ErrInvalidLinkPayload) {
		t.Fatalf("expected foreign key to be rejected as invalid payload, got %v", err)
	}
}

func TestLinkAccountMessage_RequiresSecretProvider(t *testing.T) {
	ctx := context.Background()
	if _, err := NewLinkAccountMessage(ctx, nil, core.UserIdentity{ID: "usr_1"}, "public-1"); err == nil {
		t.Fatalf("expected missing secret provider to fail")
	}
	if _, _, err := DecodeLinkAccountMessage(ctx, nil, &job.ExecutionMessage{JobID: JobIDLinkAccount}); err == nil {
		t.Fatalf("expected missing secret provider to fail decode")
	}
}

func TestDecodeLinkAccountMessage_RejectsInvalidPayloads(t *testing.T) {
	cases := []*job.ExecutionMessage{
		nil,
		{JobID: "other.job", Parameters: map[string]any{"user_id": "u", paramPublicToken: "p"}},
		{JobID: JobIDLinkAccount, Parameters: map[string]any{"user_id": "u"}},
		{JobID: JobIDLinkAccount, Parameters: map[string]any{"user_id": "u", paramPublicToken: "public-plaintext"}},
	}
	secrets := testSecrets(t)
	for _, msg := range cases {
		if _, _, err := DecodeLinkAccountMessage(context.Background(), secrets, msg); !errors.Is(err, ErrInvalidLinkPayload) {
			t.Fatalf("expected invalid payload error, got %v", err)
		}
	}
}

func TestEnqueuerAdapter_ValidatesBeforeEnqueue(t *testing.T) {
	ctx := context.Background()
	enqueuer := &stubQueueEnqueuer{}
	adapter := NewEnqueuerAdapter(enqueuer, testSecrets(t))

	if err := adapter.EnqueueLinkAccount(ctx, core.UserIdentity{ID: "usr_1"}, ""); err == nil {
		t.Fatalf("expected missing public token to fail")
	}
	if enqueuer.last != nil {
		t.Fatalf("expected nothing enqueued for an invalid request")
	}
	if err := adapter.EnqueueLinkAccount(ctx, core.UserIdentity{ID: "usr_1"}, "public-1"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if enqueuer.last == nil || enqueuer.last.JobID != JobIDLinkAccount {
		t.Fatalf("expected link job to be enqueued")
	}

	enqueuer.err = errors.New("queue unavailable")
	if err := adapter.EnqueueLinkAccount(ctx, core.UserIdentity{ID: "usr_1"}, "public-2"); !errors.Is(err, enqueuer.err) {
		t.Fatalf("expected enqueue error to surface, got %v", err)
	}
}

func TestNackRetryPolicyBoundaries(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3, MaxDelay: 10 * time.Second, DeadLetterOnMax: true}

	first := policy.NormalizeAttempt(queue.NackOptions{
		Disposition: queue.NackDispositionRetry,
		Delay:       30 * time.Second,
		Reason:      " transient ",
	}, 1)
	if first.Delay != 10*time.Second {
		t.Fatalf("expected delay to be bounded, got %s", first.Delay)
	}
	if first.Disposition != queue.NackDispositionRetry || first.Reason != "transient" {
		t.Fatalf("expected retry before max attempts, got %#v", first)
	}

	if defaulted := policy.NormalizeAttempt(queue.NackOptions{}, 1); defaulted.Disposition != queue.NackDispositionRetry {
		t.Fatalf("expected empty disposition to default to retry, got %#v", defaulted)
	}

	last := policy.NormalizeAttempt(queue.NackOptions{Disposition: queue.NackDispositionRetry, Delay: time.Second}, 3)
	if last.Disposition != queue.NackDispositionDeadLetter || last.Delay != 0 {
		t.Fatalf("expected dead letter at max attempts, got %#v", last)
	}

	failed := RetryPolicy{MaxAttempts: 2}.NormalizeAttempt(queue.NackOptions{Disposition: queue.NackDispositionRetry}, 2)
	if failed.Disposition != queue.NackDispositionFailed {
		t.Fatalf("expected failed disposition without dead lettering, got %#v", failed)
	}

	explicit := policy.NormalizeAttempt(queue.NackOptions{Disposition: queue.NackDispositionDeadLetter, Delay: time.Second}, 1)
	if explicit.Disposition != queue.NackDispositionDeadLetter || explicit.Delay != 0 {
		t.Fatalf("expected explicit dead letter to be kept, got %#v", explicit)
	}

	link := LinkRetryPolicy().NormalizeAttempt(queue.NackOptions{
		Disposition: queue.NackDispositionRetry,
		Reason:      "token_exchange_failed",
	}, 1)
	if link.Disposition != queue.NackDispositionDeadLetter {
		t.Fatalf("expected link policy to dead letter on first failure, got %#v", link)
	}
}

func TestLinkRunner_AcksSuccessfulLink(t *testing.T) {
	ctx := context.Background()
	secrets := testSecrets(t)
	svc := &stubLinkingService{}
	delivery := &stubQueueDelivery{msg: mustLinkMessage(t, secrets, core.UserIdentity{ID: "usr_1"}, "public-1")}

	runner := NewLinkRunner(svc, secrets, LinkRetryPolicy(), nil)
	if err := runner.RunOnce(ctx, &stubQueueDequeuer{delivery: delivery}); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if !delivery.acked || delivery.nacked {
		t.Fatalf("expected ack only, got acked=%v nacked=%v", delivery.acked, delivery.nacked)
	}
	if svc.lastUser.ID != "usr_1" || svc.lastToken != "public-1" {
		t.Fatalf("unexpected link call %q %q", svc.lastUser.ID, svc.lastToken)
	}
}

func TestLinkRunner_DeadLettersFailedLinkWithoutRetry(t *testing.T) {
	ctx := context.Background()
	secrets := testSecrets(t)
	svc := &stubLinkingService{err: &core.LinkError{Kind: core.LinkErrorTokenExchangeFailed, Stage: core.LinkStageTokenExchanged}}
	delivery := &stubQueueDelivery{msg: mustLinkMessage(t, secrets, core.UserIdentity{ID: "usr_1"}, "public-1")}

	err := NewLinkRunner(svc, secrets, LinkRetryPolicy(), glog.Nop()).Handle(ctx, delivery, 1)
	if !errors.Is(err, core.ErrTokenExchangeFailed) {
		t.Fatalf("expected link error to surface, got %v", err)
	}
	if delivery.acked {
		t.Fatalf("expected no ack on failure")
	}
	if delivery.nackOpts.Disposition != queue.NackDispositionDeadLetter {
		t.Fatalf("expected dead letter without retry, got %#v", delivery.nackOpts)
	}
	if delivery.nackOpts.Reason != string(core.LinkErrorTokenExchangeFailed) {
		t.Fatalf("expected error kind as reason, got %q", delivery.nackOpts.Reason)
	}
}

func TestLinkRunner_DeadLettersInvalidPayload(t *testing.T) {
	svc := &stubLinkingService{}
	delivery := &stubQueueDelivery{msg: &job.ExecutionMessage{JobID: JobIDLinkAccount}}

	err := NewLinkRunner(svc, testSecrets(t), RetryPolicy{}, nil).Handle(context.Background(), delivery, 1)
	if !errors.Is(err, ErrInvalidLinkPayload) {
		t.Fatalf("expected invalid payload error, got %v", err)
	}
	if svc.calls != 0 {
		t.Fatalf("expected service not to be called")
	}
	if delivery.nackOpts.Disposition != queue.NackDispositionDeadLetter || delivery.nackOpts.Reason != reasonInvalidPayload {
		t.Fatalf("expected dead letter for invalid payload, got %#v", delivery.nackOpts)
	}
}

func TestLinkRunner_JoinsNackFailure(t *testing.T) {
	secrets := testSecrets(t)
	svc := &stubLinkingService{err: &core.LinkError{Kind: core.LinkErrorTokenExchangeFailed, Stage: core.LinkStageTokenExchanged}}
	nackErr := errors.New("broker closed")
	delivery := &stubQueueDelivery{msg: mustLinkMessage(t, secrets, core.UserIdentity{ID: "usr_1"}, "public-1"), nackErr: nackErr}

	err := NewLinkRunner(svc, secrets, LinkRetryPolicy(), nil).Handle(context.Background(), delivery, 1)
	if !errors.Is(err, core.ErrTokenExchangeFailed) || !errors.Is(err, nackErr) {
		t.Fatalf("expected link and nack errors to be joined, got %v", err)
	}
}

func TestLoggingHook_ReportsEvents(t *testing.T) {
	logger := &capturingLogger{}
	hook := NewLoggingHook(logger)
	evt := worker.Event{
		Message:  &job.ExecutionMessage{JobID: JobIDLinkAccount, IdempotencyKey: "idem-1"},
		Attempt:  2,
		Delay:    5 * time.Second,
		Err:      errors.New("retry"),
		Duration: 250 * time.Millisecond,
	}

	hook.OnRetry(context.Background(), evt)
	if logger.lastMessage != "job retry scheduled" {
		t.Fatalf("unexpected message %q", logger.lastMessage)
	}
	fields := map[string]any{}
	for i := 0; i+1 < len(logger.lastArgs); i += 2 {
		fields[logger.lastArgs[i].(string)] = logger.lastArgs[i+1]
	}
	if fields["job_id"] != JobIDLinkAccount || fields["attempt"] != 2 {
		t.Fatalf("unexpected fields %#v", fields)
	}
	if fields["delay_ms"] != int64(5000) || fields["error"] != "retry" {
		t.Fatalf("expected delay and error fields, got %#v", fields)
	}
}

func testSecrets(t *testing.T) core.SecretProvider {
	t.Helper()
	provider, err := security.NewAppKeySecretProviderFromString("gojob-test-key", security.WithKeyID("banklink-jobs"))
	if err != nil {
		t.Fatalf("secret provider: %v", err)
	}
	return provider
}

func mustLinkMessage(t *testing.T, secrets core.SecretProvider, user core.UserIdentity, publicToken string) *job.ExecutionMessage {
	t.Helper()
	msg, err := NewLinkAccountMessage(context.Background(), secrets, user, publicToken)
	if err != nil {
		t.Fatalf("new message: %v", err)
	}
	return msg
}

type stubLinkingService struct {
	err       error
	calls     int
	lastUser  core.UserIdentity
	lastToken string
}

func (s *stubLinkingService) LinkAccount(_ context.Context, user core.UserIdentity, publicToken string) (core.LinkCompletion, error) {
	s.calls++
	s.lastUser = user
	s.lastToken = publicToken
	if s.err != nil {
		return core.LinkCompletion{}, s.err
	}
	return core.LinkCompletion{Status: core.LinkStatusComplete}, nil
}

func (s *stubLinkingService) CreateLinkToken(context.Context, core.UserIdentity) (core.LinkToken, error) {
	return core.LinkToken{}, nil
}

type stubQueueEnqueuer struct {
	last *job.ExecutionMessage
	err  error
}

func (s *stubQueueEnqueuer) Enqueue(_ context.Context, msg *job.ExecutionMessage) (queue.EnqueueReceipt, error) {
	if s.err != nil {
		return queue.EnqueueReceipt{}, s.err
	}
	s.last = msg
	return queue.EnqueueReceipt{DispatchID: "dispatch-1", EnqueuedAt: time.Now()}, nil
}

type stubQueueDequeuer struct {
	delivery queue.Delivery
}

func (s *stubQueueDequeuer) Dequeue(context.Context) (queue.Delivery, error) {
	return s.delivery, nil
}

type stubQueueDelivery struct {
	msg      *job.ExecutionMessage
	acked    bool
	nacked   bool
	nackOpts queue.NackOptions
	nackErr  error
}

func (s *stubQueueDelivery) Message() *job.ExecutionMessage {
	return s.msg
}

func (s *stubQueueDelivery) Ack(context.Context) error {
	s.acked = true
	return nil
}

func (s *stubQueueDelivery) Nack(_ context.Context, opts queue.NackOptions) error {
	s.nacked = true
	s.nackOpts = opts
	return s.nackErr
}

type capturingLogger struct {
	lastMessage string
	lastArgs    []any
}

func (l *capturingLogger) capture(msg string, args ...any) {
	l.lastMessage = msg
	l.lastArgs = append([]any(nil), args...)
}

func (l *capturingLogger) Trace(msg string, args ...any) { l.capture(msg, args...) }
func (l *capturingLogger) Debug(msg string, args ...any) { l.capture(msg, args...) }
func (l *capturingLogger) Info(msg string, args ...any)  { l.capture(msg, args...) }
func (l *capturingLogger) Warn(msg string, args ...any)  { l.capture(msg, args...) }
func (l *capturingLogger) Error(msg string, args ...any) { l.capture(msg, args...) }
func (l *capturingLogger) Fatal(msg string, args ...any) { l.capture(msg, args...) }

func (l *capturingLogger) WithContext(context.Context) glog.Logger {
	return l
}
