package gojob

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-banklink/core"
	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	"github.com/goliatone/go-job/queue/worker"
	glog "github.com/goliatone/go-logger/glog"
)

const (
	JobIDLinkAccount = "banklink.link_account"

	reasonInvalidPayload = "invalid_payload"
	reasonLinkFailed     = "link_failed"
)

// Parameters holding sealed envelopes instead of plaintext.
const (
	paramPublicToken = "public_token_sealed"
	paramSSN         = "ssn_sealed"
	paramDateOfBirth = "date_of_birth_sealed"
)

var ErrInvalidLinkPayload = errors.New("gojob: invalid link account payload")

// RetryPolicy bounds nack behavior. Linking is not idempotent upstream so the
// default policy never retries.
type RetryPolicy struct {
	MaxAttempts     int
	MaxDelay        time.Duration
	DeadLetterOnMax bool
}

func LinkRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 1, DeadLetterOnMax: true}
}

// NormalizeAttempt enforces bounded retry behavior for a nack operation.
func (p RetryPolicy) NormalizeAttempt(opts queue.NackOptions, attempt int) queue.NackOptions {
	out := opts
	out.Reason = strings.TrimSpace(out.Reason)
	if out.Delay < 0 {
		out.Delay = 0
	}
	if p.MaxDelay > 0 && out.Delay > p.MaxDelay {
		out.Delay = p.MaxDelay
	}
	if out.Disposition == "" {
		out.Disposition = queue.NackDispositionRetry
	}
	if out.Disposition != queue.NackDispositionRetry {
		out.Delay = 0
		return out
	}
	if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
		out.Delay = 0
		if p.DeadLetterOnMax {
			out.Disposition = queue.NackDispositionDeadLetter
		} else {
			out.Disposition = queue.NackDispositionFailed
		}
	}
	return out
}

// NewLinkAccountMessage packs a link request as a go-job execution message.
// The public token and identity secrets are sealed with secrets so a durable
// queue never stores them in the clear. The idempotency key is the public
// token digest.
func NewLinkAccountMessage(
	ctx context.Context,
	secrets core.SecretProvider,
	user core.UserIdentity,
	publicToken string,
) (*job.ExecutionMessage, error) {
	if secrets == nil {
		return nil, fmt.Errorf("gojob: secret provider is not configured")
	}
	publicToken = strings.TrimSpace(publicToken)
	params := map[string]any{
		"user_id":              strings.TrimSpace(user.ID),
		"first_name":           user.FirstName,
		"last_name":            user.LastName,
		"email":                user.Email,
		"address1":             user.Address1,
		"city":                 user.City,
		"state":                user.State,
		"postal_code":          user.PostalCode,
		"payment_customer_id":  user.PaymentCustomerID,
		"payment_customer_url": user.PaymentCustomerURL,
	}
	sealed := []struct {
		key   string
		value string
	}{
		{paramPublicToken, publicToken},
		{paramSSN, user.SSN.Reveal()},
		{paramDateOfBirth, user.DateOfBirth},
	}
	for _, field := range sealed {
		if strings.TrimSpace(field.value) == "" {
			continue
		}
		envelope, err := secrets.Encrypt(ctx, []byte(field.value))
		if err != nil {
			return nil, fmt.Errorf("gojob: seal %s: %w", field.key, err)
		}
		params[field.key] = string(envelope)
	}
	return &job.ExecutionMessage{
		JobID:          JobIDLinkAccount,
		ScriptPath:     JobIDLinkAccount,
		Parameters:     params,
		IdempotencyKey: core.PublicTokenKey(core.Secret(publicToken)),
		DedupPolicy:    job.DedupPolicyDrop,
	}, nil
}

// DecodeLinkAccountMessage reverses NewLinkAccountMessage.
func DecodeLinkAccountMessage(
	ctx context.Context,
	secrets core.SecretProvider,
	msg *job.ExecutionMessage,
) (core.UserIdentity, string, error) {
	if secrets == nil {
		return core.UserIdentity{}, "", fmt.Errorf("gojob: secret provider is not configured")
	}
	if msg == nil {
		return core.UserIdentity{}, "", fmt.Errorf("%w: message is nil", ErrInvalidLinkPayload)
	}
	if strings.TrimSpace(msg.JobID) != JobIDLinkAccount {
		return core.UserIdentity{}, "", fmt.Errorf("%w: unexpected job %q", ErrInvalidLinkPayload, msg.JobID)
	}
	params := msg.Parameters
	publicToken, err := openParam(ctx, secrets, params, paramPublicToken)
	if err != nil {
		return core.UserIdentity{}, "", err
	}
	ssn, err := openParam(ctx, secrets, params, paramSSN)
	if err != nil {
		return core.UserIdentity{}, "", err
	}
	dateOfBirth, err := openParam(ctx, secrets, params, paramDateOfBirth)
	if err != nil {
		return core.UserIdentity{}, "", err
	}
	user := core.UserIdentity{
		ID:                 stringParam(params, "user_id"),
		FirstName:          stringParam(params, "first_name"),
		LastName:           stringParam(params, "last_name"),
		Email:              stringParam(params, "email"),
		Address1:           stringParam(params, "address1"),
		City:               stringParam(params, "city"),
		State:              stringParam(params, "state"),
		PostalCode:         stringParam(params, "postal_code"),
		DateOfBirth:        dateOfBirth,
		SSN:                core.Secret(ssn),
		PaymentCustomerID:  stringParam(params, "payment_customer_id"),
		PaymentCustomerURL: stringParam(params, "payment_customer_url"),
	}
	if user.ID == "" || publicToken == "" {
		return core.UserIdentity{}, "", fmt.Errorf("%w: user id and public token are required", ErrInvalidLinkPayload)
	}
	return user, publicToken, nil
}

func openParam(ctx context.Context, secrets core.SecretProvider, params map[string]any, key string) (string, error) {
	envelope := stringParam(params, key)
	if envelope == "" {
		return "", nil
	}
	plaintext, err := secrets.Decrypt(ctx, []byte(envelope))
	if err != nil {
		return "", fmt.Errorf("%w: open %s: %v", ErrInvalidLinkPayload, key, err)
	}
	return strings.TrimSpace(string(plaintext)), nil
}

type EnqueuerAdapter struct {
	enqueuer queue.Enqueuer
	secrets  core.SecretProvider
}

func NewEnqueuerAdapter(enqueuer queue.Enqueuer, secrets core.SecretProvider) *EnqueuerAdapter {
	return &EnqueuerAdapter{enqueuer: enqueuer, secrets: secrets}
}

func (a *EnqueuerAdapter) EnqueueLinkAccount(ctx context.Context, user core.UserIdentity, publicToken string) error {
	if a == nil || a.enqueuer == nil {
		return fmt.Errorf("gojob: enqueuer is not configured")
	}
	if err := (core.LinkSession{User: user, PublicToken: core.Secret(strings.TrimSpace(publicToken))}).Validate(); err != nil {
		return err
	}
	msg, err := NewLinkAccountMessage(ctx, a.secrets, user, publicToken)
	if err != nil {
		return err
	}
	_, err = a.enqueuer.Enqueue(ctx, msg)
	return err
}

// LinkRunner executes dequeued link jobs against the linking service. A
// delivery is acked on success and nacked through the retry policy
// otherwise.
type LinkRunner struct {
	service core.LinkingService
	secrets core.SecretProvider
	policy  RetryPolicy
	logger  glog.Logger
}

func NewLinkRunner(service core.LinkingService, secrets core.SecretProvider, policy RetryPolicy, logger glog.Logger) *LinkRunner {
	if logger == nil {
		logger = glog.Nop()
	}
	return &LinkRunner{service: service, secrets: secrets, policy: policy, logger: logger}
}

func (r *LinkRunner) Handle(ctx context.Context, delivery queue.Delivery, attempt int) error {
	if r == nil || r.service == nil {
		return fmt.Errorf("gojob: linking service is not configured")
	}
	if delivery == nil {
		return fmt.Errorf("gojob: delivery is required")
	}

	user, publicToken, err := DecodeLinkAccountMessage(ctx, r.secrets, delivery.Message())
	if err != nil {
		r.logger.Error("link job rejected", "job_id", JobIDLinkAccount, "error", err.Error())
		return r.nack(ctx, delivery, queue.NackOptions{
			Disposition: queue.NackDispositionDeadLetter,
			Reason:      reasonInvalidPayload,
		}, attempt, err)
	}

	if _, err := r.service.LinkAccount(ctx, user, publicToken); err != nil {
		reason := reasonLinkFailed
		var linkErr *core.LinkError
		if errors.As(err, &linkErr) {
			reason = string(linkErr.Kind)
		}
		r.logger.Error("link job failed",
			"job_id", JobIDLinkAccount,
			"user_id", user.ID,
			"attempt", attempt,
			"reason", reason,
		)
		return r.nack(ctx, delivery, queue.NackOptions{
			Disposition: queue.NackDispositionRetry,
			Reason:      reason,
		}, attempt, err)
	}

	r.logger.Info("link job completed", "job_id", JobIDLinkAccount, "user_id", user.ID, "attempt", attempt)
	return delivery.Ack(ctx)
}

// RunOnce dequeues a single delivery and handles it.
func (r *LinkRunner) RunOnce(ctx context.Context, dequeuer queue.Dequeuer) error {
	if dequeuer == nil {
		return fmt.Errorf("gojob: dequeuer is not configured")
	}
	delivery, err := dequeuer.Dequeue(ctx)
	if err != nil {
		return err
	}
	return r.Handle(ctx, delivery, 1)
}

func (r *LinkRunner) nack(
	ctx context.Context,
	delivery queue.Delivery,
	opts queue.NackOptions,
	attempt int,
	cause error,
) error {
	if err := delivery.Nack(ctx, r.policy.NormalizeAttempt(opts, attempt)); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}

// LoggingHook reports worker lifecycle events through glog.
type LoggingHook struct {
	logger glog.Logger
}

func NewLoggingHook(logger glog.Logger) *LoggingHook {
	if logger == nil {
		logger = glog.Nop()
	}
	return &LoggingHook{logger: logger}
}

func (h *LoggingHook) OnStart(_ context.Context, event worker.Event) {
	h.logger.Debug("job started", eventFields(event)...)
}

func (h *LoggingHook) OnSuccess(_ context.Context, event worker.Event) {
	h.logger.Info("job succeeded", eventFields(event)...)
}

func (h *LoggingHook) OnFailure(_ context.Context, event worker.Event) {
	h.logger.Error("job failed", eventFields(event)...)
}

func (h *LoggingHook) OnRetry(_ context.Context, event worker.Event) {
	h.logger.Warn("job retry scheduled", eventFields(event)...)
}

func eventFields(event worker.Event) []any {
	message := event.Message
	if message == nil && event.Delivery != nil {
		message = event.Delivery.Message()
	}
	fields := []any{"attempt", event.Attempt, "duration_ms", event.Duration.Milliseconds()}
	if message != nil {
		fields = append(fields, "job_id", message.JobID, "idempotency_key", message.IdempotencyKey)
	}
	if event.Delay > 0 {
		fields = append(fields, "delay_ms", event.Delay.Milliseconds())
	}
	if event.Err != nil {
		fields = append(fields, "error", event.Err.Error())
	}
	return fields
}

func stringParam(params map[string]any, key string) string {
	if len(params) == 0 {
		return ""
	}
	value, ok := params[key]
	if !ok || value == nil {
		return ""
	}
	if text, ok := value.(string); ok {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(fmt.Sprint(value))
}

var _ worker.Hook = (*LoggingHook)(nil)
