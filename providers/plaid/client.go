package plaid

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-banklink/core"
	"github.com/goliatone/go-banklink/transport"
)

const (
	ProviderID = "plaid"

	SandboxURL     = "https://sandbox.plaid.com"
	DevelopmentURL = "https://development.plaid.com"
	ProductionURL  = "https://production.plaid.com"

	APIVersion       = "2020-09-14"
	DefaultProcessor = "dwolla"
)

const (
	pathExchange       = "/item/public_token/exchange"
	pathAccounts       = "/accounts/get"
	pathProcessorToken = "/processor/token/create"
	pathLinkToken      = "/link/token/create"
)

type Config struct {
	BaseURL   string
	ClientID  string
	Secret    core.Secret
	Processor string
	Webhook   string
	Timeout   time.Duration
}

func DefaultConfig() Config {
	return Config{
		BaseURL:   SandboxURL,
		Processor: DefaultProcessor,
	}
}

// BaseURLForEnvironment maps sandbox, development or production to the
// matching API host.
func BaseURLForEnvironment(env string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "", "sandbox":
		return SandboxURL, nil
	case "development":
		return DevelopmentURL, nil
	case "production":
		return ProductionURL, nil
	default:
		return "", fmt.Errorf("plaid: unknown environment %q", env)
	}
}

// Client calls the Plaid REST API. It is safe for concurrent use.
type Client struct {
	config    Config
	transport core.TransportAdapter
}

func New(cfg Config, adapter core.TransportAdapter) (*Client, error) {
	defaults := DefaultConfig()
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaults.BaseURL
	}
	cfg.ClientID = strings.TrimSpace(cfg.ClientID)
	cfg.Processor = strings.TrimSpace(cfg.Processor)
	if cfg.Processor == "" {
		cfg.Processor = defaults.Processor
	}
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("plaid: client id is required")
	}
	if cfg.Secret.IsZero() {
		return nil, fmt.Errorf("plaid: secret is required")
	}
	if adapter == nil {
		adapter = transport.NewRESTAdapter(nil)
	}
	return &Client{config: cfg, transport: adapter}, nil
}

type exchangeResponse struct {
	AccessToken string `json:"access_token"`
	ItemID      string `json:"item_id"`
	RequestID   string `json:"request_id"`
}

func (c *Client) ExchangePublicToken(ctx context.Context, publicToken core.Secret) (core.ExchangeResult, error) {
	if publicToken.IsZero() {
		return core.ExchangeResult{}, core.ErrPublicTokenRequired
	}
	var out exchangeResponse
	if err := c.post(ctx, pathExchange, map[string]any{"public_token": publicToken.Reveal()}, &out); err != nil {
		return core.ExchangeResult{}, err
	}
	return core.ExchangeResult{
		AccessToken: core.Secret(strings.TrimSpace(out.AccessToken)),
		ItemID:      strings.TrimSpace(out.ItemID),
	}, nil
}

type accountsResponse struct {
	Accounts []struct {
		AccountID string `json:"account_id"`
		Name      string `json:"name"`
		Mask      string `json:"mask"`
		Type      string `json:"type"`
		Subtype   string `json:"subtype"`
	} `json:"accounts"`
	RequestID string `json:"request_id"`
}

// ListAccounts returns accounts in the order Plaid reports them.
func (c *Client) ListAccounts(ctx context.Context, accessToken core.Secret) ([]core.AccountSummary, error) {
	if accessToken.IsZero() {
		return nil, fmt.Errorf("plaid: access token is required")
	}
	var out accountsResponse
	if err := c.post(ctx, pathAccounts, map[string]any{"access_token": accessToken.Reveal()}, &out); err != nil {
		return nil, err
	}
	accounts := make([]core.AccountSummary, 0, len(out.Accounts))
	for _, account := range out.Accounts {
		accounts = append(accounts, core.AccountSummary{
			AccountID: strings.TrimSpace(account.AccountID),
			Name:      strings.TrimSpace(account.Name),
			Mask:      strings.TrimSpace(account.Mask),
			Type:      strings.TrimSpace(account.Type),
			Subtype:   strings.TrimSpace(account.Subtype),
		})
	}
	return accounts, nil
}

type processorTokenResponse struct {
	ProcessorToken string `json:"processor_token"`
	RequestID      string `json:"request_id"`
}

func (c *Client) CreateProcessorToken(ctx context.Context, accessToken core.Secret, accountID string) (core.Secret, error) {
	accountID = strings.TrimSpace(accountID)
	if accessToken.IsZero() || accountID == "" {
		return "", fmt.Errorf("plaid: access token and account id are required")
	}
	var out processorTokenResponse
	err := c.post(ctx, pathProcessorToken, map[string]any{
		"access_token": accessToken.Reveal(),
		"account_id":   accountID,
		"processor":    c.config.Processor,
	}, &out)
	if err != nil {
		return "", err
	}
	return core.Secret(strings.TrimSpace(out.ProcessorToken)), nil
}

type linkTokenResponse struct {
	LinkToken  string `json:"link_token"`
	Expiration string `json:"expiration"`
	RequestID  string `json:"request_id"`
}

func (c *Client) CreateLinkToken(ctx context.Context, req core.LinkTokenRequest) (core.LinkToken, error) {
	userID := strings.TrimSpace(req.User.ID)
	if userID == "" {
		return core.LinkToken{}, core.ErrUserIDRequired
	}
	payload := map[string]any{
		"user":          map[string]any{"client_user_id": userID},
		"client_name":   strings.TrimSpace(req.ClientName),
		"products":      req.Products,
		"country_codes": req.CountryCodes,
		"language":      req.Language,
	}
	if webhook := strings.TrimSpace(c.config.Webhook); webhook != "" {
		payload["webhook"] = webhook
	}

	var out linkTokenResponse
	if err := c.post(ctx, pathLinkToken, payload, &out); err != nil {
		return core.LinkToken{}, err
	}
	token := core.LinkToken{
		Token:     strings.TrimSpace(out.LinkToken),
		RequestID: strings.TrimSpace(out.RequestID),
	}
	if parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(out.Expiration)); err == nil {
		expiration := parsed.UTC()
		token.Expiration = &expiration
	}
	return token, nil
}

func (c *Client) post(ctx context.Context, path string, payload map[string]any, out any) error {
	if c == nil || c.transport == nil {
		return fmt.Errorf("plaid: client is not configured")
	}
	body := make(map[string]any, len(payload)+2)
	for key, value := range payload {
		body[key] = value
	}
	body["client_id"] = c.config.ClientID
	body["secret"] = c.config.Secret.Reveal()

	req, err := transport.JSONRequest(http.MethodPost, c.config.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Headers["Plaid-Version"] = APIVersion
	req.Timeout = c.config.Timeout
	req.Metadata = map[string]any{"provider": ProviderID, "operation": path}

	res, err := c.transport.Do(ctx, req)
	if err != nil {
		return err
	}
	if !transport.IsSuccess(res.StatusCode) {
		return decodeAPIError(path, res)
	}
	return transport.DecodeJSON(res, out)
}

var (
	_ core.Aggregator      = (*Client)(nil)
	_ core.LinkTokenIssuer = (*Client)(nil)
)
