package dwolla

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-banklink/auth"
	"github.com/goliatone/go-banklink/core"
	"github.com/goliatone/go-banklink/transport"
	"github.com/google/uuid"
)

const (
	ProviderID = "dwolla"

	SandboxURL    = "https://api-sandbox.dwolla.com"
	ProductionURL = "https://api.dwolla.com"

	MediaType = "application/vnd.dwolla.v1.hal+json"
)

const (
	pathToken                  = "/token"
	pathCustomers              = "/customers"
	pathOnDemandAuthorizations = "/on-demand-authorizations"
	pathFundingSources         = "/customers/%s/funding-sources"
	linkOnDemandAuthorization  = "on-demand-authorization"
)

type Config struct {
	BaseURL string
	Key     string
	Secret  core.Secret
	Timeout time.Duration
}

func DefaultConfig() Config {
	return Config{BaseURL: SandboxURL}
}

func BaseURLForEnvironment(env string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "", "sandbox":
		return SandboxURL, nil
	case "production":
		return ProductionURL, nil
	default:
		return "", fmt.Errorf("dwolla: unknown environment %q", env)
	}
}

type TokenSource interface {
	Authorization(ctx context.Context) (string, error)
	Invalidate()
}

// Client provisions customers and funding sources. Each call is a single
// request; Dwolla idempotency keys are minted per call.
type Client struct {
	config    Config
	transport core.TransportAdapter
	tokens    TokenSource
	newKey    func() string
}

type Option func(*Client)

// WithTokenSource replaces the client-credentials source built from Config.
func WithTokenSource(source TokenSource) Option {
	return func(c *Client) {
		if source != nil {
			c.tokens = source
		}
	}
}

func WithIdempotencyKeys(next func() string) Option {
	return func(c *Client) {
		if next != nil {
			c.newKey = next
		}
	}
}

func New(cfg Config, adapter core.TransportAdapter, opts ...Option) (*Client, error) {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultConfig().BaseURL
	}
	cfg.Key = strings.TrimSpace(cfg.Key)
	if adapter == nil {
		adapter = transport.NewRESTAdapter(nil)
	}
	client := &Client{
		config:    cfg,
		transport: adapter,
		newKey:    uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	if client.tokens == nil {
		if cfg.Key == "" || cfg.Secret.IsZero() {
			return nil, fmt.Errorf("dwolla: key and secret are required")
		}
		client.tokens = auth.NewClientCredentialsTokenSource(auth.ClientCredentialsConfig{
			ClientID:     cfg.Key,
			ClientSecret: cfg.Secret.Reveal(),
			TokenURL:     cfg.BaseURL + pathToken,
		}, adapter)
	}
	return client, nil
}

type customerPayload struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Type        string `json:"type,omitempty"`
	Address1    string `json:"address1,omitempty"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	PostalCode  string `json:"postalCode,omitempty"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
	SSN         string `json:"ssn,omitempty"`
}

// CreateCustomer registers the profile and returns the customer URL from
// the Location header.
func (c *Client) CreateCustomer(ctx context.Context, profile core.CustomerProfile) (string, error) {
	if strings.TrimSpace(profile.FirstName) == "" || strings.TrimSpace(profile.LastName) == "" || strings.TrimSpace(profile.Email) == "" {
		return "", fmt.Errorf("dwolla: customer first name, last name and email are required")
	}
	res, err := c.post(ctx, c.config.BaseURL+pathCustomers, customerPayload{
		FirstName:   profile.FirstName,
		LastName:    profile.LastName,
		Email:       profile.Email,
		Type:        profile.Type,
		Address1:    profile.Address1,
		City:        profile.City,
		State:       profile.State,
		PostalCode:  profile.PostalCode,
		DateOfBirth: profile.DateOfBirth,
		SSN:         profile.SSN.Reveal(),
	})
	if err != nil {
		return "", err
	}
	return locationOf(res)
}

type halLink struct {
	Href string `json:"href"`
}

type onDemandAuthorizationResponse struct {
	Links map[string]halLink `json:"_links"`
}

type fundingSourcePayload struct {
	PlaidToken string             `json:"plaidToken"`
	Name       string             `json:"name"`
	Links      map[string]halLink `json:"_links,omitempty"`
}

// CreateFundingSource creates an on-demand transfer authorization and then a
// funding source bound to it from the Plaid processor token.
func (c *Client) CreateFundingSource(ctx context.Context, in core.CreateFundingSourceInput) (string, error) {
	customerID := strings.TrimSpace(in.CustomerID)
	if customerID == "" {
		return "", fmt.Errorf("dwolla: customer id is required")
	}
	if in.ProcessorToken.IsZero() {
		return "", fmt.Errorf("dwolla: processor token is required")
	}

	authorizationURL, err := c.createOnDemandAuthorization(ctx)
	if err != nil {
		return "", err
	}

	name := strings.TrimSpace(in.BankName)
	if name == "" {
		name = "Bank account"
	}
	target := c.config.BaseURL + fmt.Sprintf(pathFundingSources, url.PathEscape(customerID))
	res, err := c.post(ctx, target, fundingSourcePayload{
		PlaidToken: in.ProcessorToken.Reveal(),
		Name:       name,
		Links: map[string]halLink{
			linkOnDemandAuthorization: {Href: authorizationURL},
		},
	})
	if err != nil {
		return "", err
	}
	return locationOf(res)
}

func (c *Client) createOnDemandAuthorization(ctx context.Context) (string, error) {
	res, err := c.post(ctx, c.config.BaseURL+pathOnDemandAuthorizations, nil)
	if err != nil {
		return "", err
	}
	var out onDemandAuthorizationResponse
	if err := transport.DecodeJSON(res, &out); err != nil {
		return "", err
	}
	href := strings.TrimSpace(out.Links["self"].Href)
	if href == "" {
		return "", fmt.Errorf("dwolla: on-demand authorization has no self link")
	}
	return href, nil
}

func (c *Client) post(ctx context.Context, target string, payload any) (core.TransportResponse, error) {
	if c == nil || c.transport == nil || c.tokens == nil {
		return core.TransportResponse{}, fmt.Errorf("dwolla: client is not configured")
	}
	authorization, err := c.tokens.Authorization(ctx)
	if err != nil {
		return core.TransportResponse{}, err
	}

	req, err := transport.JSONRequest(http.MethodPost, target, payload)
	if err != nil {
		return core.TransportResponse{}, err
	}
	req.Headers[transport.HeaderContentType] = MediaType
	req.Headers[transport.HeaderAccept] = MediaType
	req.Headers[transport.HeaderAuthorization] = authorization
	req.Idempotency = c.newKey()
	req.Timeout = c.config.Timeout
	req.Metadata = map[string]any{"provider": ProviderID}

	res, err := c.transport.Do(ctx, req)
	if err != nil {
		return core.TransportResponse{}, err
	}
	if res.StatusCode == http.StatusUnauthorized {
		c.tokens.Invalidate()
	}
	if !transport.IsSuccess(res.StatusCode) {
		return core.TransportResponse{}, decodeAPIError(target, res)
	}
	return res, nil
}

func locationOf(res core.TransportResponse) (string, error) {
	location := transport.Header(res, transport.HeaderLocation)
	if location == "" {
		return "", ErrMissingLocation
	}
	return location, nil
}

var _ core.PaymentProcessor = (*Client)(nil)
