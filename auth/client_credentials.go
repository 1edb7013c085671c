package auth

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-banklink/core"
	"github.com/goliatone/go-banklink/transport"
	goerrors "github.com/goliatone/go-errors"
)

type ClientCredentialsConfig struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	Scopes       []string
	RenewBefore  time.Duration
	DefaultTTL   time.Duration
	Now          func() time.Time
}

type cachedToken struct {
	token     core.Secret
	expiresAt time.Time
}

// ClientCredentialsTokenSource issues bearer tokens through the OAuth2
// client_credentials grant and reuses them until they are close to expiry.
type ClientCredentialsTokenSource struct {
	config    ClientCredentialsConfig
	transport core.TransportAdapter

	mu     sync.Mutex
	cached cachedToken
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func NewClientCredentialsTokenSource(cfg ClientCredentialsConfig, adapter core.TransportAdapter) *ClientCredentialsTokenSource {
	renewBefore := cfg.RenewBefore
	if renewBefore <= 0 {
		renewBefore = 2 * time.Minute
	}
	defaultTTL := cfg.DefaultTTL
	if defaultTTL <= 0 {
		defaultTTL = time.Hour
	}
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	if adapter == nil {
		adapter = transport.NewRESTAdapter(nil)
	}
	return &ClientCredentialsTokenSource{
		config: ClientCredentialsConfig{
			ClientID:     strings.TrimSpace(cfg.ClientID),
			ClientSecret: strings.TrimSpace(cfg.ClientSecret),
			TokenURL:     strings.TrimSpace(cfg.TokenURL),
			Scopes:       scopeList(cfg.Scopes),
			RenewBefore:  renewBefore,
			DefaultTTL:   defaultTTL,
			Now:          now,
		},
		transport: adapter,
	}
}

// Token returns a cached token, fetching a new one when none is cached or the
// cached one expires within RenewBefore.
func (s *ClientCredentialsTokenSource) Token(ctx context.Context) (core.Secret, error) {
	if s == nil {
		return "", fmt.Errorf("auth: token source is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.config.Now().UTC()
	if !s.cached.token.IsZero() && s.cached.expiresAt.After(now.Add(s.config.RenewBefore)) {
		return s.cached.token, nil
	}

	issued, err := s.fetch(ctx, now)
	if err != nil {
		return "", err
	}
	s.cached = issued
	return issued.token, nil
}

// Invalidate drops the cached token, used after the upstream rejects it.
func (s *ClientCredentialsTokenSource) Invalidate() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.cached = cachedToken{}
	s.mu.Unlock()
}

// Authorization renders the Authorization header value for a bearer token.
func (s *ClientCredentialsTokenSource) Authorization(ctx context.Context) (string, error) {
	token, err := s.Token(ctx)
	if err != nil {
		return "", err
	}
	return "Bearer " + token.Reveal(), nil
}

func (s *ClientCredentialsTokenSource) fetch(ctx context.Context, now time.Time) (cachedToken, error) {
	if s.config.ClientID == "" {
		return cachedToken{}, fmt.Errorf("auth: client credentials client_id is required")
	}
	if s.config.ClientSecret == "" {
		return cachedToken{}, fmt.Errorf("auth: client credentials client_secret is required")
	}
	if s.config.TokenURL == "" {
		return cachedToken{}, fmt.Errorf("auth: client credentials token_url is required")
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	if len(s.config.Scopes) > 0 {
		form.Set("scope", strings.Join(s.config.Scopes, " "))
	}
	basic := base64.StdEncoding.EncodeToString([]byte(s.config.ClientID + ":" + s.config.ClientSecret))

	res, err := s.transport.Do(ctx, core.TransportRequest{
		Method: http.MethodPost,
		URL:    s.config.TokenURL,
		Headers: map[string]string{
			transport.HeaderContentType:   "application/x-www-form-urlencoded",
			transport.HeaderAccept:        "application/json",
			transport.HeaderAuthorization: "Basic " + basic,
		},
		Body: []byte(form.Encode()),
	})
	if err != nil {
		return cachedToken{}, err
	}
	if !transport.IsSuccess(res.StatusCode) {
		return cachedToken{}, transport.StatusError("auth", res, map[string]any{"token_url": s.config.TokenURL})
	}

	var payload tokenResponse
	if err := transport.DecodeJSON(res, &payload); err != nil {
		return cachedToken{}, err
	}
	token := core.Secret(strings.TrimSpace(payload.AccessToken))
	if token.IsZero() {
		return cachedToken{}, goerrors.New("auth: token endpoint returned no access token", goerrors.CategoryExternal).
			WithCode(http.StatusBadGateway).
			WithTextCode(core.ServiceErrorUnauthorized)
	}
	if tokenType := strings.TrimSpace(payload.TokenType); tokenType != "" && !strings.EqualFold(tokenType, "bearer") {
		return cachedToken{}, fmt.Errorf("auth: unsupported token type %q", tokenType)
	}

	ttl := s.config.DefaultTTL
	if payload.ExpiresIn > 0 {
		ttl = time.Duration(payload.ExpiresIn) * time.Second
	}
	return cachedToken{token: token, expiresAt: now.Add(ttl)}, nil
}

// scopeList trims, dedupes case-insensitively and sorts scopes so the token
// request body is stable.
func scopeList(scopes []string) []string {
	out := make([]string, 0, len(scopes))
	for _, scope := range scopes {
		scope = strings.TrimSpace(scope)
		if scope == "" {
			continue
		}
		if slices.ContainsFunc(out, func(existing string) bool { return strings.EqualFold(existing, scope) }) {
			continue
		}
		out = append(out, scope)
	}
	slices.Sort(out)
	return out
}
