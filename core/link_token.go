package core

import (
	"context"
	"fmt"
	"strings"
)

var (
	DefaultLinkProducts     = []string{"auth"}
	DefaultLinkCountryCodes = []string{"US"}
)

const DefaultLinkLanguage = "en"

// CreateLinkToken issues the short-lived token a client uses to open the
// aggregator's bank-selection flow. The resulting public token is what
// LinkAccount later exchanges.
func (s *Service) CreateLinkToken(ctx context.Context, user UserIdentity) (token LinkToken, err error) {
	startedAt := s.now()
	fields := map[string]any{
		"user_id": strings.TrimSpace(user.ID),
	}
	defer func() {
		s.observeOperation(ctx, startedAt, "create_link_token", err, fields)
	}()

	if s == nil || s.linkTokenIssuer == nil {
		err = s.mapError(fmt.Errorf("%w: link token issuer", ErrServiceNotConfigured))
		return LinkToken{}, err
	}
	if validateErr := user.Validate(); validateErr != nil {
		err = s.mapError(validateErr)
		return LinkToken{}, err
	}

	token, err = s.linkTokenIssuer.CreateLinkToken(ctx, LinkTokenRequest{
		User:         user,
		ClientName:   user.FullName(),
		Products:     append([]string(nil), DefaultLinkProducts...),
		CountryCodes: append([]string(nil), DefaultLinkCountryCodes...),
		Language:     DefaultLinkLanguage,
	})
	if err != nil {
		err = s.mapError(err)
		return LinkToken{}, err
	}
	if strings.TrimSpace(token.Token) == "" {
		err = s.mapError(fmt.Errorf("core: aggregator returned an empty link token"))
		return LinkToken{}, err
	}
	fields["request_id"] = token.RequestID
	return token, nil
}
