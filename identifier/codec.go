// Package identifier derives client-safe identifiers from internal ones and
// parses payment-processor resource URLs.
package identifier

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/goliatone/go-banklink/core"
)

var (
	ErrMalformedSharableID = core.ErrMalformedSharableID
	ErrMalformedURL        = core.ErrMalformedURL
)

// Codec encodes account ids with unpadded URL-safe base64. Encoding is
// deterministic so the same account always yields the same sharable id.
type Codec struct{}

func New() Codec {
	return Codec{}
}

func (Codec) Encode(rawID string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(rawID))
}

func (Codec) Decode(sharableID string) (string, error) {
	trimmed := strings.TrimSpace(sharableID)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty value", ErrMalformedSharableID)
	}
	decoded, err := base64.RawURLEncoding.DecodeString(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedSharableID, err)
	}
	if !utf8.Valid(decoded) {
		return "", fmt.Errorf("%w: not utf-8", ErrMalformedSharableID)
	}
	return string(decoded), nil
}

// ExtractCustomerID returns the last non-empty path segment of customerURL.
func (Codec) ExtractCustomerID(customerURL string) (string, error) {
	trimmed := strings.TrimSpace(customerURL)
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedURL, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("%w: %q has no scheme or host", ErrMalformedURL, trimmed)
	}
	segments := strings.Split(parsed.Path, "/")
	for index := len(segments) - 1; index >= 0; index-- {
		segment := strings.TrimSpace(segments[index])
		if segment == "" {
			continue
		}
		unescaped, unescapeErr := url.PathUnescape(segment)
		if unescapeErr != nil {
			return "", fmt.Errorf("%w: %v", ErrMalformedURL, unescapeErr)
		}
		return unescaped, nil
	}
	return "", fmt.Errorf("%w: %q has no path segment", ErrMalformedURL, trimmed)
}

var _ core.IdentifierCodec = Codec{}
