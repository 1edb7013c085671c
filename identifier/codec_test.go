package identifier

import (
	"errors"
	"strings"
	"testing"
)

func TestCodecRoundTrip(t *testing.T) {
	codec := New()
	for _, raw := range []string{"acc_1", "Z5qL8vRKmBtP1xW", "a", "accounts/with/slashes", "ünïcode-id"} {
		encoded := codec.Encode(raw)
		if encoded != codec.Encode(raw) {
			t.Fatalf("expected deterministic encoding for %q", raw)
		}
		decoded, err := codec.Decode(encoded)
		if err != nil {
			t.Fatalf("decode %q: %v", encoded, err)
		}
		if decoded != raw {
			t.Fatalf("expected round trip %q, got %q", raw, decoded)
		}
	}
}

func TestCodecEncodeIsURLSafe(t *testing.T) {
	encoded := New().Encode("acc_1")
	if encoded != "YWNjXzE" {
		t.Fatalf("unexpected encoding %q", encoded)
	}
	for _, raw := range []string{"??>>", "~~~~", "a"} {
		if value := New().Encode(raw); strings.ContainsAny(value, "+/=") {
			t.Fatalf("expected url-safe output for %q, got %q", raw, value)
		}
	}
}

func TestCodecDecodeRejectsMalformed(t *testing.T) {
	for _, input := range []string{"", "   ", "%%%", "YWNjXzE="} {
		if _, err := New().Decode(input); !errors.Is(err, ErrMalformedSharableID) {
			t.Fatalf("expected malformed sharable id for %q, got %v", input, err)
		}
	}
}

func TestExtractCustomerID(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"https://api.example.com/customers/abc123", "abc123"},
		{"https://api-sandbox.dwolla.com/customers/9a8b-77/", "9a8b-77"},
		{"https://api.example.com/customers/abc123?expand=true", "abc123"},
	}
	for _, tc := range cases {
		got, err := New().ExtractCustomerID(tc.input)
		if err != nil {
			t.Fatalf("extract %q: %v", tc.input, err)
		}
		if got != tc.want {
			t.Fatalf("expected %q, got %q", tc.want, got)
		}
	}
}

func TestExtractCustomerIDRejectsMalformed(t *testing.T) {
	for _, input := range []string{"not-a-url", "", "https://api.example.com/", "/customers/abc", "https://"} {
		if _, err := New().ExtractCustomerID(input); !errors.Is(err, ErrMalformedURL) {
			t.Fatalf("expected malformed url for %q, got %v", input, err)
		}
	}
}
