package core

import "testing"

func TestRedactSensitiveMapPreservesTraceabilityMetadata(t *testing.T) {
	redacted := RedactSensitiveMap(map[string]any{
		"trace_id":        "trace_1",
		"request_id":      "req_1",
		"user_id":         "usr_1",
		"access_token":    "access-sandbox-1",
		"processor_token": "processor-sandbox-1",
		"authorization":   "Bearer secret-token",
		"nested":          map[string]any{"public_token": "public-sandbox-1", "item_id": "item_1"},
		"events":          []any{map[string]any{"ssn": "1234"}, map[string]any{"sharable_id": "YWNjXzE"}},
	})

	if redacted["trace_id"] != "trace_1" {
		t.Fatalf("expected trace_id to remain visible, got %#v", redacted["trace_id"])
	}
	if redacted["user_id"] != "usr_1" {
		t.Fatalf("expected user_id to remain visible, got %#v", redacted["user_id"])
	}
	if redacted["access_token"] != RedactedValue {
		t.Fatalf("expected access_token to be redacted, got %#v", redacted["access_token"])
	}
	if redacted["processor_token"] != RedactedValue {
		t.Fatalf("expected processor_token to be redacted, got %#v", redacted["processor_token"])
	}
	nested, ok := redacted["nested"].(map[string]any)
	if !ok {
		t.Fatalf("expected nested redacted map")
	}
	if nested["public_token"] != RedactedValue {
		t.Fatalf("expected nested public_token to be redacted, got %#v", nested["public_token"])
	}
	if nested["item_id"] != "item_1" {
		t.Fatalf("expected nested item_id to remain visible, got %#v", nested["item_id"])
	}
	events, ok := redacted["events"].([]any)
	if !ok || len(events) != 2 {
		t.Fatalf("expected redacted events slice, got %#v", redacted["events"])
	}
	if first := events[0].(map[string]any); first["ssn"] != RedactedValue {
		t.Fatalf("expected ssn to be redacted, got %#v", first["ssn"])
	}
}

func TestScrubSecretsReplacesEveryOccurrence(t *testing.T) {
	message := "exchange public-sandbox-1 failed, retry public-sandbox-1 with access-sandbox-9"
	scrubbed := ScrubSecrets(message, Secret("public-sandbox-1"), Secret("access-sandbox-9"), Secret(""))
	if scrubbed != "exchange [REDACTED] failed, retry [REDACTED] with [REDACTED]" {
		t.Fatalf("unexpected scrubbed message %q", scrubbed)
	}
}

func TestSecretRendersRedacted(t *testing.T) {
	secret := Secret("access-sandbox-1")
	if secret.String() != RedactedValue {
		t.Fatalf("expected redacted string, got %q", secret.String())
	}
	encoded, err := secret.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal secret: %v", err)
	}
	if string(encoded) != `"[REDACTED]"` {
		t.Fatalf("expected redacted json, got %s", encoded)
	}
	if Secret("").String() != "" {
		t.Fatalf("expected empty secret to render empty")
	}
}

func TestRedactSensitiveMapHidesSecretValuesUnderAnyKey(t *testing.T) {
	redacted := RedactSensitiveMap(map[string]any{
		"handle":  Secret("access-sandbox-2"),
		"empty":   Secret(""),
		"headers": map[string]string{"Authorization": "Bearer abc", "Accept": "application/json"},
	})
	if redacted["handle"] != RedactedValue {
		t.Fatalf("expected secret value to be redacted, got %#v", redacted["handle"])
	}
	if redacted["empty"] != "" {
		t.Fatalf("expected empty secret to stay empty, got %#v", redacted["empty"])
	}
	headers, ok := redacted["headers"].(map[string]any)
	if !ok {
		t.Fatalf("expected string map to be converted, got %#v", redacted["headers"])
	}
	if headers["Authorization"] != RedactedValue || headers["Accept"] != "application/json" {
		t.Fatalf("unexpected header redaction %#v", headers)
	}
}
