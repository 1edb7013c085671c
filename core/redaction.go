package core

import "strings"

const RedactedValue = "[REDACTED]"

var sensitiveKeyFragments = []string{
	"password",
	"secret",
	"token",
	"authorization",
	"api_key",
	"apikey",
	"credential",
	"signature",
	"ssn",
	"date_of_birth",
	"account_number",
	"routing_number",
}

// Identifiers that are safe to log even though they contain a fragment above
// or identify a linked account.
var traceableKeys = map[string]struct{}{
	"user_id":         {},
	"item_id":         {},
	"bank_id":         {},
	"account_id":      {},
	"sharable_id":     {},
	"customer_id":     {},
	"record_id":       {},
	"processor":       {},
	"idempotency_key": {},
	"trace_id":        {},
	"request_id":      {},
}

// RedactSensitiveMap returns a copy of fields with secret-looking keys and
// every Secret value replaced by RedactedValue.
func RedactSensitiveMap(fields map[string]any) map[string]any {
	if len(fields) == 0 {
		return map[string]any{}
	}
	return redactMap(fields)
}

func redactMap(source map[string]any) map[string]any {
	target := make(map[string]any, len(source))
	for key, value := range source {
		if isSensitiveKey(key) {
			target[key] = RedactedValue
			continue
		}
		target[key] = redactValue(value)
	}
	return target
}

func redactValue(value any) any {
	switch typed := value.(type) {
	case Secret:
		if typed.IsZero() {
			return ""
		}
		return RedactedValue
	case map[string]any:
		return redactMap(typed)
	case map[string]string:
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			out[key] = item
		}
		return redactMap(out)
	case []any:
		out := make([]any, len(typed))
		for i := range typed {
			out[i] = redactValue(typed[i])
		}
		return out
	default:
		return value
	}
}

func isSensitiveKey(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return false
	}
	if _, ok := traceableKeys[key]; ok {
		return false
	}
	for _, fragment := range sensitiveKeyFragments {
		if strings.Contains(key, fragment) {
			return true
		}
	}
	return false
}
