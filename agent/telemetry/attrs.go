package telemetry

import (
	"fmt"

	"go.opentelemetry.io/otel/attribute"
)

// attrsFromKV converts alternating key/value pairs into OTEL string
// attributes, rendering every value with fmt.Sprint. Malformed (odd-length)
// trailing keys and pairs whose key is not a non-empty string are dropped.
func attrsFromKV(keyvals []any) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(keyvals)/2)
	for i := 0; i+1 < len(keyvals); i += 2 {
		key, _ := keyvals[i].(string)
		if key == "" {
			continue
		}
		out = append(out, attribute.String(key, fmt.Sprint(keyvals[i+1])))
	}
	return out
}
