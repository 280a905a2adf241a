package handler

import "encoding/json"

// marshalForFile renders a handler's output value for persistence to
// disk: strings pass through verbatim, everything else is JSON-encoded.
func marshalForFile(value any) ([]byte, error) {
	if s, ok := value.(string); ok {
		return []byte(s), nil
	}
	return json.MarshalIndent(value, "", "  ")
}
