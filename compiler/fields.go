package compiler

import "github.com/dipeo/dipeo-core/domain"

// getString/getFloat/getBool/getInt read a DomainNode.Data field, falling
// back to a default when the key is absent or of the wrong type. The
// distilled diagram format is untyped JSON-ish data; the node-transform
// phase is where that gets pinned down to Go types once and for all.

func getString(data map[string]any, key, def string) string {
	if v, ok := data[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

func getFloat(data map[string]any, key string, def float64) float64 {
	if v, ok := data[key]; ok {
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		}
	}
	return def
}

func getBool(data map[string]any, key string, def bool) bool {
	if v, ok := data[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

func getInt(data map[string]any, key string, def int) int {
	if v, ok := data[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case float64:
			return int(n)
		}
	}
	return def
}

func getStringMap(data map[string]any, key string) map[string]string {
	out := map[string]string{}
	if v, ok := data[key]; ok {
		if m, ok := v.(map[string]any); ok {
			for k, vv := range m {
				if s, ok := vv.(string); ok {
					out[k] = s
				}
			}
		}
	}
	return out
}

func getStringSlice(data map[string]any, key string) []string {
	var out []string
	if v, ok := data[key]; ok {
		if s, ok := v.([]any); ok {
			for _, e := range s {
				if str, ok := e.(string); ok {
					out = append(out, str)
				}
			}
		}
	}
	return out
}

func getObjectMap(data map[string]any, key string) map[string]any {
	if v, ok := data[key]; ok {
		if m, ok := v.(map[string]any); ok {
			return m
		}
	}
	return nil
}

func commonFields(data map[string]any) domain.CommonFields {
	return domain.CommonFields{
		TimeoutS:   getFloat(data, "timeout_s", 0),
		Retryable:  getBool(data, "retryable", false),
		MaxRetries: getInt(data, "max_retries", 0),
	}
}
