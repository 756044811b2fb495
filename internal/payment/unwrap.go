package payment

import "encoding/json"

// Provider SDKs wrap payloads differently (response.body.x vs response.x).
// Each adapter owns an unwrap-or-fail step built on these helpers instead
// of optional-chaining through guessed shapes.

func decodeBody(resp []byte) (map[string]interface{}, bool) {
	var body map[string]interface{}
	if err := json.Unmarshal(resp, &body); err != nil {
		return nil, false
	}
	return body, true
}

func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func getMap(m map[string]interface{}, key string) map[string]interface{} {
	if v, ok := m[key].(map[string]interface{}); ok {
		return v
	}
	return nil
}

func getSlice(m map[string]interface{}, key string) []interface{} {
	if v, ok := m[key].([]interface{}); ok {
		return v
	}
	return nil
}

func getFloat(m map[string]interface{}, key string) (float64, bool) {
	v, ok := m[key].(float64)
	return v, ok
}

// firstMap returns the first element of a JSON array that is an object.
func firstMap(items []interface{}) map[string]interface{} {
	for _, item := range items {
		if m, ok := item.(map[string]interface{}); ok {
			return m
		}
	}
	return nil
}

func mergeMetadata(caller map[string]string, extra map[string]string) map[string]string {
	merged := make(map[string]string, len(caller)+len(extra))
	for k, v := range caller {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}
