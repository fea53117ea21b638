package dispatch

import "encoding/json"

// Message is the provider-agnostic notification payload.
type Message struct {
	Title          string            `json:"title"`
	Body           string            `json:"body"`
	ImageURL       string            `json:"image_url,omitempty"`
	ActionURL      string            `json:"action_url,omitempty"`
	Data           map[string]string `json:"data,omitempty"`
	AnalyticsLabel string            `json:"analytics_label,omitempty"`
}

// NormalizeData flattens a custom payload into the string-only map
// providers require. Non-string values are JSON-encoded.
func NormalizeData(data map[string]any) map[string]string {
	if len(data) == 0 {
		return nil
	}

	out := make(map[string]string, len(data))
	for k, v := range data {
		if s, ok := v.(string); ok {
			out[k] = s
			continue
		}
		encoded, err := json.Marshal(v)
		if err != nil {
			// Unencodable values (channels, funcs) have no wire form at
			// all; drop the key rather than ship a garbage value.
			continue
		}
		out[k] = string(encoded)
	}
	return out
}
