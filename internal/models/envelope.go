package models

import "encoding/json"

// Usage carries the token accounting reported by the inference API.
type Usage struct {
	InputTokens  int64 `json:"inputTokens"`
	OutputTokens int64 `json:"outputTokens"`
}

// RelayResponse is the fixed envelope returned by the validation endpoint.
// Success reports whether the relay itself completed: a model reply that did
// not parse as JSON still travels as Success=true with the raw fallback
// inside Result. Error and Details are set only when Success is false.
type RelayResponse struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result,omitempty"`
	Usage   *Usage          `json:"usage,omitempty"`
	Error   string          `json:"error,omitempty"`
	Details string          `json:"details,omitempty"`
}
