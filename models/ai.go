package models

import "encoding/json"

// GenerationRequest is the body posted to the generation endpoint.
type GenerationRequest struct {
	Prompt       string  `json:"prompt"`
	MaxNewTokens int     `json:"max_new_tokens"`
	Temperature  float64 `json:"temperature"`
	TopP         float64 `json:"top_p"`
}

// GenerationResult is the success body of the generation endpoint.
type GenerationResult struct {
	GeneratedText string `json:"generated_text"`
}

// ErrorDetail is the optional error body of the generation endpoint.
// Detail is usually a string but FastAPI validation errors carry a list.
type ErrorDetail struct {
	Detail json.RawMessage `json:"detail"`
}
