package domain

import (
	"context"
	"encoding/json"
	"time"
)

// Message role constants as forwarded to the generation backend. Only these
// two roles appear in conversation history sent downstream; system
// instructions travel separately on the request.
const (
	ChatRoleUser  = "user"
	ChatRoleModel = "model"
)

// ChatMessage is a single role-tagged message sent to an LLM backend.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is sent to an LLM provider.
//
// When ResponseSchema is set the provider must constrain the output to JSON
// matching the schema; providers that cannot do so return an error.
type ChatRequest struct {
	Model          string          `json:"model,omitempty"`
	System         string          `json:"system,omitempty"`
	History        []ChatMessage   `json:"history,omitempty"`
	Content        string          `json:"content"`
	ResponseSchema json.RawMessage `json:"response_schema,omitempty"`
}

// ChatResponse is returned from an LLM provider.
type ChatResponse struct {
	Content   string    `json:"content"`
	Usage     Usage     `json:"usage"`
	CreatedAt time.Time `json:"created_at"`
}

// Usage tracks token consumption.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// LLMProvider is the interface for any generation backend.
type LLMProvider interface {
	// Chat sends a request and returns a complete response.
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	// Name returns the provider's identifier (e.g., "gemini").
	Name() string
}
