package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"simrs-agent/internal/domain"
	"simrs-agent/internal/infra/config"
	"simrs-agent/internal/infra/logger"
)

func testLLMConfig(baseURL string) config.LLMConfig {
	return config.LLMConfig{
		Provider:  "gemini",
		APIKey:    "test-key",
		Model:     "gemini-2.5-flash",
		BaseURL:   baseURL,
		RateLimit: 1000,
	}
}

func geminiReplyBody(text string) string {
	return `{
		"candidates": [{"content": {"role": "model", "parts": [{"text": ` + mustJSON(text) + `}]}}],
		"usageMetadata": {"promptTokenCount": 7, "candidatesTokenCount": 3, "totalTokenCount": 10}
	}`
}

func mustJSON(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestGeminiChat(t *testing.T) {
	var gotPath string
	var gotBody geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &gotBody); err != nil {
			t.Errorf("unmarshal request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, geminiReplyBody("  Halo, ada yang bisa dibantu?  "))
	}))
	defer srv.Close()

	p := NewGeminiProvider(testLLMConfig(srv.URL), logger.Discard())
	resp, err := p.Chat(context.Background(), domain.ChatRequest{
		System: "Anda adalah asisten rumah sakit.",
		History: []domain.ChatMessage{
			{Role: domain.ChatRoleUser, Content: "halo"},
			{Role: domain.ChatRoleModel, Content: "selamat datang"},
		},
		Content: "saya mau daftar",
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	if want := "/v1beta/models/gemini-2.5-flash:generateContent?key=test-key"; gotPath != want {
		t.Errorf("path = %q, want %q", gotPath, want)
	}
	if gotBody.SystemInstruction == nil || gotBody.SystemInstruction.Parts[0].Text != "Anda adalah asisten rumah sakit." {
		t.Errorf("systemInstruction not forwarded: %+v", gotBody.SystemInstruction)
	}
	if len(gotBody.Contents) != 3 {
		t.Fatalf("contents = %d, want 3", len(gotBody.Contents))
	}
	wantRoles := []string{"user", "model", "user"}
	for i, c := range gotBody.Contents {
		if c.Role != wantRoles[i] {
			t.Errorf("contents[%d].role = %q, want %q", i, c.Role, wantRoles[i])
		}
	}
	if gotBody.Contents[2].Parts[0].Text != "saya mau daftar" {
		t.Errorf("final content = %q", gotBody.Contents[2].Parts[0].Text)
	}
	if gotBody.GenerationConfig != nil {
		t.Errorf("generationConfig set without a response schema")
	}

	if resp.Content != "Halo, ada yang bisa dibantu?" {
		t.Errorf("content = %q (whitespace should be trimmed)", resp.Content)
	}
	if resp.Usage.TotalTokens != 10 {
		t.Errorf("total tokens = %d, want 10", resp.Usage.TotalTokens)
	}
}

func TestGeminiChatResponseSchema(t *testing.T) {
	schema := json.RawMessage(`{"type":"object","properties":{"route":{"type":"string"}}}`)

	var gotBody geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &gotBody)
		io.WriteString(w, geminiReplyBody(`{"route":"EMR"}`))
	}))
	defer srv.Close()

	p := NewGeminiProvider(testLLMConfig(srv.URL), logger.Discard())
	resp, err := p.Chat(context.Background(), domain.ChatRequest{
		Content:        "klasifikasikan ini",
		ResponseSchema: schema,
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	if gotBody.GenerationConfig == nil {
		t.Fatal("generationConfig missing")
	}
	if gotBody.GenerationConfig.ResponseMimeType != "application/json" {
		t.Errorf("responseMimeType = %q", gotBody.GenerationConfig.ResponseMimeType)
	}
	if string(gotBody.GenerationConfig.ResponseSchema) != string(schema) {
		t.Errorf("responseSchema = %s", gotBody.GenerationConfig.ResponseSchema)
	}
	if resp.Content != `{"route":"EMR"}` {
		t.Errorf("content = %q", resp.Content)
	}
}

func TestGeminiChatHTTPErrors(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusTooManyRequests, domain.ErrRateLimit},
		{http.StatusUnauthorized, domain.ErrAuthInvalid},
		{http.StatusForbidden, domain.ErrAuthInvalid},
		{http.StatusRequestEntityTooLarge, domain.ErrContextOverflow},
		{http.StatusInternalServerError, domain.ErrProviderError},
		{http.StatusServiceUnavailable, domain.ErrProviderError},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			io.WriteString(w, `{"error":{"message":"nope"}}`)
		}))

		p := NewGeminiProvider(testLLMConfig(srv.URL), logger.Discard())
		_, err := p.Chat(context.Background(), domain.ChatRequest{Content: "halo"})
		if err == nil {
			t.Errorf("status %d: expected error", tt.status)
		} else if !errorsIs(err, tt.want) {
			t.Errorf("status %d: err = %v, want %v", tt.status, err, tt.want)
		}
		srv.Close()
	}
}

func TestGeminiChatEmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"candidates": []}`)
	}))
	defer srv.Close()

	p := NewGeminiProvider(testLLMConfig(srv.URL), logger.Discard())
	resp, err := p.Chat(context.Background(), domain.ChatRequest{Content: "halo"})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Content != "" {
		t.Errorf("content = %q, want empty", resp.Content)
	}
}

func TestGeminiChatModelOverride(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		io.WriteString(w, geminiReplyBody("ok"))
	}))
	defer srv.Close()

	p := NewGeminiProvider(testLLMConfig(srv.URL), logger.Discard())
	_, err := p.Chat(context.Background(), domain.ChatRequest{Model: "gemini-2.5-pro", Content: "halo"})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if want := "/v1beta/models/gemini-2.5-pro:generateContent"; gotPath != want {
		t.Errorf("path = %q, want %q", gotPath, want)
	}
}
