package validator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielbnavia/navia-doc-validator/internal/config"
	"github.com/danielbnavia/navia-doc-validator/internal/models"
)

func testDoc() models.File {
	data := []byte("%PDF-1.4 test document")
	return models.File{
		Name:      "invoice.pdf",
		Size:      int64(len(data)),
		MediaType: models.MediaTypePDF,
		Data:      data,
	}
}

// newMessagesServer fakes the inference API: every request gets one
// assistant message whose single text block is replyText.
func newMessagesServer(t *testing.T, replyText string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		var req struct {
			Model     string `json:"model"`
			MaxTokens int    `json:"max_tokens"`
			System    []struct {
				Text string `json:"text"`
			} `json:"system"`
			Messages []struct {
				Content []struct {
					Type   string `json:"type"`
					Source *struct {
						Type      string `json:"type"`
						MediaType string `json:"media_type"`
						Data      string `json:"data"`
					} `json:"source"`
				} `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode inference request: %v", err)
		}
		if req.MaxTokens != maxOutputTokens {
			t.Errorf("max_tokens = %d, want %d", req.MaxTokens, maxOutputTokens)
		}
		if len(req.System) != 1 || !strings.Contains(req.System[0].Text, "HBL#") {
			t.Errorf("system prompt missing extraction schema")
		}
		var hasDocument bool
		for _, msg := range req.Messages {
			for _, block := range msg.Content {
				if block.Type == "document" && block.Source != nil && block.Source.Data != "" {
					hasDocument = true
				}
			}
		}
		if !hasDocument {
			t.Errorf("request carries no document block")
		}

		reply := map[string]any{
			"id":          "msg_test",
			"type":        "message",
			"role":        "assistant",
			"model":       "claude-test",
			"stop_reason": "end_turn",
			"content":     []map[string]any{{"type": "text", "text": replyText}},
			"usage":       map[string]any{"input_tokens": 1200, "output_tokens": 340},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(reply)
	}))
}

func newTestService(baseURL string) *Service {
	return NewService(config.AnthropicConfig{
		APIKey:  "test-key",
		Model:   "claude-test",
		BaseURL: baseURL,
	})
}

func TestValidateMissingAPIKey(t *testing.T) {
	svc := NewService(config.AnthropicConfig{})
	_, err := svc.Validate(context.Background(), testDoc())
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestValidateParsesFencedReply(t *testing.T) {
	reply := "```json\n{\"validationStatus\":\"PASS\",\"confidence\":0.92}\n```"
	server := newMessagesServer(t, reply)
	defer server.Close()

	resp, err := newTestService(server.URL).Validate(context.Background(), testDoc())
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !resp.Success {
		t.Fatal("expected success envelope")
	}
	result := models.DecodeValidationResult(resp.Result)
	if result.RawFallback() {
		t.Fatalf("fenced JSON should parse, got fallback: %+v", result)
	}
	if result.ValidationStatus != models.StatusPass {
		t.Fatalf("validationStatus = %q", result.ValidationStatus)
	}
	if resp.Usage == nil || resp.Usage.InputTokens != 1200 || resp.Usage.OutputTokens != 340 {
		t.Fatalf("usage = %+v", resp.Usage)
	}
}

func TestValidateParsesPlainReply(t *testing.T) {
	server := newMessagesServer(t, `{"validationStatus":"WARNING","issues":[{"field":"Consignee","severity":"WARNING","message":"contact missing"}]}`)
	defer server.Close()

	resp, err := newTestService(server.URL).Validate(context.Background(), testDoc())
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	result := models.DecodeValidationResult(resp.Result)
	if result.ValidationStatus != models.StatusWarning || len(result.Issues) != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestValidateRawFallback(t *testing.T) {
	server := newMessagesServer(t, "not json")
	defer server.Close()

	resp, err := newTestService(server.URL).Validate(context.Background(), testDoc())
	if err != nil {
		t.Fatalf("content errors must not fail the call: %v", err)
	}
	if !resp.Success {
		t.Fatal("expected success envelope for unparseable reply")
	}
	var fallback struct {
		RawResponse string `json:"rawResponse"`
		ParseError  string `json:"parseError"`
	}
	if err := json.Unmarshal(resp.Result, &fallback); err != nil {
		t.Fatalf("decode fallback: %v", err)
	}
	if fallback.RawResponse != "not json" || fallback.ParseError == "" {
		t.Fatalf("unexpected fallback: %+v", fallback)
	}
	if resp.Usage != nil {
		t.Fatal("fallback envelope carries no usage")
	}
}

func TestValidateInferenceFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"type":"error","error":{"type":"api_error","message":"overloaded"}}`)
	}))
	defer server.Close()

	_, err := newTestService(server.URL).Validate(context.Background(), testDoc())
	if err == nil {
		t.Fatal("expected error for failed inference call")
	}
	if !strings.Contains(err.Error(), "inference call") {
		t.Fatalf("error not wrapped: %v", err)
	}
}
