package validator

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"

	"github.com/danielbnavia/navia-doc-validator/internal/config"
	"github.com/danielbnavia/navia-doc-validator/internal/models"
)

// maxOutputTokens is the fixed output budget for every inference call.
const maxOutputTokens = 4096

// ErrMissingAPIKey is returned when no inference credential is configured.
var ErrMissingAPIKey = errors.New("ANTHROPIC_API_KEY not configured")

// Service relays documents to the Anthropic Messages API and normalizes the
// reply into the fixed response envelope.
type Service struct {
	apiKey  string
	model   string
	baseURL string
}

// NewService builds the relay service from resolved configuration.
func NewService(cfg config.AnthropicConfig) *Service {
	model := cfg.Model
	if model == "" {
		model = config.DefaultModel
	}
	return &Service{apiKey: cfg.APIKey, model: model, baseURL: cfg.BaseURL}
}

// Validate issues exactly one inference call for the document and returns
// the normalized envelope. A model reply that does not parse as JSON is not
// an error: it is reported inside a successful envelope as the raw-fallback
// variant. Errors are reserved for the call itself failing.
func (s *Service) Validate(ctx context.Context, doc models.File) (*models.RelayResponse, error) {
	if s.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	reqID := uuid.NewString()
	start := time.Now()
	log.Printf("validate start req_id=%s file=%q size=%d media=%s", reqID, doc.Name, doc.Size, doc.MediaType)

	opts := []option.RequestOption{
		option.WithAPIKey(s.apiKey),
		// one attempt per document; a transient failure becomes one error
		// outcome upstream, never a hidden second call
		option.WithMaxRetries(0),
	}
	if s.baseURL != "" {
		opts = append(opts, option.WithBaseURL(s.baseURL))
	}
	// fresh client per call: every request stays fully self-contained
	client := anthropic.NewClient(opts...)

	msg, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(s.model),
		MaxTokens: maxOutputTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewTextBlock(userInstruction),
				anthropic.NewDocumentBlock(anthropic.Base64PDFSourceParam{
					Data: base64.StdEncoding.EncodeToString(doc.Data),
				}),
			),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("inference call: %w", err)
	}

	stripped := stripMarkdownCodeFences(collectText(msg))

	var parsed json.RawMessage
	if err := json.Unmarshal([]byte(stripped), &parsed); err != nil {
		log.Printf("validate done req_id=%s parse=fallback elapsed_ms=%d", reqID, time.Since(start).Milliseconds())
		fallback, mErr := json.Marshal(map[string]string{
			"rawResponse": stripped,
			"parseError":  err.Error(),
		})
		if mErr != nil {
			return nil, fmt.Errorf("encode fallback result: %w", mErr)
		}
		return &models.RelayResponse{Success: true, Result: fallback}, nil
	}

	checkResultShape(reqID, parsed)

	usage := &models.Usage{
		InputTokens:  msg.Usage.InputTokens,
		OutputTokens: msg.Usage.OutputTokens,
	}
	log.Printf("validate done req_id=%s parse=ok input_tokens=%d output_tokens=%d elapsed_ms=%d",
		reqID, usage.InputTokens, usage.OutputTokens, time.Since(start).Milliseconds())
	return &models.RelayResponse{Success: true, Result: parsed, Usage: usage}, nil
}

// collectText concatenates the text blocks of the model reply.
func collectText(msg *anthropic.Message) string {
	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String()
}
