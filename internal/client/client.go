// Package client talks to the validation relay endpoint over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/danielbnavia/navia-doc-validator/internal/models"
)

const defaultTimeout = 5 * time.Minute

// Client submits one document per call to the relay endpoint and decodes
// the response envelope.
type Client struct {
	baseURL string
	http    *http.Client
}

// New builds a relay client for the given server base URL.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Validate posts the document as a multipart form and returns the relay
// envelope. Transport failures, non-2xx statuses and empty or undecodable
// bodies are errors; a successful envelope may still carry the raw-fallback
// result inside.
func (c *Client) Validate(ctx context.Context, doc models.File) (*models.RelayResponse, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, doc.Name))
	header.Set("Content-Type", doc.MediaType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("build form: %w", err)
	}
	if _, err := part.Write(doc.Data); err != nil {
		return nil, fmt.Errorf("write form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/validate", &body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("relay call: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read relay response: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty relay response (status %d)", resp.StatusCode)
	}

	var envelope models.RelayResponse
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decode relay response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		if envelope.Error != "" {
			return nil, fmt.Errorf("relay failed (status %d): %s", resp.StatusCode, envelope.Error)
		}
		return nil, fmt.Errorf("relay failed with status %d", resp.StatusCode)
	}
	return &envelope, nil
}
