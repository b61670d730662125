package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"go.uber.org/goleak"

	"github.com/danielbnavia/navia-doc-validator/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// scriptedRelay fails the configured positions and records call order.
type scriptedRelay struct {
	failAt map[int]error
	raw    map[int]string
	calls  []string
	n      int
}

func (r *scriptedRelay) Validate(_ context.Context, doc models.File) (*models.RelayResponse, error) {
	idx := r.n
	r.n++
	r.calls = append(r.calls, doc.Name)
	if err, ok := r.failAt[idx]; ok {
		return nil, err
	}
	body := r.raw[idx]
	if body == "" {
		body = `{"validationStatus":"PASS","confidence":0.92}`
	}
	return &models.RelayResponse{
		Success: true,
		Result:  json.RawMessage(body),
		Usage:   &models.Usage{InputTokens: 100, OutputTokens: 50},
	}, nil
}

func pdf(name string) models.File {
	data := []byte("%PDF-1.4 " + name)
	return models.File{Name: name, Size: int64(len(data)), MediaType: models.MediaTypePDF, Data: data}
}

func TestSelectRejectsNonPDF(t *testing.T) {
	c := NewCoordinator(&scriptedRelay{})
	err := c.Select(
		pdf("a.pdf"),
		models.File{Name: "notes.txt", MediaType: "text/plain", Data: []byte("hi")},
	)
	if err == nil {
		t.Fatal("expected selection error")
	}
	if got := c.Batch(); len(got) != 0 {
		t.Fatalf("accepted batch must stay empty, got %d files", len(got))
	}
	if c.State().Error == "" {
		t.Fatal("expected error message in state")
	}
}

func TestSubmitEmptyBatch(t *testing.T) {
	c := NewCoordinator(&scriptedRelay{})
	if err := c.SubmitBatch(context.Background()); !errors.Is(err, ErrEmptyBatch) {
		t.Fatalf("expected ErrEmptyBatch, got %v", err)
	}
}

func TestPartialFailuresPreserveOrder(t *testing.T) {
	relay := &scriptedRelay{failAt: map[int]error{
		1: errors.New("relay call: connection refused"),
		3: errors.New("relay failed with status 500"),
	}}
	c := NewCoordinator(relay)

	var files []models.File
	for i := 0; i < 5; i++ {
		files = append(files, pdf(fmt.Sprintf("doc-%d.pdf", i)))
	}
	if err := c.Select(files...); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := c.SubmitBatch(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}

	state := c.State()
	if state.Uploading {
		t.Fatal("terminal state must have uploading=false")
	}
	if len(state.Results) != len(files) {
		t.Fatalf("expected %d outcomes, got %d", len(files), len(state.Results))
	}
	for i, outcome := range state.Results {
		if outcome.FileName != files[i].Name {
			t.Fatalf("outcome %d is %q, want %q", i, outcome.FileName, files[i].Name)
		}
		_, shouldFail := relay.failAt[i]
		if shouldFail && outcome.Status != models.OutcomeError {
			t.Fatalf("outcome %d should be error, got %s", i, outcome.Status)
		}
		if !shouldFail && outcome.Status != models.OutcomeSuccess {
			t.Fatalf("outcome %d should be success, got %s (%s)", i, outcome.Status, outcome.ErrorMessage)
		}
		if shouldFail && outcome.ErrorMessage == "" {
			t.Fatalf("outcome %d missing error message", i)
		}
	}

	// strictly sequential: calls arrive in selection order
	for i, name := range relay.calls {
		if name != files[i].Name {
			t.Fatalf("call %d was %q, want %q", i, name, files[i].Name)
		}
	}
}

func TestUnsuccessfulEnvelopeBecomesErrorOutcome(t *testing.T) {
	relay := &envelopeErrorRelay{}
	c := NewCoordinator(relay)
	if err := c.Select(pdf("a.pdf")); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := c.SubmitBatch(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	state := c.State()
	if len(state.Results) != 1 || state.Results[0].Status != models.OutcomeError {
		t.Fatalf("unexpected results: %+v", state.Results)
	}
	if state.Results[0].ErrorMessage != "ANTHROPIC_API_KEY not configured" {
		t.Fatalf("error message = %q", state.Results[0].ErrorMessage)
	}
}

type envelopeErrorRelay struct{}

func (r *envelopeErrorRelay) Validate(context.Context, models.File) (*models.RelayResponse, error) {
	return &models.RelayResponse{Success: false, Error: "ANTHROPIC_API_KEY not configured"}, nil
}

func TestRawFallbackOutcome(t *testing.T) {
	relay := &scriptedRelay{raw: map[int]string{
		0: `{"rawResponse":"not json","parseError":"invalid character 'o'"}`,
	}}
	c := NewCoordinator(relay)
	if err := c.Select(pdf("scan.pdf")); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := c.SubmitBatch(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	outcome := c.State().Results[0]
	if outcome.Status != models.OutcomeSuccess {
		t.Fatalf("raw fallback is still a success outcome, got %s", outcome.Status)
	}
	if !outcome.Payload.RawFallback() || outcome.Payload.RawResponse != "not json" {
		t.Fatalf("unexpected payload: %+v", outcome.Payload)
	}
}

func TestResetClearsEverything(t *testing.T) {
	c := NewCoordinator(&scriptedRelay{})
	if err := c.Select(pdf("a.pdf"), pdf("b.pdf")); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := c.SubmitBatch(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}

	c.Reset()
	state := c.State()
	if len(state.Results) != 0 || state.Error != "" || state.Uploading || state.TotalCount != 0 {
		t.Fatalf("state not cleared: %+v", state)
	}
	if len(c.Batch()) != 0 {
		t.Fatal("selection not cleared")
	}
}

func TestSingleFileEndToEnd(t *testing.T) {
	c := NewCoordinator(&scriptedRelay{})
	doc := pdf("invoice.pdf")
	doc.Size = 120 * 1024
	if err := c.Select(doc); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := c.SubmitBatch(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}

	state := c.State()
	if len(state.Results) != 1 {
		t.Fatalf("expected 1 outcome, got %d", len(state.Results))
	}
	outcome := state.Results[0]
	if outcome.Status != models.OutcomeSuccess {
		t.Fatalf("status = %s (%s)", outcome.Status, outcome.ErrorMessage)
	}
	if outcome.Payload.ValidationStatus != models.StatusPass {
		t.Fatalf("validationStatus = %q", outcome.Payload.ValidationStatus)
	}
	if outcome.Payload.Confidence == nil || *outcome.Payload.Confidence != 0.92 {
		t.Fatalf("confidence = %v", outcome.Payload.Confidence)
	}
}
