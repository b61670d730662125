// Package batch drives sequential multi-file submission to the validation
// relay and aggregates per-file outcomes.
package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/danielbnavia/navia-doc-validator/internal/models"
)

// ErrEmptyBatch is returned when SubmitBatch is called with no selection.
var ErrEmptyBatch = errors.New("no files selected")

// ErrBatchInFlight is returned when a submission is already running.
var ErrBatchInFlight = errors.New("batch submission already in progress")

// Relay is the per-file validation call the coordinator depends on.
type Relay interface {
	Validate(ctx context.Context, doc models.File) (*models.RelayResponse, error)
}

// Coordinator owns the upload batch and its observable state. Files are
// submitted strictly one at a time: each relay call completes, success or
// failure, before the next begins. That policy keeps the inference API's
// rate limits intact and must not be parallelized.
type Coordinator struct {
	relay Relay

	mu    sync.Mutex
	batch []models.File
	state models.UploadState
}

// NewCoordinator builds a coordinator over the given relay.
func NewCoordinator(relay Relay) *Coordinator {
	return &Coordinator{relay: relay, state: initialState()}
}

func initialState() models.UploadState {
	return models.UploadState{Results: []models.FileOutcome{}}
}

// Select replaces the current batch with the given files. The selection is
// all-or-nothing: a single non-PDF entry rejects the whole selection and
// leaves the accepted batch empty.
func (c *Coordinator) Select(files ...models.File) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Uploading {
		return ErrBatchInFlight
	}
	for _, f := range files {
		if f.MediaType != models.MediaTypePDF {
			c.batch = nil
			c.state.Error = fmt.Sprintf("only PDF files are accepted: %q is %s", f.Name, f.MediaType)
			return errors.New(c.state.Error)
		}
	}
	c.batch = append([]models.File(nil), files...)
	c.state.Error = ""
	return nil
}

// Batch returns a copy of the currently selected files.
func (c *Coordinator) Batch() []models.File {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.File(nil), c.batch...)
}

// SubmitBatch runs the selected files through the relay in order. Every
// file yields exactly one outcome: a transport failure or an unsuccessful
// envelope becomes an error outcome and the remaining files are still
// attempted. The terminal state always has Uploading=false and one result
// per selected file.
func (c *Coordinator) SubmitBatch(ctx context.Context) error {
	c.mu.Lock()
	if c.state.Uploading {
		c.mu.Unlock()
		return ErrBatchInFlight
	}
	if len(c.batch) == 0 {
		c.state.Error = ErrEmptyBatch.Error()
		c.mu.Unlock()
		return ErrEmptyBatch
	}
	files := append([]models.File(nil), c.batch...)
	c.state = models.UploadState{
		Uploading:  true,
		Results:    []models.FileOutcome{},
		TotalCount: len(files),
	}
	c.mu.Unlock()

	for i, doc := range files {
		c.mu.Lock()
		c.state.CurrentIndex = i
		c.mu.Unlock()

		outcome := c.validateOne(ctx, doc)

		c.mu.Lock()
		c.state.Results = append(c.state.Results, outcome)
		c.mu.Unlock()
	}

	c.mu.Lock()
	c.state.Uploading = false
	c.state.CurrentIndex = len(files)
	c.mu.Unlock()
	return nil
}

// validateOne performs a single awaited relay call and normalizes every
// failure mode into an error outcome. No retries.
func (c *Coordinator) validateOne(ctx context.Context, doc models.File) models.FileOutcome {
	envelope, err := c.relay.Validate(ctx, doc)
	if err != nil {
		return models.FileOutcome{
			FileName:     doc.Name,
			Status:       models.OutcomeError,
			ErrorMessage: err.Error(),
		}
	}
	if !envelope.Success {
		msg := envelope.Error
		if msg == "" {
			msg = "validation failed"
		}
		return models.FileOutcome{
			FileName:     doc.Name,
			Status:       models.OutcomeError,
			ErrorMessage: msg,
		}
	}
	return models.FileOutcome{
		FileName: doc.Name,
		Status:   models.OutcomeSuccess,
		Payload:  models.DecodeValidationResult(envelope.Result),
		Usage:    envelope.Usage,
	}
}

// State returns a snapshot of the upload state.
func (c *Coordinator) State() models.UploadState {
	c.mu.Lock()
	defer c.mu.Unlock()
	snapshot := c.state
	snapshot.Results = append([]models.FileOutcome(nil), c.state.Results...)
	return snapshot
}

// Reset atomically clears the selection and the upload state.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batch = nil
	c.state = initialState()
}
