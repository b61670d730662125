package models

// OutcomeStatus marks how one file's relay call ended.
type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeError   OutcomeStatus = "error"
)

// FileOutcome is the per-file record accumulated during a batch run.
// Exactly one of Payload or ErrorMessage is meaningful, keyed by Status.
type FileOutcome struct {
	FileName     string            `json:"fileName"`
	Status       OutcomeStatus     `json:"status"`
	Payload      *ValidationResult `json:"payload,omitempty"`
	Usage        *Usage            `json:"usage,omitempty"`
	ErrorMessage string            `json:"errorMessage,omitempty"`
}

// UploadState is the externally observable state of a batch run, owned by
// the coordinator. CurrentIndex is meaningful only while Uploading is true.
type UploadState struct {
	Uploading    bool          `json:"uploading"`
	Error        string        `json:"error,omitempty"`
	Results      []FileOutcome `json:"results"`
	CurrentIndex int           `json:"currentIndex"`
	TotalCount   int           `json:"totalCount"`
}
