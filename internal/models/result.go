package models

import "encoding/json"

// ValidationStatus is the model's overall verdict for a document.
type ValidationStatus string

const (
	StatusPass    ValidationStatus = "PASS"
	StatusWarning ValidationStatus = "WARNING"
	StatusFail    ValidationStatus = "FAIL"
)

// IssueSeverity grades a single flagged problem.
type IssueSeverity string

const (
	SeverityError   IssueSeverity = "ERROR"
	SeverityWarning IssueSeverity = "WARNING"
)

// Issue is one problem the model flagged in a document.
type Issue struct {
	Field    string        `json:"field"`
	Severity IssueSeverity `json:"severity"`
	Message  string        `json:"message"`
}

// ValidationResult is the typed view of a relay result. It is a tagged
// union: either the structured extraction fields are populated, or
// RawResponse/ParseError carry model text that did not parse. The raw
// variant is a first-class result, not an error.
type ValidationResult struct {
	DocumentType     string           `json:"documentType,omitempty"`
	ExtractedFields  map[string]any   `json:"extractedFields,omitempty"`
	ValidationStatus ValidationStatus `json:"validationStatus,omitempty"`
	Issues           []Issue          `json:"issues,omitempty"`
	Confidence       *float64         `json:"confidence,omitempty"`

	RawResponse string `json:"rawResponse,omitempty"`
	ParseError  string `json:"parseError,omitempty"`
}

// RawFallback reports whether the result carries unparsed model text
// instead of structured fields.
func (r *ValidationResult) RawFallback() bool {
	return r.ParseError != "" || r.RawResponse != ""
}

// DecodeValidationResult interprets a relay result payload. The payload is
// whatever JSON the model produced, so anything that does not fit the
// structured shape is preserved verbatim as the raw variant.
func DecodeValidationResult(raw json.RawMessage) *ValidationResult {
	if len(raw) == 0 {
		return &ValidationResult{}
	}
	var vr ValidationResult
	if err := json.Unmarshal(raw, &vr); err != nil {
		return &ValidationResult{RawResponse: string(raw), ParseError: err.Error()}
	}
	return &vr
}
