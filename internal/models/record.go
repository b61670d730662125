package models

import "time"

// ValidationRecord is one persisted relay completion in the history store.
type ValidationRecord struct {
	ID               int64     `json:"id"`
	FileName         string    `json:"file_name"`
	FileSize         int64     `json:"file_size"`
	MediaType        string    `json:"media_type"`
	Success          bool      `json:"success"`
	ValidationStatus string    `json:"validation_status"`
	Result           string    `json:"result"`
	Error            string    `json:"error"`
	InputTokens      int64     `json:"input_tokens"`
	OutputTokens     int64     `json:"output_tokens"`
	CreatedAt        time.Time `json:"created_at"`
}
