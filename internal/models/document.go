package models

// MediaTypePDF is the only media type accepted into an upload batch.
const MediaTypePDF = "application/pdf"

// File is one user-selected document. Name, size, declared media type and
// raw bytes travel together through selection, relay and rendering.
type File struct {
	Name      string
	Size      int64
	MediaType string
	Data      []byte
}
