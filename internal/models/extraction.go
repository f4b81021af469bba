package models

import (
	"time"
)

// ProviderKind identifies one of the interchangeable text-extraction backends
type ProviderKind string

const (
	ProviderLibrary ProviderKind = "library"
	ProviderBinary  ProviderKind = "binary"
	ProviderCloud   ProviderKind = "cloud"
)

// Valid reports whether the kind names a known provider
func (k ProviderKind) Valid() bool {
	switch k {
	case ProviderLibrary, ProviderBinary, ProviderCloud:
		return true
	}
	return false
}

// ExtractionRecord represents one saved extraction result
type ExtractionRecord struct {
	ID             int          `json:"id"`
	SourceFilename string       `json:"source_filename"`
	ExtractedText  string       `json:"extracted_text"`
	Provider       ProviderKind `json:"provider"`
	ImageMime      string       `json:"image_mime"`
	ArtifactName   *string      `json:"artifact_name,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}

// ExtractionResponse is the payload returned by the OCR endpoints
type ExtractionResponse struct {
	Text           string       `json:"text"`
	Provider       ProviderKind `json:"provider"`
	SourceFilename string       `json:"source_filename"`
	Timestamp      time.Time    `json:"timestamp"`
}

// SaveExtractionRequest carries the form fields of POST /api/save/
type SaveExtractionRequest struct {
	Text           string `json:"text" form:"text"`
	ImageMime      string `json:"image_mime" form:"image_mime"`
	Provider       string `json:"provider" form:"provider"`
	SourceFilename string `json:"source_filename" form:"source_filename"`
	// Filename optionally names the artifact; left empty, a unique name is generated.
	Filename string `json:"filename" form:"filename"`
}

// SaveExtractionResponse confirms a persisted extraction
type SaveExtractionResponse struct {
	Saved        bool   `json:"saved"`
	RecordID     int    `json:"record_id"`
	ArtifactName string `json:"artifact_name"`
}

// ExtractionListParams controls pagination of record listings
type ExtractionListParams struct {
	Limit  int
	Offset int
}
