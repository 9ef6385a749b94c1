package domain

import (
	"github.com/totegamma/repoindex"
)

// RawRecord is one row of the generic record log.
type RawRecord struct {
	URI        repoindex.RecordURI `json:"uri"`
	Raw        string              `json:"raw"`
	IndexedAt  string              `json:"indexedAt"`
	ReceivedAt string              `json:"receivedAt"`
}

// RecordEntry is what collection listings return.
type RecordEntry struct {
	URI   string         `json:"uri"`
	Value map[string]any `json:"value"`
}

// ListRecordsQuery pages through one collection of one repository.
// Before and After are exclusive record key bounds.
type ListRecordsQuery struct {
	Did        string
	Collection string
	Limit      int
	Reverse    bool
	Before     *string
	After      *string
}

type ValidationCode string

const (
	ValidationFull         ValidationCode = "full"
	ValidationIncompatible ValidationCode = "incompatible"
	ValidationInvalid      ValidationCode = "invalid"
)

// ValidationResult is a schema verdict. A failed validation is data, not an error.
type ValidationResult struct {
	Valid   bool           `json:"valid"`
	Code    ValidationCode `json:"code"`
	Message string         `json:"message,omitempty"`
}

func ValidationOK() ValidationResult {
	return ValidationResult{Valid: true, Code: ValidationFull}
}
