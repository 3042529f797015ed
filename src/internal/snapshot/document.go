package snapshot

import (
	"errors"
	"time"
)

// SupportedSchemaVersion is the newest document version this build understands.
const SupportedSchemaVersion = 1

var (
	// ErrMalformedDocument indicates raw bytes that do not parse into a
	// structurally valid snapshot document.
	ErrMalformedDocument = errors.New("malformed snapshot document")

	// ErrUnsupportedVersion indicates a document newer than this build.
	ErrUnsupportedVersion = errors.New("unsupported snapshot schema version")
)

// Record is one exported row, field name to value.
type Record map[string]interface{}

// Document is the full exported state of the datastore.
type Document struct {
	SchemaVersion int                 `json:"schemaVersion"`
	GeneratedAt   time.Time           `json:"generatedAt"`
	Collections   map[string][]Record `json:"collections"`
}
