package snapshot

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"gorm.io/gorm"
)

// Codec serializes the full datastore into one self-describing document
// and parses raw document bytes back into typed form.
type Codec struct {
	db       *gorm.DB
	registry []Collection
}

// NewCodec creates a codec over the given collection registry.
func NewCodec(db *gorm.DB, registry []Collection) *Codec {
	return &Codec{db: db, registry: registry}
}

// Registry returns the collections the codec operates on, in export order.
func (c *Codec) Registry() []Collection {
	return c.registry
}

// Encode reads every registered collection inside one read transaction and
// wraps the result with generation metadata. If any collection read fails
// the whole encode fails and nothing is returned.
func (c *Codec) Encode(ctx context.Context) (*Document, error) {
	doc := &Document{
		SchemaVersion: SupportedSchemaVersion,
		GeneratedAt:   time.Now().UTC(),
		Collections:   make(map[string][]Record, len(c.registry)),
	}

	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, col := range c.registry {
			records, err := col.Read(tx)
			if err != nil {
				return fmt.Errorf("export collection %q: %w", col.Name, err)
			}
			doc.Collections[col.Name] = records
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return doc, nil
}

// Decode parses raw bytes as a snapshot document. Structural violations
// return ErrMalformedDocument; documents newer than this build return
// ErrUnsupportedVersion. Unknown collection keys are left in place for the
// restore policy to decide on.
func (c *Codec) Decode(raw []byte) (*Document, error) {
	var head struct {
		SchemaVersion *int                `json:"schemaVersion"`
		GeneratedAt   *time.Time          `json:"generatedAt"`
		Collections   map[string][]Record `json:"collections"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if head.SchemaVersion == nil {
		return nil, fmt.Errorf("%w: missing schemaVersion", ErrMalformedDocument)
	}
	if head.GeneratedAt == nil {
		return nil, fmt.Errorf("%w: missing generatedAt", ErrMalformedDocument)
	}
	if head.Collections == nil {
		return nil, fmt.Errorf("%w: missing collections", ErrMalformedDocument)
	}
	if *head.SchemaVersion > SupportedSchemaVersion {
		return nil, fmt.Errorf("%w: document version %d, supported up to %d",
			ErrUnsupportedVersion, *head.SchemaVersion, SupportedSchemaVersion)
	}
	if *head.SchemaVersion < 1 {
		return nil, fmt.Errorf("%w: invalid schemaVersion %d", ErrMalformedDocument, *head.SchemaVersion)
	}

	return &Document{
		SchemaVersion: *head.SchemaVersion,
		GeneratedAt:   *head.GeneratedAt,
		Collections:   head.Collections,
	}, nil
}

// Validate applies the codec's structural rules to an already parsed
// document, as restore preconditions.
func (c *Codec) Validate(doc *Document) error {
	if doc == nil || doc.Collections == nil {
		return fmt.Errorf("%w: empty document", ErrMalformedDocument)
	}
	if doc.SchemaVersion > SupportedSchemaVersion {
		return fmt.Errorf("%w: document version %d, supported up to %d",
			ErrUnsupportedVersion, doc.SchemaVersion, SupportedSchemaVersion)
	}
	if doc.SchemaVersion < 1 {
		return fmt.Errorf("%w: invalid schemaVersion %d", ErrMalformedDocument, doc.SchemaVersion)
	}
	return nil
}
