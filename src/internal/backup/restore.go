package backup

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/casapps/cassupply/src/internal/snapshot"
)

// RestoreReport carries the per-collection record counts of a completed
// restore.
type RestoreReport struct {
	Replaced map[string]int `json:"replaced"`
	Total    int            `json:"total"`
}

// Restorer performs an all-or-nothing replacement of live data with the
// contents of a snapshot document. It holds no state between calls.
type Restorer struct {
	db     *gorm.DB
	codec  *snapshot.Codec
	store  *Store
	strict bool
	log    *zap.Logger
}

// NewRestorer creates a restore executor. When strict is set, document
// collections the datastore does not know about fail validation instead of
// being ignored.
func NewRestorer(db *gorm.DB, codec *snapshot.Codec, store *Store, strict bool, log *zap.Logger) *Restorer {
	return &Restorer{db: db, codec: codec, store: store, strict: strict, log: log}
}

// Restore replaces the content of every registered collection with the
// supplied records in a single transaction. Collections absent from the
// document are emptied: a restore is a full replacement, never a merge.
// On any failure the datastore is left exactly as it was before the call.
func (r *Restorer) Restore(ctx context.Context, doc *snapshot.Document) (*RestoreReport, error) {
	if err := r.codec.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	if r.strict {
		if err := r.checkKnownCollections(doc); err != nil {
			return nil, err
		}
	}

	// Shares the store lock so a restore and a backup never interleave.
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	report := &RestoreReport{Replaced: make(map[string]int)}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, col := range r.codec.Registry() {
			count, err := col.Replace(tx, doc.Collections[col.Name])
			if err != nil {
				return err
			}
			report.Replaced[col.Name] = count
			report.Total += count
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	r.log.Info("restore completed", zap.Int("records", report.Total))
	return report, nil
}

func (r *Restorer) checkKnownCollections(doc *snapshot.Document) error {
	known := make(map[string]bool, len(r.codec.Registry()))
	for _, col := range r.codec.Registry() {
		known[col.Name] = true
	}
	for name := range doc.Collections {
		if !known[name] {
			return fmt.Errorf("%w: unknown collection %q", ErrValidationFailed, name)
		}
	}
	return nil
}
