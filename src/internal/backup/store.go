package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/casapps/cassupply/src/internal/database/models"
	"github.com/casapps/cassupply/src/internal/snapshot"
)

// Store persists snapshot documents as named artifacts and maintains the
// queryable backup history. Create is serialized: at most one snapshot is
// written at a time, and the Restorer shares the same lock so a backup and
// a restore can never interleave their writes.
type Store struct {
	db  *gorm.DB
	dir string
	log *zap.Logger

	// mu guards artifact + record writes; held by Restorer transactions too.
	mu sync.Mutex
}

// NewStore creates a backup store writing artifacts under dir.
func NewStore(db *gorm.DB, dir string, log *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create backup directory: %w", err)
	}
	return &Store{db: db, dir: dir, log: log}, nil
}

// Create serializes the document to a durable artifact and appends a history
// record. The record is only published after the artifact is fully durable,
// so a concurrent Fetch can never observe a half-written backup.
func (s *Store) Create(ctx context.Context, doc *snapshot.Document, source, createdBy string) (*models.Backup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	record := &models.Backup{
		ID:        uuid.New(),
		Filename:  fmt.Sprintf("cassupply-backup-%s.json", doc.GeneratedAt.UTC().Format("20060102-150405")),
		SizeBytes: int64(len(raw)),
		Source:    source,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	}

	path := s.artifactPath(record.ID)
	if err := writeFileAtomic(path, raw); err != nil {
		return nil, fmt.Errorf("%w: write artifact: %v", ErrStorageFailure, err)
	}

	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("%w: record backup: %v", ErrStorageFailure, err)
	}

	s.log.Info("backup created",
		zap.String("id", record.ID.String()),
		zap.String("source", source),
		zap.String("created_by", createdBy),
		zap.Int64("size_bytes", record.SizeBytes))

	return record, nil
}

// NormalizePage clamps paging arguments to the supported window. Callers
// echoing paging metadata should report these values, not the raw input.
func NormalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}

// List returns history newest-first. page is 1-based; pages past the end
// return an empty slice with the unchanged total.
func (s *Store) List(page, pageSize int) ([]models.Backup, int64, error) {
	page, pageSize = NormalizePage(page, pageSize)

	var total int64
	if err := s.db.Model(&models.Backup{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count backups: %w", err)
	}

	backups := make([]models.Backup, 0, pageSize)
	err := s.db.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&backups).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list backups: %w", err)
	}

	return backups, total, nil
}

// Get returns the history record for one backup.
func (s *Store) Get(id uuid.UUID) (*models.Backup, error) {
	var record models.Backup
	if err := s.db.First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load backup record: %w", err)
	}
	return &record, nil
}

// Fetch returns the raw stored document bytes for download.
func (s *Store) Fetch(id uuid.UUID) ([]byte, error) {
	record, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(s.artifactPath(record.ID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	return raw, nil
}

// Delete removes one backup record and its artifact.
func (s *Store) Delete(id uuid.UUID) error {
	record, err := s.Get(id)
	if err != nil {
		return err
	}
	if err := s.db.Delete(record).Error; err != nil {
		return fmt.Errorf("%w: delete record: %v", ErrStorageFailure, err)
	}
	if err := os.Remove(s.artifactPath(record.ID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: delete artifact: %v", ErrStorageFailure, err)
	}
	s.log.Info("backup deleted", zap.String("id", id.String()))
	return nil
}

// Prune removes all but the keepLast newest backups. Retention hook; not
// called by any route yet.
func (s *Store) Prune(keepLast int) error {
	if keepLast < 0 {
		keepLast = 0
	}
	var stale []models.Backup
	err := s.db.Order("created_at DESC").Offset(keepLast).Find(&stale).Error
	if err != nil {
		return fmt.Errorf("list stale backups: %w", err)
	}
	for _, record := range stale {
		if err := s.Delete(record.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) artifactPath(id uuid.UUID) string {
	return filepath.Join(s.dir, id.String()+".json")
}

// writeFileAtomic writes data to a temp file, syncs it, then renames it into
// place so readers never see a partially written artifact.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".backup-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
