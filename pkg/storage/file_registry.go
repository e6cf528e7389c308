package storage

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ExportFile describes a generated artifact tracked by the registry.
type ExportFile struct {
	ID        string
	Name      string
	Path      string
	Size      int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

// FileRegistry owns the mapping from opaque file ids to on-disk locations and
// expiry. It is the only state mutated by concurrent export workers, so every
// operation holds the lock.
type FileRegistry struct {
	mu      sync.RWMutex
	files   map[string]ExportFile
	storage *LocalStorage
	logger  *zap.Logger
}

// NewFileRegistry constructs a registry over the given storage root.
func NewFileRegistry(storage *LocalStorage, logger *zap.Logger) *FileRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileRegistry{
		files:   make(map[string]ExportFile),
		storage: storage,
		logger:  logger,
	}
}

// Register records a generated file under its id with the provided TTL and
// returns the completed entry.
func (r *FileRegistry) Register(file ExportFile, ttl time.Duration) ExportFile {
	now := time.Now().UTC()
	if file.CreatedAt.IsZero() {
		file.CreatedAt = now
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	file.ExpiresAt = file.CreatedAt.Add(ttl)

	r.mu.Lock()
	r.files[file.ID] = file
	r.mu.Unlock()
	return file
}

// Resolve returns the entry and absolute path for a valid file. Unknown ids,
// expired entries, and entries whose file vanished from disk all report not
// found; callers cannot distinguish the cases.
func (r *FileRegistry) Resolve(id string) (ExportFile, string, bool) {
	r.mu.RLock()
	file, ok := r.files[id]
	r.mu.RUnlock()
	if !ok {
		return ExportFile{}, "", false
	}
	if time.Now().UTC().After(file.ExpiresAt) {
		return ExportFile{}, "", false
	}
	path := r.storage.Path(file.Path)
	if _, err := os.Stat(path); err != nil {
		return ExportFile{}, "", false
	}
	return file, path, true
}

// SweepExpired deletes on-disk files and registry entries past expiry,
// returning the ids removed.
func (r *FileRegistry) SweepExpired() []string {
	now := time.Now().UTC()

	r.mu.Lock()
	expired := make([]ExportFile, 0)
	for id, file := range r.files {
		if now.After(file.ExpiresAt) {
			expired = append(expired, file)
			delete(r.files, id)
		}
	}
	r.mu.Unlock()

	removed := make([]string, 0, len(expired))
	for _, file := range expired {
		if err := r.storage.Delete(file.Path); err != nil {
			r.logger.Sugar().Warnw("failed to delete expired export file", "file_id", file.ID, "error", err)
			continue
		}
		removed = append(removed, file.ID)
	}
	return removed
}

// StartSweeper runs SweepExpired on a timer until the context is cancelled.
func (r *FileRegistry) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := r.SweepExpired(); len(removed) > 0 {
					r.logger.Sugar().Infow("swept expired export files", "count", len(removed))
				}
			}
		}
	}()
}
