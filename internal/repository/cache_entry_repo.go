package repository

import (
	"context"
	"errors"
	"time"

	"github.com/timmy/catknow/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CacheEntryRepository stores cached upstream responses.
type CacheEntryRepository struct {
	db *gorm.DB
}

// NewCacheEntryRepository creates a new CacheEntryRepository.
func NewCacheEntryRepository(db *gorm.DB) *CacheEntryRepository {
	return &CacheEntryRepository{db: db}
}

// Get retrieves the entry stored under (name, key).
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - name: cache store name.
//   - key: request URL.
// Returns:
//   - *domain.CacheEntry: entry if present.
//   - bool: false when no row exists.
//   - error: non-nil if the lookup fails.
func (r *CacheEntryRepository) Get(ctx context.Context, name, key string) (*domain.CacheEntry, bool, error) {
	var entry domain.CacheEntry
	err := r.db.WithContext(ctx).First(&entry, "name = ? AND key = ?", name, key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &entry, true, nil
}

// Upsert creates or replaces the entry keyed by (name, key).
func (r *CacheEntryRepository) Upsert(ctx context.Context, entry *domain.CacheEntry) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "stored_at"}),
	}).Create(entry).Error
}

// DeleteIfUnchanged removes the entry under (name, key) only while its
// stored_at still equals storedAt, so a row rewritten since it was read
// survives. Returns whether a row was removed.
func (r *CacheEntryRepository) DeleteIfUnchanged(ctx context.Context, name, key string, storedAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("name = ? AND key = ? AND stored_at = ?", name, key, storedAt).
		Delete(&domain.CacheEntry{})
	return res.RowsAffected > 0, res.Error
}

// DeleteBefore removes entries of a named store stored before cutoff.
// Returns the number of rows removed.
func (r *CacheEntryRepository) DeleteBefore(ctx context.Context, name string, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("name = ? AND stored_at < ?", name, cutoff).
		Delete(&domain.CacheEntry{})
	return res.RowsAffected, res.Error
}

// Count returns the number of entries in a named store.
func (r *CacheEntryRepository) Count(ctx context.Context, name string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.CacheEntry{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
