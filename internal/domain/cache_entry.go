package domain

import "time"

// CacheEntry is a cached upstream response stored in a named cache.
// Key is the full request URL including the query string.
type CacheEntry struct {
	Name     string    `gorm:"type:text;primaryKey" json:"name"`
	Key      string    `gorm:"type:text;primaryKey" json:"key"`
	Value    []byte    `gorm:"not null" json:"value"`
	StoredAt time.Time `gorm:"not null;index:idx_cache_entries_stored_at" json:"stored_at"`
}

// TableName returns the database table name for CacheEntry.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (CacheEntry) TableName() string {
	return "cache_entries"
}

// IsStale reports whether the entry is older than window at now.
func (e CacheEntry) IsStale(now time.Time, window time.Duration) bool {
	return now.Sub(e.StoredAt) >= window
}
