package scope

import "gorm.io/gorm"

// WithSoftDelete includes soft deleted records. Sync pulls need them to
// propagate deletions.
func WithSoftDelete(db *gorm.DB) *gorm.DB {
	return db.Unscoped()
}
