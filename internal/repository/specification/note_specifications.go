package specification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NoteOwnedByUser struct {
	UserID uuid.UUID
}

func (s NoteOwnedByUser) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("notes.user_id = ?", s.UserID)
}

// UpdatedSince matches notes touched strictly after Since, including
// soft deletions.
type UpdatedSince struct {
	Since time.Time
}

func (s UpdatedSince) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("(notes.updated_at > ? OR notes.deleted_at > ?)", s.Since, s.Since)
}

type FavoritesOnly struct{}

func (s FavoritesOnly) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("notes.is_favorite = ?", true)
}

type NoteHasTag struct {
	TagID uuid.UUID
}

func (s NoteHasTag) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("notes.id IN (?)",
		db.Session(&gorm.Session{NewDB: true}).Table("note_tags").Select("note_id").Where("tag_id = ?", s.TagID))
}

type TitleContains struct {
	Query string
}

func (s TitleContains) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("notes.title ILIKE ?", "%"+s.Query+"%")
}

// WithSections preloads sections in display order.
type WithSections struct{}

func (s WithSections) Apply(db *gorm.DB) *gorm.DB {
	return db.Preload("Sections", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	})
}

type WithTags struct{}

func (s WithTags) Apply(db *gorm.DB) *gorm.DB {
	return db.Preload("Tags")
}

// RecentlyUpdated orders by updated_at, newest first.
type RecentlyUpdated struct{}

func (s RecentlyUpdated) Apply(db *gorm.DB) *gorm.DB {
	return db.Order("notes.updated_at DESC")
}
