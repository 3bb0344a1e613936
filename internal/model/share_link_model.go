package model

import (
	"time"

	"github.com/google/uuid"
)

type ShareLink struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	NoteId       uuid.UUID `gorm:"type:uuid;not null;index"`
	UserId       uuid.UUID `gorm:"type:uuid;not null;index"`
	Token        string    `gorm:"type:varchar(64);uniqueIndex;not null"`
	PasswordHash *string   `gorm:"type:varchar(255)"`
	ExpiresAt    *time.Time
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

func (ShareLink) TableName() string {
	return "share_links"
}
