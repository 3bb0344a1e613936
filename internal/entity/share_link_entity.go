package entity

import (
	"time"

	"github.com/google/uuid"
)

type ShareLink struct {
	Id           uuid.UUID
	NoteId       uuid.UUID
	UserId       uuid.UUID
	Token        string
	PasswordHash *string
	ExpiresAt    *time.Time
	CreatedAt    time.Time
}

func (s *ShareLink) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && now.After(*s.ExpiresAt)
}
