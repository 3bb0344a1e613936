package entity

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	Id           uuid.UUID
	Email        string
	PasswordHash string
	FullName     string
	AiApiKey     *string
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}

// HasAiKey reports whether the user configured a provider credential.
func (u *User) HasAiKey() bool {
	return u.AiApiKey != nil && *u.AiApiKey != ""
}
