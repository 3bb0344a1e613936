package dto

import (
	"time"

	"github.com/google/uuid"
)

type UserProfileResponse struct {
	Id        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	HasAiKey  bool      `json:"has_ai_key"`
	CreatedAt time.Time `json:"created_at"`
}

// UpdateAiKeyRequest sets the user's provider key. An empty key clears it.
type UpdateAiKeyRequest struct {
	ApiKey string `json:"api_key" validate:"omitempty,min=10,max=512"`
}
