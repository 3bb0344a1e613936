package dto

import (
	"time"

	"github.com/google/uuid"
)

type NoteSectionPayload struct {
	Title     string   `json:"title" validate:"max=255"`
	Summary   string   `json:"summary"`
	Bullets   []string `json:"bullets"`
	Language  string   `json:"language" validate:"omitempty,oneof=english hindi hinglish"`
	Tone      string   `json:"tone" validate:"omitempty,oneof=neutral casual interview"`
	StartTime float64  `json:"start_time" validate:"gte=0"`
	EndTime   float64  `json:"end_time" validate:"gte=0"`
}

type CreateNoteRequest struct {
	Title      string               `json:"title" validate:"required,max=255"`
	Content    string               `json:"content"`
	Summary    string               `json:"summary"`
	SourceType string               `json:"source_type" validate:"omitempty,oneof=manual youtube ai"`
	VideoURL   *string              `json:"video_url" validate:"omitempty,url"`
	Sections   []NoteSectionPayload `json:"sections" validate:"dive"`
	Tags       []string             `json:"tags" validate:"dive,required,max=50"`
	DeviceId   string               `json:"device_id"`
}

type UpdateNoteRequest struct {
	Id       uuid.UUID
	Title    string               `json:"title" validate:"required,max=255"`
	Content  string               `json:"content"`
	Summary  string               `json:"summary"`
	Sections []NoteSectionPayload `json:"sections" validate:"dive"`
	Tags     []string             `json:"tags" validate:"dive,required,max=50"`
	// Version, when set, must match the stored version.
	Version  int    `json:"version" validate:"gte=0"`
	DeviceId string `json:"device_id"`
}

type ListNotesQuery struct {
	Favorite bool
	TagId    *uuid.UUID
	Query    string
}

type NoteResponse struct {
	Id         uuid.UUID            `json:"id"`
	Title      string               `json:"title"`
	Content    string               `json:"content"`
	Summary    string               `json:"summary"`
	SourceType string               `json:"source_type"`
	VideoURL   *string              `json:"video_url,omitempty"`
	IsFavorite bool                 `json:"is_favorite"`
	Version    int                  `json:"version"`
	Sections   []NoteSectionPayload `json:"sections"`
	Tags       []TagResponse        `json:"tags"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  *time.Time           `json:"updated_at"`
}

type NoteListItem struct {
	Id         uuid.UUID     `json:"id"`
	Title      string        `json:"title"`
	Summary    string        `json:"summary"`
	SourceType string        `json:"source_type"`
	IsFavorite bool          `json:"is_favorite"`
	Version    int           `json:"version"`
	Tags       []TagResponse `json:"tags"`
	UpdatedAt  *time.Time    `json:"updated_at"`
}

type FavoriteResponse struct {
	Id         uuid.UUID `json:"id"`
	IsFavorite bool      `json:"is_favorite"`
	Version    int       `json:"version"`
}

type ShareNoteRequest struct {
	Password       string `json:"password" validate:"omitempty,min=4,max=72"`
	ExpiresInHours int    `json:"expires_in_hours" validate:"gte=0,lte=8760"`
}

type ShareNoteResponse struct {
	Token     string     `json:"token"`
	URL       string     `json:"url"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Protected bool       `json:"protected"`
}

type SharedNoteResponse struct {
	Title      string               `json:"title"`
	Content    string               `json:"content"`
	Summary    string               `json:"summary"`
	SourceType string               `json:"source_type"`
	VideoURL   *string              `json:"video_url,omitempty"`
	Sections   []NoteSectionPayload `json:"sections"`
	Tags       []string             `json:"tags"`
	UpdatedAt  *time.Time           `json:"updated_at"`
}
