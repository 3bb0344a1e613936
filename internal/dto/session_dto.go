package dto

import (
	"time"

	"notely-be/pkg/variant"

	"github.com/google/uuid"
)

// CreateSessionRequest starts an editing session either from a transcript
// (sections are detected) or from an existing note.
type CreateSessionRequest struct {
	NoteId     *uuid.UUID `json:"note_id"`
	Title      string     `json:"title" validate:"max=255"`
	VideoURL   *string    `json:"video_url" validate:"omitempty,url"`
	Transcript string     `json:"transcript" validate:"required_without=NoteId"`
}

type SessionResponse struct {
	Id          string            `json:"id"`
	NoteId      *uuid.UUID        `json:"note_id,omitempty"`
	BaseVersion int               `json:"base_version,omitempty"`
	Title       string            `json:"title"`
	Sections    []variant.Section `json:"sections"`
	ExpiresAt   time.Time         `json:"expires_at"`
}

type SelectLanguageRequest struct {
	Language string `json:"language" validate:"required,oneof=english hindi hinglish"`
}

type SelectToneRequest struct {
	Tone string `json:"tone" validate:"required,oneof=neutral casual interview"`
}

type RegenerateSectionRequest struct {
	Transcript string `json:"transcript" validate:"required"`
}

type EditSectionRequest struct {
	Title   *string  `json:"title" validate:"omitempty,max=255"`
	Summary *string  `json:"summary"`
	Bullets []string `json:"bullets"`
}

type SaveSessionRequest struct {
	Title    string `json:"title" validate:"max=255"`
	DeviceId string `json:"device_id"`
}

type SaveSessionResponse struct {
	NoteId  uuid.UUID `json:"note_id"`
	Version int       `json:"version"`
}
