package dto

import (
	"time"

	"github.com/google/uuid"
)

type SyncStatusResponse struct {
	HasChanges   bool      `json:"has_changes"`
	ChangedCount int64     `json:"changed_count"`
	ServerTime   time.Time `json:"server_time"`
}

type SyncPullRequest struct {
	LastSyncAt *time.Time `json:"last_sync_at"`
	DeviceId   string     `json:"device_id" validate:"required"`
}

type SyncPullResponse struct {
	Notes      []NoteResponse `json:"notes"`
	Deleted    []uuid.UUID    `json:"deleted"`
	ServerTime time.Time      `json:"server_time"`
}

type SyncNote struct {
	Id         uuid.UUID            `json:"id" validate:"required"`
	Title      string               `json:"title" validate:"required,max=255"`
	Content    string               `json:"content"`
	Summary    string               `json:"summary"`
	SourceType string               `json:"source_type" validate:"omitempty,oneof=manual youtube ai"`
	VideoURL   *string              `json:"video_url"`
	IsFavorite bool                 `json:"is_favorite"`
	Version    int                  `json:"version" validate:"gte=0"`
	Sections   []NoteSectionPayload `json:"sections" validate:"dive"`
	Tags       []string             `json:"tags" validate:"dive,required,max=50"`
}

type SyncPushRequest struct {
	Notes    []SyncNote `json:"notes" validate:"dive"`
	DeviceId string     `json:"device_id" validate:"required"`
}

type SyncConflict struct {
	NoteId        uuid.UUID `json:"note_id"`
	Reason        string    `json:"reason"`
	ServerVersion int       `json:"server_version,omitempty"`
}

type SyncPushResponse struct {
	Created    []uuid.UUID    `json:"created"`
	Updated    []uuid.UUID    `json:"updated"`
	Conflicts  []SyncConflict `json:"conflicts"`
	ServerTime time.Time      `json:"server_time"`
}

// NotesChangedMessage travels on the in-process bus after a push.
type NotesChangedMessage struct {
	UserId   uuid.UUID   `json:"user_id"`
	DeviceId string      `json:"device_id"`
	NoteIds  []uuid.UUID `json:"note_ids"`
}
