package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	SourceManual  = "manual"
	SourceYoutube = "youtube"
	SourceAI      = "ai"
)

type Note struct {
	Id           uuid.UUID
	UserId       uuid.UUID
	Title        string
	Content      string
	Summary      string
	SourceType   string
	VideoURL     *string
	IsFavorite   bool
	Version      int
	LastDeviceId string
	CreatedAt    time.Time
	UpdatedAt    *time.Time
	DeletedAt    *time.Time
	IsDeleted    bool

	Sections []NoteSection
	Tags     []Tag
}

type NoteSection struct {
	Id        uuid.UUID
	NoteId    uuid.UUID
	Position  int
	Title     string
	Summary   string
	Bullets   []string
	Language  string
	Tone      string
	StartTime float64
	EndTime   float64
}
