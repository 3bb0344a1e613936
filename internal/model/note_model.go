package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Note struct {
	Id           uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId       uuid.UUID      `gorm:"type:uuid;not null;index"`
	Title        string         `gorm:"type:varchar(255);not null"`
	Content      string         `gorm:"type:text"`
	Summary      string         `gorm:"type:text"`
	SourceType   string         `gorm:"type:varchar(20);not null;default:'manual'"`
	VideoURL     *string        `gorm:"type:text"`
	IsFavorite   bool           `gorm:"not null;default:false"`
	Version      int            `gorm:"not null;default:1"`
	LastDeviceId string         `gorm:"type:varchar(100)"`
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime;index"`
	DeletedAt    gorm.DeletedAt `gorm:"index"`

	Sections []NoteSection `gorm:"foreignKey:NoteId;constraint:OnDelete:CASCADE"`
	Tags     []Tag         `gorm:"many2many:note_tags;constraint:OnDelete:CASCADE"`
}

func (Note) TableName() string {
	return "notes"
}

type NoteSection struct {
	Id        uuid.UUID                   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	NoteId    uuid.UUID                   `gorm:"type:uuid;not null;index"`
	Position  int                         `gorm:"not null"`
	Title     string                      `gorm:"type:varchar(255)"`
	Summary   string                      `gorm:"type:text"`
	Bullets   datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	Language  string                      `gorm:"type:varchar(20);not null;default:'english'"`
	Tone      string                      `gorm:"type:varchar(20)"`
	StartTime float64
	EndTime   float64
}

func (NoteSection) TableName() string {
	return "note_sections"
}
