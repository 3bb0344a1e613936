package entity

import (
	"time"

	"notely-be/pkg/variant"

	"github.com/google/uuid"
)

// EditingSession is an in-memory workspace over a transcript's sections.
// It is never persisted; Save turns it into a Note.
type EditingSession struct {
	Id     string
	UserId uuid.UUID
	NoteId *uuid.UUID
	// BaseVersion is the note version the session last read or wrote.
	BaseVersion int
	Title       string
	VideoURL    *string
	Sections    []variant.Section
	ExpiresAt   time.Time
}

func (s *EditingSession) Clone() *EditingSession {
	out := *s
	out.Sections = make([]variant.Section, len(s.Sections))
	for i := range s.Sections {
		out.Sections[i] = s.Sections[i].Clone()
	}
	return &out
}

func (s *EditingSession) SectionIndex(id string) int {
	for i := range s.Sections {
		if s.Sections[i].ID == id {
			return i
		}
	}
	return -1
}
