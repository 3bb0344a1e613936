package mapper

import (
	"time"

	"notely-be/internal/entity"
	"notely-be/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type NoteMapper struct {
	tags *TagMapper
}

func NewNoteMapper() *NoteMapper {
	return &NoteMapper{tags: NewTagMapper()}
}

func (m *NoteMapper) ToEntity(n *model.Note) *entity.Note {
	if n == nil {
		return nil
	}

	var deletedAt *time.Time
	if n.DeletedAt.Valid {
		t := n.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !n.UpdatedAt.IsZero() {
		t := n.UpdatedAt
		updatedAt = &t
	}

	var sections []entity.NoteSection
	if len(n.Sections) > 0 {
		sections = make([]entity.NoteSection, len(n.Sections))
		for i := range n.Sections {
			sections[i] = m.SectionToEntity(&n.Sections[i])
		}
	}

	var tags []entity.Tag
	if len(n.Tags) > 0 {
		tags = make([]entity.Tag, len(n.Tags))
		for i := range n.Tags {
			tags[i] = *m.tags.ToEntity(&n.Tags[i])
		}
	}

	return &entity.Note{
		Id:           n.Id,
		UserId:       n.UserId,
		Title:        n.Title,
		Content:      n.Content,
		Summary:      n.Summary,
		SourceType:   n.SourceType,
		VideoURL:     n.VideoURL,
		IsFavorite:   n.IsFavorite,
		Version:      n.Version,
		LastDeviceId: n.LastDeviceId,
		CreatedAt:    n.CreatedAt,
		UpdatedAt:    updatedAt,
		DeletedAt:    deletedAt,
		IsDeleted:    n.DeletedAt.Valid,
		Sections:     sections,
		Tags:         tags,
	}
}

// ToModel maps scalar columns and sections. Tags are managed through the
// association and are not copied.
func (m *NoteMapper) ToModel(n *entity.Note) *model.Note {
	if n == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if n.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *n.DeletedAt, Valid: true}
	} else if n.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if n.UpdatedAt != nil {
		updatedAt = *n.UpdatedAt
	}

	sections := make([]model.NoteSection, len(n.Sections))
	for i := range n.Sections {
		sections[i] = m.SectionToModel(&n.Sections[i])
		sections[i].NoteId = n.Id
	}

	return &model.Note{
		Id:           n.Id,
		UserId:       n.UserId,
		Title:        n.Title,
		Content:      n.Content,
		Summary:      n.Summary,
		SourceType:   n.SourceType,
		VideoURL:     n.VideoURL,
		IsFavorite:   n.IsFavorite,
		Version:      n.Version,
		LastDeviceId: n.LastDeviceId,
		CreatedAt:    n.CreatedAt,
		UpdatedAt:    updatedAt,
		DeletedAt:    deletedAt,
		Sections:     sections,
	}
}

func (m *NoteMapper) SectionToEntity(s *model.NoteSection) entity.NoteSection {
	return entity.NoteSection{
		Id:        s.Id,
		NoteId:    s.NoteId,
		Position:  s.Position,
		Title:     s.Title,
		Summary:   s.Summary,
		Bullets:   []string(s.Bullets),
		Language:  s.Language,
		Tone:      s.Tone,
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
	}
}

func (m *NoteMapper) SectionToModel(s *entity.NoteSection) model.NoteSection {
	bullets := s.Bullets
	if bullets == nil {
		bullets = []string{}
	}
	return model.NoteSection{
		Id:        s.Id,
		NoteId:    s.NoteId,
		Position:  s.Position,
		Title:     s.Title,
		Summary:   s.Summary,
		Bullets:   datatypes.JSONSlice[string](bullets),
		Language:  s.Language,
		Tone:      s.Tone,
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
	}
}

func (m *NoteMapper) ToEntities(notes []*model.Note) []*entity.Note {
	entities := make([]*entity.Note, len(notes))
	for i, n := range notes {
		entities[i] = m.ToEntity(n)
	}
	return entities
}
