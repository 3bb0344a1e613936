package implementation

import (
	"context"
	"errors"
	"time"

	"notely-be/internal/entity"
	"notely-be/internal/mapper"
	"notely-be/internal/model"
	"notely-be/internal/repository/contract"
	"notely-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type NoteRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.NoteMapper
}

func NewNoteRepository(db *gorm.DB) contract.NoteRepository {
	return &NoteRepositoryImpl{
		db:     db,
		mapper: mapper.NewNoteMapper(),
	}
}

func (r *NoteRepositoryImpl) Create(ctx context.Context, note *entity.Note) error {
	m := r.mapper.ToModel(note)
	sections := m.Sections
	m.Sections = nil

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(m).Error; err != nil {
		return err
	}
	if len(sections) > 0 {
		for i := range sections {
			sections[i].NoteId = m.Id
		}
		if err := r.db.WithContext(ctx).Create(&sections).Error; err != nil {
			return err
		}
	}
	m.Sections = sections

	tags := note.Tags
	*note = *r.mapper.ToEntity(m)
	note.Tags = tags
	return nil
}

func (r *NoteRepositoryImpl) UpdateVersioned(ctx context.Context, note *entity.Note, expectedVersion int) (bool, error) {
	now := time.Now()
	res := r.db.WithContext(ctx).
		Model(&model.Note{}).
		Where("id = ? AND version = ?", note.Id, expectedVersion).
		Updates(map[string]interface{}{
			"title":          note.Title,
			"content":        note.Content,
			"summary":        note.Summary,
			"source_type":    note.SourceType,
			"video_url":      note.VideoURL,
			"is_favorite":    note.IsFavorite,
			"last_device_id": note.LastDeviceId,
			"version":        expectedVersion + 1,
			"updated_at":     now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	note.Version = expectedVersion + 1
	note.UpdatedAt = &now
	return true, nil
}

func (r *NoteRepositoryImpl) ReplaceSections(ctx context.Context, noteId uuid.UUID, sections []entity.NoteSection) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("note_id = ?", noteId).Delete(&model.NoteSection{}).Error; err != nil {
		return err
	}
	if len(sections) == 0 {
		return nil
	}
	models := make([]model.NoteSection, len(sections))
	for i := range sections {
		models[i] = r.mapper.SectionToModel(&sections[i])
		models[i].NoteId = noteId
		models[i].Position = i
		if models[i].Id == uuid.Nil {
			models[i].Id = uuid.New()
		}
	}
	return db.Create(&models).Error
}

func (r *NoteRepositoryImpl) ReplaceTags(ctx context.Context, noteId uuid.UUID, tagIds []uuid.UUID) error {
	tags := make([]model.Tag, len(tagIds))
	for i, id := range tagIds {
		tags[i] = model.Tag{Id: id}
	}
	return r.db.WithContext(ctx).Model(&model.Note{Id: noteId}).Association("Tags").Replace(tags)
}

func (r *NoteRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Note{}, id).Error
}

func (r *NoteRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Note, error) {
	var m model.Note
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *NoteRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Note, error) {
	var models []*model.Note
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *NoteRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.Note{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
