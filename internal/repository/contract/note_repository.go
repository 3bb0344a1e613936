package contract

import (
	"context"

	"notely-be/internal/entity"
	"notely-be/internal/repository/specification"

	"github.com/google/uuid"
)

type NoteRepository interface {
	Create(ctx context.Context, note *entity.Note) error
	// UpdateVersioned writes every column of note and sets version to
	// expectedVersion+1, but only if the stored version still equals
	// expectedVersion. It reports false when another writer got there first.
	UpdateVersioned(ctx context.Context, note *entity.Note, expectedVersion int) (bool, error)
	ReplaceSections(ctx context.Context, noteId uuid.UUID, sections []entity.NoteSection) error
	ReplaceTags(ctx context.Context, noteId uuid.UUID, tagIds []uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Note, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Note, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
