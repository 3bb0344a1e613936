package contract

import (
	"context"

	"notely-be/internal/entity"
	"notely-be/internal/repository/specification"

	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	Update(ctx context.Context, user *entity.User) error
	UpdateAiKey(ctx context.Context, userId uuid.UUID, key *string) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error)
}
