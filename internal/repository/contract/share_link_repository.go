package contract

import (
	"context"

	"notely-be/internal/entity"
	"notely-be/internal/repository/specification"
)

type ShareLinkRepository interface {
	Create(ctx context.Context, link *entity.ShareLink) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ShareLink, error)
}
