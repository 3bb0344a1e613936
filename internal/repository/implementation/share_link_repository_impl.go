package implementation

import (
	"context"
	"errors"

	"notely-be/internal/entity"
	"notely-be/internal/mapper"
	"notely-be/internal/model"
	"notely-be/internal/repository/contract"
	"notely-be/internal/repository/specification"

	"gorm.io/gorm"
)

type ShareLinkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ShareLinkMapper
}

func NewShareLinkRepository(db *gorm.DB) contract.ShareLinkRepository {
	return &ShareLinkRepositoryImpl{
		db:     db,
		mapper: mapper.NewShareLinkMapper(),
	}
}

func (r *ShareLinkRepositoryImpl) Create(ctx context.Context, link *entity.ShareLink) error {
	m := r.mapper.ToModel(link)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*link = *r.mapper.ToEntity(m)
	return nil
}

func (r *ShareLinkRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ShareLink, error) {
	var m model.ShareLink
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}
