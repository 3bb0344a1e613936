package service

import (
	"context"
	"strings"
	"time"

	"notely-be/internal/dto"
	"notely-be/internal/entity"
	"notely-be/internal/pkg/logger"
	"notely-be/internal/repository/specification"
	"notely-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type ITagService interface {
	Create(ctx context.Context, userId uuid.UUID, req *dto.CreateTagRequest) (*dto.TagResponse, error)
	List(ctx context.Context, userId uuid.UUID) ([]dto.TagResponse, error)
	Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error
}

type tagService struct {
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
}

func NewTagService(uowFactory unitofwork.RepositoryFactory, log logger.ILogger) ITagService {
	return &tagService{uowFactory: uowFactory, logger: log}
}

func (s *tagService) Create(ctx context.Context, userId uuid.UUID, req *dto.CreateTagRequest) (*dto.TagResponse, error) {
	name := strings.TrimSpace(req.Name)
	uow := s.uowFactory.NewUnitOfWork(ctx)

	existing, err := uow.TagRepository().FindOne(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.ByTagName{Name: name},
	)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrTagExists
	}

	tag := entity.Tag{
		Id:        uuid.New(),
		UserId:    userId,
		Name:      name,
		Color:     req.Color,
		CreatedAt: time.Now(),
	}
	if err := uow.TagRepository().Create(ctx, &tag); err != nil {
		return nil, err
	}

	return &dto.TagResponse{Id: tag.Id, Name: tag.Name, Color: tag.Color}, nil
}

func (s *tagService) List(ctx context.Context, userId uuid.UUID) ([]dto.TagResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	tags, err := uow.TagRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "name"},
	)
	if err != nil {
		return nil, err
	}

	res := make([]dto.TagResponse, len(tags))
	for i, t := range tags {
		res[i] = dto.TagResponse{Id: t.Id, Name: t.Name, Color: t.Color}
	}
	return res, nil
}

func (s *tagService) Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	tag, err := uow.TagRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return err
	}
	if tag == nil {
		return ErrTagNotFound
	}

	if err := uow.TagRepository().Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("TagService", "Tag deleted", map[string]interface{}{"user_id": userId, "tag_id": id})
	return nil
}
