package service

import (
	"context"
	"strings"

	"notely-be/internal/dto"
	"notely-be/internal/pkg/logger"
	"notely-be/internal/repository/specification"
	"notely-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type IUserService interface {
	GetProfile(ctx context.Context, userId uuid.UUID) (*dto.UserProfileResponse, error)
	UpdateAiKey(ctx context.Context, userId uuid.UUID, req *dto.UpdateAiKeyRequest) (*dto.UserProfileResponse, error)
}

type userService struct {
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
}

func NewUserService(uowFactory unitofwork.RepositoryFactory, log logger.ILogger) IUserService {
	return &userService{uowFactory: uowFactory, logger: log}
}

func (s *userService) GetProfile(ctx context.Context, userId uuid.UUID) (*dto.UserProfileResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	res := toProfile(user)
	return &res, nil
}

// UpdateAiKey stores the user's provider key. An empty key clears it.
func (s *userService) UpdateAiKey(ctx context.Context, userId uuid.UUID, req *dto.UpdateAiKeyRequest) (*dto.UserProfileResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	var key *string
	if k := strings.TrimSpace(req.ApiKey); k != "" {
		key = &k
	}
	if err := uow.UserRepository().UpdateAiKey(ctx, userId, key); err != nil {
		return nil, err
	}
	user.AiApiKey = key

	// Never log the key itself.
	s.logger.Info("UserService", "AI key updated", map[string]interface{}{"user_id": userId, "cleared": key == nil})
	res := toProfile(user)
	return &res, nil
}
