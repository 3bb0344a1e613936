package mapper

import (
	"notely-be/internal/entity"
	"notely-be/internal/model"
)

type ShareLinkMapper struct{}

func NewShareLinkMapper() *ShareLinkMapper {
	return &ShareLinkMapper{}
}

func (m *ShareLinkMapper) ToEntity(s *model.ShareLink) *entity.ShareLink {
	if s == nil {
		return nil
	}
	return &entity.ShareLink{
		Id:           s.Id,
		NoteId:       s.NoteId,
		UserId:       s.UserId,
		Token:        s.Token,
		PasswordHash: s.PasswordHash,
		ExpiresAt:    s.ExpiresAt,
		CreatedAt:    s.CreatedAt,
	}
}

func (m *ShareLinkMapper) ToModel(s *entity.ShareLink) *model.ShareLink {
	if s == nil {
		return nil
	}
	return &model.ShareLink{
		Id:           s.Id,
		NoteId:       s.NoteId,
		UserId:       s.UserId,
		Token:        s.Token,
		PasswordHash: s.PasswordHash,
		ExpiresAt:    s.ExpiresAt,
		CreatedAt:    s.CreatedAt,
	}
}
