package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"notely-be/internal/dto"
	"notely-be/internal/entity"
	"notely-be/internal/pkg/logger"
	"notely-be/internal/repository/specification"
	"notely-be/internal/repository/unitofwork"
	"notely-be/pkg/events"
	"notely-be/pkg/search"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const noteModule = "NoteService"

type INoteService interface {
	Create(ctx context.Context, userId uuid.UUID, req *dto.CreateNoteRequest) (*dto.NoteResponse, error)
	Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.NoteResponse, error)
	List(ctx context.Context, userId uuid.UUID, query dto.ListNotesQuery) ([]dto.NoteListItem, error)
	Update(ctx context.Context, userId uuid.UUID, req *dto.UpdateNoteRequest) (*dto.NoteResponse, error)
	Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID, deviceId string) error
	ToggleFavorite(ctx context.Context, userId uuid.UUID, id uuid.UUID, deviceId string) (*dto.FavoriteResponse, error)
	Share(ctx context.Context, userId uuid.UUID, id uuid.UUID, req *dto.ShareNoteRequest) (*dto.ShareNoteResponse, error)
	ViewShared(ctx context.Context, token, password string) (*dto.SharedNoteResponse, error)
}

type noteService struct {
	uowFactory unitofwork.RepositoryFactory
	feed       *changeFeed
	baseURL    string
	logger     logger.ILogger
}

// NewNoteService wires note CRUD. bus and eventPublisher may be nil.
func NewNoteService(
	uowFactory unitofwork.RepositoryFactory,
	bus IPublisherService,
	eventPublisher events.Publisher,
	baseURL string,
	log logger.ILogger,
) INoteService {
	return &noteService{
		uowFactory: uowFactory,
		feed:       &changeFeed{bus: bus, events: eventPublisher, logger: log},
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     log,
	}
}

func (c *noteService) Create(ctx context.Context, userId uuid.UUID, req *dto.CreateNoteRequest) (*dto.NoteResponse, error) {
	sourceType := req.SourceType
	if sourceType == "" {
		sourceType = entity.SourceManual
	}

	now := time.Now()
	note := entity.Note{
		Id:           uuid.New(),
		UserId:       userId,
		Title:        strings.TrimSpace(req.Title),
		Content:      req.Content,
		Summary:      req.Summary,
		SourceType:   sourceType,
		VideoURL:     req.VideoURL,
		Version:      1,
		LastDeviceId: req.DeviceId,
		CreatedAt:    now,
		UpdatedAt:    &now,
	}
	note.Sections = fromSectionPayloads(note.Id, req.Sections)

	uow := c.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.NoteRepository().Create(ctx, &note); err != nil {
		return nil, err
	}
	tagIds, tags, err := resolveTags(ctx, uow.TagRepository(), userId, req.Tags)
	if err != nil {
		return nil, err
	}
	if len(tagIds) > 0 {
		if err := uow.NoteRepository().ReplaceTags(ctx, note.Id, tagIds); err != nil {
			return nil, err
		}
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}
	note.Tags = tags

	c.feed.notesChanged(ctx, userId, req.DeviceId, []uuid.UUID{note.Id})
	c.feed.emit(ctx, events.NoteCreated, map[string]interface{}{
		"note_id": note.Id, "user_id": userId, "title": note.Title, "source_type": note.SourceType,
	})

	res := toNoteResponse(&note)
	return &res, nil
}

func (c *noteService) findOwned(ctx context.Context, uow unitofwork.UnitOfWork, userId, id uuid.UUID, specs ...specification.Specification) (*entity.Note, error) {
	specs = append([]specification.Specification{
		specification.ByID{ID: id},
		specification.NoteOwnedByUser{UserID: userId},
	}, specs...)
	note, err := uow.NoteRepository().FindOne(ctx, specs...)
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, ErrNoteNotFound
	}
	return note, nil
}

func (c *noteService) Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.NoteResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	note, err := c.findOwned(ctx, uow, userId, id, specification.WithSections{}, specification.WithTags{})
	if err != nil {
		return nil, err
	}
	res := toNoteResponse(note)
	return &res, nil
}

func (c *noteService) List(ctx context.Context, userId uuid.UUID, query dto.ListNotesQuery) ([]dto.NoteListItem, error) {
	filters := search.ParseQuery(query.Query)

	specs := []specification.Specification{
		specification.NoteOwnedByUser{UserID: userId},
		specification.WithTags{},
		specification.RecentlyUpdated{},
	}
	if query.Favorite || filters.Favorite {
		specs = append(specs, specification.FavoritesOnly{})
	}
	if query.TagId != nil {
		specs = append(specs, specification.NoteHasTag{TagID: *query.TagId})
	}
	if filters.Text != "" {
		specs = append(specs, specification.TitleContains{Query: filters.Text})
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)
	if len(filters.Tags) > 0 {
		tags, err := uow.TagRepository().FindAll(ctx,
			specification.UserOwnedBy{UserID: userId},
			specification.ByTagNames{Names: filters.Tags},
		)
		if err != nil {
			return nil, err
		}
		// An unknown #tag can match nothing.
		if len(tags) < len(filters.Tags) {
			return []dto.NoteListItem{}, nil
		}
		for _, t := range tags {
			specs = append(specs, specification.NoteHasTag{TagID: t.Id})
		}
	}

	notes, err := uow.NoteRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	res := make([]dto.NoteListItem, len(notes))
	for i, n := range notes {
		res[i] = toNoteListItem(n)
	}
	return res, nil
}

func (c *noteService) Update(ctx context.Context, userId uuid.UUID, req *dto.UpdateNoteRequest) (*dto.NoteResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	note, err := c.findOwned(ctx, uow, userId, req.Id)
	if err != nil {
		return nil, err
	}
	if req.Version > 0 && req.Version != note.Version {
		return nil, ErrVersionConflict
	}

	note.Title = strings.TrimSpace(req.Title)
	note.Content = req.Content
	note.Summary = req.Summary
	note.LastDeviceId = req.DeviceId
	note.Sections = fromSectionPayloads(note.Id, req.Sections)

	ok, err := uow.NoteRepository().UpdateVersioned(ctx, note, note.Version)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrVersionConflict
	}
	if err := uow.NoteRepository().ReplaceSections(ctx, note.Id, note.Sections); err != nil {
		return nil, err
	}
	tagIds, tags, err := resolveTags(ctx, uow.TagRepository(), userId, req.Tags)
	if err != nil {
		return nil, err
	}
	if err := uow.NoteRepository().ReplaceTags(ctx, note.Id, tagIds); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}
	note.Tags = tags

	c.feed.notesChanged(ctx, userId, req.DeviceId, []uuid.UUID{note.Id})
	c.feed.emit(ctx, events.NoteUpdated, map[string]interface{}{
		"note_id": note.Id, "user_id": userId, "version": note.Version,
	})

	res := toNoteResponse(note)
	return &res, nil
}

func (c *noteService) Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID, deviceId string) error {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	if _, err := c.findOwned(ctx, uow, userId, id); err != nil {
		return err
	}
	if err := uow.NoteRepository().Delete(ctx, id); err != nil {
		return err
	}

	c.feed.notesChanged(ctx, userId, deviceId, []uuid.UUID{id})
	c.feed.emit(ctx, events.NoteDeleted, map[string]interface{}{"note_id": id, "user_id": userId})
	return nil
}

// ToggleFavorite flips the flag. It bumps the version so other devices pick
// the change up on their next pull.
func (c *noteService) ToggleFavorite(ctx context.Context, userId uuid.UUID, id uuid.UUID, deviceId string) (*dto.FavoriteResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	note, err := c.findOwned(ctx, uow, userId, id)
	if err != nil {
		return nil, err
	}

	note.IsFavorite = !note.IsFavorite
	note.LastDeviceId = deviceId
	ok, err := uow.NoteRepository().UpdateVersioned(ctx, note, note.Version)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrVersionConflict
	}

	c.feed.notesChanged(ctx, userId, deviceId, []uuid.UUID{id})
	return &dto.FavoriteResponse{Id: note.Id, IsFavorite: note.IsFavorite, Version: note.Version}, nil
}

func (c *noteService) Share(ctx context.Context, userId uuid.UUID, id uuid.UUID, req *dto.ShareNoteRequest) (*dto.ShareNoteResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	if _, err := c.findOwned(ctx, uow, userId, id); err != nil {
		return nil, err
	}

	token, err := newShareToken()
	if err != nil {
		return nil, err
	}
	link := entity.ShareLink{
		Id:        uuid.New(),
		NoteId:    id,
		UserId:    userId,
		Token:     token,
		CreatedAt: time.Now(),
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		h := string(hash)
		link.PasswordHash = &h
	}
	if req.ExpiresInHours > 0 {
		exp := link.CreatedAt.Add(time.Duration(req.ExpiresInHours) * time.Hour)
		link.ExpiresAt = &exp
	}

	if err := uow.ShareLinkRepository().Create(ctx, &link); err != nil {
		return nil, err
	}
	c.feed.emit(ctx, events.NoteShared, map[string]interface{}{
		"note_id": id, "user_id": userId, "protected": link.PasswordHash != nil,
	})

	return &dto.ShareNoteResponse{
		Token:     token,
		URL:       c.baseURL + "/api/share/" + token,
		ExpiresAt: link.ExpiresAt,
		Protected: link.PasswordHash != nil,
	}, nil
}

func (c *noteService) ViewShared(ctx context.Context, token, password string) (*dto.SharedNoteResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	link, err := uow.ShareLinkRepository().FindOne(ctx, specification.ByToken{Token: token})
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, ErrShareNotFound
	}
	if link.Expired(time.Now()) {
		return nil, ErrShareExpired
	}
	if link.PasswordHash != nil {
		if password == "" {
			return nil, ErrSharePasswordRequired
		}
		if bcrypt.CompareHashAndPassword([]byte(*link.PasswordHash), []byte(password)) != nil {
			return nil, ErrSharePasswordInvalid
		}
	}

	note, err := uow.NoteRepository().FindOne(ctx,
		specification.ByID{ID: link.NoteId},
		specification.WithSections{},
		specification.WithTags{},
	)
	if err != nil {
		return nil, err
	}
	if note == nil {
		// The note was deleted after it was shared.
		return nil, ErrShareNotFound
	}

	tags := make([]string, len(note.Tags))
	for i, t := range note.Tags {
		tags[i] = t.Name
	}
	return &dto.SharedNoteResponse{
		Title:      note.Title,
		Content:    note.Content,
		Summary:    note.Summary,
		SourceType: note.SourceType,
		VideoURL:   note.VideoURL,
		Sections:   toSectionPayloads(note.Sections),
		Tags:       tags,
		UpdatedAt:  note.UpdatedAt,
	}, nil
}

func newShareToken() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
