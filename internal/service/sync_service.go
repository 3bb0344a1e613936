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
	"notely-be/pkg/events"

	"github.com/google/uuid"
)

const syncModule = "SyncService"

const (
	ConflictForeignOwner  = "Note belongs to another user"
	ConflictDeletedRemote = "Note was deleted on the server"
	ConflictStaleVersion  = "Server version is newer"
)

type ISyncService interface {
	Status(ctx context.Context, userId uuid.UUID, since *time.Time) (*dto.SyncStatusResponse, error)
	Pull(ctx context.Context, userId uuid.UUID, req *dto.SyncPullRequest) (*dto.SyncPullResponse, error)
	Push(ctx context.Context, userId uuid.UUID, req *dto.SyncPushRequest) (*dto.SyncPushResponse, error)
}

type syncService struct {
	uowFactory unitofwork.RepositoryFactory
	feed       *changeFeed
	now        func() time.Time
	logger     logger.ILogger
}

// NewSyncService wires multi-device reconciliation. bus and eventPublisher
// may be nil.
func NewSyncService(
	uowFactory unitofwork.RepositoryFactory,
	bus IPublisherService,
	eventPublisher events.Publisher,
	log logger.ILogger,
) ISyncService {
	return &syncService{
		uowFactory: uowFactory,
		feed:       &changeFeed{bus: bus, events: eventPublisher, logger: log},
		now:        func() time.Time { return time.Now().UTC() },
		logger:     log,
	}
}

// changedSince builds the filter for "touched after since". A nil since
// means a first sync, which only needs live notes.
func changedSince(userId uuid.UUID, since *time.Time) []specification.Specification {
	specs := []specification.Specification{specification.NoteOwnedByUser{UserID: userId}}
	if since != nil {
		specs = append(specs, specification.WithDeleted{}, specification.UpdatedSince{Since: *since})
	}
	return specs
}

func (s *syncService) Status(ctx context.Context, userId uuid.UUID, since *time.Time) (*dto.SyncStatusResponse, error) {
	serverTime := s.now()
	uow := s.uowFactory.NewUnitOfWork(ctx)
	count, err := uow.NoteRepository().Count(ctx, changedSince(userId, since)...)
	if err != nil {
		return nil, err
	}
	return &dto.SyncStatusResponse{
		HasChanges:   count > 0,
		ChangedCount: count,
		ServerTime:   serverTime,
	}, nil
}

// Pull returns everything touched after LastSyncAt. ServerTime is taken
// before the query, so a write racing the read shows up again next time
// instead of being skipped.
func (s *syncService) Pull(ctx context.Context, userId uuid.UUID, req *dto.SyncPullRequest) (*dto.SyncPullResponse, error) {
	serverTime := s.now()
	specs := append(changedSince(userId, req.LastSyncAt),
		specification.WithSections{},
		specification.WithTags{},
		specification.RecentlyUpdated{},
	)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	notes, err := uow.NoteRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	res := &dto.SyncPullResponse{
		Notes:      make([]dto.NoteResponse, 0, len(notes)),
		Deleted:    make([]uuid.UUID, 0),
		ServerTime: serverTime,
	}
	for _, n := range notes {
		if n.IsDeleted {
			res.Deleted = append(res.Deleted, n.Id)
			continue
		}
		res.Notes = append(res.Notes, toNoteResponse(n))
	}

	s.logger.Info(syncModule, "Pull served", map[string]interface{}{
		"user_id": userId, "device_id": req.DeviceId, "notes": len(res.Notes), "deleted": len(res.Deleted),
	})
	return res, nil
}

type pushOutcome int

const (
	pushCreated pushOutcome = iota
	pushUpdated
	pushConflict
)

// Push applies each note in its own transaction. Version mismatches and
// ownership problems are reported per note; storage errors abort the request.
func (s *syncService) Push(ctx context.Context, userId uuid.UUID, req *dto.SyncPushRequest) (*dto.SyncPushResponse, error) {
	res := &dto.SyncPushResponse{
		Created:   make([]uuid.UUID, 0),
		Updated:   make([]uuid.UUID, 0),
		Conflicts: make([]dto.SyncConflict, 0),
	}

	for i := range req.Notes {
		in := &req.Notes[i]
		outcome, conflict, err := s.pushOne(ctx, userId, req.DeviceId, in)
		if err != nil {
			s.logger.Error(syncModule, "Push failed", map[string]interface{}{
				"user_id": userId, "note_id": in.Id, "error": err.Error(),
			})
			return nil, err
		}
		switch outcome {
		case pushCreated:
			res.Created = append(res.Created, in.Id)
		case pushUpdated:
			res.Updated = append(res.Updated, in.Id)
		case pushConflict:
			res.Conflicts = append(res.Conflicts, *conflict)
		}
	}
	res.ServerTime = s.now()

	changed := append(append([]uuid.UUID{}, res.Created...), res.Updated...)
	if len(changed) > 0 {
		s.feed.notesChanged(ctx, userId, req.DeviceId, changed)
		s.feed.emit(ctx, events.NotesSynced, map[string]interface{}{
			"user_id":   userId,
			"device_id": req.DeviceId,
			"created":   len(res.Created),
			"updated":   len(res.Updated),
			"conflicts": len(res.Conflicts),
		})
	}

	s.logger.Info(syncModule, "Push applied", map[string]interface{}{
		"user_id": userId, "device_id": req.DeviceId,
		"created": len(res.Created), "updated": len(res.Updated), "conflicts": len(res.Conflicts),
	})
	return res, nil
}

func (s *syncService) pushOne(ctx context.Context, userId uuid.UUID, deviceId string, in *dto.SyncNote) (pushOutcome, *dto.SyncConflict, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return 0, nil, err
	}
	defer uow.Rollback()

	// Deleted rows are included so a tombstone is not mistaken for a new note.
	existing, err := uow.NoteRepository().FindOne(ctx,
		specification.ByID{ID: in.Id},
		specification.WithDeleted{},
	)
	if err != nil {
		return 0, nil, err
	}

	var outcome pushOutcome
	switch {
	case existing == nil:
		if err := s.createFromClient(ctx, uow, userId, deviceId, in); err != nil {
			return 0, nil, err
		}
		outcome = pushCreated

	case existing.UserId != userId:
		return pushConflict, &dto.SyncConflict{NoteId: in.Id, Reason: ConflictForeignOwner}, nil

	case existing.IsDeleted:
		return pushConflict, &dto.SyncConflict{NoteId: in.Id, Reason: ConflictDeletedRemote}, nil

	case in.Version < existing.Version:
		return pushConflict, &dto.SyncConflict{
			NoteId:        in.Id,
			Reason:        ConflictStaleVersion,
			ServerVersion: existing.Version,
		}, nil

	default:
		applied, err := s.updateFromClient(ctx, uow, userId, deviceId, existing, in)
		if err != nil {
			return 0, nil, err
		}
		if !applied {
			// Another writer bumped the version between our read and write.
			return pushConflict, &dto.SyncConflict{
				NoteId:        in.Id,
				Reason:        ConflictStaleVersion,
				ServerVersion: existing.Version + 1,
			}, nil
		}
		outcome = pushUpdated
	}

	if err := uow.Commit(); err != nil {
		return 0, nil, err
	}
	return outcome, nil, nil
}

func (s *syncService) createFromClient(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, deviceId string, in *dto.SyncNote) error {
	sourceType := in.SourceType
	if sourceType == "" {
		sourceType = entity.SourceManual
	}
	now := time.Now()
	note := entity.Note{
		Id:           in.Id,
		UserId:       userId,
		Title:        strings.TrimSpace(in.Title),
		Content:      in.Content,
		Summary:      in.Summary,
		SourceType:   sourceType,
		VideoURL:     in.VideoURL,
		IsFavorite:   in.IsFavorite,
		Version:      1,
		LastDeviceId: deviceId,
		CreatedAt:    now,
		UpdatedAt:    &now,
		Sections:     fromSectionPayloads(in.Id, in.Sections),
	}
	if err := uow.NoteRepository().Create(ctx, &note); err != nil {
		return err
	}

	tagIds, _, err := resolveTags(ctx, uow.TagRepository(), userId, in.Tags)
	if err != nil {
		return err
	}
	if len(tagIds) == 0 {
		return nil
	}
	return uow.NoteRepository().ReplaceTags(ctx, note.Id, tagIds)
}

// updateFromClient overwrites the server copy. The stored version becomes
// server version + 1 whatever the client sent.
func (s *syncService) updateFromClient(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, deviceId string, existing *entity.Note, in *dto.SyncNote) (bool, error) {
	note := *existing
	note.Title = strings.TrimSpace(in.Title)
	note.Content = in.Content
	note.Summary = in.Summary
	if in.SourceType != "" {
		note.SourceType = in.SourceType
	}
	note.VideoURL = in.VideoURL
	note.IsFavorite = in.IsFavorite
	note.LastDeviceId = deviceId

	ok, err := uow.NoteRepository().UpdateVersioned(ctx, &note, existing.Version)
	if err != nil || !ok {
		return false, err
	}
	if err := uow.NoteRepository().ReplaceSections(ctx, note.Id, fromSectionPayloads(note.Id, in.Sections)); err != nil {
		return false, err
	}
	tagIds, _, err := resolveTags(ctx, uow.TagRepository(), userId, in.Tags)
	if err != nil {
		return false, err
	}
	if err := uow.NoteRepository().ReplaceTags(ctx, note.Id, tagIds); err != nil {
		return false, err
	}
	return true, nil
}
