package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"notely-be/internal/dto"
	"notely-be/internal/entity"
	"notely-be/internal/pkg/logger"
	"notely-be/internal/repository/memory"
	"notely-be/internal/repository/specification"
	"notely-be/internal/repository/unitofwork"
	"notely-be/pkg/events"
	"notely-be/pkg/variant"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

const sessionModule = "SessionService"

// ErrSectionChanged is returned when a section's source was regenerated while
// a variant for the old source was being produced.
var ErrSectionChanged = &serviceError{status: http.StatusConflict, msg: "section changed while the request was running, try again"}

type ISessionService interface {
	Create(ctx context.Context, userId uuid.UUID, req *dto.CreateSessionRequest) (*dto.SessionResponse, error)
	Get(ctx context.Context, userId uuid.UUID, id string) (*dto.SessionResponse, error)
	SelectLanguage(ctx context.Context, userId uuid.UUID, id, sectionId string, req *dto.SelectLanguageRequest) (*variant.Section, error)
	SelectTone(ctx context.Context, userId uuid.UUID, id, sectionId string, req *dto.SelectToneRequest) (*variant.Section, error)
	Regenerate(ctx context.Context, userId uuid.UUID, id, sectionId string, req *dto.RegenerateSectionRequest) (*variant.Section, error)
	Edit(ctx context.Context, userId uuid.UUID, id, sectionId string, req *dto.EditSectionRequest) (*variant.Section, error)
	Save(ctx context.Context, userId uuid.UUID, id string, req *dto.SaveSessionRequest) (*dto.SaveSessionResponse, error)
	Close(ctx context.Context, userId uuid.UUID, id string) error
}

type sessionService struct {
	uowFactory unitofwork.RepositoryFactory
	sessions   *memory.SessionRepository
	ai         IAiService
	caches     *cache.Cache
	feed       *changeFeed
	logger     logger.ILogger
}

func NewSessionService(
	uowFactory unitofwork.RepositoryFactory,
	sessions *memory.SessionRepository,
	ai IAiService,
	bus IPublisherService,
	eventPublisher events.Publisher,
	ttl time.Duration,
	log logger.ILogger,
) ISessionService {
	return &sessionService{
		uowFactory: uowFactory,
		sessions:   sessions,
		ai:         ai,
		caches:     cache.New(ttl, 10*time.Minute),
		feed:       &changeFeed{bus: bus, events: eventPublisher, logger: log},
		logger:     log,
	}
}

// variantCache returns the user's shared cache so concurrent misses across
// their sessions collapse into one provider call.
func (s *sessionService) variantCache(userId uuid.UUID) *variant.Cache {
	key := userId.String()
	if c, ok := s.caches.Get(key); ok {
		return c.(*variant.Cache)
	}
	c := variant.NewCache(s.ai.TransformerFor(userId))
	if err := s.caches.Add(key, c, cache.DefaultExpiration); err != nil {
		// Lost the race; use the winner.
		if existing, ok := s.caches.Get(key); ok {
			return existing.(*variant.Cache)
		}
	}
	return c
}

func toSessionResponse(s *entity.EditingSession) *dto.SessionResponse {
	return &dto.SessionResponse{
		Id:          s.Id,
		NoteId:      s.NoteId,
		BaseVersion: s.BaseVersion,
		Title:       s.Title,
		Sections:    s.Sections,
		ExpiresAt:   s.ExpiresAt,
	}
}

func (s *sessionService) Create(ctx context.Context, userId uuid.UUID, req *dto.CreateSessionRequest) (*dto.SessionResponse, error) {
	session := &entity.EditingSession{
		Id:       uuid.NewString(),
		UserId:   userId,
		Title:    strings.TrimSpace(req.Title),
		VideoURL: req.VideoURL,
	}

	if req.NoteId != nil {
		uow := s.uowFactory.NewUnitOfWork(ctx)
		note, err := uow.NoteRepository().FindOne(ctx,
			specification.ByID{ID: *req.NoteId},
			specification.NoteOwnedByUser{UserID: userId},
			specification.WithSections{},
		)
		if err != nil {
			return nil, err
		}
		if note == nil {
			return nil, ErrNoteNotFound
		}
		session.NoteId = &note.Id
		session.BaseVersion = note.Version
		if session.Title == "" {
			session.Title = note.Title
		}
		if session.VideoURL == nil {
			session.VideoURL = note.VideoURL
		}
		for _, sec := range note.Sections {
			src := variant.Variant{Title: sec.Title, Summary: sec.Summary, Bullets: append([]string{}, sec.Bullets...)}
			session.Sections = append(session.Sections, variant.NewSection(sec.Id.String(), src, sec.StartTime, sec.EndTime))
		}
	} else {
		detected, err := s.ai.DetectSections(ctx, userId, &dto.DetectSectionsRequest{Transcript: req.Transcript})
		if err != nil {
			return nil, err
		}
		for _, d := range detected.Sections {
			src := variant.Variant{Title: d.Title, Summary: d.Summary, Bullets: d.Bullets}
			session.Sections = append(session.Sections, variant.NewSection(uuid.NewString(), src, d.StartTime, d.EndTime))
		}
		if session.Title == "" && len(session.Sections) > 0 {
			session.Title = session.Sections[0].Source.Title
		}
	}

	saved := s.sessions.Save(session)
	s.logger.Info(sessionModule, "Session created", map[string]interface{}{
		"user_id": userId, "session_id": saved.Id, "sections": len(saved.Sections),
	})
	return toSessionResponse(saved), nil
}

func (s *sessionService) load(userId uuid.UUID, id string) (*entity.EditingSession, error) {
	session, ok := s.sessions.Get(id)
	if !ok || session.UserId != userId {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (s *sessionService) section(userId uuid.UUID, id, sectionId string) (variant.Section, error) {
	session, err := s.load(userId, id)
	if err != nil {
		return variant.Section{}, err
	}
	idx := session.SectionIndex(sectionId)
	if idx < 0 {
		return variant.Section{}, ErrSectionNotFound
	}
	return session.Sections[idx], nil
}

// commit folds the result of slow work back into the stored section, which
// may have been edited since before was read. If the stored source no longer
// matches the one the work started from, the result is discarded.
func (s *sessionService) commit(id string, before variant.Section, apply func(stored variant.Section) variant.Section) (*variant.Section, error) {
	var out variant.Section
	_, err := s.sessions.Update(id, func(session *entity.EditingSession) error {
		idx := session.SectionIndex(before.ID)
		if idx < 0 {
			return ErrSectionNotFound
		}
		if !session.Sections[idx].Source.Equal(before.Source) {
			return ErrSectionChanged
		}
		session.Sections[idx] = apply(session.Sections[idx])
		out = session.Sections[idx].Clone()
		return nil
	})
	if errors.Is(err, memory.ErrSessionNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *sessionService) Get(ctx context.Context, userId uuid.UUID, id string) (*dto.SessionResponse, error) {
	session, err := s.load(userId, id)
	if err != nil {
		return nil, err
	}
	return toSessionResponse(session), nil
}

func (s *sessionService) SelectLanguage(ctx context.Context, userId uuid.UUID, id, sectionId string, req *dto.SelectLanguageRequest) (*variant.Section, error) {
	lang, err := variant.ParseLanguage(req.Language)
	if err != nil {
		return nil, ErrInvalidTarget
	}
	before, err := s.section(userId, id, sectionId)
	if err != nil {
		return nil, err
	}
	after, err := s.variantCache(userId).SelectLanguage(ctx, before, lang)
	if err != nil {
		return nil, err
	}
	return s.commit(id, before, after.Adopt)
}

func (s *sessionService) SelectTone(ctx context.Context, userId uuid.UUID, id, sectionId string, req *dto.SelectToneRequest) (*variant.Section, error) {
	tone, err := variant.ParseTone(req.Tone)
	if err != nil {
		return nil, ErrInvalidTarget
	}
	before, err := s.section(userId, id, sectionId)
	if err != nil {
		return nil, err
	}
	after, err := s.variantCache(userId).SelectTone(ctx, before, tone)
	if err != nil {
		return nil, err
	}
	return s.commit(id, before, after.Adopt)
}

func (s *sessionService) Regenerate(ctx context.Context, userId uuid.UUID, id, sectionId string, req *dto.RegenerateSectionRequest) (*variant.Section, error) {
	before, err := s.section(userId, id, sectionId)
	if err != nil {
		return nil, err
	}
	after, err := s.variantCache(userId).RegenerateSource(ctx, before, req.Transcript)
	if err != nil {
		return nil, err
	}
	// A new source invalidates every entry, edited or not.
	return s.commit(id, before, func(variant.Section) variant.Section { return after })
}

func (s *sessionService) Edit(ctx context.Context, userId uuid.UUID, id, sectionId string, req *dto.EditSectionRequest) (*variant.Section, error) {
	if _, err := s.load(userId, id); err != nil {
		return nil, err
	}
	patch := variant.Patch{Title: req.Title, Summary: req.Summary, Bullets: req.Bullets}
	c := s.variantCache(userId)

	var out variant.Section
	_, err := s.sessions.Update(id, func(session *entity.EditingSession) error {
		idx := session.SectionIndex(sectionId)
		if idx < 0 {
			return ErrSectionNotFound
		}
		session.Sections[idx] = c.EditCurrent(session.Sections[idx], patch)
		out = session.Sections[idx].Clone()
		return nil
	})
	if errors.Is(err, memory.ErrSessionNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Save writes the displayed variant of every section into a note. A session
// opened from a note updates it with a version bump; otherwise a new note is
// created.
func (s *sessionService) Save(ctx context.Context, userId uuid.UUID, id string, req *dto.SaveSessionRequest) (*dto.SaveSessionResponse, error) {
	session, err := s.load(userId, id)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = session.Title
	}
	if title == "" {
		title = "Untitled note"
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	var note *entity.Note
	eventType := events.NoteUpdated
	if session.NoteId != nil {
		note, err = uow.NoteRepository().FindOne(ctx,
			specification.ByID{ID: *session.NoteId},
			specification.NoteOwnedByUser{UserID: userId},
		)
		if err != nil {
			return nil, err
		}
		if note == nil {
			return nil, ErrNoteNotFound
		}
		// Another device may have written the note since the session read it.
		if note.Version != session.BaseVersion {
			return nil, ErrVersionConflict
		}
		note.Title = title
		note.LastDeviceId = req.DeviceId
		ok, err := uow.NoteRepository().UpdateVersioned(ctx, note, session.BaseVersion)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrVersionConflict
		}
		if err := uow.NoteRepository().ReplaceSections(ctx, note.Id, sessionSections(note.Id, session.Sections)); err != nil {
			return nil, err
		}
	} else {
		eventType = events.NoteCreated
		sourceType := entity.SourceAI
		if session.VideoURL != nil {
			sourceType = entity.SourceYoutube
		}
		now := time.Now()
		note = &entity.Note{
			Id:           uuid.New(),
			UserId:       userId,
			Title:        title,
			SourceType:   sourceType,
			VideoURL:     session.VideoURL,
			Version:      1,
			LastDeviceId: req.DeviceId,
			CreatedAt:    now,
			UpdatedAt:    &now,
		}
		note.Sections = sessionSections(note.Id, session.Sections)
		if err := uow.NoteRepository().Create(ctx, note); err != nil {
			return nil, err
		}
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	// Later saves from this session update the same note.
	noteId, version := note.Id, note.Version
	if _, err := s.sessions.Update(id, func(es *entity.EditingSession) error {
		es.NoteId = &noteId
		es.BaseVersion = version
		es.Title = title
		return nil
	}); err != nil {
		s.logger.Warn(sessionModule, "Session expired during save", map[string]interface{}{"session_id": id})
	}

	s.feed.notesChanged(ctx, userId, req.DeviceId, []uuid.UUID{note.Id})
	s.feed.emit(ctx, eventType, map[string]interface{}{
		"note_id": note.Id, "user_id": userId, "version": note.Version, "source_type": note.SourceType,
	})
	return &dto.SaveSessionResponse{NoteId: note.Id, Version: note.Version}, nil
}

func (s *sessionService) Close(ctx context.Context, userId uuid.UUID, id string) error {
	if _, err := s.load(userId, id); err != nil {
		return err
	}
	s.sessions.Delete(id)
	return nil
}

func sessionSections(noteId uuid.UUID, sections []variant.Section) []entity.NoteSection {
	out := make([]entity.NoteSection, len(sections))
	for i, sec := range sections {
		tone := ""
		if sec.Language == variant.Hinglish {
			tone = string(sec.Tone)
		}
		out[i] = entity.NoteSection{
			Id:        uuid.New(),
			NoteId:    noteId,
			Position:  i,
			Title:     sec.Current.Title,
			Summary:   sec.Current.Summary,
			Bullets:   append([]string{}, sec.Current.Bullets...),
			Language:  string(sec.Language),
			Tone:      tone,
			StartTime: sec.StartTime,
			EndTime:   sec.EndTime,
		}
	}
	return out
}
