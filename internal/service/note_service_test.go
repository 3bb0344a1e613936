package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"notely-be/internal/dto"
	"notely-be/internal/entity"
	"notely-be/internal/pkg/logger"
	"notely-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingEvents) Publish(ctx context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordingEvents) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.EventType()
	}
	return out
}

func newTestNoteService(store *memStore) (INoteService, *recordingBus, *recordingEvents) {
	bus, ev := &recordingBus{}, &recordingEvents{}
	return NewNoteService(store, bus, ev, "https://notely.test/", logger.NewNopLogger()), bus, ev
}

func TestNoteCreateShowAndList(t *testing.T) {
	store := newMemStore()
	svc, bus, ev := newTestNoteService(store)
	ctx := context.Background()
	userId := uuid.New()

	created, err := svc.Create(ctx, userId, &dto.CreateNoteRequest{
		Title:    "Goroutines",
		Sections: []dto.NoteSectionPayload{{Title: "Basics", Language: "hinglish", Tone: "casual"}},
		Tags:     []string{"go", "Concurrency"},
		DeviceId: "web",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, created.Version)
	assert.Equal(t, entity.SourceManual, created.SourceType)
	assert.Len(t, created.Tags, 2)
	require.Len(t, created.Sections, 1)
	assert.Equal(t, "casual", created.Sections[0].Tone)
	assert.Equal(t, 1, bus.count())
	assert.Equal(t, []string{events.NoteCreated}, ev.types())

	_, err = svc.Create(ctx, userId, &dto.CreateNoteRequest{Title: "Channels", Tags: []string{"GO"}})
	require.NoError(t, err)

	shown, err := svc.Show(ctx, userId, created.Id)
	require.NoError(t, err)
	assert.Equal(t, "Goroutines", shown.Title)

	_, err = svc.Show(ctx, uuid.New(), created.Id)
	assert.ErrorIs(t, err, ErrNoteNotFound)

	all, err := svc.List(ctx, userId, dto.ListNotesQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// "GO" reuses the existing "go" tag.
	tags, err := NewTagService(store, logger.NewNopLogger()).List(ctx, userId)
	require.NoError(t, err)
	assert.Len(t, tags, 2)

	found, err := svc.List(ctx, userId, dto.ListNotesQuery{Query: "chan"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Channels", found[0].Title)

	found, err = svc.List(ctx, userId, dto.ListNotesQuery{Query: "#go #concurrency"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Goroutines", found[0].Title)

	found, err = svc.List(ctx, userId, dto.ListNotesQuery{Query: "#rust"})
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestNoteUpdateChecksVersion(t *testing.T) {
	store := newMemStore()
	svc, _, _ := newTestNoteService(store)
	ctx := context.Background()
	userId := uuid.New()
	note := store.addNote(entity.Note{UserId: userId, Title: "draft", Version: 2})

	_, err := svc.Update(ctx, userId, &dto.UpdateNoteRequest{Id: note.Id, Title: "stale", Version: 1})
	assert.ErrorIs(t, err, ErrVersionConflict)

	res, err := svc.Update(ctx, userId, &dto.UpdateNoteRequest{
		Id:       note.Id,
		Title:    "final",
		Version:  2,
		Sections: []dto.NoteSectionPayload{{Title: "A"}, {Title: "B"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Version)
	assert.Equal(t, 3, store.note(note.Id).Version)
	assert.Len(t, store.note(note.Id).Sections, 2)

	// Version 0 skips the check.
	res, err = svc.Update(ctx, userId, &dto.UpdateNoteRequest{Id: note.Id, Title: "blind"})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Version)
}

func TestNoteFavoriteAndDelete(t *testing.T) {
	store := newMemStore()
	svc, bus, _ := newTestNoteService(store)
	ctx := context.Background()
	userId := uuid.New()
	note := store.addNote(entity.Note{UserId: userId, Title: "fav"})

	fav, err := svc.ToggleFavorite(ctx, userId, note.Id, "phone")
	require.NoError(t, err)
	assert.True(t, fav.IsFavorite)
	assert.Equal(t, 2, fav.Version)

	favs, err := svc.List(ctx, userId, dto.ListNotesQuery{Favorite: true})
	require.NoError(t, err)
	assert.Len(t, favs, 1)

	require.NoError(t, svc.Delete(ctx, userId, note.Id, "phone"))
	_, err = svc.Show(ctx, userId, note.Id)
	assert.ErrorIs(t, err, ErrNoteNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, userId, note.Id, "phone"), ErrNoteNotFound)
	assert.Equal(t, 2, bus.count())
}

func TestShareLinks(t *testing.T) {
	store := newMemStore()
	svc, _, _ := newTestNoteService(store)
	ctx := context.Background()
	userId := uuid.New()
	note := store.addNote(entity.Note{UserId: userId, Title: "shared", Content: "body"})

	open, err := svc.Share(ctx, userId, note.Id, &dto.ShareNoteRequest{})
	require.NoError(t, err)
	assert.False(t, open.Protected)
	assert.Len(t, open.Token, 48)
	assert.True(t, strings.HasPrefix(open.URL, "https://notely.test/api/share/"))

	view, err := svc.ViewShared(ctx, open.Token, "")
	require.NoError(t, err)
	assert.Equal(t, "body", view.Content)

	locked, err := svc.Share(ctx, userId, note.Id, &dto.ShareNoteRequest{Password: "hunter22", ExpiresInHours: 1})
	require.NoError(t, err)
	assert.True(t, locked.Protected)
	require.NotNil(t, locked.ExpiresAt)

	_, err = svc.ViewShared(ctx, locked.Token, "")
	assert.ErrorIs(t, err, ErrSharePasswordRequired)
	_, err = svc.ViewShared(ctx, locked.Token, "wrong")
	assert.ErrorIs(t, err, ErrSharePasswordInvalid)
	_, err = svc.ViewShared(ctx, locked.Token, "hunter22")
	assert.NoError(t, err)

	_, err = svc.ViewShared(ctx, "missing", "")
	assert.ErrorIs(t, err, ErrShareNotFound)

	past := time.Now().Add(-time.Minute)
	store.links["expired"] = entity.ShareLink{NoteId: note.Id, Token: "expired", ExpiresAt: &past}
	_, err = svc.ViewShared(ctx, "expired", "")
	assert.ErrorIs(t, err, ErrShareExpired)

	_, err = svc.Share(ctx, uuid.New(), note.Id, &dto.ShareNoteRequest{})
	assert.ErrorIs(t, err, ErrNoteNotFound)
}
