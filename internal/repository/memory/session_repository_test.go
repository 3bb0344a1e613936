package memory

import (
	"errors"
	"testing"
	"time"

	"notely-be/internal/entity"
	"notely-be/pkg/variant"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession() *entity.EditingSession {
	return &entity.EditingSession{
		Id:     "s1",
		UserId: uuid.New(),
		Title:  "Go concurrency",
		Sections: []variant.Section{
			variant.NewSection("a", variant.Variant{Title: "Channels", Bullets: []string{"typed pipes"}}, 0, 10),
		},
	}
}

func TestSaveReturnsIsolatedCopies(t *testing.T) {
	repo := NewSessionRepository(time.Minute)
	orig := newSession()
	saved := repo.Save(orig)
	assert.False(t, saved.ExpiresAt.IsZero())

	orig.Sections[0].Current.Title = "mutated"
	saved.Sections[0].Current.Bullets[0] = "mutated"

	got, ok := repo.Get("s1")
	require.True(t, ok)
	assert.Equal(t, "Channels", got.Sections[0].Current.Title)
	assert.Equal(t, "typed pipes", got.Sections[0].Current.Bullets[0])
}

func TestUpdateIsAllOrNothing(t *testing.T) {
	repo := NewSessionRepository(time.Minute)
	repo.Save(newSession())

	boom := errors.New("boom")
	_, err := repo.Update("s1", func(s *entity.EditingSession) error {
		s.Title = "changed"
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, _ := repo.Get("s1")
	assert.Equal(t, "Go concurrency", got.Title)

	updated, err := repo.Update("s1", func(s *entity.EditingSession) error {
		s.Title = "changed"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "changed", updated.Title)
}

func TestMissingAndExpiredSessions(t *testing.T) {
	repo := NewSessionRepository(20 * time.Millisecond)
	_, err := repo.Update("nope", func(*entity.EditingSession) error { return nil })
	assert.ErrorIs(t, err, ErrSessionNotFound)

	repo.Save(newSession())
	time.Sleep(40 * time.Millisecond)
	_, ok := repo.Get("s1")
	assert.False(t, ok)

	repo.Save(newSession())
	repo.Delete("s1")
	_, ok = repo.Get("s1")
	assert.False(t, ok)
}
