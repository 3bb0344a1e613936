package memory

import (
	"errors"
	"sync"
	"time"

	"notely-be/internal/entity"

	"github.com/patrickmn/go-cache"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionRepository keeps editing sessions in process memory. Every read or
// write extends the session's lifetime by ttl. Callers only ever see copies.
type SessionRepository struct {
	cache *cache.Cache
	ttl   time.Duration
	mu    sync.Mutex
}

func NewSessionRepository(ttl time.Duration) *SessionRepository {
	return &SessionRepository{
		cache: cache.New(ttl, 10*time.Minute),
		ttl:   ttl,
	}
}

func (r *SessionRepository) Save(session *entity.EditingSession) *entity.EditingSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.put(session.Clone())
}

func (r *SessionRepository) put(s *entity.EditingSession) *entity.EditingSession {
	s.ExpiresAt = time.Now().Add(r.ttl)
	r.cache.Set(s.Id, s, r.ttl)
	return s.Clone()
}

func (r *SessionRepository) Get(sessionID string) (*entity.EditingSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	x, found := r.cache.Get(sessionID)
	if !found {
		return nil, false
	}
	return r.put(x.(*entity.EditingSession)), true
}

// Update applies fn to the stored session atomically. fn must not block.
func (r *SessionRepository) Update(sessionID string, fn func(s *entity.EditingSession) error) (*entity.EditingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	x, found := r.cache.Get(sessionID)
	if !found {
		return nil, ErrSessionNotFound
	}
	working := x.(*entity.EditingSession).Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	return r.put(working), nil
}

func (r *SessionRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}
