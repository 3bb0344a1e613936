package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"notely-be/internal/entity"
	"notely-be/internal/repository/contract"
	"notely-be/internal/repository/specification"
	"notely-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// memStore is an in-memory stand-in for the gorm repositories. It understands
// the specifications the services pass and ignores ordering/preload ones.
type memStore struct {
	mu       sync.Mutex
	users    map[uuid.UUID]entity.User
	notes    map[uuid.UUID]entity.Note
	tags     map[uuid.UUID]entity.Tag
	links    map[string]entity.ShareLink
	noteTags map[uuid.UUID][]uuid.UUID

	// beforeUpdate, when set, runs inside UpdateVersioned before the version
	// check. Tests use it to simulate a concurrent writer.
	beforeUpdate func(id uuid.UUID)
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[uuid.UUID]entity.User),
		notes:    make(map[uuid.UUID]entity.Note),
		tags:     make(map[uuid.UUID]entity.Tag),
		links:    make(map[string]entity.ShareLink),
		noteTags: make(map[uuid.UUID][]uuid.UUID),
	}
}

func (s *memStore) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &memUow{s: s}
}

func (s *memStore) addUser(u entity.User) entity.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.Id == uuid.Nil {
		u.Id = uuid.New()
	}
	s.users[u.Id] = u
	return u
}

func (s *memStore) addNote(n entity.Note) entity.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.Id == uuid.Nil {
		n.Id = uuid.New()
	}
	if n.Version == 0 {
		n.Version = 1
	}
	if n.UpdatedAt == nil {
		now := time.Now()
		n.UpdatedAt = &now
	}
	s.notes[n.Id] = n
	return n
}

func (s *memStore) note(id uuid.UUID) entity.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notes[id]
}

type memUow struct{ s *memStore }

func (u *memUow) Begin(ctx context.Context) error { return nil }
func (u *memUow) Commit() error                   { return nil }
func (u *memUow) Rollback() error                 { return nil }

func (u *memUow) UserRepository() contract.UserRepository           { return memUsers{u.s} }
func (u *memUow) NoteRepository() contract.NoteRepository           { return memNotes{u.s} }
func (u *memUow) TagRepository() contract.TagRepository             { return memTags{u.s} }
func (u *memUow) ShareLinkRepository() contract.ShareLinkRepository { return memLinks{u.s} }

// users

type memUsers struct{ s *memStore }

func (r memUsers) Create(ctx context.Context, user *entity.User) error {
	r.s.addUser(*user)
	return nil
}

func (r memUsers) Update(ctx context.Context, user *entity.User) error {
	r.s.addUser(*user)
	return nil
}

func (r memUsers) UpdateAiKey(ctx context.Context, userId uuid.UUID, key *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u := r.s.users[userId]
	u.AiApiKey = key
	r.s.users[userId] = u
	return nil
}

func (r memUsers) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if matchUser(u, specs) {
			out := u
			return &out, nil
		}
	}
	return nil, nil
}

func matchUser(u entity.User, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch sp := spec.(type) {
		case specification.ByID:
			if u.Id != sp.ID {
				return false
			}
		case specification.ByEmail:
			if u.Email != sp.Email {
				return false
			}
		}
	}
	return true
}

// notes

type memNotes struct{ s *memStore }

func (r memNotes) Create(ctx context.Context, note *entity.Note) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := *note
	n.Tags = nil
	n.Sections = append([]entity.NoteSection(nil), note.Sections...)
	r.s.notes[n.Id] = n
	return nil
}

func (r memNotes) UpdateVersioned(ctx context.Context, note *entity.Note, expectedVersion int) (bool, error) {
	if r.s.beforeUpdate != nil {
		r.s.beforeUpdate(note.Id)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.notes[note.Id]
	if !ok || stored.IsDeleted || stored.Version != expectedVersion {
		return false, nil
	}
	now := time.Now()
	stored.Title = note.Title
	stored.Content = note.Content
	stored.Summary = note.Summary
	stored.SourceType = note.SourceType
	stored.VideoURL = note.VideoURL
	stored.IsFavorite = note.IsFavorite
	stored.LastDeviceId = note.LastDeviceId
	stored.Version = expectedVersion + 1
	stored.UpdatedAt = &now
	r.s.notes[note.Id] = stored

	note.Version = stored.Version
	note.UpdatedAt = &now
	return true, nil
}

func (r memNotes) ReplaceSections(ctx context.Context, noteId uuid.UUID, sections []entity.NoteSection) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := r.s.notes[noteId]
	n.Sections = make([]entity.NoteSection, len(sections))
	for i, sec := range sections {
		sec.NoteId = noteId
		sec.Position = i
		if sec.Id == uuid.Nil {
			sec.Id = uuid.New()
		}
		n.Sections[i] = sec
	}
	r.s.notes[noteId] = n
	return nil
}

func (r memNotes) ReplaceTags(ctx context.Context, noteId uuid.UUID, tagIds []uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.noteTags[noteId] = append([]uuid.UUID(nil), tagIds...)
	return nil
}

func (r memNotes) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.notes[id]
	if !ok {
		return nil
	}
	now := time.Now()
	n.DeletedAt = &now
	n.IsDeleted = true
	r.s.notes[id] = n
	return nil
}

func (r memNotes) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Note, error) {
	all, err := r.FindAll(ctx, specs...)
	if err != nil || len(all) == 0 {
		return nil, err
	}
	return all[0], nil
}

func (r memNotes) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Note, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Note
	for _, n := range r.s.notes {
		if !r.s.matchNote(n, specs) {
			continue
		}
		c := n
		c.Sections = append([]entity.NoteSection(nil), n.Sections...)
		c.Tags = nil
		for _, tid := range r.s.noteTags[n.Id] {
			if t, ok := r.s.tags[tid]; ok {
				c.Tags = append(c.Tags, t)
			}
		}
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (r memNotes) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, err := r.FindAll(ctx, specs...)
	return int64(len(all)), err
}

func (s *memStore) matchNote(n entity.Note, specs []specification.Specification) bool {
	withDeleted := false
	for _, spec := range specs {
		switch sp := spec.(type) {
		case specification.WithDeleted:
			withDeleted = true
		case specification.ByID:
			if n.Id != sp.ID {
				return false
			}
		case specification.NoteOwnedByUser:
			if n.UserId != sp.UserID {
				return false
			}
		case specification.UpdatedSince:
			updated := n.UpdatedAt != nil && n.UpdatedAt.After(sp.Since)
			deleted := n.DeletedAt != nil && n.DeletedAt.After(sp.Since)
			if !updated && !deleted {
				return false
			}
		case specification.FavoritesOnly:
			if !n.IsFavorite {
				return false
			}
		case specification.NoteHasTag:
			found := false
			for _, tid := range s.noteTags[n.Id] {
				found = found || tid == sp.TagID
			}
			if !found {
				return false
			}
		case specification.TitleContains:
			if !strings.Contains(strings.ToLower(n.Title), strings.ToLower(sp.Query)) {
				return false
			}
		}
	}
	return withDeleted || !n.IsDeleted
}

// tags

type memTags struct{ s *memStore }

func (r memTags) Create(ctx context.Context, tag *entity.Tag) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if tag.Id == uuid.Nil {
		tag.Id = uuid.New()
	}
	r.s.tags[tag.Id] = *tag
	return nil
}

func (r memTags) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.tags, id)
	for noteId, ids := range r.s.noteTags {
		kept := ids[:0]
		for _, tid := range ids {
			if tid != id {
				kept = append(kept, tid)
			}
		}
		r.s.noteTags[noteId] = kept
	}
	return nil
}

func (r memTags) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Tag, error) {
	all, err := r.FindAll(ctx, specs...)
	if err != nil || len(all) == 0 {
		return nil, err
	}
	return all[0], nil
}

func (r memTags) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Tag, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Tag
	for _, t := range r.s.tags {
		if matchTag(t, specs) {
			c := t
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func matchTag(t entity.Tag, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch sp := spec.(type) {
		case specification.ByID:
			if t.Id != sp.ID {
				return false
			}
		case specification.UserOwnedBy:
			if t.UserId != sp.UserID {
				return false
			}
		case specification.ByTagName:
			if !strings.EqualFold(t.Name, sp.Name) {
				return false
			}
		case specification.ByTagNames:
			found := false
			for _, name := range sp.Names {
				found = found || strings.EqualFold(t.Name, name)
			}
			if !found {
				return false
			}
		}
	}
	return true
}

// share links

type memLinks struct{ s *memStore }

func (r memLinks) Create(ctx context.Context, link *entity.ShareLink) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.links[link.Token] = *link
	return nil
}

func (r memLinks) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ShareLink, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, spec := range specs {
		if sp, ok := spec.(specification.ByToken); ok {
			if l, found := r.s.links[sp.Token]; found {
				return &l, nil
			}
		}
	}
	return nil, nil
}

// recordingBus captures notes-changed payloads.
type recordingBus struct {
	mu       sync.Mutex
	messages [][]byte
}

func (b *recordingBus) Publish(ctx context.Context, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, payload)
	return nil
}

func (b *recordingBus) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.messages)
}

func entityUser(email string) entity.User {
	return entity.User{Id: uuid.New(), Email: email, FullName: "Test User", CreatedAt: time.Now()}
}
