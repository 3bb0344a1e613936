package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"notely-be/internal/entity"
	"notely-be/internal/model"
	"notely-be/internal/repository/specification"
	"notely-be/internal/repository/unitofwork"
	"notely-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	if err := godotenv.Load("../../.env"); err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn, false)
	require.NoError(t, err, "failed to connect to DB")
	require.NoError(t, gormDB.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`).Error)
	require.NoError(t, gormDB.AutoMigrate(model.All()...))
	return gormDB
}

func TestGormNoteLifecycle(t *testing.T) {
	gormDB := openDB(t)
	ctx := context.Background()
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)

	user := &entity.User{
		Id:           uuid.New(),
		Email:        "integration-" + uuid.NewString() + "@example.com",
		PasswordHash: "x",
		FullName:     "Integration Test User",
	}
	t.Cleanup(func() {
		gormDB.Exec("DELETE FROM share_links WHERE user_id = ?", user.Id)
		gormDB.Exec("DELETE FROM note_tags WHERE note_id IN (SELECT id FROM notes WHERE user_id = ?)", user.Id)
		gormDB.Exec("DELETE FROM note_sections WHERE note_id IN (SELECT id FROM notes WHERE user_id = ?)", user.Id)
		gormDB.Exec("DELETE FROM notes WHERE user_id = ?", user.Id)
		gormDB.Exec("DELETE FROM tags WHERE user_id = ?", user.Id)
		gormDB.Exec("DELETE FROM users WHERE id = ?", user.Id)
	})

	uow := uowFactory.NewUnitOfWork(ctx)
	require.NoError(t, uow.UserRepository().Create(ctx, user))

	now := time.Now()
	note := &entity.Note{
		Id:         uuid.New(),
		UserId:     user.Id,
		Title:      "Goroutines",
		SourceType: entity.SourceManual,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  &now,
	}
	note.Sections = []entity.NoteSection{{Id: uuid.New(), NoteId: note.Id, Title: "Basics", Bullets: []string{"cheap", "multiplexed"}, Language: "english"}}

	t.Run("transactional create", func(t *testing.T) {
		tx := uowFactory.NewUnitOfWork(ctx)
		require.NoError(t, tx.Begin(ctx))
		defer tx.Rollback()

		require.NoError(t, tx.NoteRepository().Create(ctx, note))
		tag := &entity.Tag{Id: uuid.New(), UserId: user.Id, Name: "go"}
		require.NoError(t, tx.TagRepository().Create(ctx, tag))
		require.NoError(t, tx.NoteRepository().ReplaceTags(ctx, note.Id, []uuid.UUID{tag.Id}))
		require.NoError(t, tx.Commit())
	})

	t.Run("read back with sections and tags", func(t *testing.T) {
		got, err := uow.NoteRepository().FindOne(ctx,
			specification.ByID{ID: note.Id},
			specification.WithSections{},
			specification.WithTags{},
		)
		require.NoError(t, err)
		require.NotNil(t, got)
		require.Len(t, got.Sections, 1)
		assert.Equal(t, []string{"cheap", "multiplexed"}, got.Sections[0].Bullets)
		require.Len(t, got.Tags, 1)
		assert.Equal(t, "go", got.Tags[0].Name)
	})

	t.Run("optimistic version check", func(t *testing.T) {
		note.Title = "stale write"
		ok, err := uow.NoteRepository().UpdateVersioned(ctx, note, 7)
		require.NoError(t, err)
		assert.False(t, ok)

		note.Title = "Goroutines and channels"
		ok, err = uow.NoteRepository().UpdateVersioned(ctx, note, 1)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 2, note.Version)
	})

	t.Run("soft delete hides from default queries", func(t *testing.T) {
		require.NoError(t, uow.NoteRepository().Delete(ctx, note.Id))

		live, err := uow.NoteRepository().Count(ctx, specification.NoteOwnedByUser{UserID: user.Id})
		require.NoError(t, err)
		assert.Zero(t, live)

		all, err := uow.NoteRepository().FindAll(ctx,
			specification.NoteOwnedByUser{UserID: user.Id},
			specification.WithDeleted{},
		)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.True(t, all[0].IsDeleted)
	})
}
