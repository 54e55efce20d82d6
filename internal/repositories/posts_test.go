package repositories

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohits-web03/inkwell/internal/models"
)

var postColumns = []string{"id", "title", "summary", "content", "cover", "author_id", "created_at", "updated_at"}

func TestPostRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "posts"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	post := &models.Post{Title: "Hello", Content: "<p>hi</p>", Cover: "uploads/a.png", AuthorID: uuid.New()}
	require.NoError(t, repo.Create(context.Background(), post))
	assert.NotEqual(t, uuid.Nil, post.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_Latest(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostRepository(db)

	author := uuid.New()
	newer, older := uuid.New(), uuid.New()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "posts" ORDER BY created_at DESC LIMIT $1`)).
		WillReturnRows(sqlmock.NewRows(postColumns).
			AddRow(newer.String(), "Newer", "", "b", "uploads/b.png", author.String(), now, now).
			AddRow(older.String(), "Older", "", "a", "uploads/a.png", author.String(), now.Add(-time.Hour), now))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id","username" FROM "users" WHERE "users"."id" = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username"}).AddRow(author.String(), "jane"))

	posts, err := repo.Latest(context.Background(), 15)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, newer, posts[0].ID)
	assert.Equal(t, older, posts[1].ID)
	require.NotNil(t, posts[0].Author)
	assert.Equal(t, "jane", posts[0].Author.Username)
	assert.Empty(t, posts[0].Author.Password)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_FindByID(t *testing.T) {
	t.Run("found with author", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostRepository(db)
		id, author := uuid.New(), uuid.New()
		now := time.Now()

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "posts" WHERE id = $1`)).
			WillReturnRows(sqlmock.NewRows(postColumns).
				AddRow(id.String(), "Title", "Sum", "Body", "uploads/c.jpg", author.String(), now, now))
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id","username" FROM "users"`)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "username"}).AddRow(author.String(), "jane"))

		post, err := repo.FindByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, "Title", post.Title)
		require.NotNil(t, post.Author)
		assert.Equal(t, author, post.Author.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "posts" WHERE id = $1`)).
			WillReturnRows(sqlmock.NewRows(postColumns))

		_, err := repo.FindByID(context.Background(), uuid.New())
		assert.ErrorIs(t, err, ErrPostNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostRepository_FindByIDAndDelete(t *testing.T) {
	t.Run("deleted", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostRepository(db)
		id := uuid.New()
		now := time.Now()

		mock.ExpectQuery(regexp.QuoteMeta(`DELETE FROM "posts" WHERE id = $1 RETURNING *`)).
			WillReturnRows(sqlmock.NewRows(postColumns).
				AddRow(id.String(), "Title", "", "Body", "uploads/d.gif", uuid.NewString(), now, now))

		post, err := repo.FindByIDAndDelete(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, "uploads/d.gif", post.Cover)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nothing deleted", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta(`DELETE FROM "posts" WHERE id = $1 RETURNING *`)).
			WillReturnRows(sqlmock.NewRows(postColumns))

		_, err := repo.FindByIDAndDelete(context.Background(), uuid.New())
		assert.ErrorIs(t, err, ErrPostNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostRepository_Save(t *testing.T) {
	tests := []struct {
		result  sqlmockResult
		wantErr error
		name    string
	}{
		{name: "updated", result: sqlmockResult{rows: 1}},
		{name: "vanished", result: sqlmockResult{rows: 0}, wantErr: ErrPostNotFound},
		{name: "db error", result: sqlmockResult{err: errors.New("db down")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewPostRepository(db)

			exp := mock.ExpectExec(regexp.QuoteMeta(`UPDATE "posts" SET`))
			if tt.result.err != nil {
				exp.WillReturnError(tt.result.err)
			} else {
				exp.WillReturnResult(sqlmock.NewResult(0, tt.result.rows))
			}

			post := &models.Post{ID: uuid.New(), Title: "T", Content: "C", Cover: "uploads/e.png"}
			err := repo.Save(context.Background(), post)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.result.err != nil:
				assert.ErrorContains(t, err, "db down")
			default:
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

type sqlmockResult struct {
	err  error
	rows int64
}
