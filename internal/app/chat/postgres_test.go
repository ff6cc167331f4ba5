package chat

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		conn.Close()
	})
	return NewPostgresRepository(conn), mock
}

func TestPostgresCreate(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	from, to := uuid.New(), uuid.New()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`^INSERT INTO messages \(from_id,to_id,body\) VALUES \(\$1,\$2,\$3\) RETURNING id, created_at$`).
		WithArgs(from.String(), to.String(), "hi").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), at))

	m := &Message{FromID: from, ToID: to, Body: "hi"}
	require.NoError(t, repo.Create(context.Background(), m))
	assert.Equal(t, int64(7), m.ID)
	assert.Equal(t, at, m.CreatedAt)
}

func TestPostgresCreateForeignKeyError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`^INSERT INTO messages`).WillReturnError(errors.New("fk violation"))

	err := repo.Create(context.Background(), &Message{FromID: uuid.New(), ToID: uuid.New(), Body: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error")
}

func TestPostgresConversation(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	a, b := uuid.New(), uuid.New()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(messageColumns).
		AddRow(int64(1), a.String(), b.String(), "hi", at).
		AddRow(int64(2), b.String(), a.String(), "hello", at.Add(time.Second))

	mock.ExpectQuery(`^SELECT id, from_id, to_id, body, created_at FROM messages WHERE \(.*from_id = \$1.* OR .*\) ORDER BY created_at, id$`).
		WithArgs(a.String(), b.String(), b.String(), a.String()).
		WillReturnRows(rows)

	conv, err := repo.Conversation(context.Background(), a, b)
	require.NoError(t, err)
	require.Len(t, conv, 2)
	assert.Equal(t, a, conv[0].FromID)
	assert.Equal(t, "hello", conv[1].Body)
	assert.Equal(t, a, conv[1].ToID)
}

func TestPostgresLatest(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	a, b := uuid.New(), uuid.New()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`^SELECT .* FROM messages WHERE .* ORDER BY created_at DESC, id DESC LIMIT 1$`).
		WithArgs(a.String(), b.String(), b.String(), a.String()).
		WillReturnRows(sqlmock.NewRows(messageColumns).AddRow(int64(9), b.String(), a.String(), "fine", at))

	m, err := repo.Latest(context.Background(), a, b)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, int64(9), m.ID)
	assert.Equal(t, "fine", m.Body)
}

func TestPostgresLatestEmpty(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`^SELECT .* FROM messages`).WillReturnError(sql.ErrNoRows)

	m, err := repo.Latest(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, m)
}
