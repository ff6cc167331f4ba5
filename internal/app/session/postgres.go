package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"talkroom/internal/app/db"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresStore keeps sessions in the sessions table. Expired rows are
// ignored on read and purged by the Janitor.
type PostgresStore struct {
	db  db.DBTX
	now func() time.Time
}

func NewPostgresStore(conn db.DBTX) *PostgresStore {
	return &PostgresStore{db: conn, now: time.Now}
}

func (p *PostgresStore) Create(ctx context.Context, s *Session) error {
	query, args, err := psql.Insert("sessions").
		Columns("id", "user_id", "created_at", "expires_at").
		Values(s.ID, s.UserID.String(), s.CreatedAt, s.ExpiresAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := p.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (p *PostgresStore) Get(ctx context.Context, id string) (*Session, error) {
	query, args, err := psql.Select("id", "user_id", "created_at", "expires_at").
		From("sessions").
		Where(sq.Eq{"id": id}).
		Where(sq.Gt{"expires_at": p.now()}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var s Session
	err = p.db.QueryRowContext(ctx, query, args...).Scan(&s.ID, &s.UserID, &s.CreatedAt, &s.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &s, nil
}

func (p *PostgresStore) Delete(ctx context.Context, id string) error {
	return p.exec(ctx, psql.Delete("sessions").Where(sq.Eq{"id": id}))
}

func (p *PostgresStore) DeleteByUser(ctx context.Context, userID uuid.UUID, keep string) error {
	b := psql.Delete("sessions").Where(sq.Eq{"user_id": userID.String()})
	if keep != "" {
		b = b.Where(sq.NotEq{"id": keep})
	}
	return p.exec(ctx, b)
}

func (p *PostgresStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query, args, err := psql.Delete("sessions").Where(sq.LtOrEq{"expires_at": now}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete: %w", err)
	}

	res, err := p.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return res.RowsAffected()
}

func (p *PostgresStore) exec(ctx context.Context, b sq.DeleteBuilder) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	if _, err := p.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
