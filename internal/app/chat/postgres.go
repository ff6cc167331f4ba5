package chat

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"talkroom/internal/app/db"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var messageColumns = []string{"id", "from_id", "to_id", "body", "created_at"}

// PostgresRepository stores messages in the messages table.
type PostgresRepository struct {
	db db.DBTX
}

func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

func (r *PostgresRepository) Create(ctx context.Context, m *Message) error {
	query, args, err := psql.Insert("messages").
		Columns("from_id", "to_id", "body").
		Values(m.FromID.String(), m.ToID.String(), m.Body).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&m.ID, &m.CreatedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Conversation(ctx context.Context, a, b uuid.UUID) ([]Message, error) {
	query, args, err := psql.Select(messageColumns...).
		From("messages").
		Where(pair(a, b)).
		OrderBy("created_at", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.FromID, &m.ToID, &m.Body, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return out, nil
}

func (r *PostgresRepository) Latest(ctx context.Context, a, b uuid.UUID) (*Message, error) {
	query, args, err := psql.Select(messageColumns...).
		From("messages").
		Where(pair(a, b)).
		OrderBy("created_at DESC", "id DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var m Message
	err = r.db.QueryRowContext(ctx, query, args...).
		Scan(&m.ID, &m.FromID, &m.ToID, &m.Body, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &m, nil
}

// pair matches both directions of the a/b conversation.
func pair(a, b uuid.UUID) sq.Or {
	return sq.Or{
		sq.Eq{"from_id": a.String(), "to_id": b.String()},
		sq.Eq{"from_id": b.String(), "to_id": a.String()},
	}
}
