package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"talkroom/internal/app/db"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var userColumns = []string{
	"id", "username", "email", "password_hash", "avatar",
	"is_active", "is_staff", "is_superuser",
	"date_joined", "updated_at", "last_login",
}

// PostgresRepository stores users in the users table.
type PostgresRepository struct {
	db db.DBTX
}

func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

func (r *PostgresRepository) Create(ctx context.Context, u *User) error {
	query, args, err := psql.Insert("users").
		Columns("id", "username", "email", "password_hash", "avatar", "is_active", "is_staff", "is_superuser").
		Values(u.ID.String(), u.Username, u.Email, u.PasswordHash, u.Avatar, u.IsActive, u.IsStaff, u.IsSuperuser).
		Suffix("RETURNING date_joined, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&u.DateJoined, &u.UpdatedAt); err != nil {
		if taken := uniqueError(err); taken != nil {
			return taken
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.getOne(ctx, sq.Eq{"id": id.String()})
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	return r.getOne(ctx, sq.Expr("lower(username) = lower(?)", username))
}

func (r *PostgresRepository) UsernameExists(ctx context.Context, username string, except uuid.UUID) (bool, error) {
	return r.exists(ctx, sq.Expr("lower(username) = lower(?)", username), except)
}

func (r *PostgresRepository) EmailExists(ctx context.Context, email string, except uuid.UUID) (bool, error) {
	return r.exists(ctx, sq.Expr("lower(email) = lower(?)", email), except)
}

func (r *PostgresRepository) ListExcept(ctx context.Context, id uuid.UUID) ([]User, error) {
	query, args, err := psql.Select(userColumns...).
		From("users").
		Where(sq.NotEq{"id": id.String()}).
		OrderBy("date_joined", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return users, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id uuid.UUID, p Patch) (*User, error) {
	if p.Empty() {
		return r.GetByID(ctx, id)
	}

	set := map[string]any{"updated_at": sq.Expr("now()")}
	if p.Username != nil {
		set["username"] = *p.Username
	}
	if p.Email != nil {
		set["email"] = *p.Email
	}
	if p.Avatar != nil {
		set["avatar"] = *p.Avatar
	}
	if p.PasswordHash != nil {
		set["password_hash"] = *p.PasswordHash
	}

	query, args, err := psql.Update("users").
		SetMap(set).
		Where(sq.Eq{"id": id.String()}).
		Suffix("RETURNING " + strings.Join(userColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update: %w", err)
	}

	u, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if taken := uniqueError(err); taken != nil {
			return nil, taken
		}
		return nil, err
	}
	return u, nil
}

func (r *PostgresRepository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	query, args, err := psql.Update("users").
		Set("last_login", at).
		Where(sq.Eq{"id": id.String()}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) getOne(ctx context.Context, where sq.Sqlizer) (*User, error) {
	query, args, err := psql.Select(userColumns...).From("users").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	return scanUser(r.db.QueryRowContext(ctx, query, args...))
}

func (r *PostgresRepository) exists(ctx context.Context, where sq.Sqlizer, except uuid.UUID) (bool, error) {
	b := psql.Select("1").From("users").Where(where)
	if except != uuid.Nil {
		b = b.Where(sq.NotEq{"id": except.String()})
	}

	query, args, err := b.Limit(1).ToSql()
	if err != nil {
		return false, fmt.Errorf("build select: %w", err)
	}

	var one int
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var u User
	var lastLogin sql.NullTime

	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Avatar,
		&u.IsActive, &u.IsStaff, &u.IsSuperuser,
		&u.DateJoined, &u.UpdatedAt, &lastLogin,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLogin = &t
	}
	return &u, nil
}

// uniqueError maps a unique index violation to the matching sentinel, or returns nil.
func uniqueError(err error) error {
	name, ok := db.UniqueViolation(err)
	if !ok {
		return nil
	}

	switch name {
	case "users_username_key":
		return ErrUsernameTaken
	case "users_email_key":
		return ErrEmailTaken
	}
	return nil
}
