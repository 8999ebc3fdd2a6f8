package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"streamgate/models"

	"github.com/google/uuid"
)

const userColumns = `id, email, password_hash, full_name, is_admin, is_subscribed, created_at`

type PostgresUsers struct {
	db      *sql.DB
	timeout time.Duration
}

func NewPostgresUsers(db *sql.DB, timeout time.Duration) *PostgresUsers {
	return &PostgresUsers{db: db, timeout: timeout}
}

func (s *PostgresUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out := *u
	out.Email = NormalizeEmail(u.Email)
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO users (email, password_hash, full_name) VALUES ($1, $2, $3)
		 RETURNING id, is_admin, is_subscribed, created_at`,
		out.Email, out.PasswordHash, out.FullName,
	).Scan(&out.ID, &out.IsAdmin, &out.IsSubscribed, &out.CreatedAt)
	if err != nil {
		if isDuplicateKey(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, dbError(ctx, err)
	}
	return &out, nil
}

func (s *PostgresUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`,
		NormalizeEmail(email),
	)
	return scanUser(ctx, row)
}

func (s *PostgresUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(ctx, row)
}

func (s *PostgresUsers) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, passwordHash, id)
	if err != nil {
		return dbError(ctx, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return dbError(ctx, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresUsers) UpdateFullName(ctx context.Context, id string, fullName *string) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	row := s.db.QueryRowContext(ctx,
		`UPDATE users SET full_name = $1 WHERE id = $2 RETURNING `+userColumns,
		fullName, id,
	)
	return scanUser(ctx, row)
}

func (s *PostgresUsers) MarkSubscribedByEmail(ctx context.Context, email string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var id string
	err := s.db.QueryRowContext(ctx,
		`UPDATE users SET is_subscribed = TRUE WHERE lower(email) = lower($1) RETURNING id`,
		NormalizeEmail(email),
	).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", dbError(ctx, err)
	}
	return id, nil
}

func (s *PostgresUsers) IsSubscribed(ctx context.Context, id string) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, ErrNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var subscribed bool
	err := s.db.QueryRowContext(ctx, `SELECT is_subscribed FROM users WHERE id = $1`, id).Scan(&subscribed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrNotFound
		}
		return false, dbError(ctx, err)
	}
	return subscribed, nil
}

func (s *PostgresUsers) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		return dbError(ctx, err)
	}
	return nil
}

func scanUser(ctx context.Context, row *sql.Row) (*models.User, error) {
	var (
		u        models.User
		fullName sql.NullString
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &fullName, &u.IsAdmin, &u.IsSubscribed, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, dbError(ctx, err)
	}
	if fullName.Valid {
		u.FullName = &fullName.String
	}
	return &u, nil
}
