package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"streamgate/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const movieColumns = `id, title, description, thumbnail_url, video_url, category, year, rating, duration, genre, featured, created_at`

type PostgresMovies struct {
	db      *sql.DB
	timeout time.Duration
}

func NewPostgresMovies(db *sql.DB, timeout time.Duration) *PostgresMovies {
	return &PostgresMovies{db: db, timeout: timeout}
}

// List returns titles newest first. Category matches exactly; Search matches
// title or description case-insensitively.
func (s *PostgresMovies) List(ctx context.Context, filter models.MovieFilter) ([]models.Movie, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+movieColumns+` FROM movies
		 WHERE ($1 = '' OR category = $1)
		   AND ($2 = '' OR title ILIKE '%' || $2 || '%' OR description ILIKE '%' || $2 || '%')
		 ORDER BY created_at DESC`,
		filter.Category, filter.Search,
	)
	if err != nil {
		return nil, dbError(ctx, err)
	}
	defer rows.Close()

	movies := []models.Movie{}
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, dbError(ctx, err)
		}
		movies = append(movies, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(ctx, err)
	}
	return movies, nil
}

func (s *PostgresMovies) Get(ctx context.Context, id string) (*models.Movie, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	m, err := scanMovie(s.db.QueryRowContext(ctx, `SELECT `+movieColumns+` FROM movies WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, dbError(ctx, err)
	}
	return m, nil
}

func (s *PostgresMovies) Create(ctx context.Context, m *models.Movie) (*models.Movie, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out := *m
	if out.Genre == nil {
		out.Genre = []string{}
	}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO movies (title, description, thumbnail_url, video_url, category, year, rating, duration, genre, featured)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, created_at`,
		out.Title, out.Description, out.ThumbnailURL, out.VideoURL, out.Category, out.Year, out.Rating, out.Duration, pq.Array(out.Genre), out.Featured,
	).Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		return nil, dbError(ctx, err)
	}
	return &out, nil
}

func (s *PostgresMovies) Update(ctx context.Context, m *models.Movie) (*models.Movie, error) {
	if _, err := uuid.Parse(m.ID); err != nil {
		return nil, ErrNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out := *m
	if out.Genre == nil {
		out.Genre = []string{}
	}
	err := s.db.QueryRowContext(ctx,
		`UPDATE movies SET title = $1, description = $2, thumbnail_url = $3, video_url = $4, category = $5,
		        year = $6, rating = $7, duration = $8, genre = $9, featured = $10
		 WHERE id = $11
		 RETURNING created_at`,
		out.Title, out.Description, out.ThumbnailURL, out.VideoURL, out.Category, out.Year, out.Rating, out.Duration, pq.Array(out.Genre), out.Featured, out.ID,
	).Scan(&out.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, dbError(ctx, err)
	}
	return &out, nil
}

func (s *PostgresMovies) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx, `DELETE FROM movies WHERE id = $1`, id)
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

type scanner interface {
	Scan(dest ...any) error
}

func scanMovie(row scanner) (*models.Movie, error) {
	var m models.Movie
	err := row.Scan(&m.ID, &m.Title, &m.Description, &m.ThumbnailURL, &m.VideoURL, &m.Category,
		&m.Year, &m.Rating, &m.Duration, pq.Array(&m.Genre), &m.Featured, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
