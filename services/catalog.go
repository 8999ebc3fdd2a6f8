package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"streamgate/apperr"
	"streamgate/models"
	"streamgate/store"
)

var ErrMovieNotFound = apperr.New(apperr.KindNotFound, "movie not found")

type CatalogService struct {
	movies store.MovieStore
	logger *slog.Logger
}

func NewCatalogService(movies store.MovieStore, logger *slog.Logger) *CatalogService {
	return &CatalogService{movies: movies, logger: logger}
}

func (s *CatalogService) List(ctx context.Context, filter models.MovieFilter) ([]models.Movie, error) {
	filter.Category = strings.TrimSpace(filter.Category)
	filter.Search = strings.TrimSpace(filter.Search)
	return s.movies.List(ctx, filter)
}

func (s *CatalogService) Get(ctx context.Context, id string) (*models.Movie, error) {
	m, err := s.movies.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrMovieNotFound
	}
	return m, err
}

// Stream returns the playable view of a title. Callers must have checked
// entitlement.
func (s *CatalogService) Stream(ctx context.Context, id string) (*models.Stream, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.Stream{ID: m.ID, Title: m.Title, VideoURL: m.VideoURL}, nil
}

func (s *CatalogService) Create(ctx context.Context, m *models.Movie) (*models.Movie, error) {
	if err := validateMovie(m); err != nil {
		return nil, err
	}
	created, err := s.movies.Create(ctx, m)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "movie created", slog.String("movie_id", created.ID))
	return created, nil
}

func (s *CatalogService) Update(ctx context.Context, m *models.Movie) (*models.Movie, error) {
	if err := validateMovie(m); err != nil {
		return nil, err
	}
	updated, err := s.movies.Update(ctx, m)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrMovieNotFound
	}
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "movie updated", slog.String("movie_id", updated.ID))
	return updated, nil
}

func (s *CatalogService) Delete(ctx context.Context, id string) error {
	err := s.movies.Delete(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrMovieNotFound
	}
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "movie deleted", slog.String("movie_id", id))
	return nil
}

func validateMovie(m *models.Movie) error {
	m.Title = strings.TrimSpace(m.Title)
	if m.Title == "" {
		return apperr.Validation("title is required")
	}
	if m.Year < 0 {
		return apperr.Validation("year must not be negative")
	}
	return nil
}
