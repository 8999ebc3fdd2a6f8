package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"streamgate/models"

	"github.com/google/uuid"
)

type MemoryUsers struct {
	mu      sync.RWMutex
	byID    map[string]*models.User
	byEmail map[string]string
	now     func() time.Time
}

func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{
		byID:    make(map[string]*models.User),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

func (s *MemoryUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := NormalizeEmail(u.Email)
	if _, ok := s.byEmail[email]; ok {
		return nil, ErrDuplicateEmail
	}
	out := *u
	out.ID = uuid.NewString()
	out.Email = email
	out.IsAdmin = false
	out.IsSubscribed = false
	out.CreatedAt = s.now()

	stored := out
	s.byID[out.ID] = &stored
	s.byEmail[email] = out.ID
	return &out, nil
}

func (s *MemoryUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[NormalizeEmail(email)]
	if !ok {
		return nil, ErrNotFound
	}
	u := *s.byID[id]
	return &u, nil
}

func (s *MemoryUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *u
	return &out, nil
}

func (s *MemoryUsers) UpdatePassword(_ context.Context, id, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (s *MemoryUsers) UpdateFullName(_ context.Context, id string, fullName *string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	if fullName != nil {
		name := *fullName
		u.FullName = &name
	} else {
		u.FullName = nil
	}
	out := *u
	return &out, nil
}

func (s *MemoryUsers) MarkSubscribedByEmail(_ context.Context, email string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[NormalizeEmail(email)]
	if !ok {
		return "", ErrNotFound
	}
	s.byID[id].IsSubscribed = true
	return id, nil
}

func (s *MemoryUsers) IsSubscribed(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return false, ErrNotFound
	}
	return u.IsSubscribed, nil
}

func (s *MemoryUsers) Ping(context.Context) error { return nil }

// SetAdmin grants or revokes admin. Admins are provisioned out of band; this
// is the in-memory equivalent of an operator UPDATE.
func (s *MemoryUsers) SetAdmin(id string, admin bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	u.IsAdmin = admin
	return nil
}

type MemoryMovies struct {
	mu     sync.RWMutex
	movies map[string]*models.Movie
	now    func() time.Time
}

func NewMemoryMovies() *MemoryMovies {
	return &MemoryMovies{movies: make(map[string]*models.Movie), now: time.Now}
}

func (s *MemoryMovies) List(_ context.Context, filter models.MovieFilter) ([]models.Movie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(filter.Search)
	out := []models.Movie{}
	for _, m := range s.movies {
		if filter.Category != "" && m.Category != filter.Category {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(m.Title), search) &&
			!strings.Contains(strings.ToLower(m.Description), search) {
			continue
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryMovies) Get(_ context.Context, id string) (*models.Movie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.movies[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *m
	return &out, nil
}

func (s *MemoryMovies) Create(_ context.Context, m *models.Movie) (*models.Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := *m
	out.ID = uuid.NewString()
	out.CreatedAt = s.now()
	stored := out
	s.movies[out.ID] = &stored
	return &out, nil
}

func (s *MemoryMovies) Update(_ context.Context, m *models.Movie) (*models.Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.movies[m.ID]
	if !ok {
		return nil, ErrNotFound
	}
	out := *m
	out.CreatedAt = existing.CreatedAt
	stored := out
	s.movies[m.ID] = &stored
	return &out, nil
}

func (s *MemoryMovies) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.movies[id]; !ok {
		return ErrNotFound
	}
	delete(s.movies, id)
	return nil
}
