package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/terra-clan/car-marketplace/internal/models"
)

// MemoryRepository implements Repository in process memory
type MemoryRepository struct {
	mu       sync.RWMutex
	users    map[string]models.User
	emails   map[string]string // normalized email -> user id
	sessions map[string]models.Session
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:    make(map[string]models.User),
		emails:   make(map[string]string),
		sessions: make(map[string]models.Session),
	}
}

// CreateUser stores a user; the email must not be registered yet
func (r *MemoryRepository) CreateUser(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := models.NormalizeEmail(u.Email)
	if _, ok := r.emails[email]; ok {
		return fmt.Errorf("%w: email %s", ErrDuplicate, email)
	}
	if _, ok := r.users[u.ID]; ok {
		return fmt.Errorf("%w: user %s", ErrDuplicate, u.ID)
	}

	r.users[u.ID] = cloneUser(*u)
	r.emails[email] = u.ID
	return nil
}

// GetUserByID retrieves a user by ID
func (r *MemoryRepository) GetUserByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	u = cloneUser(u)
	return &u, nil
}

// GetUserByEmail retrieves a user by email, ignoring case
func (r *MemoryRepository) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.emails[models.NormalizeEmail(email)]
	if !ok {
		return nil, nil
	}
	u := cloneUser(r.users[id])
	return &u, nil
}

// CreateSession stores a session keyed by its token
func (r *MemoryRepository) CreateSession(_ context.Context, s *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[s.Token]; ok {
		return fmt.Errorf("%w: session token", ErrDuplicate)
	}
	r.sessions[s.Token] = *s
	return nil
}

// GetSessionByToken retrieves a session by its bearer token
func (r *MemoryRepository) GetSessionByToken(_ context.Context, token string) (*models.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[token]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

// DeleteSession removes a session; deleting a missing token is a no-op
func (r *MemoryRepository) DeleteSession(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, token)
	return nil
}

// DeleteExpiredSessions removes sessions that have expired at now
func (r *MemoryRepository) DeleteExpiredSessions(_ context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	deleted := 0
	for token, s := range r.sessions {
		if s.IsExpired(now) {
			delete(r.sessions, token)
			deleted++
		}
	}
	return deleted, nil
}

// Ping always succeeds
func (r *MemoryRepository) Ping(context.Context) error {
	return nil
}

// Close is a no-op
func (r *MemoryRepository) Close() error {
	return nil
}

// cloneUser copies the DealerInfo pointer target so stored users cannot be modified through it
func cloneUser(u models.User) models.User {
	if u.DealerInfo != nil {
		info := *u.DealerInfo
		u.DealerInfo = &info
	}
	return u
}
