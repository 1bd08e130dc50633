package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/terra-clan/car-marketplace/internal/models"
)

// ErrDuplicate is returned when a unique key (user id or email) is already taken
var ErrDuplicate = errors.New("duplicate record")

// Repository defines the interface for account and session persistence.
// Reads return (nil, nil) when the record does not exist.
type Repository interface {
	// Users
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// Sessions
	CreateSession(ctx context.Context, s *models.Session) error
	GetSessionByToken(ctx context.Context, token string) (*models.Session, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error)

	// Health
	Ping(ctx context.Context) error
	Close() error
}

// storedUser is the JSON record of the key/value backends. It keeps the password hash,
// which models.User hides from JSON.
type storedUser struct {
	models.User
	PasswordHash string `json:"password_hash"`
}

func newStoredUser(u *models.User) storedUser {
	return storedUser{User: *u, PasswordHash: u.PasswordHash}
}

func (s storedUser) user() (*models.User, error) {
	if err := checkRole(s.Role); err != nil {
		return nil, err
	}
	u := s.User
	u.PasswordHash = s.PasswordHash
	return &u, nil
}

// checkRole rejects records written with a role this build does not know
func checkRole(role models.UserRole) error {
	if !role.IsValid() {
		return fmt.Errorf("stored user has unknown role %q", role)
	}
	return nil
}
