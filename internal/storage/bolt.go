package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bolt "github.com/boltdb/bolt"

	"github.com/terra-clan/car-marketplace/internal/models"
)

var (
	usersBucket    = []byte("users")
	emailsBucket   = []byte("users_by_email")
	sessionsBucket = []byte("sessions")
)

// BoltRepository implements Repository on a single BoltDB file
type BoltRepository struct {
	db *bolt.DB
}

// NewBoltRepository opens (or creates) the database at path and ensures its buckets exist
func NewBoltRepository(path string) (*BoltRepository, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{usersBucket, emailsBucket, sessionsBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}

	return &BoltRepository{db: db}, nil
}

// CreateUser stores the user and its email index in one transaction
func (r *BoltRepository) CreateUser(_ context.Context, u *models.User) error {
	email := []byte(models.NormalizeEmail(u.Email))

	return r.db.Update(func(tx *bolt.Tx) error {
		users := tx.Bucket(usersBucket)
		emails := tx.Bucket(emailsBucket)

		if emails.Get(email) != nil {
			return fmt.Errorf("%w: email %s", ErrDuplicate, email)
		}
		if users.Get([]byte(u.ID)) != nil {
			return fmt.Errorf("%w: user %s", ErrDuplicate, u.ID)
		}

		data, err := json.Marshal(newStoredUser(u))
		if err != nil {
			return fmt.Errorf("failed to marshal user: %w", err)
		}

		if err := users.Put([]byte(u.ID), data); err != nil {
			return err
		}
		return emails.Put(email, []byte(u.ID))
	})
}

// GetUserByID retrieves a user by ID
func (r *BoltRepository) GetUserByID(_ context.Context, id string) (*models.User, error) {
	var u *models.User
	err := r.db.View(func(tx *bolt.Tx) error {
		var err error
		u, err = readUser(tx, []byte(id))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// GetUserByEmail retrieves a user by email, ignoring case
func (r *BoltRepository) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	var u *models.User
	err := r.db.View(func(tx *bolt.Tx) error {
		id := tx.Bucket(emailsBucket).Get([]byte(models.NormalizeEmail(email)))
		if id == nil {
			return nil
		}
		var err error
		u, err = readUser(tx, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// CreateSession stores a session keyed by its token
func (r *BoltRepository) CreateSession(_ context.Context, s *models.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	return r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(sessionsBucket)
		if b.Get([]byte(s.Token)) != nil {
			return fmt.Errorf("%w: session token", ErrDuplicate)
		}
		return b.Put([]byte(s.Token), data)
	})
}

// GetSessionByToken retrieves a session by its bearer token
func (r *BoltRepository) GetSessionByToken(_ context.Context, token string) (*models.Session, error) {
	var s *models.Session
	err := r.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(sessionsBucket).Get([]byte(token))
		if v == nil {
			return nil
		}
		s = &models.Session{}
		return json.Unmarshal(v, s)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return s, nil
}

// DeleteSession removes a session; bolt treats a missing key as a no-op
func (r *BoltRepository) DeleteSession(_ context.Context, token string) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionsBucket).Delete([]byte(token))
	})
}

// DeleteExpiredSessions removes sessions that have expired at now
func (r *BoltRepository) DeleteExpiredSessions(_ context.Context, now time.Time) (int, error) {
	deleted := 0
	err := r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(sessionsBucket)

		// keys cannot be deleted while iterating with ForEach
		var expired [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var s models.Session
			if err := json.Unmarshal(v, &s); err != nil {
				return err
			}
			if s.IsExpired(now) {
				expired = append(expired, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}

		for _, k := range expired {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		deleted = len(expired)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return deleted, nil
}

// Ping reports whether the database file is still open
func (r *BoltRepository) Ping(context.Context) error {
	return r.db.View(func(*bolt.Tx) error { return nil })
}

// Close releases the database file lock
func (r *BoltRepository) Close() error {
	return r.db.Close()
}

func readUser(tx *bolt.Tx, id []byte) (*models.User, error) {
	v := tx.Bucket(usersBucket).Get(id)
	if v == nil {
		return nil, nil
	}

	var stored storedUser
	if err := json.Unmarshal(v, &stored); err != nil {
		return nil, err
	}
	return stored.user()
}
