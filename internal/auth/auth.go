package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/terra-clan/car-marketplace/internal/models"
	"github.com/terra-clan/car-marketplace/internal/storage"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrSessionNotFound    = errors.New("session not found or expired")
	ErrValidation         = errors.New("validation failed")
)

// MinPasswordLength applies to registration only; login checks the stored hash
const MinPasswordLength = 6

// DemoBuyerEmail is the account SeedDemoUsers creates for the buyer dashboard
const DemoBuyerEmail = "buyer@example.com"

// DealerDirectory resolves a showroom name to a catalog dealer
type DealerDirectory interface {
	DealerByName(name string) (models.Dealer, bool)
}

// Config holds auth settings
type Config struct {
	SessionTTL time.Duration
	Latency    time.Duration // artificial delay before each login or registration
	BcryptCost int
}

// Service registers accounts and manages bearer-token sessions
type Service struct {
	repo    storage.Repository
	dealers DealerDirectory
	cfg     Config
	now     func() time.Time
}

// NewService creates an auth service. dealers may be nil, in which case
// dealer accounts are never linked to a catalog dealer.
func NewService(repo storage.Repository, dealers DealerDirectory, cfg Config) *Service {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}

	return &Service{
		repo:    repo,
		dealers: dealers,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Login checks the password against the stored hash and opens a session
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	email := models.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		slog.Info("login rejected", "email", email, "reason", "unknown email")
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		slog.Info("login rejected", "email", email, "reason", "password mismatch")
		return nil, ErrInvalidCredentials
	}

	return s.openSession(ctx, user)
}

// RegisterBuyer creates a buyer account and signs it in
func (s *Service) RegisterBuyer(ctx context.Context, req models.RegisterBuyerRequest) (*models.AuthResponse, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	if err := validateRequired(map[string]string{"full_name": req.FullName}); err != nil {
		return nil, err
	}

	user, err := s.newUser(req.FullName, req.Email, req.Phone, req.Password, models.RoleBuyer)
	if err != nil {
		return nil, err
	}

	if err := s.createUser(ctx, user); err != nil {
		return nil, err
	}

	return s.openSession(ctx, user)
}

// RegisterDealer creates a dealer account. The account manages the catalog dealer
// whose name matches the showroom name; otherwise its inventory is empty.
func (s *Service) RegisterDealer(ctx context.Context, req models.RegisterDealerRequest) (*models.AuthResponse, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	if err := validateRequired(map[string]string{
		"showroom_name":    req.ShowroomName,
		"showroom_address": req.ShowroomAddress,
		"owner_name":       req.OwnerName,
	}); err != nil {
		return nil, err
	}

	user, err := s.newUser(req.OwnerName, req.Email, req.Phone, req.Password, models.RoleDealer)
	if err != nil {
		return nil, err
	}

	user.DealerInfo = &models.DealerInfo{
		ShowroomName:    strings.TrimSpace(req.ShowroomName),
		ShowroomAddress: strings.TrimSpace(req.ShowroomAddress),
	}
	if s.dealers != nil {
		if d, ok := s.dealers.DealerByName(req.ShowroomName); ok {
			user.DealerID = d.ID
		}
	}

	if err := s.createUser(ctx, user); err != nil {
		return nil, err
	}

	return s.openSession(ctx, user)
}

// Logout destroys the session behind token
func (s *Service) Logout(ctx context.Context, token string) error {
	session, err := s.repo.GetSessionByToken(ctx, token)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return ErrSessionNotFound
	}

	if err := s.repo.DeleteSession(ctx, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out", "user_id", session.UserID)
	return nil
}

// Authenticate resolves a bearer token to its user. Expired sessions are removed.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.User, *models.Session, error) {
	if token == "" {
		return nil, nil, ErrSessionNotFound
	}

	session, err := s.repo.GetSessionByToken(ctx, token)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, nil, ErrSessionNotFound
	}

	if session.IsExpired(s.now()) {
		if err := s.repo.DeleteSession(ctx, token); err != nil {
			slog.Warn("failed to delete expired session", "error", err)
		}
		return nil, nil, ErrSessionNotFound
	}

	user, err := s.repo.GetUserByID(ctx, session.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, nil, ErrSessionNotFound
	}

	return user, session, nil
}

// DeleteExpiredSessions sweeps sessions whose TTL has elapsed
func (s *Service) DeleteExpiredSessions(ctx context.Context) (int, error) {
	return s.repo.DeleteExpiredSessions(ctx, s.now())
}

// SeedDemoUsers creates a demo buyer plus one dealer account per catalog dealer,
// all with the given password. Accounts that already exist are left alone.
func (s *Service) SeedDemoUsers(ctx context.Context, dealers []models.Dealer, password string) (int, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return 0, fmt.Errorf("failed to hash password: %w", err)
	}

	users := []*models.User{{
		ID:           uuid.NewString(),
		Name:         "Demo Buyer",
		Email:        DemoBuyerEmail,
		Role:         models.RoleBuyer,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}}

	for _, d := range dealers {
		users = append(users, &models.User{
			ID:    uuid.NewString(),
			Name:  d.Name + " Manager",
			Email: models.NormalizeEmail(d.Email),
			Phone: d.Phone,
			Role:  models.RoleDealer,
			DealerInfo: &models.DealerInfo{
				ShowroomName:    d.Name,
				ShowroomAddress: d.Address + ", " + d.City,
			},
			DealerID:     d.ID,
			PasswordHash: string(hash),
			CreatedAt:    s.now().UTC(),
		})
	}

	created := 0
	for _, u := range users {
		if err := s.repo.CreateUser(ctx, u); err != nil {
			if errors.Is(err, storage.ErrDuplicate) {
				continue
			}
			return created, fmt.Errorf("failed to seed user %s: %w", u.Email, err)
		}
		created++
	}

	slog.Info("demo users seeded", "created", created, "total", len(users))
	return created, nil
}

func (s *Service) newUser(name, email, phone, password string, role models.UserRole) (*models.User, error) {
	email = models.NormalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: email is not valid", ErrValidation)
	}
	if len(password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, MinPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	return &models.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(name),
		Email:        email,
		Phone:        strings.TrimSpace(phone),
		Role:         role,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}, nil
}

func (s *Service) createUser(ctx context.Context, user *models.User) error {
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return ErrEmailTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user registered",
		"user_id", user.ID,
		"role", user.Role,
		"dealer_id", user.DealerID,
	)
	return nil
}

func (s *Service) openSession(ctx context.Context, user *models.User) (*models.AuthResponse, error) {
	token, err := models.GenerateSessionToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	now := s.now().UTC()
	session := &models.Session{
		Token:     token,
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.SessionTTL),
	}

	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("session opened", "user_id", user.ID, "expires_at", session.ExpiresAt)

	return &models.AuthResponse{
		Token:     token,
		User:      user,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

// wait simulates the round trip to an identity backend
func (s *Service) wait(ctx context.Context) error {
	if s.cfg.Latency <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(s.cfg.Latency)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func validateRequired(fields map[string]string) error {
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%w: %s is required", ErrValidation, name)
		}
	}
	return nil
}
