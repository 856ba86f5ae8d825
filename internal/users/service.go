package users

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/quicksign/quicksign/internal/models"
	"github.com/quicksign/quicksign/pkg/logger"
)

var (
	ErrEmailTaken         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidPlan        = errors.New("invalid plan type")
)

// Service encapsulates account business logic
type Service struct {
	repo Repository
}

func NewService(r Repository) *Service {
	return &Service{repo: r}
}

// Register creates a new verified-or-not account with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, fullName, email, password string, emailVerified bool) (*models.User, error) {
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		ID:            uuid.NewString(),
		FullName:      fullName,
		Email:         email,
		PasswordHash:  string(hash),
		Plan:          "free",
		EmailVerified: emailVerified,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate verifies the password and returns the account.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.repo.GetByEmail(ctx, email)
}

func (s *Service) List(ctx context.Context) ([]*models.User, error) {
	return s.repo.List(ctx)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// SetPlan changes the subscription plan of an account.
func (s *Service) SetPlan(ctx context.Context, id, plan string) (*models.User, error) {
	if !models.ValidPlans[plan] {
		return nil, ErrInvalidPlan
	}
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Plan = plan
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// EnsureAdmin bootstraps the administrator account from config when missing.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	if email == "" {
		return nil
	}
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	if password == "" {
		password = "admin123"
		logger.Warnf("ADMIN_PASSWORD not set; using default bootstrap password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u := &models.User{
		ID:            uuid.NewString(),
		FullName:      "System Administrator",
		Email:         email,
		PasswordHash:  string(hash),
		Plan:          "enterprise",
		EmailVerified: true,
		IsAdmin:       true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return err
	}
	logger.Infof("admin user created: %s", email)
	return nil
}
