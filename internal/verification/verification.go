package verification

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

const CodeTTL = 10 * time.Minute

var (
	ErrNoPending   = errors.New("no pending verification for this email")
	ErrCodeInvalid = errors.New("invalid verification code")
	ErrCodeExpired = errors.New("verification code has expired")
)

// Pending holds a registration awaiting email verification. The password is
// retained until the code is confirmed, at which point the account is created
// with a bcrypt hash and this record is deleted.
type Pending struct {
	ID        string    `json:"id"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// Repository provides pending-verification persistence. Entries expire with
// their code.
type Repository interface {
	Put(ctx context.Context, p *Pending) error
	GetByEmail(ctx context.Context, email string) (*Pending, error)
	DeleteByEmail(ctx context.Context, email string) error
}

// Service wraps repository operations with code generation and validation.
type Service struct {
	repo Repository
}

func NewService(r Repository) *Service { return &Service{repo: r} }

// generateCode returns a 6-digit numeric code.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// Begin stores a pending registration, replacing any previous one for the
// same email, and returns the verification code to send.
func (s *Service) Begin(ctx context.Context, fullName, email, password string) (*Pending, error) {
	code, err := generateCode()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	p := &Pending{
		ID:        uuid.NewString(),
		FullName:  fullName,
		Email:     email,
		Password:  password,
		Code:      code,
		ExpiresAt: now.Add(CodeTTL),
		CreatedAt: now,
	}
	if err := s.repo.Put(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Resend replaces the code and expiry on an existing pending registration.
func (s *Service) Resend(ctx context.Context, email string) (*Pending, error) {
	p, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNoPending
	}
	code, err := generateCode()
	if err != nil {
		return nil, err
	}
	p.Code = code
	p.ExpiresAt = time.Now().UTC().Add(CodeTTL)
	if err := s.repo.Put(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Confirm validates the code and consumes the pending registration.
func (s *Service) Confirm(ctx context.Context, email, code string) (*Pending, error) {
	p, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrCodeInvalid
	}
	if time.Now().UTC().After(p.ExpiresAt) {
		_ = s.repo.DeleteByEmail(ctx, email)
		return nil, ErrCodeExpired
	}
	if p.Code != code {
		return nil, ErrCodeInvalid
	}
	if err := s.repo.DeleteByEmail(ctx, email); err != nil {
		return nil, err
	}
	return p, nil
}

// PendingCount is used by the admin stats endpoint. Only the memory
// repository can answer it cheaply; Redis-backed deployments report -1.
type Counter interface {
	Count(ctx context.Context) int
}
