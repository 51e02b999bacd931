// Package directory owns Account persistence: lookup by email, creation on
// the OTP sign-up path, and credential replacement on the reset path.
package directory

import (
	"context"
	"fmt"
	"time"

	"github.com/rentx/rentx-api/internal/domain"
	"github.com/rentx/rentx-api/internal/pkg/credential"
	"github.com/rentx/rentx-api/internal/pkg/id"
)

// AccountStore is the minimal interface the directory requires from the
// accounts repo.
type AccountStore interface {
	Put(ctx context.Context, a *domain.Account) error
	Get(ctx context.Context, accountID string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	Update(ctx context.Context, accountID string, updates map[string]interface{}) error
}

type Service interface {
	// FindByEmail returns domain.ErrNotFound when no account matches — the
	// normal "new user" branch, not a failure. Any other error wraps
	// domain.ErrStoreUnavailable.
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	// CreateAccount writes a new account. It does not check for an existing
	// email first; duplicates under concurrent sign-ups remain possible.
	CreateAccount(ctx context.Context, email, secret string) (*domain.Account, error)
	// UpdateCredential replaces the stored secret in place and returns the
	// refreshed account.
	UpdateCredential(ctx context.Context, accountID, newSecret string) (*domain.Account, error)
}

type service struct {
	repo   AccountStore
	scheme credential.Scheme
}

func NewService(repo AccountStore, scheme credential.Scheme) Service {
	return &service{repo: repo, scheme: scheme}
}

func (s *service) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return s.repo.GetByEmail(ctx, email)
}

func (s *service) CreateAccount(ctx context.Context, email, secret string) (*domain.Account, error) {
	stored, err := s.scheme.Hash(secret)
	if err != nil {
		return nil, fmt.Errorf("hash credential: %w", err)
	}
	now := time.Now().UTC()
	a := &domain.Account{
		AccountID:        id.New(),
		Email:            email,
		CredentialSecret: stored,
		Role:             domain.RoleUser,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.Put(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *service) UpdateCredential(ctx context.Context, accountID, newSecret string) (*domain.Account, error) {
	stored, err := s.scheme.Hash(newSecret)
	if err != nil {
		return nil, fmt.Errorf("hash credential: %w", err)
	}
	if err := s.repo.Update(ctx, accountID, map[string]interface{}{
		"credential_secret": stored,
	}); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, accountID)
}
