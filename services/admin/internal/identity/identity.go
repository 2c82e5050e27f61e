// Package identity is the credential provider: it owns password hashes and
// the account display name, and never hands a hash to its callers.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/alexedwards/argon2id"

	"github.com/diagnosis/hallbooking-admin/services/admin/internal/domain"
	"github.com/diagnosis/hallbooking-admin/services/admin/internal/repository"
)

var ErrProofUsed = errors.New("reauthentication proof already used")

// ReauthProof is an email and current password pair. It is checked at most once.
type ReauthProof struct {
	email    string
	password string
	used     atomic.Bool
}

func NewReauthProof(email, password string) *ReauthProof {
	return &ReauthProof{email: email, password: password}
}

// Check hands the credential to verify. A second call fails with ErrProofUsed
// without calling verify.
func (p *ReauthProof) Check(verify func(email, password string) error) error {
	if p == nil {
		return domain.ErrInvalidCredential
	}
	if !p.used.CompareAndSwap(false, true) {
		return ErrProofUsed
	}
	return verify(p.email, p.password)
}

type Provider interface {
	Register(ctx context.Context, email, password, displayName string) (*domain.Account, error)
	Authenticate(ctx context.Context, email, password string) (*domain.Account, error)
	Reauthenticate(ctx context.Context, userID string, proof *ReauthProof) error
	UpdatePassword(ctx context.Context, userID, newPassword string) error
	UpdateDisplayName(ctx context.Context, userID, displayName string) error
}

type provider struct {
	accounts repository.AccountRepository
	params   *argon2id.Params
}

func NewProvider(accounts repository.AccountRepository) Provider {
	return &provider{accounts: accounts, params: argon2id.DefaultParams}
}

func (p *provider) Register(ctx context.Context, email, password, displayName string) (*domain.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if len(password) < domain.MinPasswordLen {
		return nil, domain.ErrWeakPassword
	}

	hash, err := argon2id.CreateHash(password, p.params)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	acct, err := p.accounts.Create(ctx, email, hash, displayName)
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return acct, nil
}

func (p *provider) Authenticate(ctx context.Context, email, password string) (*domain.Account, error) {
	acct, err := p.accounts.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if acct == nil {
		return nil, domain.ErrInvalidCredential
	}
	if err := p.verify(password, acct.PasswordHash); err != nil {
		return nil, err
	}
	return acct, nil
}

// Reauthenticate checks the proof against the account identified by userID.
// The proof email must belong to that account.
func (p *provider) Reauthenticate(ctx context.Context, userID string, proof *ReauthProof) error {
	return proof.Check(func(email, password string) error {
		acct, err := p.accounts.GetByID(ctx, userID)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
		}
		if acct == nil || !strings.EqualFold(acct.Email, strings.TrimSpace(email)) {
			return domain.ErrInvalidCredential
		}
		return p.verify(password, acct.PasswordHash)
	})
}

func (p *provider) UpdatePassword(ctx context.Context, userID, newPassword string) error {
	hash, err := argon2id.CreateHash(newPassword, p.params)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := p.accounts.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (p *provider) UpdateDisplayName(ctx context.Context, userID, displayName string) error {
	if err := p.accounts.UpdateDisplayName(ctx, userID, displayName); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (p *provider) verify(password, hash string) error {
	ok, err := argon2id.ComparePasswordAndHash(password, hash)
	if err != nil {
		return fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return domain.ErrInvalidCredential
	}
	return nil
}
