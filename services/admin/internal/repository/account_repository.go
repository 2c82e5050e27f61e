package repository

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/diagnosis/hallbooking-admin/services/admin/internal/domain"
)

type AccountRepository interface {
	Create(ctx context.Context, email, passwordHash, displayName string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateDisplayName(ctx context.Context, id, displayName string) error
}

type accountRepository struct {
	pool *pgxpool.Pool
}

func NewAccountRepository(pool *pgxpool.Pool) AccountRepository {
	return &accountRepository{pool: pool}
}

const accountCols = `id, email, password_hash, display_name, created_at, updated_at`

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.DisplayName, &a.CreatedAt, &a.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *accountRepository) Create(ctx context.Context, email, passwordHash, displayName string) (*domain.Account, error) {
	const q = `INSERT INTO accounts (email, password_hash, display_name)
		VALUES ($1, $2, $3) RETURNING ` + accountCols
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanAccount(r.pool.QueryRow(ctx, q, strings.ToLower(strings.TrimSpace(email)), passwordHash, displayName))
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	const q = `SELECT ` + accountCols + ` FROM accounts WHERE email=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanAccount(r.pool.QueryRow(ctx, q, strings.ToLower(strings.TrimSpace(email))))
}

func (r *accountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	const q = `SELECT ` + accountCols + ` FROM accounts WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanAccount(r.pool.QueryRow(ctx, q, id))
}

func (r *accountRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const q = `UPDATE accounts SET password_hash=$2, updated_at=now() WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, id, passwordHash)
	return err
}

func (r *accountRepository) UpdateDisplayName(ctx context.Context, id, displayName string) error {
	const q = `UPDATE accounts SET display_name=$2, updated_at=now() WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, id, displayName)
	return err
}
