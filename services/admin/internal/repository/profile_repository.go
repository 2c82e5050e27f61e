package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/diagnosis/hallbooking-admin/services/admin/internal/domain"
)

type ProfileRepository interface {
	Get(ctx context.Context, userID string) (*domain.UserProfile, error)
	Upsert(ctx context.Context, userID string, patch domain.ProfilePatch) (*domain.UserProfile, error)
	SetRole(ctx context.Context, userID, role string) error
}

type profileRepository struct {
	pool *pgxpool.Pool
}

func NewProfileRepository(pool *pgxpool.Pool) ProfileRepository {
	return &profileRepository{pool: pool}
}

const profileCols = `user_id, COALESCE(display_name, ''), role, COALESCE(profile_image, ''), updated_at`

func (r *profileRepository) Get(ctx context.Context, userID string) (*domain.UserProfile, error) {
	const q = `SELECT ` + profileCols + ` FROM profiles WHERE user_id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var p domain.UserProfile
	err := r.pool.QueryRow(ctx, q, userID).Scan(&p.UserID, &p.DisplayName, &p.Role, &p.ProfileImage, &p.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Upsert creates the profile on first write and otherwise only touches the
// fields present in patch.
func (r *profileRepository) Upsert(ctx context.Context, userID string, patch domain.ProfilePatch) (*domain.UserProfile, error) {
	const q = `INSERT INTO profiles (user_id, display_name, profile_image)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			display_name  = COALESCE(EXCLUDED.display_name, profiles.display_name),
			profile_image = COALESCE(EXCLUDED.profile_image, profiles.profile_image),
			updated_at    = now()
		RETURNING ` + profileCols
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var p domain.UserProfile
	err := r.pool.QueryRow(ctx, q, userID, patch.DisplayName, patch.ProfileImage).
		Scan(&p.UserID, &p.DisplayName, &p.Role, &p.ProfileImage, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SetRole is used when provisioning accounts; the admin panel never edits roles.
func (r *profileRepository) SetRole(ctx context.Context, userID, role string) error {
	const q = `INSERT INTO profiles (user_id, role) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET role = EXCLUDED.role, updated_at = now()`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, userID, role)
	return err
}
