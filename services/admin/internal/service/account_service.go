package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/diagnosis/hallbooking-admin/pkg/auth"
	"github.com/diagnosis/hallbooking-admin/pkg/config"
	"github.com/diagnosis/hallbooking-admin/pkg/events"
	"github.com/diagnosis/hallbooking-admin/pkg/imaging"
	"github.com/diagnosis/hallbooking-admin/pkg/logger"
	"github.com/diagnosis/hallbooking-admin/pkg/notify"
	"github.com/diagnosis/hallbooking-admin/pkg/ratelimit"
	"github.com/diagnosis/hallbooking-admin/services/admin/internal/domain"
	"github.com/diagnosis/hallbooking-admin/services/admin/internal/identity"
	"github.com/diagnosis/hallbooking-admin/services/admin/internal/repository"
)

type AccountService interface {
	Login(ctx context.Context, email, password string) (*domain.LoginResult, error)
	GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error)
	SaveProfile(ctx context.Context, userID string, patch domain.ProfilePatch) (*domain.UserProfile, error)
	UploadProfileImage(ctx context.Context, userID string, raw []byte) (*domain.UserProfile, error)
	ChangePassword(ctx context.Context, session *auth.Session, currentPassword, newPassword string) (*domain.NotificationReport, error)
}

type accountService struct {
	profiles repository.ProfileRepository
	identity identity.Provider
	notifier notify.Sender
	limiter  ratelimit.Limiter
	eventBus events.Publisher
	config   *config.Config
}

func NewAccountService(
	profiles repository.ProfileRepository,
	provider identity.Provider,
	notifier notify.Sender,
	limiter ratelimit.Limiter,
	eventBus events.Publisher,
	config *config.Config,
) AccountService {
	return &accountService{
		profiles: profiles,
		identity: provider,
		notifier: notifier,
		limiter:  limiter,
		eventBus: eventBus,
		config:   config,
	}
}

func (s *accountService) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", domain.ErrInvalidCredential)
	}

	acct, err := s.identity.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}

	profile, err := s.profiles.Get(ctx, acct.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if profile == nil {
		profile = &domain.UserProfile{UserID: acct.ID, DisplayName: acct.DisplayName}
	}

	token, err := auth.NewAccessToken(acct.ID, acct.Email, profile.Role, s.config.Auth.JWTSecret, s.config.Auth.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	logger.InfoContext(ctx, "User logged in", "user_id", acct.ID, "role", profile.Role)
	return &domain.LoginResult{
		AccessToken: token,
		ExpiresIn:   int64(s.config.Auth.AccessTokenTTL.Seconds()),
		User:        profile,
	}, nil
}

func (s *accountService) GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if p == nil {
		return nil, domain.ErrProfileNotFound
	}
	return p, nil
}

func (s *accountService) SaveProfile(ctx context.Context, userID string, patch domain.ProfilePatch) (*domain.UserProfile, error) {
	if patch.DisplayName != nil {
		name := strings.TrimSpace(*patch.DisplayName)
		patch.DisplayName = &name
	}
	if patch.Empty() {
		return nil, domain.ErrEmptyPatch
	}

	p, err := s.profiles.Upsert(ctx, userID, patch)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	if patch.DisplayName != nil {
		if err := s.identity.UpdateDisplayName(ctx, userID, *patch.DisplayName); err != nil {
			logger.WarnContext(ctx, "Failed to mirror display name to account", "user_id", userID, "error", err.Error())
		}
	}
	return p, nil
}

// UploadProfileImage stores nothing when the image cannot be processed.
func (s *accountService) UploadProfileImage(ctx context.Context, userID string, raw []byte) (*domain.UserProfile, error) {
	img := s.config.Image
	encoded, err := imaging.EncodeAndResize(raw, img.MaxWidth, img.MaxHeight, img.MaxPixels, img.Quality)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrImageProcessing, err)
	}
	return s.SaveProfile(ctx, userID, domain.ProfilePatch{ProfileImage: &encoded})
}

// ChangePassword re-authenticates, commits the new password and then sends
// the confirmation email. Only the first two steps can fail the call; the
// email outcome is returned in the report.
func (s *accountService) ChangePassword(ctx context.Context, session *auth.Session, currentPassword, newPassword string) (*domain.NotificationReport, error) {
	if session == nil || session.UserID == "" {
		return nil, domain.ErrInvalidCredential
	}
	if len(newPassword) < domain.MinPasswordLen {
		return nil, domain.ErrWeakPassword
	}

	rl := s.config.RateLimit
	allowed, err := s.limiter.Allow(ctx, "password:"+session.UserID, rl.PasswordAttempts, rl.Window)
	if err == nil && !allowed {
		return nil, domain.ErrTooManyAttempts
	}

	proof := identity.NewReauthProof(session.Email, currentPassword)
	if err := s.identity.Reauthenticate(ctx, session.UserID, proof); err != nil {
		if errors.Is(err, domain.ErrInvalidCredential) {
			logger.WarnContext(ctx, "Password change rejected", "user_id", session.UserID)
		}
		return nil, err
	}

	if err := s.identity.UpdatePassword(ctx, session.UserID, newPassword); err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "Password changed", "user_id", session.UserID)

	if s.eventBus != nil {
		evt := events.PasswordChangedEvent{UserID: session.UserID, ChangedAt: time.Now().UTC()}
		if err := s.eventBus.Publish(ctx, events.AccountPasswordChanged, evt); err != nil {
			logger.WarnContext(ctx, "Failed to publish event", "subject", events.AccountPasswordChanged, "error", err.Error())
		}
	}

	return sendReport(ctx, s.notifier, notify.PasswordChanged, notify.NewPasswordChangedPayload(session.Email)), nil
}
