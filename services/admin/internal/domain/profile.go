package domain

import (
	"strings"
	"time"
)

const (
	RoleAdmin = "admin"

	GuestName        = "Guest"
	AdminHomeRoute   = "/admin/my-account"
	DefaultHomeRoute = "/dashboard"
	MinPasswordLen   = 6
)

type UserProfile struct {
	UserID       string    `json:"userId"`
	DisplayName  string    `json:"displayName"`
	Role         string    `json:"role"`
	ProfileImage string    `json:"profileImage,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Greeting is the name shown in the header.
func (p *UserProfile) Greeting() string {
	if p == nil || strings.TrimSpace(p.DisplayName) == "" {
		return GuestName
	}
	return p.DisplayName
}

// HomeRoute is where the back action leads for this role.
func (p *UserProfile) HomeRoute() string {
	if p != nil && p.Role == RoleAdmin {
		return AdminHomeRoute
	}
	return DefaultHomeRoute
}

// ProfilePatch is a merge write; nil fields are left as stored.
type ProfilePatch struct {
	DisplayName  *string `json:"displayName,omitempty"`
	ProfileImage *string `json:"profileImage,omitempty"`
}

func (p ProfilePatch) Empty() bool {
	return p.DisplayName == nil && p.ProfileImage == nil
}

type Account struct {
	ID           string
	Email        string
	PasswordHash string
	DisplayName  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type LoginResult struct {
	AccessToken string       `json:"access_token"`
	ExpiresIn   int64        `json:"expires_in"`
	User        *UserProfile `json:"user"`
}
