package auth

import "context"

const RoleAdmin = "admin"

// Session is the signed-in user, resolved once per request from the access token
// and handed explicitly to the code acting on the user's behalf.
type Session struct {
	UserID string
	Email  string
	Role   string
}

func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == RoleAdmin
}

// SessionFromClaims builds a Session out of verified token claims.
func SessionFromClaims(c *Claims) *Session {
	return &Session{UserID: c.Subject, Email: c.Email, Role: c.Role}
}

type sessionKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom returns the request session, or nil for anonymous requests.
func SessionFrom(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey{}).(*Session)
	return s
}
