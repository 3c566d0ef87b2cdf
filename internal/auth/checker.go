package auth

import "context"

var _ Checker = (*LoginChecker)(nil)
var _ Checker = (*LoginTestChecker)(nil)

type Checker interface {
	// GetSession resolves a token into the session owner, or
	// ErrSessionNotFound when the token is unknown or expired.
	GetSession(ctx context.Context, token string) (userID string, err error)
}
