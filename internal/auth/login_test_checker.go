package auth

import (
	"context"
	"sync"
)

// LoginTestChecker is an in-memory Checker for unit tests.
type LoginTestChecker struct {
	mu       sync.Mutex
	Sessions map[string]string // token -> user id
}

func NewLoginTestChecker() *LoginTestChecker {
	return &LoginTestChecker{
		Sessions: make(map[string]string),
	}
}

func (lc *LoginTestChecker) GetSession(_ context.Context, token string) (string, error) {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	userID, ok := lc.Sessions[token]
	if !ok {
		return "", ErrSessionNotFound
	}
	return userID, nil
}
