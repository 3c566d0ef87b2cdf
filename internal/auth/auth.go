package auth

import (
	"errors"
	"time"
)

var (
	// ErrInvalidCredentials - unknown email or wrong password; never retried automatically
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailInUse - sign up attempted with an already registered email
	ErrEmailInUse = errors.New("email already in use")
	// ErrNotConfirmed - account exists but the out-of-band email confirmation is still pending
	ErrNotConfirmed = errors.New("account not confirmed")
	// ErrConfirmTokenInvalid - confirmation attempted with an unknown or spent token
	ErrConfirmTokenInvalid = errors.New("confirmation token invalid")
	// ErrSessionNotFound - token unknown or expired
	ErrSessionNotFound = errors.New("session not found")
)

type Account struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	ConfirmToken string
	ConfirmedAt  *time.Time
	CreatedAt    time.Time
}

type Session struct {
	Token     string
	UserID    string
	CreatedAt time.Time
}
