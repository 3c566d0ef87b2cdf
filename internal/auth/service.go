package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/2beens/pushstats/pkg"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultTTL       = 24 * 7 * time.Hour
	sessionKeyPrefix = "pushstats-session||"
	tokensSetKey     = "pushstats-sessions"

	minPasswordLen = 8
)

type accountsStore interface {
	Add(ctx context.Context, account Account) error
	GetByEmail(ctx context.Context, email string) (*Account, error)
	Get(ctx context.Context, id string) (*Account, error)
	Confirm(ctx context.Context, confirmToken string) error
}

// Service owns the full session lifecycle: accounts live in postgres,
// sessions in redis, and every login/logout transition is published on
// the Notifier.
type Service struct {
	accounts    accountsStore
	redisClient *redis.Client
	notifier    *Notifier
	ttl         time.Duration
	// ability to inject random string generator func for tokens (for unit and dev testing)
	RandStringFunc func(s int) (string, error)
}

func NewService(
	accounts accountsStore,
	ttl time.Duration,
	redisClient *redis.Client,
	notifier *Notifier,
) *Service {
	return &Service{
		accounts:       accounts,
		ttl:            ttl,
		redisClient:    redisClient,
		notifier:       notifier,
		RandStringFunc: pkg.GenerateRandomString,
	}
}

func (s *Service) Notifier() *Notifier {
	return s.notifier
}

// Account returns the account details for the given user id.
func (s *Service) Account(ctx context.Context, id string) (*Account, error) {
	return s.accounts.Get(ctx, id)
}

// SignUp creates a pending account. The returned confirmation token is
// delivered out-of-band (email); the account cannot sign in before
// Confirm is called with it.
func (s *Service) SignUp(ctx context.Context, email, password, name string) (confirmToken string, err error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if !strings.Contains(email, "@") {
		return "", fmt.Errorf("%w: invalid email", ErrInvalidCredentials)
	}
	if len(password) < minPasswordLen {
		return "", fmt.Errorf("%w: password too short", ErrInvalidCredentials)
	}
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}

	passwordHash, err := pkg.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	confirmToken, err = s.RandStringFunc(35)
	if err != nil {
		return "", err
	}

	if err := s.accounts.Add(ctx, Account{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		ConfirmToken: confirmToken,
		CreatedAt:    time.Now(),
	}); err != nil {
		return "", err
	}

	return confirmToken, nil
}

// Confirm activates a pending account.
func (s *Service) Confirm(ctx context.Context, confirmToken string) error {
	return s.accounts.Confirm(ctx, confirmToken)
}

// SignIn checks the credentials and opens a new session created at the
// given time. The time is a parameter so tests can pin it.
func (s *Service) SignIn(ctx context.Context, email, password string, now time.Time) (*Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get account: %w", err)
	}

	if !pkg.CheckPasswordHash(password, account.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if account.ConfirmedAt == nil {
		return nil, ErrNotConfirmed
	}

	token, err := s.RandStringFunc(35)
	if err != nil {
		return nil, err
	}

	createdAt := now
	sessionKey := sessionKeyPrefix + token
	cmdSet := s.redisClient.HSet(ctx, sessionKey,
		"user_id", account.ID,
		"created_at", createdAt.Unix(),
	)
	if err := cmdSet.Err(); err != nil {
		return nil, err
	}

	// add token to list of sessions
	cmdSAdd := s.redisClient.SAdd(ctx, tokensSetKey, token)
	if err := cmdSAdd.Err(); err != nil {
		return nil, err
	}

	session := &Session{
		Token:     token,
		UserID:    account.ID,
		CreatedAt: createdAt,
	}

	s.notifier.Publish(SessionEvent{
		Type:   SessionSignedIn,
		UserID: account.ID,
		Token:  token,
	})

	return session, nil
}

// SignOut clears the session. It always succeeds locally: the signed-out
// transition is published even when redis cannot be reached, so that
// consumers never keep acting on a session the user abandoned.
func (s *Service) SignOut(ctx context.Context, token string) {
	sessionKey := sessionKeyPrefix + token
	if err := s.redisClient.Del(ctx, sessionKey).Err(); err != nil {
		log.Errorf("sign out, delete session: %s", err)
	}
	if err := s.redisClient.SRem(ctx, tokensSetKey, token).Err(); err != nil {
		log.Errorf("sign out, remove session token: %s", err)
	}

	s.notifier.Publish(SessionEvent{Type: SessionSignedOut})
}

// ScanAndClean will run through all sessions, check the TTL, and clean them if old
func (s *Service) ScanAndClean(ctx context.Context) {
	cmd := s.redisClient.SMembers(ctx, tokensSetKey)
	if err := cmd.Err(); err != nil {
		log.Errorf("auth service, scan and clean, get sessions: %s", err)
		return
	}

	sessionTokens := cmd.Val()
	if len(sessionTokens) == 0 {
		log.Debugln("auth service, scan and clean abort, no sessions")
		return
	}

	log.Debugf("auth service, scan and clean [%d sessions] start ...", len(sessionTokens))
	var toRemove []string
	for _, token := range sessionTokens {
		sessionKey := sessionKeyPrefix + token
		createdAtUnixStr, err := s.redisClient.HGet(ctx, sessionKey, "created_at").Result()
		if err != nil {
			log.Errorf("auth service, scan and clean token %s: %s", token, err)
			continue
		}

		createdAtUnix, err := strconv.ParseInt(createdAtUnixStr, 10, 64)
		if err != nil {
			log.Errorf("auth service, scan and clean token %s: %s", token, err)
			continue
		}

		if time.Since(time.Unix(createdAtUnix, 0)) > s.ttl {
			toRemove = append(toRemove, token)
		}
	}

	for _, token := range toRemove {
		sessionKey := sessionKeyPrefix + token
		if err := s.redisClient.Del(ctx, sessionKey).Err(); err != nil {
			log.Errorf("auth service, clean token %s: %s", token, err)
			continue
		}
		if err := s.redisClient.SRem(ctx, tokensSetKey, token).Err(); err != nil {
			log.Errorf("auth service, clean token %s: %s", token, err)
		}
	}
	log.Debugf("auth service, scan and clean done, removed %d sessions", len(toRemove))
}
