package auth

import (
	"context"
	"sync"
	"time"
)

// TestAccountsStore is an in-memory accountsStore for unit tests.
type TestAccountsStore struct {
	mu       sync.Mutex
	Accounts map[string]*Account // keyed by account id
}

func NewTestAccountsStore() *TestAccountsStore {
	return &TestAccountsStore{
		Accounts: make(map[string]*Account),
	}
}

func (s *TestAccountsStore) Add(_ context.Context, account Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.Accounts {
		if a.Email == account.Email {
			return ErrEmailInUse
		}
	}
	s.Accounts[account.ID] = &account
	return nil
}

func (s *TestAccountsStore) GetByEmail(_ context.Context, email string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.Accounts {
		if a.Email == email {
			acc := *a
			return &acc, nil
		}
	}
	return nil, ErrInvalidCredentials
}

func (s *TestAccountsStore) Get(_ context.Context, id string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.Accounts[id]; ok {
		acc := *a
		return &acc, nil
	}
	return nil, ErrInvalidCredentials
}

func (s *TestAccountsStore) Confirm(_ context.Context, confirmToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.Accounts {
		if a.ConfirmToken == confirmToken && a.ConfirmedAt == nil {
			now := time.Now()
			a.ConfirmedAt = &now
			a.ConfirmToken = ""
			return nil
		}
	}
	return ErrConfirmTokenInvalid
}
