package pushups

import (
	"context"
	"sort"
	"sync"
)

// TestStore is an in-memory Store for unit tests. Error fields, when
// set, are returned by the corresponding operation without mutating
// anything.
type TestStore struct {
	mu         sync.Mutex
	Profiles   map[string]*UserProfile
	DailyLogs  map[string][]DailyLog  // without sets, rebuilt on fetch
	Workouts   map[string][]PushUpSet // keyed by user id
	Breakdowns map[string][]TargetItem

	FetchProfileErr error
	FetchLogsErr    error
	SaveProfileErr  error
	InsertSetErr    error
	UpsertErr       error
	ReplaceErr      error

	FetchProfileCalls int
	FetchLogsCalls    int
	SaveProfileCalls  int
}

func NewTestStore() *TestStore {
	return &TestStore{
		Profiles:   make(map[string]*UserProfile),
		DailyLogs:  make(map[string][]DailyLog),
		Workouts:   make(map[string][]PushUpSet),
		Breakdowns: make(map[string][]TargetItem),
	}
}

func (s *TestStore) FetchProfile(_ context.Context, userID string) (*UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FetchProfileCalls++
	if s.FetchProfileErr != nil {
		return nil, s.FetchProfileErr
	}
	p, ok := s.Profiles[userID]
	if !ok {
		return nil, nil
	}
	profile := *p
	profile.TargetBreakdown = append([]TargetItem(nil), s.Breakdowns[userID]...)
	if profile.TargetBreakdown == nil {
		profile.TargetBreakdown = make([]TargetItem, 0)
	}
	return &profile, nil
}

func (s *TestStore) FetchLogs(_ context.Context, userID string) ([]DailyLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FetchLogsCalls++
	if s.FetchLogsErr != nil {
		return nil, s.FetchLogsErr
	}

	logs := make([]DailyLog, 0, len(s.DailyLogs[userID]))
	for _, l := range s.DailyLogs[userID] {
		l.Sets = make([]PushUpSet, 0)
		for _, w := range s.Workouts[userID] {
			if LogicalDateFromMillis(w.Timestamp) == l.Date {
				l.Sets = append(l.Sets, w)
			}
		}
		logs = append(logs, l)
	}
	sort.Slice(logs, func(i, j int) bool {
		return logs[i].Date > logs[j].Date
	})
	return logs, nil
}

func (s *TestStore) CreateProfile(_ context.Context, userID, email, name string) (*UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile := &UserProfile{
		ID:                    userID,
		Email:                 email,
		Name:                  name,
		Level:                 1,
		DailyTarget:           DefaultDailyTarget,
		DailyTargetSets:       DefaultDailyTargetSets,
		CompletionWindowHours: DefaultCompletionWindowHours,
		TargetBreakdown:       make([]TargetItem, 0),
	}
	s.Profiles[userID] = profile
	created := *profile
	return &created, nil
}

func (s *TestStore) SaveProfile(_ context.Context, profile UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SaveProfileCalls++
	if s.SaveProfileErr != nil {
		return s.SaveProfileErr
	}
	stored := profile
	s.Profiles[profile.ID] = &stored
	return nil
}

func (s *TestStore) InsertSet(_ context.Context, userID string, set PushUpSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.InsertSetErr != nil {
		return s.InsertSetErr
	}
	s.Workouts[userID] = append(s.Workouts[userID], set)
	return nil
}

func (s *TestStore) UpsertDailyLog(_ context.Context, userID string, log DailyLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UpsertErr != nil {
		return s.UpsertErr
	}
	log.Sets = nil
	for i, l := range s.DailyLogs[userID] {
		if l.Date == log.Date {
			s.DailyLogs[userID][i] = log
			return nil
		}
	}
	s.DailyLogs[userID] = append(s.DailyLogs[userID], log)
	return nil
}

func (s *TestStore) ReplaceTargetBreakdown(_ context.Context, userID string, items []TargetItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ReplaceErr != nil {
		return s.ReplaceErr
	}
	s.Breakdowns[userID] = append([]TargetItem(nil), items...)
	return nil
}
