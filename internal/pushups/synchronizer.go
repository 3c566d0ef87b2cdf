package pushups

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/2beens/pushstats/internal/auth"
	"github.com/2beens/pushstats/internal/pushups/fetch"
	"github.com/2beens/pushstats/internal/telemetry/metrics"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// StateKind is the synchronizer's position in its session lifecycle.
type StateKind string

const (
	StateUnauthenticated StateKind = "unauthenticated"
	StateLoading         StateKind = "loading"
	StateReady           StateKind = "ready"
	StateError           StateKind = "error"
)

// State is the externally visible synchronizer state.
type State struct {
	Kind   StateKind `json:"kind"`
	UserID string    `json:"userId,omitempty"`
	Err    string    `json:"error,omitempty"`
}

// Even when every per-call timeout misbehaves, a load sequence is
// forced to resolve within this bound.
const defaultLoadCeiling = 45 * time.Second

type accountProvider interface {
	Account(ctx context.Context, id string) (*auth.Account, error)
}

// Synchronizer drives the tracker's state from observed session
// transitions. It consumes the auth notifier in order, loads profile
// and logs on identity change, creates a profile for first-time users,
// and discards results of superseded load sequences through a
// generation counter.
type Synchronizer struct {
	notifier    *auth.Notifier
	accounts    accountProvider
	store       Store
	coordinator *fetch.Coordinator
	tracker     *Tracker
	metrics     *metrics.Manager

	mu                sync.Mutex
	baseCtx           context.Context
	state             State
	lastHandledUserID string
	generation        uint64
	cancelActive      context.CancelFunc

	loadCeiling time.Duration
}

func NewSynchronizer(
	notifier *auth.Notifier,
	accounts accountProvider,
	store Store,
	coordinator *fetch.Coordinator,
	tracker *Tracker,
	metricsManager *metrics.Manager,
) *Synchronizer {
	return &Synchronizer{
		notifier:    notifier,
		accounts:    accounts,
		store:       store,
		coordinator: coordinator,
		tracker:     tracker,
		metrics:     metricsManager,
		baseCtx:     context.Background(),
		state:       State{Kind: StateUnauthenticated},
		loadCeiling: defaultLoadCeiling,
	}
}

// State returns the current synchronizer state.
func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Run consumes session events until ctx is done. Transitions are
// handled in the order they were published. Load sequences started
// while Run is active are parented to ctx, so they survive until the
// synchronizer itself shuts down.
func (s *Synchronizer) Run(ctx context.Context) {
	s.mu.Lock()
	s.baseCtx = ctx
	s.mu.Unlock()

	events, unsubscribe := s.notifier.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			s.cancelActiveLoad()
			return
		case ev, ok := <-events:
			if !ok {
				s.cancelActiveLoad()
				return
			}
			s.HandleEvent(ev)
		}
	}
}

// HandleEvent processes one session transition.
func (s *Synchronizer) HandleEvent(ev auth.SessionEvent) {
	s.metrics.CounterSessionEvents.WithLabelValues(string(ev.Type)).Inc()

	switch ev.Type {
	case auth.SessionSignedOut:
		s.mu.Lock()
		s.generation++
		if s.cancelActive != nil {
			s.cancelActive()
			s.cancelActive = nil
		}
		s.state = State{Kind: StateUnauthenticated}
		s.lastHandledUserID = ""
		s.mu.Unlock()

		s.tracker.Clear()
		log.Debugln("synchronizer: signed out, local state cleared")

	case auth.SessionSignedIn:
		s.mu.Lock()
		if ev.UserID == s.lastHandledUserID && s.state.Kind == StateReady {
			// same identity, already loaded, nothing to refetch
			s.mu.Unlock()
			log.Tracef("synchronizer: redundant session event for %s", ev.UserID)
			return
		}

		s.generation++
		gen := s.generation
		if s.cancelActive != nil {
			// a newer transition supersedes the in-flight load
			s.cancelActive()
		}
		// parented to the synchronizer's own lifecycle, never to a
		// request context that ends when its handler returns
		loadCtx, cancel := context.WithTimeout(s.baseCtx, s.loadCeiling)
		s.cancelActive = cancel
		s.state = State{Kind: StateLoading, UserID: ev.UserID}
		s.mu.Unlock()

		go s.load(loadCtx, gen, ev.UserID)
	}
}

// Reload forces a fresh load for the current session, the manual retry
// path out of an error state.
func (s *Synchronizer) Reload() {
	current := s.notifier.Current()
	if current.Type != auth.SessionSignedIn {
		return
	}
	s.mu.Lock()
	s.lastHandledUserID = ""
	s.mu.Unlock()
	s.HandleEvent(current)
}

func (s *Synchronizer) load(ctx context.Context, gen uint64, userID string) {
	start := time.Now()

	var (
		profile *UserProfile
		logs    []DailyLog
	)
	g, groupCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := fetch.Do(groupCtx, s.coordinator, fetch.Key{Op: "profile", ID: userID},
			func(ctx context.Context) (*UserProfile, error) {
				return s.store.FetchProfile(ctx, userID)
			},
		)
		if err != nil {
			return fmt.Errorf("fetch profile: %w", err)
		}
		profile = p
		return nil
	})
	g.Go(func() error {
		l, err := fetch.Do(groupCtx, s.coordinator, fetch.Key{Op: "logs", ID: userID},
			func(ctx context.Context) ([]DailyLog, error) {
				return s.store.FetchLogs(ctx, userID)
			},
		)
		if err != nil {
			return fmt.Errorf("fetch logs: %w", err)
		}
		logs = l
		return nil
	})

	if err := g.Wait(); err != nil {
		if errors.Is(err, fetch.ErrCancelled) {
			// superseded by a newer transition, not a failure
			log.Tracef("synchronizer: load for %s cancelled", userID)
			return
		}
		log.Errorf("synchronizer: load for %s failed: %s", userID, err)
		s.finish(gen, State{Kind: StateError, UserID: userID, Err: err.Error()}, nil, nil)
		return
	}

	if profile == nil {
		// authenticated identity without a profile yet, first session
		account, err := s.accounts.Account(ctx, userID)
		if err != nil {
			log.Errorf("synchronizer: get account %s: %s", userID, err)
			s.finish(gen, State{Kind: StateError, UserID: userID, Err: err.Error()}, nil, nil)
			return
		}
		profile, err = s.store.CreateProfile(ctx, userID, account.Email, account.Name)
		if err != nil {
			log.Errorf("synchronizer: create profile %s: %s", userID, err)
			s.finish(gen, State{Kind: StateError, UserID: userID, Err: err.Error()}, nil, nil)
			return
		}
		logs = make([]DailyLog, 0)
		s.metrics.CounterProfilesCreated.Inc()
		log.Infof("synchronizer: created profile for %s", userID)
	}

	if s.finish(gen, State{Kind: StateReady, UserID: userID}, profile, logs) {
		s.metrics.HistSyncLoadDuration.Observe(time.Since(start).Seconds())
		log.Debugf("synchronizer: %s ready in %s", userID, time.Since(start))
	}
}

// finish applies the outcome of a load sequence unless a newer
// generation already took over.
func (s *Synchronizer) finish(gen uint64, state State, profile *UserProfile, logs []DailyLog) bool {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return false
	}
	s.state = state
	if state.Kind == StateReady {
		s.lastHandledUserID = state.UserID
	}
	if s.cancelActive != nil {
		s.cancelActive()
		s.cancelActive = nil
	}
	s.mu.Unlock()

	if state.Kind == StateReady {
		s.tracker.ReplaceIfChanged(state.UserID, profile, logs)
	}
	return true
}

func (s *Synchronizer) cancelActiveLoad() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelActive != nil {
		s.cancelActive()
		s.cancelActive = nil
	}
}
