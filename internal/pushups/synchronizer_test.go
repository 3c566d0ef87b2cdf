package pushups

import (
	"context"
	"testing"
	"time"

	"github.com/2beens/pushstats/internal/auth"
	"github.com/2beens/pushstats/internal/pushups/fetch"
	"github.com/2beens/pushstats/internal/telemetry/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type testAccounts struct {
	err error
}

func (a *testAccounts) Account(_ context.Context, id string) (*auth.Account, error) {
	if a.err != nil {
		return nil, a.err
	}
	return &auth.Account{
		ID:    id,
		Email: "senkai@example.com",
		Name:  "Senkai",
	}, nil
}

type syncFixture struct {
	synchronizer *Synchronizer
	store        *TestStore
	tracker      *Tracker
	notifier     *auth.Notifier
	accounts     *testAccounts
}

func newSyncFixture(t *testing.T, store Store) *syncFixture {
	t.Helper()

	testStore, _ := store.(*TestStore)
	metricsManager := metrics.NewTestManager()
	notifier := auth.NewNotifier()
	tracker := NewTracker(store, metricsManager)
	coordinator := fetch.NewCoordinator(fetch.Config{
		Timeout:         time.Second,
		InitialInterval: time.Millisecond,
	}, metricsManager)
	accounts := &testAccounts{}
	return &syncFixture{
		synchronizer: NewSynchronizer(notifier, accounts, store, coordinator, tracker, metricsManager),
		store:        testStore,
		tracker:      tracker,
		notifier:     notifier,
		accounts:     accounts,
	}
}

func signedIn(userID string) auth.SessionEvent {
	return auth.SessionEvent{Type: auth.SessionSignedIn, UserID: userID, Token: "t"}
}

func waitForState(t *testing.T, s *Synchronizer, kind StateKind) State {
	t.Helper()
	require.Eventually(t, func() bool {
		return s.State().Kind == kind
	}, 2*time.Second, 5*time.Millisecond)
	return s.State()
}

func TestSynchronizer_SignedIn_Ready(t *testing.T) {
	store := NewTestStore()
	store.Profiles[testUserID] = loadedProfile()
	store.DailyLogs[testUserID] = []DailyLog{
		{Date: "2026-08-27", Target: 50, TotalCount: 60, Achieved: true},
	}
	f := newSyncFixture(t, store)

	f.synchronizer.HandleEvent(signedIn(testUserID))

	state := waitForState(t, f.synchronizer, StateReady)
	assert.Equal(t, testUserID, state.UserID)

	profile, logs := f.tracker.Snapshot()
	require.NotNil(t, profile)
	assert.Equal(t, testUserID, profile.ID)
	require.Len(t, logs, 1)
	assert.Equal(t, 60, logs[0].TotalCount)
}

func TestSynchronizer_FirstSession_CreatesProfile(t *testing.T) {
	f := newSyncFixture(t, NewTestStore())

	f.synchronizer.HandleEvent(signedIn(testUserID))
	waitForState(t, f.synchronizer, StateReady)

	profile, logs := f.tracker.Snapshot()
	require.NotNil(t, profile)
	assert.Equal(t, "senkai@example.com", profile.Email)
	assert.Equal(t, 1, profile.Level)
	assert.Equal(t, DefaultDailyTarget, profile.DailyTarget)
	assert.Equal(t, DefaultDailyTargetSets, profile.DailyTargetSets)
	assert.Equal(t, DefaultCompletionWindowHours, profile.CompletionWindowHours)
	assert.Empty(t, logs)
}

func TestSynchronizer_RedundantEvent_NoRefetch(t *testing.T) {
	store := NewTestStore()
	store.Profiles[testUserID] = loadedProfile()
	f := newSyncFixture(t, store)

	f.synchronizer.HandleEvent(signedIn(testUserID))
	waitForState(t, f.synchronizer, StateReady)
	assert.Equal(t, 1, store.FetchProfileCalls)

	// same identity again while ready, nothing should be fetched
	f.synchronizer.HandleEvent(signedIn(testUserID))
	assert.Equal(t, StateReady, f.synchronizer.State().Kind)
	assert.Equal(t, 1, store.FetchProfileCalls)
}

func TestSynchronizer_SignedOut_ClearsState(t *testing.T) {
	store := NewTestStore()
	store.Profiles[testUserID] = loadedProfile()
	f := newSyncFixture(t, store)

	f.synchronizer.HandleEvent(signedIn(testUserID))
	waitForState(t, f.synchronizer, StateReady)

	f.synchronizer.HandleEvent(auth.SessionEvent{Type: auth.SessionSignedOut})
	assert.Equal(t, StateUnauthenticated, f.synchronizer.State().Kind)

	profile, logs := f.tracker.Snapshot()
	assert.Nil(t, profile)
	assert.Nil(t, logs)
}

func TestSynchronizer_LoadFailure_ErrorState(t *testing.T) {
	store := NewTestStore()
	store.Profiles[testUserID] = loadedProfile()
	store.FetchLogsErr = assert.AnError
	f := newSyncFixture(t, store)

	f.synchronizer.HandleEvent(signedIn(testUserID))

	state := waitForState(t, f.synchronizer, StateError)
	assert.Equal(t, testUserID, state.UserID)
	assert.Contains(t, state.Err, "fetch logs")

	// nothing was installed
	profile, _ := f.tracker.Snapshot()
	assert.Nil(t, profile)
}

func TestSynchronizer_Reload_RecoversFromError(t *testing.T) {
	store := NewTestStore()
	store.Profiles[testUserID] = loadedProfile()
	store.FetchLogsErr = assert.AnError
	f := newSyncFixture(t, store)

	f.notifier.Publish(signedIn(testUserID))
	f.synchronizer.HandleEvent(signedIn(testUserID))
	waitForState(t, f.synchronizer, StateError)

	// the backing store recovered, a manual reload picks it up
	store.mu.Lock()
	store.FetchLogsErr = nil
	store.mu.Unlock()

	f.synchronizer.Reload()
	waitForState(t, f.synchronizer, StateReady)

	profile, _ := f.tracker.Snapshot()
	require.NotNil(t, profile)
	assert.Equal(t, testUserID, profile.ID)
}

func TestSynchronizer_AccountLookupFails(t *testing.T) {
	// no stored profile forces the account lookup, which fails
	f := newSyncFixture(t, NewTestStore())
	f.accounts.err = assert.AnError

	f.synchronizer.HandleEvent(signedIn(testUserID))

	state := waitForState(t, f.synchronizer, StateError)
	assert.Equal(t, assert.AnError.Error(), state.Err)
}

func TestSynchronizer_Reload_NoSession(t *testing.T) {
	store := NewTestStore()
	f := newSyncFixture(t, store)

	f.synchronizer.Reload()
	assert.Equal(t, StateUnauthenticated, f.synchronizer.State().Kind)
	assert.Equal(t, 0, store.FetchProfileCalls)
}

// gatedStore delays profile fetches for gated users until their gate
// opens, to hold a load sequence in flight.
type gatedStore struct {
	*TestStore
	gates map[string]chan struct{}
}

func (s *gatedStore) FetchProfile(ctx context.Context, userID string) (*UserProfile, error) {
	if gate, ok := s.gates[userID]; ok {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.TestStore.FetchProfile(ctx, userID)
}

func newGatedStore(userIDs ...string) *gatedStore {
	gates := make(map[string]chan struct{}, len(userIDs))
	for _, id := range userIDs {
		gates[id] = make(chan struct{})
	}
	return &gatedStore{TestStore: NewTestStore(), gates: gates}
}

func TestSynchronizer_SignOutSupersedesInFlightLoad(t *testing.T) {
	store := newGatedStore(testUserID)
	store.Profiles[testUserID] = loadedProfile()
	f := newSyncFixture(t, store)

	f.synchronizer.HandleEvent(signedIn(testUserID))
	assert.Equal(t, StateLoading, f.synchronizer.State().Kind)

	// signing out while the load hangs cancels it
	f.synchronizer.HandleEvent(auth.SessionEvent{Type: auth.SessionSignedOut})
	assert.Equal(t, StateUnauthenticated, f.synchronizer.State().Kind)

	// releasing the gate must not resurrect the superseded load
	close(store.gates[testUserID])
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, StateUnauthenticated, f.synchronizer.State().Kind)
	profile, _ := f.tracker.Snapshot()
	assert.Nil(t, profile)
}

func TestSynchronizer_NewIdentitySupersedesInFlightLoad(t *testing.T) {
	const otherUserID = "user-2"
	store := newGatedStore(testUserID)
	store.Profiles[testUserID] = loadedProfile()
	other := loadedProfile()
	other.ID = otherUserID
	store.Profiles[otherUserID] = other
	f := newSyncFixture(t, store)

	f.synchronizer.HandleEvent(signedIn(testUserID))
	assert.Equal(t, StateLoading, f.synchronizer.State().Kind)

	// a different identity signs in while the first load hangs
	f.synchronizer.HandleEvent(signedIn(otherUserID))

	state := waitForState(t, f.synchronizer, StateReady)
	assert.Equal(t, otherUserID, state.UserID)

	// the first load settles now, its results must stay discarded
	close(store.gates[testUserID])
	time.Sleep(50 * time.Millisecond)
	state = f.synchronizer.State()
	assert.Equal(t, StateReady, state.Kind)
	assert.Equal(t, otherUserID, state.UserID)

	profile, _ := f.tracker.Snapshot()
	require.NotNil(t, profile)
	assert.Equal(t, otherUserID, profile.ID)
}

func TestSynchronizer_ReloadOutlivesRequest(t *testing.T) {
	store := newGatedStore(testUserID)
	store.Profiles[testUserID] = loadedProfile()
	f := newSyncFixture(t, store)

	f.notifier.Publish(signedIn(testUserID))

	// a reload triggered from a request handler returns right away,
	// the handler and its request are long gone when the load settles
	f.synchronizer.Reload()
	assert.Equal(t, StateLoading, f.synchronizer.State().Kind)

	close(store.gates[testUserID])
	state := waitForState(t, f.synchronizer, StateReady)
	assert.Equal(t, testUserID, state.UserID)

	profile, _ := f.tracker.Snapshot()
	require.NotNil(t, profile)
	assert.Equal(t, testUserID, profile.ID)
}

func TestSynchronizer_Run(t *testing.T) {
	store := NewTestStore()
	store.Profiles[testUserID] = loadedProfile()
	f := newSyncFixture(t, store)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.synchronizer.Run(ctx)
	}()

	f.notifier.Publish(signedIn(testUserID))
	waitForState(t, f.synchronizer, StateReady)

	f.notifier.Publish(auth.SessionEvent{Type: auth.SessionSignedOut})
	waitForState(t, f.synchronizer, StateUnauthenticated)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("synchronizer did not stop")
	}
}
