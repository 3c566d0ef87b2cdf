package pushups

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/2beens/pushstats/internal/telemetry/metrics"
	"github.com/2beens/pushstats/internal/telemetry/tracing"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var (
	ErrNoProfileLoaded = errors.New("no profile loaded")
	ErrInvalidCount    = errors.New("count must be positive")
)

// A batch counts as one completed set when it reaches this share of
// the nominal per-set repetition total. Slightly short sets still
// register as attempts. Tunable, not load-bearing.
const realSetThreshold = 0.8

// SetDetail is one per-variation portion of a recorded batch.
type SetDetail struct {
	Variation string `json:"variationName"`
	Count     int    `json:"count"`
}

// SettingsUpdate enumerates the profile fields a settings edit may
// change. Nil fields stay untouched. A non-nil TargetBreakdown replaces
// the whole breakdown.
type SettingsUpdate struct {
	Name                  *string      `json:"name,omitempty"`
	DailyTarget           *int         `json:"dailyTarget,omitempty"`
	DailyTargetSets       *int         `json:"dailyTargetSets,omitempty"`
	CompletionWindowHours *int         `json:"completionWindowHours,omitempty"`
	TargetBreakdown       []TargetItem `json:"targetBreakdown,omitempty"`
}

// RecordResult is the state RecordSet left behind after all writes
// were confirmed.
type RecordResult struct {
	Profile  UserProfile `json:"profile"`
	TodayLog DailyLog    `json:"todayLog"`
}

// Tracker owns the loaded (profile, logs) pair and applies mutations
// to it. Local state only adopts new values after every remote write
// succeeded, so a failed persistence step leaves it unchanged. The
// mutex makes the pair single-writer: either a mutation or a wholesale
// replacement by the synchronizer, never both at once.
type Tracker struct {
	store   Store
	metrics *metrics.Manager

	mu      sync.Mutex
	userID  string
	profile *UserProfile
	logs    []DailyLog

	// injectable for tests
	NowFunc   func() time.Time
	NewIDFunc func() string
}

func NewTracker(store Store, metricsManager *metrics.Manager) *Tracker {
	return &Tracker{
		store:     store,
		metrics:   metricsManager,
		NowFunc:   time.Now,
		NewIDFunc: uuid.NewString,
	}
}

// Replace installs a freshly loaded state wholesale.
func (t *Tracker) Replace(userID string, profile *UserProfile, logs []DailyLog) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.userID = userID
	t.profile = profile
	t.logs = logs
}

// ReplaceIfChanged is Replace with a structural-equality guard: when
// the freshly fetched values match the held ones, nothing is swapped.
// An optimization against redundant downstream refreshes, not a
// correctness requirement.
func (t *Tracker) ReplaceIfChanged(userID string, profile *UserProfile, logs []DailyLog) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.userID == userID &&
		reflect.DeepEqual(t.profile, profile) &&
		reflect.DeepEqual(t.logs, logs) {
		return
	}
	t.userID = userID
	t.profile = profile
	t.logs = logs
}

func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.userID = ""
	t.profile = nil
	t.logs = nil
}

// Snapshot returns copies of the held profile and logs. The profile is
// nil when nothing is loaded.
func (t *Tracker) Snapshot() (*UserProfile, []DailyLog) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.profile == nil {
		return nil, nil
	}
	return copyProfile(t.profile), copyLogs(t.logs)
}

// RecordSet materializes the batch into one or more sets, folds them
// into today's log, recomputes the profile aggregates and persists all
// of it. Writes run in order: workouts, daily log, profile. Only after
// the last write succeeds does the in-memory state adopt the result.
func (t *Tracker) RecordSet(ctx context.Context, count int, details []SetDetail) (_ *RecordResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "tracker.recordSet")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if count <= 0 {
		return nil, ErrInvalidCount
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.profile == nil {
		return nil, ErrNoProfileLoaded
	}

	now := t.NowFunc()
	nowMs := now.UnixMilli()
	today := LogicalDate(now)

	newSets := make([]PushUpSet, 0, 1)
	if len(details) > 0 {
		for i, d := range details {
			newSets = append(newSets, PushUpSet{
				ID:        t.NewIDFunc(),
				Count:     d.Count,
				Timestamp: nowMs + int64(i), // keeps ordering under millisecond collision
				Variation: d.Variation,
			})
		}
	} else {
		newSets = append(newSets, PushUpSet{
			ID:        t.NewIDFunc(),
			Count:     count,
			Timestamp: nowMs,
		})
	}

	nominalReps := t.profile.NominalSetReps()
	isRealSet := float64(count) >= float64(nominalReps)*realSetThreshold

	newLogs := copyLogs(t.logs)
	todayIdx := -1
	for i, l := range newLogs {
		if l.Date == today {
			todayIdx = i
			break
		}
	}

	var todayLog DailyLog
	if todayIdx == -1 {
		todayLog = DailyLog{
			Date:       today,
			Sets:       newSets,
			Target:     t.profile.DailyTarget,
			TotalCount: count,
			Achieved:   count >= t.profile.DailyTarget,
			TargetSets: t.profile.DailyTargetSets,
		}
		if isRealSet {
			todayLog.CompletedSetsCount = 1
		}
		newLogs = append([]DailyLog{todayLog}, newLogs...)
		todayIdx = 0
	} else {
		todayLog = newLogs[todayIdx]
		todayLog.Sets = append(todayLog.Sets, newSets...)
		todayLog.TotalCount += count
		if isRealSet {
			todayLog.CompletedSetsCount++
		}
		// achieved is monotonic, it never drops back to false
		if !todayLog.Achieved && todayLog.TotalCount >= todayLog.Target {
			todayLog.Achieved = true
		}
		newLogs[todayIdx] = todayLog
	}

	updated := *copyProfile(t.profile)
	updated.XP += count * XPPerPushUp
	updated.Level = LevelForXP(updated.XP)
	updated.TotalPushUps += count
	updated.LastSetTimestamp = &nowMs
	if todayLog.Achieved && todayLog.Date != updated.LastActiveDate {
		// the day just got achieved, the streak grows exactly once per day
		updated.CurrentStreak++
		if updated.CurrentStreak > updated.BestStreak {
			updated.BestStreak = updated.CurrentStreak
		}
		updated.LastActiveDate = today
	}

	for _, s := range newSets {
		if err := t.store.InsertSet(ctx, t.userID, s); err != nil {
			return nil, fmt.Errorf("insert set: %w", err)
		}
	}
	if err := t.store.UpsertDailyLog(ctx, t.userID, todayLog); err != nil {
		return nil, fmt.Errorf("upsert daily log: %w", err)
	}
	if err := t.store.SaveProfile(ctx, updated); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}

	t.profile = &updated
	t.logs = newLogs

	t.metrics.CounterSetsRecorded.Inc()
	t.metrics.CounterPushUpsRecorded.Add(float64(count))
	log.Tracef("tracker: recorded %d push-ups for %s on %s", count, t.userID, today)

	return &RecordResult{
		Profile:  *copyProfile(&updated),
		TodayLog: *copyLog(&todayLog),
	}, nil
}

// UpdateSettings merges the update into the profile and persists it,
// then replaces the target breakdown when one is supplied. The two
// steps are separate writes: if the replace fails, the profile fields
// are already durable while the breakdown is not. Both steps are
// idempotent for identical input, so retrying the whole call is safe.
func (t *Tracker) UpdateSettings(ctx context.Context, update SettingsUpdate) (_ *UserProfile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "tracker.updateSettings")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.profile == nil {
		return nil, ErrNoProfileLoaded
	}

	updated := *copyProfile(t.profile)
	if update.Name != nil {
		if *update.Name == "" {
			return nil, errors.New("name must not be empty")
		}
		updated.Name = *update.Name
	}
	if update.DailyTarget != nil {
		if *update.DailyTarget <= 0 {
			return nil, errors.New("daily target must be positive")
		}
		updated.DailyTarget = *update.DailyTarget
	}
	if update.DailyTargetSets != nil {
		if *update.DailyTargetSets <= 0 {
			return nil, errors.New("daily target sets must be positive")
		}
		updated.DailyTargetSets = *update.DailyTargetSets
	}
	if update.CompletionWindowHours != nil {
		if *update.CompletionWindowHours < 1 || *update.CompletionWindowHours > 24 {
			return nil, errors.New("completion window must be between 1 and 24 hours")
		}
		updated.CompletionWindowHours = *update.CompletionWindowHours
	}
	if update.TargetBreakdown != nil {
		breakdown := make([]TargetItem, 0, len(update.TargetBreakdown))
		for _, item := range update.TargetBreakdown {
			if item.Count <= 0 {
				return nil, errors.New("breakdown item count must be positive")
			}
			if item.Level < 1 || item.Level > 4 {
				return nil, errors.New("breakdown item level must be between 1 and 4")
			}
			if item.ID == "" {
				item.ID = t.NewIDFunc()
			}
			breakdown = append(breakdown, item)
		}
		updated.TargetBreakdown = breakdown
	}

	if err := t.store.SaveProfile(ctx, updated); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	if update.TargetBreakdown != nil {
		if err := t.store.ReplaceTargetBreakdown(ctx, t.userID, updated.TargetBreakdown); err != nil {
			return nil, fmt.Errorf("replace target breakdown: %w", err)
		}
	}

	t.profile = &updated
	return copyProfile(&updated), nil
}

func copyProfile(p *UserProfile) *UserProfile {
	c := *p
	c.TargetBreakdown = append([]TargetItem(nil), p.TargetBreakdown...)
	if p.LastSetTimestamp != nil {
		ms := *p.LastSetTimestamp
		c.LastSetTimestamp = &ms
	}
	return &c
}

func copyLog(l *DailyLog) *DailyLog {
	c := *l
	c.Sets = append([]PushUpSet(nil), l.Sets...)
	return &c
}

func copyLogs(logs []DailyLog) []DailyLog {
	if logs == nil {
		return nil
	}
	copied := make([]DailyLog, 0, len(logs))
	for i := range logs {
		copied = append(copied, *copyLog(&logs[i]))
	}
	return copied
}
