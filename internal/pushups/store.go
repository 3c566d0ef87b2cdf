package pushups

import "context"

// Store is the persistence surface the tracker and the synchronizer
// work against. Repo implements it on postgres; TestStore in memory.
type Store interface {
	FetchProfile(ctx context.Context, userID string) (*UserProfile, error)
	FetchLogs(ctx context.Context, userID string) ([]DailyLog, error)
	CreateProfile(ctx context.Context, userID, email, name string) (*UserProfile, error)
	SaveProfile(ctx context.Context, profile UserProfile) error
	InsertSet(ctx context.Context, userID string, set PushUpSet) error
	UpsertDailyLog(ctx context.Context, userID string, log DailyLog) error
	ReplaceTargetBreakdown(ctx context.Context, userID string, items []TargetItem) error
}

var (
	_ Store = (*Repo)(nil)
	_ Store = (*TestStore)(nil)
)
