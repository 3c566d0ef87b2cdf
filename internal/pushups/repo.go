package pushups

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/pushstats/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var ErrProfileNotFound = errors.New("profile not found")

// Repo is the persistence half of the remote data gateway.
//
// Column mapping (snake_case external names, camelCase internal):
//
//	profiles:         id, email, name, level, xp, total_pushups,
//	                  current_streak, best_streak, last_active_date,
//	                  daily_target, daily_target_sets,
//	                  completion_window_hours, last_set_timestamp
//	target_breakdown: id, user_id, variation_name, reps, level,
//	                  sort_order (explicit ordering)
//	daily_logs:       user_id, date, target, total_count, achieved,
//	                  target_sets, completed_sets_count, updated_at,
//	                  unique (user_id, date)
//	workouts:         id, user_id, count, variation_name, timestamp
type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// FetchProfile returns (nil, nil) when no profile exists for the user,
// which the synchronizer treats as "create one".
func (r *Repo) FetchProfile(ctx context.Context, userID string) (_ *UserProfile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.pushups.fetchProfile")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", userID))

	var (
		profile          UserProfile
		lastActiveDate   *string
		lastSetTimestamp *time.Time
	)
	err = r.db.QueryRow(
		ctx,
		`SELECT
			id, email, name, level, xp, total_pushups,
			current_streak, best_streak, last_active_date,
			daily_target, daily_target_sets, completion_window_hours,
			last_set_timestamp
		FROM profiles WHERE id = $1;`,
		userID,
	).Scan(
		&profile.ID, &profile.Email, &profile.Name, &profile.Level, &profile.XP,
		&profile.TotalPushUps, &profile.CurrentStreak, &profile.BestStreak,
		&lastActiveDate, &profile.DailyTarget, &profile.DailyTargetSets,
		&profile.CompletionWindowHours, &lastSetTimestamp,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query profile: %w", err)
	}

	if lastActiveDate != nil {
		profile.LastActiveDate = *lastActiveDate
	}
	if lastSetTimestamp != nil {
		ms := lastSetTimestamp.UnixMilli()
		profile.LastSetTimestamp = &ms
	}

	profile.TargetBreakdown, err = r.fetchBreakdown(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch breakdown: %w", err)
	}

	return &profile, nil
}

func (r *Repo) fetchBreakdown(ctx context.Context, userID string) ([]TargetItem, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT id, level, variation_name, reps
			FROM target_breakdown
			WHERE user_id = $1
			ORDER BY sort_order ASC;`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]TargetItem, 0)
	for rows.Next() {
		var item TargetItem
		if err := rows.Scan(&item.ID, &item.Level, &item.Variation, &item.Count); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// FetchLogs returns the daily logs newest-date-first. Every workout is
// attributed to a log through the logical date of its timestamp, not
// through the day it happened to be inserted under.
func (r *Repo) FetchLogs(ctx context.Context, userID string) (_ []DailyLog, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.pushups.fetchLogs")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", userID))

	rows, err := r.db.Query(
		ctx,
		`SELECT date, target, total_count, achieved, target_sets, completed_sets_count
			FROM daily_logs
			WHERE user_id = $1
			ORDER BY date DESC;`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query daily logs: %w", err)
	}
	defer rows.Close()

	logs := make([]DailyLog, 0)
	logIndexByDate := make(map[string]int)
	for rows.Next() {
		var l DailyLog
		if err := rows.Scan(
			&l.Date, &l.Target, &l.TotalCount, &l.Achieved,
			&l.TargetSets, &l.CompletedSetsCount,
		); err != nil {
			return nil, fmt.Errorf("scan daily log: %w", err)
		}
		l.Sets = make([]PushUpSet, 0)
		logIndexByDate[l.Date] = len(logs)
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	workoutRows, err := r.db.Query(
		ctx,
		`SELECT id, count, variation_name, timestamp
			FROM workouts
			WHERE user_id = $1
			ORDER BY timestamp DESC;`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query workouts: %w", err)
	}
	defer workoutRows.Close()

	for workoutRows.Next() {
		var (
			set       PushUpSet
			variation *string
			timestamp time.Time
		)
		if err := workoutRows.Scan(&set.ID, &set.Count, &variation, &timestamp); err != nil {
			return nil, fmt.Errorf("scan workout: %w", err)
		}
		if variation != nil {
			set.Variation = *variation
		}
		set.Timestamp = timestamp.UnixMilli()

		if idx, ok := logIndexByDate[LogicalDateFromMillis(set.Timestamp)]; ok {
			logs[idx].Sets = append(logs[idx].Sets, set)
		}
	}
	if err := workoutRows.Err(); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("logs.count", len(logs)))

	return logs, nil
}

// CreateProfile inserts a fresh profile with the starting defaults.
func (r *Repo) CreateProfile(ctx context.Context, userID, email, name string) (_ *UserProfile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.pushups.createProfile")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", userID))

	profile := &UserProfile{
		ID:                    userID,
		Email:                 email,
		Name:                  name,
		Level:                 1,
		XP:                    0,
		DailyTarget:           DefaultDailyTarget,
		DailyTargetSets:       DefaultDailyTargetSets,
		CompletionWindowHours: DefaultCompletionWindowHours,
		TargetBreakdown:       make([]TargetItem, 0),
	}

	if _, err = r.db.Exec(
		ctx,
		`INSERT INTO profiles
			(id, email, name, level, xp, total_pushups,
			current_streak, best_streak, last_active_date,
			daily_target, daily_target_sets, completion_window_hours,
			last_set_timestamp)
		VALUES ($1, $2, $3, $4, $5, 0, 0, 0, NULL, $6, $7, $8, NULL);`,
		profile.ID, profile.Email, profile.Name, profile.Level, profile.XP,
		profile.DailyTarget, profile.DailyTargetSets, profile.CompletionWindowHours,
	); err != nil {
		return nil, fmt.Errorf("insert profile: %w", err)
	}

	return profile, nil
}

func (r *Repo) SaveProfile(ctx context.Context, profile UserProfile) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.pushups.saveProfile")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", profile.ID))

	var lastActiveDate *string
	if profile.LastActiveDate != "" {
		lastActiveDate = &profile.LastActiveDate
	}
	var lastSetTimestamp *time.Time
	if profile.LastSetTimestamp != nil {
		t := time.UnixMilli(*profile.LastSetTimestamp)
		lastSetTimestamp = &t
	}

	tag, err := r.db.Exec(
		ctx,
		`UPDATE profiles SET
			name = $1, level = $2, xp = $3, total_pushups = $4,
			current_streak = $5, best_streak = $6, last_active_date = $7,
			daily_target = $8, daily_target_sets = $9,
			completion_window_hours = $10, last_set_timestamp = $11
		WHERE id = $12;`,
		profile.Name, profile.Level, profile.XP, profile.TotalPushUps,
		profile.CurrentStreak, profile.BestStreak, lastActiveDate,
		profile.DailyTarget, profile.DailyTargetSets,
		profile.CompletionWindowHours, lastSetTimestamp,
		profile.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (r *Repo) InsertSet(ctx context.Context, userID string, set PushUpSet) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.pushups.insertSet")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", userID))
	span.SetAttributes(attribute.Int("set.count", set.Count))

	var variation *string
	if set.Variation != "" {
		variation = &set.Variation
	}

	if _, err = r.db.Exec(
		ctx,
		`INSERT INTO workouts (id, user_id, count, variation_name, timestamp)
			VALUES ($1, $2, $3, $4, $5);`,
		set.ID, userID, set.Count, variation, time.UnixMilli(set.Timestamp),
	); err != nil {
		return fmt.Errorf("insert workout: %w", err)
	}
	return nil
}

// UpsertDailyLog is idempotent, keyed by (user_id, date).
func (r *Repo) UpsertDailyLog(ctx context.Context, userID string, log DailyLog) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.pushups.upsertDailyLog")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", userID))
	span.SetAttributes(attribute.String("log.date", log.Date))

	if _, err = r.db.Exec(
		ctx,
		`INSERT INTO daily_logs
			(user_id, date, target, total_count, achieved, target_sets, completed_sets_count, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (user_id, date) DO UPDATE SET
			target = EXCLUDED.target,
			total_count = EXCLUDED.total_count,
			achieved = EXCLUDED.achieved,
			target_sets = EXCLUDED.target_sets,
			completed_sets_count = EXCLUDED.completed_sets_count,
			updated_at = NOW();`,
		userID, log.Date, log.Target, log.TotalCount, log.Achieved,
		log.TargetSets, log.CompletedSetsCount,
	); err != nil {
		return fmt.Errorf("upsert daily log: %w", err)
	}
	return nil
}

// ReplaceTargetBreakdown swaps the whole breakdown inside one
// transaction. Either all old rows are gone and all new rows are in, or
// nothing changed.
func (r *Repo) ReplaceTargetBreakdown(ctx context.Context, userID string, items []TargetItem) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.pushups.replaceTargetBreakdown")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", userID))
	span.SetAttributes(attribute.Int("items.count", len(items)))

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
				err = fmt.Errorf("%w [rollback: %s]", err, rollbackErr)
			}
		}
	}()

	if _, err = tx.Exec(
		ctx,
		`DELETE FROM target_breakdown WHERE user_id = $1;`,
		userID,
	); err != nil {
		return fmt.Errorf("delete breakdown: %w", err)
	}

	for i, item := range items {
		if _, err = tx.Exec(
			ctx,
			`INSERT INTO target_breakdown (id, user_id, variation_name, reps, level, sort_order)
				VALUES ($1, $2, $3, $4, $5, $6);`,
			item.ID, userID, item.Variation, item.Count, item.Level, i,
		); err != nil {
			return fmt.Errorf("insert breakdown item %d: %w", i, err)
		}
	}

	return tx.Commit(ctx)
}
