package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"family_schedule_bot/internal/domain/schedule"

	"github.com/lib/pq"
)

type PostgresInputRepository struct {
	db *sql.DB
}

func NewPostgresInputRepository(db *sql.DB) *PostgresInputRepository {
	return &PostgresInputRepository{db: db}
}

func (r *PostgresInputRepository) Get(ctx context.Context, weekID, userID string) (*schedule.Input, error) {
	query := `SELECT week_id, user_id, display_name, slots, notes, submitted_at
               FROM schedule_inputs WHERE week_id = $1 AND user_id = $2`
	in := &schedule.Input{}
	err := r.db.QueryRowContext(ctx, query, weekID, userID).
		Scan(&in.WeekID, &in.UserID, &in.DisplayName, jsonColumn{&in.Slots}, jsonColumn{&in.Notes}, &in.SubmittedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, schedule.ErrInputNotFound
		}
		return nil, fmt.Errorf("error getting schedule input: %w", err)
	}
	return in, nil
}

// ListByWeek returns the week's inputs in submission order.
func (r *PostgresInputRepository) ListByWeek(ctx context.Context, weekID string) ([]*schedule.Input, error) {
	query := `SELECT week_id, user_id, display_name, slots, notes, submitted_at
               FROM schedule_inputs WHERE week_id = $1 ORDER BY submitted_at, user_id`

	rows, err := r.db.QueryContext(ctx, query, weekID)
	if err != nil {
		return nil, fmt.Errorf("error listing schedule inputs: %w", err)
	}
	defer rows.Close()

	inputs := make([]*schedule.Input, 0)
	for rows.Next() {
		in := &schedule.Input{}
		if err := rows.Scan(&in.WeekID, &in.UserID, &in.DisplayName, jsonColumn{&in.Slots}, jsonColumn{&in.Notes}, &in.SubmittedAt); err != nil {
			return nil, fmt.Errorf("error scanning schedule input: %w", err)
		}
		inputs = append(inputs, in)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating schedule inputs: %w", err)
	}
	return inputs, nil
}

func (r *PostgresInputRepository) Save(ctx context.Context, in *schedule.Input) error {
	query := `INSERT INTO schedule_inputs (week_id, user_id, display_name, slots, notes, submitted_at)
               VALUES ($1, $2, $3, $4, $5, $6)
               ON CONFLICT (week_id, user_id) DO UPDATE
               SET display_name = EXCLUDED.display_name, slots = EXCLUDED.slots,
                   notes = EXCLUDED.notes, submitted_at = EXCLUDED.submitted_at`

	slots := in.Slots
	if slots == nil {
		slots = schedule.Slots{}
	}
	notes := in.Notes
	if notes == nil {
		notes = schedule.Notes{}
	}
	_, err := r.db.ExecContext(ctx, query, in.WeekID, in.UserID, in.DisplayName, jsonColumn{slots}, jsonColumn{notes}, in.SubmittedAt)
	if err != nil {
		return fmt.Errorf("error saving schedule input: %w", err)
	}
	return nil
}

func (r *PostgresInputRepository) ListWeekIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT week_id FROM schedule_inputs ORDER BY week_id`)
	if err != nil {
		return nil, fmt.Errorf("error listing input weeks: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning input week: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating input weeks: %w", err)
	}
	return ids, nil
}

func (r *PostgresInputRepository) DeleteWeek(ctx context.Context, weekID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM schedule_inputs WHERE week_id = $1`, weekID)
	if err != nil {
		return 0, fmt.Errorf("error deleting schedule inputs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error reading deleted input count: %w", err)
	}
	return n, nil
}

type PostgresFinalizedRepository struct {
	db *sql.DB
}

func NewPostgresFinalizedRepository(db *sql.DB) *PostgresFinalizedRepository {
	return &PostgresFinalizedRepository{db: db}
}

const finalizedColumns = `week_id, finalized_at, schedule_text, points_breakdown, version, rolled_up`

func scanFinalized(row interface{ Scan(...interface{}) error }) (*schedule.FinalizedWeek, error) {
	fw := &schedule.FinalizedWeek{}
	err := row.Scan(&fw.WeekID, &fw.FinalizedAt, &fw.ScheduleText, jsonColumn{&fw.PointsBreakdown}, &fw.Version, &fw.RolledUp)
	return fw, err
}

func (r *PostgresFinalizedRepository) Get(ctx context.Context, weekID string) (*schedule.FinalizedWeek, error) {
	query := `SELECT ` + finalizedColumns + ` FROM finalized_weeks WHERE week_id = $1`
	fw, err := scanFinalized(r.db.QueryRowContext(ctx, query, weekID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, schedule.ErrFinalizedWeekNotFound
		}
		return nil, fmt.Errorf("error getting finalized week: %w", err)
	}
	return fw, nil
}

// Create inserts the record only when the week has none. A concurrent finalizer
// that loses the race gets ErrFinalizedWeekExists.
func (r *PostgresFinalizedRepository) Create(ctx context.Context, fw *schedule.FinalizedWeek) error {
	query := `INSERT INTO finalized_weeks (` + finalizedColumns + `)
               VALUES ($1, $2, $3, $4, $5, $6)
               ON CONFLICT (week_id) DO NOTHING`

	res, err := r.db.ExecContext(ctx, query, fw.WeekID, fw.FinalizedAt, fw.ScheduleText, jsonColumn{fw.PointsBreakdown}, fw.Version, fw.RolledUp)
	if err != nil {
		if isUniqueViolation(err) {
			return schedule.ErrFinalizedWeekExists
		}
		return fmt.Errorf("error creating finalized week: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading created finalized week count: %w", err)
	}
	if n == 0 {
		return schedule.ErrFinalizedWeekExists
	}
	return nil
}

func (r *PostgresFinalizedRepository) Update(ctx context.Context, fw *schedule.FinalizedWeek, expectedVersion int) error {
	query := `UPDATE finalized_weeks
               SET finalized_at = $2, schedule_text = $3, points_breakdown = $4, version = $5, rolled_up = $6
               WHERE week_id = $1 AND version = $7`

	res, err := r.db.ExecContext(ctx, query, fw.WeekID, fw.FinalizedAt, fw.ScheduleText, jsonColumn{fw.PointsBreakdown}, fw.Version, fw.RolledUp, expectedVersion)
	if err != nil {
		return fmt.Errorf("error updating finalized week: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading updated finalized week count: %w", err)
	}
	if n == 0 {
		return schedule.ErrFinalizedVersionClash
	}
	return nil
}

func (r *PostgresFinalizedRepository) MarkRolledUp(ctx context.Context, weekID string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE finalized_weeks SET rolled_up = TRUE WHERE week_id = $1`, weekID)
	if err != nil {
		return fmt.Errorf("error marking finalized week rolled up: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading rolled up week count: %w", err)
	}
	if n == 0 {
		return schedule.ErrFinalizedWeekNotFound
	}
	return nil
}

func (r *PostgresFinalizedRepository) ListAll(ctx context.Context) ([]*schedule.FinalizedWeek, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+finalizedColumns+` FROM finalized_weeks ORDER BY week_id`)
	if err != nil {
		return nil, fmt.Errorf("error listing finalized weeks: %w", err)
	}
	defer rows.Close()

	weeks := make([]*schedule.FinalizedWeek, 0)
	for rows.Next() {
		fw, err := scanFinalized(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning finalized week: %w", err)
		}
		weeks = append(weeks, fw)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating finalized weeks: %w", err)
	}
	return weeks, nil
}

func (r *PostgresFinalizedRepository) Delete(ctx context.Context, weekID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM finalized_weeks WHERE week_id = $1`, weekID)
	if err != nil {
		return fmt.Errorf("error deleting finalized week: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading deleted finalized week count: %w", err)
	}
	if n == 0 {
		return schedule.ErrFinalizedWeekNotFound
	}
	return nil
}

type PostgresPointsRepository struct {
	db *sql.DB
}

func NewPostgresPointsRepository(db *sql.DB) *PostgresPointsRepository {
	return &PostgresPointsRepository{db: db}
}

const pointsColumns = `user_id, display_name, weekday_points, weekend_bonus_points, total_points, last_updated_week, updated_at, rolled_up_weeks`

func scanPoints(row interface{ Scan(...interface{}) error }) (*schedule.UserPointsTotal, error) {
	t := &schedule.UserPointsTotal{}
	err := row.Scan(&t.UserID, &t.DisplayName, &t.WeekdayPoints, &t.WeekendBonusPoints, &t.TotalPoints, &t.LastUpdatedWeek, &t.UpdatedAt, pq.Array(&t.RolledUpWeeks))
	return t, err
}

func (r *PostgresPointsRepository) Get(ctx context.Context, userID string) (*schedule.UserPointsTotal, error) {
	t, err := scanPoints(r.db.QueryRowContext(ctx, `SELECT `+pointsColumns+` FROM user_points WHERE user_id = $1`, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, schedule.ErrUserPointsNotFound
		}
		return nil, fmt.Errorf("error getting user points: %w", err)
	}
	return t, nil
}

func (r *PostgresPointsRepository) Save(ctx context.Context, t *schedule.UserPointsTotal) error {
	query := `INSERT INTO user_points (` + pointsColumns + `)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
               ON CONFLICT (user_id) DO UPDATE
               SET display_name = EXCLUDED.display_name, weekday_points = EXCLUDED.weekday_points,
                   weekend_bonus_points = EXCLUDED.weekend_bonus_points, total_points = EXCLUDED.total_points,
                   last_updated_week = EXCLUDED.last_updated_week, updated_at = EXCLUDED.updated_at,
                   rolled_up_weeks = EXCLUDED.rolled_up_weeks`

	weeks := t.RolledUpWeeks
	if weeks == nil {
		weeks = []string{}
	}
	_, err := r.db.ExecContext(ctx, query, t.UserID, t.DisplayName, t.WeekdayPoints, t.WeekendBonusPoints, t.TotalPoints, t.LastUpdatedWeek, t.UpdatedAt, pq.Array(weeks))
	if err != nil {
		return fmt.Errorf("error saving user points: %w", err)
	}
	return nil
}

func (r *PostgresPointsRepository) ListAll(ctx context.Context) ([]*schedule.UserPointsTotal, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+pointsColumns+` FROM user_points ORDER BY total_points DESC, user_id`)
	if err != nil {
		return nil, fmt.Errorf("error listing user points: %w", err)
	}
	defer rows.Close()

	totals := make([]*schedule.UserPointsTotal, 0)
	for rows.Next() {
		t, err := scanPoints(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning user points: %w", err)
		}
		totals = append(totals, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user points: %w", err)
	}
	return totals, nil
}
