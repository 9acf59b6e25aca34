package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"family_schedule_bot/internal/domain/pet"
)

type PostgresRecordRepository struct {
	db *sql.DB
}

func NewPostgresRecordRepository(db *sql.DB) *PostgresRecordRepository {
	return &PostgresRecordRepository{db: db}
}

func (r *PostgresRecordRepository) Create(ctx context.Context, rec *pet.DogRecord) error {
	query := `INSERT INTO dog_records (record_date, record_id, time, condition, meal, toilet, created_at)
               VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query, rec.RecordDate, rec.RecordID, rec.Time, rec.Condition, rec.Meal, rec.Toilet, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating dog record: %w", err)
	}
	return nil
}

func (r *PostgresRecordRepository) ListByDate(ctx context.Context, date string) ([]*pet.DogRecord, error) {
	return r.ListByRange(ctx, date, date)
}

// ListByRange returns records with start <= date <= end, ordered by date then time.
func (r *PostgresRecordRepository) ListByRange(ctx context.Context, start, end string) ([]*pet.DogRecord, error) {
	query := `SELECT record_date, record_id, time, condition, meal, toilet, created_at
               FROM dog_records WHERE record_date BETWEEN $1 AND $2
               ORDER BY record_date, time, record_id`

	rows, err := r.db.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("error listing dog records: %w", err)
	}
	defer rows.Close()

	records := make([]*pet.DogRecord, 0)
	for rows.Next() {
		rec := &pet.DogRecord{}
		if err := rows.Scan(&rec.RecordDate, &rec.RecordID, &rec.Time, &rec.Condition, &rec.Meal, &rec.Toilet, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning dog record: %w", err)
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dog records: %w", err)
	}
	return records, nil
}

func (r *PostgresRecordRepository) Delete(ctx context.Context, date, recordID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM dog_records WHERE record_date = $1 AND record_id = $2`, date, recordID)
	if err != nil {
		return fmt.Errorf("error deleting dog record: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return pet.ErrRecordNotFound
	}
	return nil
}

type PostgresMedicationRepository struct {
	db *sql.DB
}

func NewPostgresMedicationRepository(db *sql.DB) *PostgresMedicationRepository {
	return &PostgresMedicationRepository{db: db}
}

func (r *PostgresMedicationRepository) Get(ctx context.Context) (*pet.MedicationSchedule, error) {
	s := &pet.MedicationSchedule{}
	err := r.db.QueryRowContext(ctx, `SELECT medications, updated_at FROM medication_schedule WHERE id = 1`).
		Scan(jsonColumn{&s.Medications}, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, pet.ErrMedicationsNotFound
		}
		return nil, fmt.Errorf("error getting medications: %w", err)
	}
	return s, nil
}

func (r *PostgresMedicationRepository) Save(ctx context.Context, s *pet.MedicationSchedule) error {
	query := `INSERT INTO medication_schedule (id, medications, updated_at)
               VALUES (1, $1, $2)
               ON CONFLICT (id) DO UPDATE SET medications = EXCLUDED.medications, updated_at = EXCLUDED.updated_at`

	if _, err := r.db.ExecContext(ctx, query, jsonColumn{s.Medications}, s.UpdatedAt); err != nil {
		return fmt.Errorf("error saving medications: %w", err)
	}
	return nil
}

type PostgresHitokotoRepository struct {
	db *sql.DB
}

func NewPostgresHitokotoRepository(db *sql.DB) *PostgresHitokotoRepository {
	return &PostgresHitokotoRepository{db: db}
}

func (r *PostgresHitokotoRepository) List(ctx context.Context) ([]*pet.Hitokoto, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, text, created_at FROM hitokoto ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("error listing hitokoto: %w", err)
	}
	defer rows.Close()

	list := make([]*pet.Hitokoto, 0)
	for rows.Next() {
		h := &pet.Hitokoto{}
		if err := rows.Scan(&h.ID, &h.Text, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning hitokoto: %w", err)
		}
		list = append(list, h)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating hitokoto: %w", err)
	}
	return list, nil
}

func (r *PostgresHitokotoRepository) Create(ctx context.Context, h *pet.Hitokoto) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO hitokoto (id, text, created_at) VALUES ($1, $2, $3)`, h.ID, h.Text, h.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("hitokoto %s already exists: %w", h.ID, err)
		}
		return fmt.Errorf("error creating hitokoto: %w", err)
	}
	return nil
}

func (r *PostgresHitokotoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM hitokoto WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting hitokoto: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return pet.ErrHitokotoNotFound
	}
	return nil
}
