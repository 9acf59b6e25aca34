package pet

import (
	"context"
	"fmt"
)

var (
	ErrRecordNotFound      = fmt.Errorf("dog record not found")
	ErrMedicationsNotFound = fmt.Errorf("medication schedule not found")
	ErrHitokotoNotFound    = fmt.Errorf("hitokoto not found")
)

type RecordRepository interface {
	Create(ctx context.Context, record *DogRecord) error
	// ListByDate returns the day's records ordered by time.
	ListByDate(ctx context.Context, date string) ([]*DogRecord, error)
	// ListByRange returns records with start <= date <= end, ordered by date then time.
	ListByRange(ctx context.Context, start, end string) ([]*DogRecord, error)
	Delete(ctx context.Context, date, recordID string) error
}

type MedicationRepository interface {
	Get(ctx context.Context) (*MedicationSchedule, error)
	Save(ctx context.Context, schedule *MedicationSchedule) error
}

type HitokotoRepository interface {
	// List returns every hitokoto, newest first.
	List(ctx context.Context) ([]*Hitokoto, error)
	Create(ctx context.Context, h *Hitokoto) error
	Delete(ctx context.Context, id string) error
}
