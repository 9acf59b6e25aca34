package schedule

import (
	"context"
	"fmt"
)

var (
	ErrInputNotFound         = fmt.Errorf("schedule input not found")
	ErrFinalizedWeekNotFound = fmt.Errorf("finalized week not found")
	ErrFinalizedWeekExists   = fmt.Errorf("finalized week already exists")
	ErrFinalizedVersionClash = fmt.Errorf("finalized week was modified concurrently")
	ErrUserPointsNotFound    = fmt.Errorf("user points total not found")
)

// InputRepository persists participants' weekly submissions.
type InputRepository interface {
	Get(ctx context.Context, weekID, userID string) (*Input, error)
	ListByWeek(ctx context.Context, weekID string) ([]*Input, error)
	Save(ctx context.Context, input *Input) error
	// ListWeekIDs returns every distinct week that has at least one submission, ascending.
	ListWeekIDs(ctx context.Context) ([]string, error)
	DeleteWeek(ctx context.Context, weekID string) (int64, error)
}

// FinalizedRepository persists finalized weeks.
type FinalizedRepository interface {
	Get(ctx context.Context, weekID string) (*FinalizedWeek, error)
	// Create stores the record only if no record exists for its week,
	// returning ErrFinalizedWeekExists otherwise.
	Create(ctx context.Context, fw *FinalizedWeek) error
	// Update overwrites the record if its stored version still equals expectedVersion,
	// returning ErrFinalizedVersionClash otherwise.
	Update(ctx context.Context, fw *FinalizedWeek, expectedVersion int) error
	// MarkRolledUp flags the week as fully folded into the totals without touching its version.
	MarkRolledUp(ctx context.Context, weekID string) error
	ListAll(ctx context.Context) ([]*FinalizedWeek, error)
	Delete(ctx context.Context, weekID string) error
}

// PointsRepository persists cumulative per-user totals.
type PointsRepository interface {
	Get(ctx context.Context, userID string) (*UserPointsTotal, error)
	Save(ctx context.Context, total *UserPointsTotal) error
	ListAll(ctx context.Context) ([]*UserPointsTotal, error)
}
