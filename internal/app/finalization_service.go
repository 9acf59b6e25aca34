package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"family_schedule_bot/internal/domain/schedule"
	"family_schedule_bot/internal/domain/week"

	"github.com/sirupsen/logrus"
)

type FinalizeStatus string

const (
	FinalizeStatusFinalized   FinalizeStatus = "finalized"
	FinalizeStatusRefinalized FinalizeStatus = "refinalized"
	FinalizeStatusNoInputs    FinalizeStatus = "no_inputs"
)

// FinalizeResult reports what a finalization run did.
type FinalizeResult struct {
	WeekID       string
	Status       FinalizeStatus
	Version      int
	Participants int
	// RolledUp is true when this run folded the week into the cumulative totals.
	RolledUp bool
}

type finalizeOptions struct {
	nextWeekURL string
	rollup      bool
	stampWeek   string
}

type FinalizationService struct {
	inputRepo     schedule.InputRepository
	finalizedRepo schedule.FinalizedRepository
	pointsRepo    schedule.PointsRepository
	links         Links
	logger        *logrus.Entry
}

func NewFinalizationService(
	ir schedule.InputRepository,
	fr schedule.FinalizedRepository,
	pr schedule.PointsRepository,
	links Links,
	logger *logrus.Entry,
) *FinalizationService {
	return &FinalizationService{
		inputRepo:     ir,
		finalizedRepo: fr,
		pointsRepo:    pr,
		links:         links,
		logger:        logger.WithField("component", "finalization"),
	}
}

// FinalizeCurrentWeek finalizes the week containing now. The cumulative totals are
// rolled forward only by the run that creates the finalized record.
func (s *FinalizationService) FinalizeCurrentWeek(ctx context.Context, now time.Time) (*FinalizeResult, error) {
	nextWeekID := week.NextID(now)
	return s.finalize(ctx, week.CurrentID(now), now, finalizeOptions{
		nextWeekURL: s.links.Dashboard(nextWeekID),
		rollup:      true,
		stampWeek:   nextWeekID,
	})
}

// FinalizeWeek re-renders and re-scores an arbitrary week without touching the
// cumulative totals and without the next-week invitation.
func (s *FinalizationService) FinalizeWeek(ctx context.Context, weekID string, now time.Time) (*FinalizeResult, error) {
	if err := week.Validate(weekID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return s.finalize(ctx, weekID, now, finalizeOptions{})
}

func (s *FinalizationService) finalize(ctx context.Context, weekID string, now time.Time, opts finalizeOptions) (*FinalizeResult, error) {
	log := s.logger.WithField("week_id", weekID)

	existing, err := s.finalizedRepo.Get(ctx, weekID)
	if err != nil {
		if !errors.Is(err, schedule.ErrFinalizedWeekNotFound) {
			return nil, fmt.Errorf("failed to get finalized week %s: %w", weekID, err)
		}
		existing = nil
	}

	inputs, err := s.inputRepo.ListByWeek(ctx, weekID)
	if err != nil {
		return nil, fmt.Errorf("failed to list inputs for week %s: %w", weekID, err)
	}
	if len(inputs) == 0 {
		log.Warn("No schedule inputs for week, nothing to finalize")
		return &FinalizeResult{WeekID: weekID, Status: FinalizeStatusNoInputs}, nil
	}

	info, err := week.GetInfo(weekID)
	if err != nil {
		return nil, fmt.Errorf("failed to get week info: %w", err)
	}

	points := schedule.ComputeAllPoints(inputs)
	fw := &schedule.FinalizedWeek{
		WeekID:          weekID,
		FinalizedAt:     now,
		ScheduleText:    schedule.BuildFinalizedSchedule(info.Dates, inputs, points, opts.nextWeekURL),
		PointsBreakdown: points,
	}
	result := &FinalizeResult{WeekID: weekID, Participants: len(points)}

	// resume is true when an earlier run created the record but did not finish the rollup.
	resume := existing != nil && !existing.RolledUp

	if existing == nil {
		err = s.finalizedRepo.Create(ctx, fw)
		switch {
		case err == nil:
			result.Status = FinalizeStatusFinalized
			if opts.rollup {
				if err := s.rollup(ctx, weekID, points, opts.stampWeek, now); err != nil {
					return nil, err
				}
				result.RolledUp = true
			}
			log.WithFields(logrus.Fields{"participants": result.Participants, "rolled_up": result.RolledUp}).Info("Week finalized")
			return result, nil
		case errors.Is(err, schedule.ErrFinalizedWeekExists):
			log.Warn("Finalized week was created concurrently, updating without rollup")
			existing, err = s.finalizedRepo.Get(ctx, weekID)
			if err != nil {
				return nil, fmt.Errorf("failed to reload finalized week %s: %w", weekID, err)
			}
		default:
			return nil, fmt.Errorf("failed to create finalized week %s: %w", weekID, err)
		}
	}

	fw.Version = existing.Version + 1
	fw.RolledUp = existing.RolledUp
	if err := s.finalizedRepo.Update(ctx, fw, existing.Version); err != nil {
		return nil, fmt.Errorf("failed to update finalized week %s: %w", weekID, err)
	}
	result.Status = FinalizeStatusRefinalized
	result.Version = fw.Version

	if opts.rollup && resume {
		log.Warn("Resuming unfinished rollup")
		if err := s.rollup(ctx, weekID, points, opts.stampWeek, now); err != nil {
			return nil, err
		}
		result.RolledUp = true
	}
	log.WithFields(logrus.Fields{"version": fw.Version, "participants": result.Participants, "rolled_up": result.RolledUp}).Info("Week re-finalized")
	return result, nil
}

// rollup folds the week into each participant's total. Users that already carry the
// week are skipped, so an interrupted rollup can be rerun. The week is marked rolled
// up only after every save succeeded.
func (s *FinalizationService) rollup(ctx context.Context, weekID string, points map[string]schedule.PointsBreakdown, stampWeek string, now time.Time) error {
	for _, userID := range sortedUserIDs(points) {
		total, err := s.pointsRepo.Get(ctx, userID)
		if err != nil {
			if !errors.Is(err, schedule.ErrUserPointsNotFound) {
				return fmt.Errorf("failed to get points total for user %s: %w", userID, err)
			}
			total = &schedule.UserPointsTotal{UserID: userID}
		}
		if !total.AddWeek(weekID, points[userID]) {
			continue
		}
		total.LastUpdatedWeek = stampWeek
		total.UpdatedAt = now
		if err := s.pointsRepo.Save(ctx, total); err != nil {
			return fmt.Errorf("failed to save points total for user %s: %w", userID, err)
		}
	}
	if err := s.finalizedRepo.MarkRolledUp(ctx, weekID); err != nil {
		return fmt.Errorf("failed to mark week %s rolled up: %w", weekID, err)
	}
	return nil
}
