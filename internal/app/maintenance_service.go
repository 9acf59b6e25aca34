package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"family_schedule_bot/internal/domain/schedule"
	"family_schedule_bot/internal/domain/week"

	"github.com/sirupsen/logrus"
)

// PointsDiff is one participant's breakdown before and after a recalculation.
type PointsDiff struct {
	WeekID string
	UserID string
	Old    schedule.PointsBreakdown
	New    schedule.PointsBreakdown
}

// Changed reports whether any component of the breakdown moved.
func (d PointsDiff) Changed() bool {
	return d.Old.WeekdayPoints != d.New.WeekdayPoints ||
		d.Old.WeekendBonusPoints != d.New.WeekendBonusPoints ||
		d.Old.TotalPoints != d.New.TotalPoints
}

// WeekSum is one finalized week's breakdown together with the running totals after it.
type WeekSum struct {
	WeekID     string
	Breakdown  map[string]schedule.PointsBreakdown
	Cumulative map[string]schedule.PointsBreakdown
}

// CumulativeReport compares totals recomputed from finalized weeks with the stored ones.
type CumulativeReport struct {
	Weeks      []WeekSum
	Computed   map[string]schedule.PointsBreakdown
	Stored     map[string]*schedule.UserPointsTotal
	Mismatches []string
}

// MaintenanceService backs the one-shot maintenance commands.
type MaintenanceService struct {
	inputRepo     schedule.InputRepository
	finalizedRepo schedule.FinalizedRepository
	pointsRepo    schedule.PointsRepository
	finalizer     *FinalizationService
	logger        *logrus.Entry
}

func NewMaintenanceService(
	ir schedule.InputRepository,
	fr schedule.FinalizedRepository,
	pr schedule.PointsRepository,
	finalizer *FinalizationService,
	logger *logrus.Entry,
) *MaintenanceService {
	return &MaintenanceService{
		inputRepo:     ir,
		finalizedRepo: fr,
		pointsRepo:    pr,
		finalizer:     finalizer,
		logger:        logger.WithField("component", "maintenance"),
	}
}

// FinalizeMissing finalizes every week that has inputs, whose Monday boundary has
// passed and that has no finalized record. Totals are left alone; run RebuildTotals after.
func (s *MaintenanceService) FinalizeMissing(ctx context.Context, now time.Time) ([]*FinalizeResult, error) {
	weekIDs, err := s.inputRepo.ListWeekIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list input weeks: %w", err)
	}
	finalized, err := s.finalizedWeekIDs(ctx)
	if err != nil {
		return nil, err
	}

	var results []*FinalizeResult
	for _, id := range weekIDs {
		if finalized[id] {
			continue
		}
		state, err := week.GetState(id, now)
		if err != nil {
			s.logger.WithError(err).WithField("week_id", id).Warn("Skipping malformed week id")
			continue
		}
		if state != week.StateFinalized {
			continue
		}
		res, err := s.finalizer.FinalizeWeek(ctx, id, now)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// Recalculate recomputes the breakdown of every finalized week from its inputs and
// stores it with the text re-rendered. Weeks whose inputs are gone are skipped.
func (s *MaintenanceService) Recalculate(ctx context.Context, now time.Time) ([]PointsDiff, error) {
	weeks, err := s.sortedFinalized(ctx)
	if err != nil {
		return nil, err
	}

	var diffs []PointsDiff
	for _, fw := range weeks {
		log := s.logger.WithField("week_id", fw.WeekID)
		inputs, err := s.inputRepo.ListByWeek(ctx, fw.WeekID)
		if err != nil {
			return diffs, fmt.Errorf("failed to list inputs for week %s: %w", fw.WeekID, err)
		}
		if len(inputs) == 0 {
			log.Warn("No inputs for finalized week, skipping recalculation")
			continue
		}

		if _, err := s.finalizer.FinalizeWeek(ctx, fw.WeekID, now); err != nil {
			return diffs, err
		}
		updated := schedule.ComputeAllPoints(inputs)
		for _, userID := range sortedUserIDs(updated) {
			diffs = append(diffs, PointsDiff{WeekID: fw.WeekID, UserID: userID, Old: fw.PointsBreakdown[userID], New: updated[userID]})
		}
	}
	return diffs, nil
}

// RebuildTotals replaces every stored total with the sum of all finalized weeks.
// LastUpdatedWeek is set to the latest finalized week, and every week is marked rolled up.
func (s *MaintenanceService) RebuildTotals(ctx context.Context, now time.Time) ([]*schedule.UserPointsTotal, error) {
	weeks, err := s.sortedFinalized(ctx)
	if err != nil {
		return nil, err
	}
	sums, _ := cumulate(weeks)

	latest := ""
	if len(weeks) > 0 {
		latest = weeks[len(weeks)-1].WeekID
	}
	included := make(map[string][]string)
	for _, fw := range weeks {
		for userID := range fw.PointsBreakdown {
			included[userID] = append(included[userID], fw.WeekID)
		}
	}

	totals := make([]*schedule.UserPointsTotal, 0, len(sums))
	for _, userID := range sortedUserIDs(sums) {
		p := sums[userID]
		total := &schedule.UserPointsTotal{
			UserID:             userID,
			DisplayName:        p.DisplayName,
			WeekdayPoints:      p.WeekdayPoints,
			WeekendBonusPoints: p.WeekendBonusPoints,
			TotalPoints:        p.TotalPoints,
			LastUpdatedWeek:    latest,
			UpdatedAt:          now,
			RolledUpWeeks:      included[userID],
		}
		if err := s.pointsRepo.Save(ctx, total); err != nil {
			return totals, fmt.Errorf("failed to save points total for user %s: %w", userID, err)
		}
		totals = append(totals, total)
	}
	for _, fw := range weeks {
		if fw.RolledUp {
			continue
		}
		if err := s.finalizedRepo.MarkRolledUp(ctx, fw.WeekID); err != nil {
			return totals, fmt.Errorf("failed to mark week %s rolled up: %w", fw.WeekID, err)
		}
	}
	s.logger.WithFields(logrus.Fields{"users": len(totals), "latest_week": latest}).Info("Points totals rebuilt")
	return totals, nil
}

// CheckCumulative recomputes totals week by week and reports users whose stored
// total differs from the recomputed one.
func (s *MaintenanceService) CheckCumulative(ctx context.Context) (*CumulativeReport, error) {
	weeks, err := s.sortedFinalized(ctx)
	if err != nil {
		return nil, err
	}
	stored, err := s.pointsRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list points totals: %w", err)
	}

	computed, sums := cumulate(weeks)
	report := &CumulativeReport{
		Weeks:    sums,
		Computed: computed,
		Stored:   make(map[string]*schedule.UserPointsTotal, len(stored)),
	}
	for _, t := range stored {
		report.Stored[t.UserID] = t
	}

	userIDs := make(map[string]bool, len(computed)+len(stored))
	for id := range computed {
		userIDs[id] = true
	}
	for id := range report.Stored {
		userIDs[id] = true
	}
	ids := make([]string, 0, len(userIDs))
	for id := range userIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		want := computed[id]
		got, ok := report.Stored[id]
		if !ok {
			report.Mismatches = append(report.Mismatches, fmt.Sprintf("%s: no stored total, computed %dP", id, want.TotalPoints))
			continue
		}
		if got.WeekdayPoints != want.WeekdayPoints || got.WeekendBonusPoints != want.WeekendBonusPoints || got.TotalPoints != want.TotalPoints {
			report.Mismatches = append(report.Mismatches, fmt.Sprintf("%s: stored %dP (weekday %d, bonus %d), computed %dP (weekday %d, bonus %d)",
				id, got.TotalPoints, got.WeekdayPoints, got.WeekendBonusPoints, want.TotalPoints, want.WeekdayPoints, want.WeekendBonusPoints))
		}
	}
	return report, nil
}

// DeleteWeek removes a week's inputs and finalized record. Totals are not adjusted.
func (s *MaintenanceService) DeleteWeek(ctx context.Context, weekID string) (int64, error) {
	if err := week.Validate(weekID); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	deleted, err := s.inputRepo.DeleteWeek(ctx, weekID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete inputs for week %s: %w", weekID, err)
	}
	if err := s.finalizedRepo.Delete(ctx, weekID); err != nil && !errors.Is(err, schedule.ErrFinalizedWeekNotFound) {
		return deleted, fmt.Errorf("failed to delete finalized week %s: %w", weekID, err)
	}
	s.logger.WithFields(logrus.Fields{"week_id": weekID, "inputs_deleted": deleted}).Info("Week deleted")
	return deleted, nil
}

func (s *MaintenanceService) sortedFinalized(ctx context.Context) ([]*schedule.FinalizedWeek, error) {
	weeks, err := s.finalizedRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list finalized weeks: %w", err)
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].WeekID < weeks[j].WeekID })
	return weeks, nil
}

func (s *MaintenanceService) finalizedWeekIDs(ctx context.Context) (map[string]bool, error) {
	weeks, err := s.finalizedRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list finalized weeks: %w", err)
	}
	ids := make(map[string]bool, len(weeks))
	for _, fw := range weeks {
		ids[fw.WeekID] = true
	}
	return ids, nil
}

// cumulate sums breakdowns over weeks in order. The display name follows the latest week.
func cumulate(weeks []*schedule.FinalizedWeek) (map[string]schedule.PointsBreakdown, []WeekSum) {
	running := make(map[string]schedule.PointsBreakdown)
	sums := make([]WeekSum, 0, len(weeks))
	for _, fw := range weeks {
		for userID, p := range fw.PointsBreakdown {
			acc := running[userID]
			if p.DisplayName != "" {
				acc.DisplayName = p.DisplayName
			}
			acc.WeekdayPoints += p.WeekdayPoints
			acc.WeekendBonusPoints += p.WeekendBonusPoints
			acc.TotalPoints += p.TotalPoints
			running[userID] = acc
		}
		snapshot := make(map[string]schedule.PointsBreakdown, len(running))
		for id, p := range running {
			snapshot[id] = p
		}
		sums = append(sums, WeekSum{WeekID: fw.WeekID, Breakdown: fw.PointsBreakdown, Cumulative: snapshot})
	}
	return running, sums
}

func sortedUserIDs(points map[string]schedule.PointsBreakdown) []string {
	ids := make([]string, 0, len(points))
	for id := range points {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
