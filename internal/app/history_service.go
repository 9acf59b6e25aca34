package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"family_schedule_bot/internal/domain/schedule"
	"family_schedule_bot/internal/domain/week"

	"github.com/sirupsen/logrus"
)

// WeekHistory is one row of the history view. Weeks that received input but were
// never finalized carry IsFinalized=false and no points.
type WeekHistory struct {
	WeekID          string                              `json:"weekId"`
	FinalizedAt     *time.Time                          `json:"finalizedAt"`
	PointsBreakdown map[string]schedule.PointsBreakdown `json:"pointsBreakdown"`
	ScheduleText    *string                             `json:"scheduleText"`
	IsFinalized     bool                                `json:"isFinalized"`
}

type CumulativePoints struct {
	UserID             string `json:"userId"`
	DisplayName        string `json:"displayName"`
	TotalPoints        int    `json:"totalPoints"`
	WeekdayPoints      int    `json:"weekdayPoints"`
	WeekendBonusPoints int    `json:"weekendBonusPoints"`
}

type History struct {
	WeeklyHistory    []WeekHistory      `json:"weeklyHistory"`
	CumulativePoints []CumulativePoints `json:"cumulativePoints"`
}

type HistoryService struct {
	inputRepo     schedule.InputRepository
	finalizedRepo schedule.FinalizedRepository
	pointsRepo    schedule.PointsRepository
	startWeek     string
	logger        *logrus.Entry
}

// NewHistoryService builds the history view. Weeks before startWeek are hidden;
// an empty startWeek shows everything.
func NewHistoryService(
	ir schedule.InputRepository,
	fr schedule.FinalizedRepository,
	pr schedule.PointsRepository,
	startWeek string,
	logger *logrus.Entry,
) *HistoryService {
	return &HistoryService{
		inputRepo:     ir,
		finalizedRepo: fr,
		pointsRepo:    pr,
		startWeek:     startWeek,
		logger:        logger.WithField("component", "history"),
	}
}

// GetHistory lists every known week newest first, excluding the week currently
// accepting input, and sums the cumulative points of the finalized ones.
func (s *HistoryService) GetHistory(ctx context.Context, now time.Time) (*History, error) {
	finalized, err := s.finalizedRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list finalized weeks: %w", err)
	}
	inputWeeks, err := s.inputRepo.ListWeekIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list input weeks: %w", err)
	}

	byWeek := make(map[string]*schedule.FinalizedWeek, len(finalized))
	for _, fw := range finalized {
		byWeek[fw.WeekID] = fw
	}
	weekIDs := make(map[string]bool, len(finalized)+len(inputWeeks))
	for id := range byWeek {
		weekIDs[id] = true
	}
	for _, id := range inputWeeks {
		weekIDs[id] = true
	}

	collecting := week.InputID(now)
	ids := make([]string, 0, len(weekIDs))
	for id := range weekIDs {
		if id == collecting || (s.startWeek != "" && id < s.startWeek) {
			continue
		}
		ids = append(ids, id)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))

	history := &History{
		WeeklyHistory:    make([]WeekHistory, 0, len(ids)),
		CumulativePoints: make([]CumulativePoints, 0),
	}
	totals := make(map[string]*CumulativePoints)
	for _, id := range ids {
		fw, ok := byWeek[id]
		if !ok {
			history.WeeklyHistory = append(history.WeeklyHistory, WeekHistory{WeekID: id})
			continue
		}
		finalizedAt, text := fw.FinalizedAt, fw.ScheduleText
		history.WeeklyHistory = append(history.WeeklyHistory, WeekHistory{
			WeekID:          id,
			FinalizedAt:     &finalizedAt,
			PointsBreakdown: fw.PointsBreakdown,
			ScheduleText:    &text,
			IsFinalized:     true,
		})
		for userID, p := range fw.PointsBreakdown {
			t, ok := totals[userID]
			if !ok {
				// newest week first, so the first name seen is the latest one
				t = &CumulativePoints{UserID: userID, DisplayName: p.DisplayName}
				totals[userID] = t
			}
			t.TotalPoints += p.TotalPoints
			t.WeekdayPoints += p.WeekdayPoints
			t.WeekendBonusPoints += p.WeekendBonusPoints
		}
	}

	for _, t := range totals {
		history.CumulativePoints = append(history.CumulativePoints, *t)
	}
	sort.Slice(history.CumulativePoints, func(i, j int) bool {
		a, b := history.CumulativePoints[i], history.CumulativePoints[j]
		if a.TotalPoints != b.TotalPoints {
			return a.TotalPoints > b.TotalPoints
		}
		return a.UserID < b.UserID
	})

	s.logger.WithFields(logrus.Fields{"weeks": len(history.WeeklyHistory), "users": len(history.CumulativePoints)}).Debug("History built")
	return history, nil
}

// ListTotals returns the stored cumulative totals, highest first.
func (s *HistoryService) ListTotals(ctx context.Context) ([]*schedule.UserPointsTotal, error) {
	totals, err := s.pointsRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list points totals: %w", err)
	}
	sort.SliceStable(totals, func(i, j int) bool {
		if totals[i].TotalPoints != totals[j].TotalPoints {
			return totals[i].TotalPoints > totals[j].TotalPoints
		}
		return totals[i].UserID < totals[j].UserID
	})
	return totals, nil
}
