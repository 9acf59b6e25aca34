package schedule

import (
	"math"

	"family_schedule_bot/internal/domain/week"
)

const (
	alldayBasePoints = 4
	hourBasePoints   = 1
	weekendFactor    = 1.5
)

// ComputePoints scores one participant's slots. Allday marks suppress the other
// tokens of the same date; weekend dates are multiplied by 1.5 and the bonus is the
// rounded share attributable to that multiplier. DisplayName is left for the caller.
func ComputePoints(slots Slots) PointsBreakdown {
	alldayDates := make(map[string]bool)
	for key, checked := range slots {
		if !checked {
			continue
		}
		if date, slot := SplitSlotKey(key); slot == SlotAllday {
			alldayDates[date] = true
		}
	}

	weekdayPoints := 0
	weekendTotal := 0.0
	for key, checked := range slots {
		if !checked {
			continue
		}
		date, slot := SplitSlotKey(key)
		if alldayDates[date] && slot != SlotAllday {
			continue
		}

		base := hourBasePoints
		if slot == SlotAllday {
			base = alldayBasePoints
		}

		if week.IsWeekend(date) {
			weekendTotal += float64(base) * weekendFactor
		} else {
			weekdayPoints += base
		}
	}

	return PointsBreakdown{
		WeekdayPoints:      weekdayPoints,
		WeekendBonusPoints: int(math.Round(weekendTotal - weekendTotal/weekendFactor)),
		TotalPoints:        weekdayPoints + int(math.Round(weekendTotal)),
	}
}

// ComputeAllPoints scores every input and keys the result by user id.
func ComputeAllPoints(inputs []*Input) map[string]PointsBreakdown {
	result := make(map[string]PointsBreakdown, len(inputs))
	for _, in := range inputs {
		p := ComputePoints(in.Slots)
		p.DisplayName = in.DisplayName
		result[in.UserID] = p
	}
	return result
}
