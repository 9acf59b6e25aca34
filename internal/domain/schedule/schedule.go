package schedule

import (
	"strings"
	"time"
)

// TimeSlot is one of the tokens a participant can mark for a date.
type TimeSlot string

const (
	SlotAllday TimeSlot = "allday"
	Slot09     TimeSlot = "09"
	Slot17     TimeSlot = "17"
	Slot21     TimeSlot = "21"
	Slot24     TimeSlot = "24"
)

// TimeSlots lists every token in display order.
var TimeSlots = []TimeSlot{SlotAllday, Slot09, Slot17, Slot21, Slot24}

// HourSlots lists the tokens suppressed by an allday mark.
var HourSlots = []TimeSlot{Slot09, Slot17, Slot21, Slot24}

// Slots maps "<date>:<token>" to whether the participant is available.
type Slots map[string]bool

// Notes maps a date to a free-text annotation.
type Notes map[string]string

// SlotKey builds the Slots key for a date and token.
func SlotKey(date string, slot TimeSlot) string {
	return date + ":" + string(slot)
}

// SplitSlotKey splits a Slots key into its date and token.
func SplitSlotKey(key string) (date string, slot TimeSlot) {
	date, token, _ := strings.Cut(key, ":")
	return date, TimeSlot(token)
}

// IsValidTimeSlot reports whether s is one of the known tokens.
func IsValidTimeSlot(s TimeSlot) bool {
	for _, known := range TimeSlots {
		if s == known {
			return true
		}
	}
	return false
}

// Input is one participant's submission for one week. A later submission overwrites it.
type Input struct {
	WeekID      string    `json:"weekId"`
	UserID      string    `json:"userId"`
	DisplayName string    `json:"displayName"`
	Slots       Slots     `json:"slots"`
	Notes       Notes     `json:"notes"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// PointsBreakdown is the points one participant earned in one week.
type PointsBreakdown struct {
	DisplayName        string `json:"displayName"`
	WeekdayPoints      int    `json:"weekdayPoints"`
	WeekendBonusPoints int    `json:"weekendBonusPoints"`
	TotalPoints        int    `json:"totalPoints"`
}

// FinalizedWeek is the locked, scored and rendered record of a week.
type FinalizedWeek struct {
	WeekID          string                     `json:"weekId"`
	FinalizedAt     time.Time                  `json:"finalizedAt"`
	ScheduleText    string                     `json:"scheduleText"`
	PointsBreakdown map[string]PointsBreakdown `json:"pointsBreakdown"`
	Version         int                        `json:"version"`
	// RolledUp is set once every participant's points are folded into the totals.
	RolledUp bool `json:"rolledUp"`
}

// UserPointsTotal is a participant's running total across finalized weeks.
type UserPointsTotal struct {
	UserID             string    `json:"userId"`
	DisplayName        string    `json:"displayName"`
	WeekdayPoints      int       `json:"weekdayPoints"`
	WeekendBonusPoints int       `json:"weekendBonusPoints"`
	TotalPoints        int       `json:"totalPoints"`
	LastUpdatedWeek    string    `json:"lastUpdatedWeek"`
	UpdatedAt          time.Time `json:"updatedAt"`
	// RolledUpWeeks lists the weeks already folded into this total.
	RolledUpWeeks []string `json:"rolledUpWeeks"`
}

// Includes reports whether weekID has already been folded into the total.
func (t *UserPointsTotal) Includes(weekID string) bool {
	for _, id := range t.RolledUpWeeks {
		if id == weekID {
			return true
		}
	}
	return false
}

// AddWeek folds weekID's breakdown into the total unless it is already included.
// It reports whether the total changed.
func (t *UserPointsTotal) AddWeek(weekID string, p PointsBreakdown) bool {
	if t.Includes(weekID) {
		return false
	}
	t.Add(p)
	t.RolledUpWeeks = append(t.RolledUpWeeks, weekID)
	return true
}

// Add folds one week's breakdown into the total.
func (t *UserPointsTotal) Add(p PointsBreakdown) {
	if p.DisplayName != "" {
		t.DisplayName = p.DisplayName
	}
	t.WeekdayPoints += p.WeekdayPoints
	t.WeekendBonusPoints += p.WeekendBonusPoints
	t.TotalPoints += p.TotalPoints
}
