// Package week converts instants and week identifiers into the Asia/Tokyo civil calendar.
// A week identifier is the Monday of an ISO week, formatted as YYYY-MM-DD.
package week

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // Asia/Tokyo must resolve on hosts without a zoneinfo database
)

// DateLayout is the layout of week identifiers and of every date string in the system.
const DateLayout = "2006-01-02"

// TimezoneName is the civil calendar every week boundary is computed in.
const TimezoneName = "Asia/Tokyo"

// State is the lifecycle state of a week as seen from a given instant.
type State string

const (
	StateCollecting State = "collecting"
	StateFinalized  State = "finalized"
)

// ErrInvalidWeekID is returned when a week identifier is malformed or is not a Monday.
var ErrInvalidWeekID = fmt.Errorf("invalid week id")

var location = loadLocation()

func loadLocation() *time.Location {
	loc, err := time.LoadLocation(TimezoneName)
	if err != nil {
		return time.FixedZone("JST", 9*60*60)
	}
	return loc
}

// Location returns the Asia/Tokyo location used for all week arithmetic.
func Location() *time.Location {
	return location
}

// Info describes the seven dates of a week and its submission deadline.
type Info struct {
	WeekID    string    `json:"weekId"`
	StartDate string    `json:"startDate"`
	EndDate   string    `json:"endDate"`
	Deadline  time.Time `json:"deadline"`
	Dates     []string  `json:"dates"`
}

func mondayOf(now time.Time) time.Time {
	local := now.In(location)
	offset := (int(local.Weekday()) + 6) % 7 // Monday=0 .. Sunday=6
	return time.Date(local.Year(), local.Month(), local.Day()-offset, 0, 0, 0, 0, location)
}

// CurrentID returns the identifier of the week containing now.
func CurrentID(now time.Time) string {
	return mondayOf(now).Format(DateLayout)
}

// NextID returns the identifier of the week after the one containing now.
func NextID(now time.Time) string {
	return mondayOf(now).AddDate(0, 0, 7).Format(DateLayout)
}

// PreviousID returns the identifier of the week before the one containing now.
func PreviousID(now time.Time) string {
	return mondayOf(now).AddDate(0, 0, -7).Format(DateLayout)
}

// InputID returns the week currently accepting submissions. Monday 00:00 finalizes the
// current week, so input always targets the following one.
func InputID(now time.Time) string {
	return NextID(now)
}

// Start returns Monday 00:00 Asia/Tokyo of the given week identifier.
func Start(weekID string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, weekID, location)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: %v", ErrInvalidWeekID, weekID, err)
	}
	return t, nil
}

// GetInfo returns the dates, boundaries and deadline of the week starting at weekID.
func GetInfo(weekID string) (Info, error) {
	monday, err := Start(weekID)
	if err != nil {
		return Info{}, err
	}

	dates := make([]string, 0, 7)
	for i := 0; i < 7; i++ {
		dates = append(dates, monday.AddDate(0, 0, i).Format(DateLayout))
	}
	sunday := monday.AddDate(0, 0, 6)

	return Info{
		WeekID:    weekID,
		StartDate: dates[0],
		EndDate:   dates[6],
		Deadline:  time.Date(sunday.Year(), sunday.Month(), sunday.Day(), 23, 59, 0, 0, location),
		Dates:     dates,
	}, nil
}

// GetState reports whether the week has reached its Monday 00:00 finalization boundary.
// The submission deadline and the finalization boundary coincide, so there is no
// intermediate state.
func GetState(weekID string, now time.Time) (State, error) {
	start, err := Start(weekID)
	if err != nil {
		return "", err
	}
	if !now.Before(start) {
		return StateFinalized, nil
	}
	return StateCollecting, nil
}

// Validate checks that weekID is a well-formed date that falls on a Monday.
func Validate(weekID string) error {
	y, m, d, ok := parseCivil(weekID)
	if !ok {
		return fmt.Errorf("%w %q: expected YYYY-MM-DD", ErrInvalidWeekID, weekID)
	}
	if _, err := Start(weekID); err != nil {
		return err
	}
	if civilWeekday(y, m, d) != time.Monday {
		return fmt.Errorf("%w %q: not a Monday", ErrInvalidWeekID, weekID)
	}
	return nil
}

// IsWeekend reports whether the calendar date falls on Saturday or Sunday.
// Malformed dates are never weekend.
func IsWeekend(date string) bool {
	y, m, d, ok := parseCivil(date)
	if !ok {
		return false
	}
	wd := civilWeekday(y, m, d)
	return wd == time.Saturday || wd == time.Sunday
}

var weekdaysJa = [...]string{"日", "月", "火", "水", "木", "金", "土"}

// DayOfWeekJa returns the Japanese weekday abbreviation of the calendar date.
func DayOfWeekJa(date string) string {
	y, m, d, ok := parseCivil(date)
	if !ok {
		return ""
	}
	return weekdaysJa[civilWeekday(y, m, d)]
}

// MonthDay renders a date as "M/D" without zero padding.
func MonthDay(date string) string {
	_, m, d, ok := parseCivil(date)
	if !ok {
		return date
	}
	return fmt.Sprintf("%d/%d", m, d)
}

func parseCivil(date string) (year, month, day int, ok bool) {
	parts := strings.Split(date, "-")
	if len(parts) != 3 || len(parts[0]) != 4 || len(parts[1]) != 2 || len(parts[2]) != 2 {
		return 0, 0, 0, false
	}
	var err error
	if year, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, 0, false
	}
	if month, err = strconv.Atoi(parts[1]); err != nil || month < 1 || month > 12 {
		return 0, 0, 0, false
	}
	if day, err = strconv.Atoi(parts[2]); err != nil || day < 1 || day > daysIn(year, month) {
		return 0, 0, 0, false
	}
	return year, month, day, true
}

// daysIn returns the length of the month in the proleptic Gregorian calendar.
func daysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// civilWeekday applies Zeller's congruence to a proleptic Gregorian date.
func civilWeekday(year, month, day int) time.Weekday {
	if month < 3 {
		month += 12
		year--
	}
	k := year % 100
	j := year / 100
	h := (day + 13*(month+1)/5 + k + k/4 + j/4 + 5*j) % 7
	// h: 0=Saturday, 1=Sunday, 2=Monday ... 6=Friday
	return time.Weekday((h + 6) % 7)
}
