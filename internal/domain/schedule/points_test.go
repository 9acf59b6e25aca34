package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputePoints(t *testing.T) {
	tests := []struct {
		name  string
		slots Slots
		want  PointsBreakdown
	}{
		{
			name:  "empty",
			slots: Slots{},
			want:  PointsBreakdown{},
		},
		{
			name:  "weekday hours",
			slots: Slots{"2025-01-06:09": true, "2025-01-06:17": true},
			want:  PointsBreakdown{WeekdayPoints: 2, WeekendBonusPoints: 0, TotalPoints: 2},
		},
		{
			name:  "saturday allday",
			slots: Slots{"2025-01-11:allday": true},
			want:  PointsBreakdown{WeekdayPoints: 0, WeekendBonusPoints: 2, TotalPoints: 6},
		},
		{
			name:  "single weekend hour rounds half away from zero",
			slots: Slots{"2025-01-12:21": true},
			want:  PointsBreakdown{WeekdayPoints: 0, WeekendBonusPoints: 1, TotalPoints: 2},
		},
		{
			name:  "three weekend hours",
			slots: Slots{"2025-01-11:09": true, "2025-01-11:17": true, "2025-01-12:24": true},
			want:  PointsBreakdown{WeekdayPoints: 0, WeekendBonusPoints: 2, TotalPoints: 5},
		},
		{
			name:  "weekday allday",
			slots: Slots{"2025-01-08:allday": true},
			want:  PointsBreakdown{WeekdayPoints: 4, WeekendBonusPoints: 0, TotalPoints: 4},
		},
		{
			name: "false entries are ignored",
			slots: Slots{
				"2025-01-06:09":     false,
				"2025-01-06:allday": false,
				"2025-01-07:24":     true,
			},
			want: PointsBreakdown{WeekdayPoints: 1, WeekendBonusPoints: 0, TotalPoints: 1},
		},
		{
			name: "mixed week",
			slots: Slots{
				"2025-01-06:09":     true,
				"2025-01-07:allday": true,
				"2025-01-11:allday": true,
				"2025-01-12:17":     true,
			},
			// weekday 1+4, weekend (4+1)*1.5=7.5 -> bonus round(2.5)=3, total 5+round(7.5)=13
			want: PointsBreakdown{WeekdayPoints: 5, WeekendBonusPoints: 3, TotalPoints: 13},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputePoints(tt.slots))
		})
	}
}

func TestComputePointsAlldaySuppressesOtherTokens(t *testing.T) {
	onlyAllday := ComputePoints(Slots{"2025-01-06:allday": true})
	withHours := ComputePoints(Slots{
		"2025-01-06:allday": true,
		"2025-01-06:09":     true,
		"2025-01-06:17":     true,
		"2025-01-06:21":     false,
		"2025-01-06:24":     true,
	})
	assert.Equal(t, onlyAllday, withHours)
	assert.Equal(t, 4, withHours.TotalPoints)

	weekend := ComputePoints(Slots{"2025-01-11:allday": true, "2025-01-11:09": true})
	assert.Equal(t, PointsBreakdown{WeekendBonusPoints: 2, TotalPoints: 6}, weekend)
}

func TestComputePointsWeekdayOnlyIsUnmultiplied(t *testing.T) {
	slots := Slots{}
	want := 0
	for _, date := range []string{"2025-01-06", "2025-01-07", "2025-01-08", "2025-01-09", "2025-01-10"} {
		slots[SlotKey(date, Slot09)] = true
		slots[SlotKey(date, Slot24)] = true
		want += 2
	}
	slots[SlotKey("2025-01-09", SlotAllday)] = true
	want += 4 - 2

	got := ComputePoints(slots)
	assert.Equal(t, want, got.WeekdayPoints)
	assert.Equal(t, 0, got.WeekendBonusPoints)
	assert.Equal(t, got.WeekdayPoints, got.TotalPoints)
}

func TestComputePointsIsIdempotent(t *testing.T) {
	slots := Slots{"2025-01-06:09": true, "2025-01-11:allday": true, "2025-01-12:21": true}
	first := ComputePoints(slots)
	second := ComputePoints(slots)
	assert.Equal(t, first, second)
	assert.Equal(t, Slots{"2025-01-06:09": true, "2025-01-11:allday": true, "2025-01-12:21": true}, slots)
}

func TestComputeAllPoints(t *testing.T) {
	inputs := []*Input{
		{UserID: "u1", DisplayName: "Alice", Slots: Slots{"2025-01-06:09": true}},
		{UserID: "u2", DisplayName: "Bob", Slots: Slots{"2025-01-11:allday": true}},
	}

	got := ComputeAllPoints(inputs)

	assert.Equal(t, map[string]PointsBreakdown{
		"u1": {DisplayName: "Alice", WeekdayPoints: 1, TotalPoints: 1},
		"u2": {DisplayName: "Bob", WeekendBonusPoints: 2, TotalPoints: 6},
	}, got)
}

func TestUserPointsTotalAdd(t *testing.T) {
	total := &UserPointsTotal{UserID: "u1", DisplayName: "old", WeekdayPoints: 3, WeekendBonusPoints: 1, TotalPoints: 5}
	total.Add(PointsBreakdown{DisplayName: "Alice", WeekdayPoints: 2, WeekendBonusPoints: 2, TotalPoints: 8})

	assert.Equal(t, "Alice", total.DisplayName)
	assert.Equal(t, 5, total.WeekdayPoints)
	assert.Equal(t, 3, total.WeekendBonusPoints)
	assert.Equal(t, 13, total.TotalPoints)
}

func TestUserPointsTotalAddWeekOnce(t *testing.T) {
	total := &UserPointsTotal{UserID: "u1"}
	week := PointsBreakdown{DisplayName: "Alice", WeekdayPoints: 2, TotalPoints: 2}

	assert.True(t, total.AddWeek("2025-01-13", week))
	assert.False(t, total.AddWeek("2025-01-13", week))
	assert.True(t, total.AddWeek("2025-01-20", week))

	assert.Equal(t, 4, total.TotalPoints)
	assert.Equal(t, []string{"2025-01-13", "2025-01-20"}, total.RolledUpWeeks)
	assert.True(t, total.Includes("2025-01-20"))
	assert.False(t, total.Includes("2025-01-27"))
}
