package schedule

import (
	"fmt"
	"sort"
	"strings"

	"family_schedule_bot/internal/domain/week"
)

// participantsFor returns the display names available for the slot, in input order.
// Hour tokens skip participants who marked the whole day.
func participantsFor(inputs []*Input, date string, slot TimeSlot) []string {
	names := make([]string, 0)
	for _, in := range inputs {
		if !in.Slots[SlotKey(date, slot)] {
			continue
		}
		if slot != SlotAllday && in.Slots[SlotKey(date, SlotAllday)] {
			continue
		}
		names = append(names, in.DisplayName)
	}
	return names
}

// BuildFinalizedSchedule renders the weekly summary posted to the family group.
// nextWeekURL may be empty, in which case the invitation for next week is omitted.
func BuildFinalizedSchedule(dates []string, inputs []*Input, points map[string]PointsBreakdown, nextWeekURL string) string {
	var b strings.Builder
	b.WriteString("今週のスケジュール確定版です。\n\n")

	var unstaffed []string
	for _, date := range dates {
		label := fmt.Sprintf("%s(%s)", week.MonthDay(date), week.DayOfWeekJa(date))
		b.WriteString(label + "\n")

		allday := participantsFor(inputs, date, SlotAllday)
		byHour := make(map[TimeSlot][]string, len(HourSlots))
		staffed := len(allday)
		for _, slot := range HourSlots {
			byHour[slot] = participantsFor(inputs, date, slot)
			staffed += len(byHour[slot])
		}

		fmt.Fprintf(&b, "終日:【%s】\n", strings.Join(allday, "、"))
		fmt.Fprintf(&b, "9時:【%s】/17時:【%s】/21時:【%s】/24時:【%s】\n",
			strings.Join(byHour[Slot09], "、"),
			strings.Join(byHour[Slot17], "、"),
			strings.Join(byHour[Slot21], "、"),
			strings.Join(byHour[Slot24], "、"),
		)

		if staffed == 0 {
			unstaffed = append(unstaffed, label)
		}

		for _, in := range inputs {
			if note := in.Notes[date]; note != "" {
				fmt.Fprintf(&b, "  %s:%s\n", in.DisplayName, note)
			}
		}
	}

	if len(unstaffed) > 0 {
		b.WriteString("\n⚠️ 担当者不在の日があります：\n")
		for _, label := range unstaffed {
			b.WriteString("  " + label + "\n")
		}
		b.WriteString("確認してください。\n")
	}

	b.WriteString("\n今回のポイントは以下です。\n")
	for _, userID := range orderedUserIDs(inputs, points) {
		p := points[userID]
		fmt.Fprintf(&b, "%s：%dP（平日%dP + 土日加算%dP）\n", p.DisplayName, p.TotalPoints, p.WeekdayPoints, p.WeekendBonusPoints)
	}

	if nextWeekURL != "" {
		b.WriteString("\nまた来週の入力もお願いします。\n▼確認・入力はこちら\n" + nextWeekURL)
	}

	return b.String()
}

// orderedUserIDs lists the breakdown's users in submission order, followed by any
// users without an input in user id order.
func orderedUserIDs(inputs []*Input, points map[string]PointsBreakdown) []string {
	ids := make([]string, 0, len(points))
	seen := make(map[string]bool, len(points))
	for _, in := range inputs {
		if _, ok := points[in.UserID]; ok && !seen[in.UserID] {
			ids = append(ids, in.UserID)
			seen[in.UserID] = true
		}
	}
	var rest []string
	for id := range points {
		if !seen[id] {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	return append(ids, rest...)
}
