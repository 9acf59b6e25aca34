package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"family_schedule_bot/internal/domain/schedule"
	"family_schedule_bot/internal/domain/week"
)

// UserSchedule is one participant's view of a week for the input form.
type UserSchedule struct {
	week.Info
	IsLocked bool           `json:"isLocked"`
	Slots    schedule.Slots `json:"slots"`
	Notes    schedule.Notes `json:"notes"`
}

// WeekUser is one participant's entry in the all-users week view.
type WeekUser struct {
	UserID      string         `json:"userId"`
	DisplayName string         `json:"displayName"`
	Slots       schedule.Slots `json:"slots"`
	Notes       schedule.Notes `json:"notes"`
	SubmittedAt time.Time      `json:"submittedAt"`
}

// WeekSchedule is every participant's input for a week, for the dashboard.
type WeekSchedule struct {
	week.Info
	IsLocked bool       `json:"isLocked"`
	Users    []WeekUser `json:"users"`
}

// UserSchedule returns the user's stored input for the week, or empty maps when
// the user has not submitted yet. Weeks are never locked against resubmission.
func (s *SubmissionService) UserSchedule(ctx context.Context, weekID, userID string) (*UserSchedule, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: userId is required", ErrValidation)
	}
	if err := week.Validate(weekID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	info, err := week.GetInfo(weekID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	view := &UserSchedule{Info: info, Slots: schedule.Slots{}, Notes: schedule.Notes{}}
	input, err := s.inputRepo.Get(ctx, weekID, userID)
	switch {
	case err == nil:
		if input.Slots != nil {
			view.Slots = input.Slots
		}
		if input.Notes != nil {
			view.Notes = input.Notes
		}
	case !errors.Is(err, schedule.ErrInputNotFound):
		return nil, fmt.Errorf("failed to get input: %w", err)
	}
	return view, nil
}

// WeekSchedule returns all inputs of the week in submission order.
func (s *SubmissionService) WeekSchedule(ctx context.Context, weekID string) (*WeekSchedule, error) {
	if err := week.Validate(weekID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	info, err := week.GetInfo(weekID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	inputs, err := s.inputRepo.ListByWeek(ctx, weekID)
	if err != nil {
		return nil, fmt.Errorf("failed to list inputs for week %s: %w", weekID, err)
	}

	view := &WeekSchedule{Info: info, Users: make([]WeekUser, 0, len(inputs))}
	for _, in := range inputs {
		u := WeekUser{UserID: in.UserID, DisplayName: in.DisplayName, Slots: in.Slots, Notes: in.Notes, SubmittedAt: in.SubmittedAt}
		if u.Slots == nil {
			u.Slots = schedule.Slots{}
		}
		if u.Notes == nil {
			u.Notes = schedule.Notes{}
		}
		view.Users = append(view.Users, u)
	}
	return view, nil
}
