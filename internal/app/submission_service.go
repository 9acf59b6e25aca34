package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"family_schedule_bot/internal/domain/messaging"
	"family_schedule_bot/internal/domain/schedule"
	"family_schedule_bot/internal/domain/settings"
	"family_schedule_bot/internal/domain/week"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/sirupsen/logrus"
)

// SubmitRequest is one participant's availability for one week.
type SubmitRequest struct {
	WeekID      string         `json:"weekId"`
	UserID      string         `json:"userId"`
	DisplayName string         `json:"displayName"`
	Slots       schedule.Slots `json:"slots"`
	Notes       schedule.Notes `json:"notes"`
}

func (r *SubmitRequest) Validate() error {
	return validation.ValidateStruct(
		r,
		validation.Field(&r.WeekID, validation.Required, validation.By(validWeekID)),
		validation.Field(&r.UserID, validation.Required, validation.RuneLength(1, 100)),
		validation.Field(&r.DisplayName, validation.Required, validation.RuneLength(1, 50)),
		validation.Field(&r.Slots, validation.NotNil, validation.By(slotKeysWithin(r.WeekID))),
		validation.Field(&r.Notes, validation.By(noteDatesWithin(r.WeekID))),
	)
}

func validWeekID(value interface{}) error {
	id, _ := value.(string)
	if err := week.Validate(id); err != nil {
		return errors.New("must be the Monday of a week (YYYY-MM-DD)")
	}
	return nil
}

func weekDates(weekID string) map[string]bool {
	info, err := week.GetInfo(weekID)
	if err != nil {
		return nil
	}
	dates := make(map[string]bool, len(info.Dates))
	for _, d := range info.Dates {
		dates[d] = true
	}
	return dates
}

// slotKeysWithin rejects keys that do not name a known token on a date of the week.
// An invalid week is reported by the weekId rule instead.
func slotKeysWithin(weekID string) validation.RuleFunc {
	return func(value interface{}) error {
		slots, _ := value.(schedule.Slots)
		dates := weekDates(weekID)
		if dates == nil {
			return nil
		}
		for key := range slots {
			date, slot := schedule.SplitSlotKey(key)
			if !dates[date] || !schedule.IsValidTimeSlot(slot) {
				return fmt.Errorf("invalid slot key %q", key)
			}
		}
		return nil
	}
}

func noteDatesWithin(weekID string) validation.RuleFunc {
	return func(value interface{}) error {
		notes, _ := value.(schedule.Notes)
		dates := weekDates(weekID)
		if dates == nil {
			return nil
		}
		for date, note := range notes {
			if !dates[date] {
				return fmt.Errorf("invalid note date %q", date)
			}
			if len([]rune(note)) > 200 {
				return fmt.Errorf("note for %s is too long", date)
			}
		}
		return nil
	}
}

// SubmitResult reports the outcome of a submission. Changes is nil for a first
// submission and for an unchanged resubmission.
type SubmitResult struct {
	IsNewEntry bool                `json:"isNewEntry"`
	Changes    *schedule.ChangeSet `json:"changes,omitempty"`
	Notified   bool                `json:"notified"`
}

type SubmissionService struct {
	inputRepo    schedule.InputRepository
	settingsRepo settings.Repository
	client       messaging.Client
	links        Links
	logger       *logrus.Entry
}

func NewSubmissionService(
	ir schedule.InputRepository,
	sr settings.Repository,
	client messaging.Client,
	links Links,
	logger *logrus.Entry,
) *SubmissionService {
	return &SubmissionService{
		inputRepo:    ir,
		settingsRepo: sr,
		client:       client,
		links:        links,
		logger:       logger.WithField("component", "submission"),
	}
}

// DetectChanges compares the submission with the one currently stored for the user.
func (s *SubmissionService) DetectChanges(ctx context.Context, weekID, userID string, slots schedule.Slots, notes schedule.Notes) (*schedule.ChangeSet, bool, error) {
	previous, err := s.inputRepo.Get(ctx, weekID, userID)
	if err != nil {
		if !errors.Is(err, schedule.ErrInputNotFound) {
			return nil, false, fmt.Errorf("failed to get previous input: %w", err)
		}
		previous = nil
	}
	changes, isNewEntry := schedule.DetectChanges(previous, slots, notes)
	return changes, isNewEntry, nil
}

// Submit validates and stores the submission, then tells the family group about it
// unless nothing changed. A failed group notice does not fail the submission.
func (s *SubmissionService) Submit(ctx context.Context, req *SubmitRequest, now time.Time) (*SubmitResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	log := s.logger.WithFields(logrus.Fields{"week_id": req.WeekID, "user_id": req.UserID})

	changes, isNewEntry, err := s.DetectChanges(ctx, req.WeekID, req.UserID, req.Slots, req.Notes)
	if err != nil {
		return nil, err
	}

	notes := req.Notes
	if notes == nil {
		notes = schedule.Notes{}
	}
	input := &schedule.Input{
		WeekID:      req.WeekID,
		UserID:      req.UserID,
		DisplayName: req.DisplayName,
		Slots:       req.Slots,
		Notes:       notes,
		SubmittedAt: now,
	}
	if err := s.inputRepo.Save(ctx, input); err != nil {
		return nil, fmt.Errorf("failed to save input: %w", err)
	}

	result := &SubmitResult{IsNewEntry: isNewEntry, Changes: changes}
	if !isNewEntry && changes == nil {
		log.Info("Resubmission without changes, group notice suppressed")
		return result, nil
	}

	cfg, err := s.settingsRepo.Get(ctx)
	if err != nil && !errors.Is(err, settings.ErrNotFound) {
		log.WithError(err).Error("Failed to load system config for submission notice")
		return result, nil
	}
	if !cfg.HasGroup() {
		log.Info("Family group is not configured, submission notice skipped")
		return result, nil
	}

	text := fmt.Sprintf("来週の予定を%sさんが更新しました。\n\n▼修正する場合はこちら\n%s", req.DisplayName, s.links.Dashboard(req.WeekID))
	if err := s.client.SendMessage(cfg.GroupChatID, text, nil); err != nil {
		log.WithError(err).Error("Failed to send submission notice")
		return result, nil
	}
	result.Notified = true
	log.WithField("new_entry", isNewEntry).Info("Submission saved and announced")
	return result, nil
}
