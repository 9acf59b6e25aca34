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

	"github.com/sirupsen/logrus"
)

type NotifyStatus string

const (
	NotifyStatusSent     NotifyStatus = "sent"
	NotifyStatusSkipped  NotifyStatus = "skipped"
	NotifyStatusNotFound NotifyStatus = "not_found"
)

type NotificationService struct {
	finalizedRepo schedule.FinalizedRepository
	settingsRepo  settings.Repository
	client        messaging.Client
	links         Links
	logger        *logrus.Entry
}

func NewNotificationService(
	fr schedule.FinalizedRepository,
	sr settings.Repository,
	client messaging.Client,
	links Links,
	logger *logrus.Entry,
) *NotificationService {
	return &NotificationService{
		finalizedRepo: fr,
		settingsRepo:  sr,
		client:        client,
		links:         links,
		logger:        logger.WithField("component", "notification"),
	}
}

// NotifyFinalizedWeek pushes the current week's finalized text to the family group.
func (s *NotificationService) NotifyFinalizedWeek(ctx context.Context, now time.Time) (NotifyStatus, error) {
	weekID := week.CurrentID(now)
	log := s.logger.WithField("week_id", weekID)

	fw, err := s.finalizedRepo.Get(ctx, weekID)
	if err != nil {
		if errors.Is(err, schedule.ErrFinalizedWeekNotFound) {
			log.Warn("No finalized week to notify")
			return NotifyStatusNotFound, nil
		}
		return "", fmt.Errorf("failed to get finalized week %s: %w", weekID, err)
	}

	groupID, err := s.groupChatID(ctx)
	if err != nil {
		return "", err
	}
	if groupID == 0 {
		log.Warn("Family group is not configured, skipping weekly notification")
		return NotifyStatusSkipped, nil
	}

	if err := s.client.SendMessage(groupID, fw.ScheduleText, nil); err != nil {
		return "", fmt.Errorf("failed to send finalized schedule for week %s: %w", weekID, err)
	}
	log.WithField("version", fw.Version).Info("Finalized schedule sent to family group")
	return NotifyStatusSent, nil
}

// SendReminder asks the family group to fill in the week that is currently accepting input.
func (s *NotificationService) SendReminder(ctx context.Context, now time.Time) (NotifyStatus, error) {
	weekID := week.InputID(now)
	log := s.logger.WithField("week_id", weekID)

	groupID, err := s.groupChatID(ctx)
	if err != nil {
		return "", err
	}
	if groupID == 0 {
		log.Warn("Family group is not configured, skipping reminder")
		return NotifyStatusSkipped, nil
	}

	info, err := week.GetInfo(weekID)
	if err != nil {
		return "", fmt.Errorf("failed to get week info: %w", err)
	}

	text := fmt.Sprintf("【リマインド】\n来週（%s(月)〜%s(日)）の予定入力をお忘れなく！\nまだの方は早めにお願いします🙏\n\n▼管理ページ（入力・確認・調整）\n%s",
		week.MonthDay(info.StartDate), week.MonthDay(info.EndDate), s.links.Dashboard(weekID))
	if err := s.client.SendMessage(groupID, text, nil); err != nil {
		return "", fmt.Errorf("failed to send reminder for week %s: %w", weekID, err)
	}
	log.Info("Reminder sent to family group")
	return NotifyStatusSent, nil
}

// groupChatID returns 0 when no family group has been registered yet.
func (s *NotificationService) groupChatID(ctx context.Context) (int64, error) {
	cfg, err := s.settingsRepo.Get(ctx)
	if err != nil {
		if errors.Is(err, settings.ErrNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get system config: %w", err)
	}
	if !cfg.HasGroup() {
		return 0, nil
	}
	return cfg.GroupChatID, nil
}
