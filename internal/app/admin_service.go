package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"family_schedule_bot/internal/domain/messaging"
	"family_schedule_bot/internal/domain/settings"

	"github.com/sirupsen/logrus"
)

type AdminService struct {
	settingsRepo settings.Repository
	client       messaging.Client
	links        Links
	admin        AdminIdentity
	timezone     string
	logger       *logrus.Entry
}

func NewAdminService(sr settings.Repository, client messaging.Client, links Links, admin AdminIdentity, timezone string, logger *logrus.Entry) *AdminService {
	return &AdminService{
		settingsRepo: sr,
		client:       client,
		links:        links,
		admin:        admin,
		timezone:     timezone,
		logger:       logger.WithField("component", "admin"),
	}
}

// IsAdmin reports whether the dashboard user id belongs to the configured admin.
// A failure to resolve the admin is logged and treated as not admin.
func (s *AdminService) IsAdmin(ctx context.Context, userID string) bool {
	adminID, err := s.admin.AdminID(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to resolve admin id")
		return false
	}
	return adminID != 0 && userID == strconv.FormatInt(adminID, 10)
}

// RegisterGroup stores chatID as the family group the first time the bot sees a
// group message. It reports whether a new config was written.
func (s *AdminService) RegisterGroup(ctx context.Context, chatID int64, now time.Time) (bool, error) {
	cfg, err := s.settingsRepo.Get(ctx)
	if err != nil && !errors.Is(err, settings.ErrNotFound) {
		return false, fmt.Errorf("failed to get system config: %w", err)
	}
	if cfg.HasGroup() {
		return false, nil
	}

	adminID, err := s.admin.AdminID(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to resolve admin id: %w", err)
	}

	newCfg := &settings.SystemConfig{
		GroupChatID: chatID,
		AdminUserID: adminID,
		Timezone:    s.timezone,
		UpdatedAt:   now,
	}
	if err := s.settingsRepo.Save(ctx, newCfg); err != nil {
		return false, fmt.Errorf("failed to save system config: %w", err)
	}
	s.logger.WithField("group_chat_id", chatID).Info("Family group registered")
	return true, nil
}

// AdminLink returns the admin-mode dashboard link for the performing user.
// Without a configured admin nobody is authorized.
func (s *AdminService) AdminLink(ctx context.Context, performingUserID int64) (string, error) {
	adminID, err := s.admin.AdminID(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to resolve admin id: %w", err)
	}
	if adminID == 0 || performingUserID != adminID {
		return "", ErrAdminNotAuthorized
	}
	return s.links.AdminDashboard(), nil
}

// ForwardToGroup relays a private message to the family group.
func (s *AdminService) ForwardToGroup(ctx context.Context, text string) error {
	cfg, err := s.settingsRepo.Get(ctx)
	if err != nil && !errors.Is(err, settings.ErrNotFound) {
		return fmt.Errorf("failed to get system config: %w", err)
	}
	if !cfg.HasGroup() {
		return ErrGroupNotConfigured
	}
	if err := s.client.SendMessage(cfg.GroupChatID, text, nil); err != nil {
		return fmt.Errorf("failed to forward message to group: %w", err)
	}
	return nil
}
