package app

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
)

var (
	ErrValidation         = fmt.Errorf("validation failed")
	ErrAdminNotAuthorized = fmt.Errorf("performing user is not authorized as an admin")
	ErrGroupNotConfigured = fmt.Errorf("family group is not configured")
)

// Finalizer locks the current week's schedule. Implemented by FinalizationService.
type Finalizer interface {
	FinalizeCurrentWeek(ctx context.Context, now time.Time) (*FinalizeResult, error)
}

// Notifier pushes scheduled messages to the family group. Implemented by NotificationService.
type Notifier interface {
	NotifyFinalizedWeek(ctx context.Context, now time.Time) (NotifyStatus, error)
	SendReminder(ctx context.Context, now time.Time) (NotifyStatus, error)
}

// AdminIdentity resolves the admin's Telegram user id. It is consulted on every
// admin check so a rotated id takes effect without a restart. 0 means no admin.
type AdminIdentity interface {
	AdminID(ctx context.Context) (int64, error)
}

// StaticAdmin is an AdminIdentity with a fixed id.
type StaticAdmin int64

func (a StaticAdmin) AdminID(context.Context) (int64, error) { return int64(a), nil }

// Links builds the dashboard URLs embedded in outgoing messages.
type Links struct {
	BaseURL string
}

// Dashboard returns the dashboard URL, scoped to weekID when it is not empty.
func (l Links) Dashboard(weekID string) string {
	base := strings.TrimRight(l.BaseURL, "/") + "/dashboard.html"
	if weekID == "" {
		return base
	}
	return base + "?weekId=" + url.QueryEscape(weekID)
}

// AdminDashboard returns the dashboard URL in admin mode.
func (l Links) AdminDashboard() string {
	return l.Dashboard("") + "?mode=admin"
}
