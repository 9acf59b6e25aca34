package app

import (
	"context"
	"testing"
	"time"

	"family_schedule_bot/internal/domain/schedule"
	"family_schedule_bot/internal/domain/settings"
	"family_schedule_bot/internal/domain/week"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Monday 2025-01-13 06:00 JST.
var notifyNow = time.Date(2025, 1, 13, 6, 0, 0, 0, week.Location())

func TestNotifyFinalizedWeekSent(t *testing.T) {
	finalized := newMockFinalizedRepo()
	finalized.weeks["2025-01-13"] = &schedule.FinalizedWeek{WeekID: "2025-01-13", ScheduleText: "rendered text", Version: 3}
	client := &mockClient{}
	svc := NewNotificationService(finalized, &mockSettingsRepo{cfg: &settings.SystemConfig{GroupChatID: -100123}}, client, testLinks, testLogger())

	status, err := svc.NotifyFinalizedWeek(context.Background(), notifyNow)
	require.NoError(t, err)
	assert.Equal(t, NotifyStatusSent, status)
	assert.Equal(t, []sentMessage{{ChatID: -100123, Text: "rendered text"}}, client.sent)
}

func TestNotifyFinalizedWeekNotFound(t *testing.T) {
	client := &mockClient{}
	svc := NewNotificationService(newMockFinalizedRepo(), &mockSettingsRepo{cfg: &settings.SystemConfig{GroupChatID: 1}}, client, testLinks, testLogger())

	status, err := svc.NotifyFinalizedWeek(context.Background(), notifyNow)
	require.NoError(t, err)
	assert.Equal(t, NotifyStatusNotFound, status)
	assert.Empty(t, client.sent)
}

func TestNotifyFinalizedWeekSkippedWithoutGroup(t *testing.T) {
	finalized := newMockFinalizedRepo()
	finalized.weeks["2025-01-13"] = &schedule.FinalizedWeek{WeekID: "2025-01-13", ScheduleText: "text"}

	for name, repo := range map[string]*mockSettingsRepo{
		"no config":   {},
		"empty group": {cfg: &settings.SystemConfig{AdminUserID: 42}},
	} {
		t.Run(name, func(t *testing.T) {
			client := &mockClient{}
			svc := NewNotificationService(finalized, repo, client, testLinks, testLogger())

			status, err := svc.NotifyFinalizedWeek(context.Background(), notifyNow)
			require.NoError(t, err)
			assert.Equal(t, NotifyStatusSkipped, status)
			assert.Empty(t, client.sent)
		})
	}
}

func TestNotifyFinalizedWeekFailures(t *testing.T) {
	finalized := newMockFinalizedRepo()
	finalized.weeks["2025-01-13"] = &schedule.FinalizedWeek{WeekID: "2025-01-13", ScheduleText: "text"}

	svc := NewNotificationService(finalized, &mockSettingsRepo{cfg: &settings.SystemConfig{GroupChatID: 1}}, &mockClient{err: errBoom}, testLinks, testLogger())
	_, err := svc.NotifyFinalizedWeek(context.Background(), notifyNow)
	assert.ErrorIs(t, err, errBoom)

	svc = NewNotificationService(finalized, &mockSettingsRepo{getErr: errBoom}, &mockClient{}, testLinks, testLogger())
	_, err = svc.NotifyFinalizedWeek(context.Background(), notifyNow)
	assert.ErrorIs(t, err, errBoom)
}

func TestSendReminder(t *testing.T) {
	client := &mockClient{}
	svc := NewNotificationService(newMockFinalizedRepo(), &mockSettingsRepo{cfg: &settings.SystemConfig{GroupChatID: 7}}, client, testLinks, testLogger())

	// Friday 2025-01-17 10:00 JST asks for the week of 2025-01-20.
	status, err := svc.SendReminder(context.Background(), time.Date(2025, 1, 17, 10, 0, 0, 0, week.Location()))
	require.NoError(t, err)
	assert.Equal(t, NotifyStatusSent, status)
	require.Len(t, client.sent, 1)
	assert.Equal(t, int64(7), client.sent[0].ChatID)
	assert.Equal(t,
		"【リマインド】\n来週（1/20(月)〜1/26(日)）の予定入力をお忘れなく！\nまだの方は早めにお願いします🙏\n\n▼管理ページ（入力・確認・調整）\nhttps://family.example.com/dashboard.html?weekId=2025-01-20",
		client.sent[0].Text)
}

func TestSendReminderSkippedWithoutGroup(t *testing.T) {
	client := &mockClient{}
	svc := NewNotificationService(newMockFinalizedRepo(), &mockSettingsRepo{}, client, testLinks, testLogger())

	status, err := svc.SendReminder(context.Background(), notifyNow)
	require.NoError(t, err)
	assert.Equal(t, NotifyStatusSkipped, status)
	assert.Empty(t, client.sent)
}
