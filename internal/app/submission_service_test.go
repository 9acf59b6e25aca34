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

var submitNow = time.Date(2025, 1, 15, 21, 30, 0, 0, week.Location())

func newSubmitRequest() *SubmitRequest {
	return &SubmitRequest{
		WeekID:      "2025-01-20",
		UserID:      "u1",
		DisplayName: "Alice",
		Slots:       schedule.Slots{"2025-01-20:09": true, "2025-01-25:allday": true},
		Notes:       schedule.Notes{"2025-01-20": "遅れるかも"},
	}
}

func newSubmissionService(inputs *mockInputRepo, cfg *settings.SystemConfig, client *mockClient) *SubmissionService {
	return NewSubmissionService(inputs, &mockSettingsRepo{cfg: cfg}, client, testLinks, testLogger())
}

func TestSubmitFirstEntry(t *testing.T) {
	inputs := newMockInputRepo()
	client := &mockClient{}
	svc := newSubmissionService(inputs, &settings.SystemConfig{GroupChatID: 99}, client)

	res, err := svc.Submit(context.Background(), newSubmitRequest(), submitNow)
	require.NoError(t, err)
	assert.Equal(t, &SubmitResult{IsNewEntry: true, Notified: true}, res)

	saved, err := inputs.Get(context.Background(), "2025-01-20", "u1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", saved.DisplayName)
	assert.Equal(t, submitNow, saved.SubmittedAt)
	assert.True(t, saved.Slots["2025-01-25:allday"])

	require.Len(t, client.sent, 1)
	assert.Equal(t, sentMessage{
		ChatID: 99,
		Text:   "来週の予定をAliceさんが更新しました。\n\n▼修正する場合はこちら\nhttps://family.example.com/dashboard.html?weekId=2025-01-20",
	}, client.sent[0])
}

func TestSubmitUnchangedResubmissionIsSilent(t *testing.T) {
	inputs := newMockInputRepo()
	client := &mockClient{}
	svc := newSubmissionService(inputs, &settings.SystemConfig{GroupChatID: 99}, client)
	ctx := context.Background()

	_, err := svc.Submit(ctx, newSubmitRequest(), submitNow)
	require.NoError(t, err)
	later := submitNow.Add(time.Hour)
	res, err := svc.Submit(ctx, newSubmitRequest(), later)
	require.NoError(t, err)

	assert.False(t, res.IsNewEntry)
	assert.Nil(t, res.Changes)
	assert.False(t, res.Notified)
	assert.Len(t, client.sent, 1)

	saved, _ := inputs.Get(ctx, "2025-01-20", "u1")
	assert.Equal(t, later, saved.SubmittedAt)
}

func TestSubmitChangedResubmission(t *testing.T) {
	inputs := newMockInputRepo()
	client := &mockClient{}
	svc := newSubmissionService(inputs, &settings.SystemConfig{GroupChatID: 99}, client)
	ctx := context.Background()

	_, err := svc.Submit(ctx, newSubmitRequest(), submitNow)
	require.NoError(t, err)

	req := newSubmitRequest()
	req.Slots = schedule.Slots{"2025-01-20:09": true, "2025-01-21:24": true}
	req.Notes = nil
	res, err := svc.Submit(ctx, req, submitNow)
	require.NoError(t, err)

	require.NotNil(t, res.Changes)
	assert.Equal(t, []string{"2025-01-21:24"}, res.Changes.AddedSlots)
	assert.Equal(t, []string{"2025-01-25:allday"}, res.Changes.RemovedSlots)
	assert.Equal(t, []schedule.NoteChange{{Date: "2025-01-20", OldNote: "遅れるかも", NewNote: ""}}, res.Changes.ChangedNotes)
	assert.True(t, res.Notified)
	assert.Len(t, client.sent, 2)

	saved, _ := inputs.Get(ctx, "2025-01-20", "u1")
	assert.NotNil(t, saved.Notes)
	assert.Empty(t, saved.Notes)
}

func TestSubmitWithoutGroupStillSaves(t *testing.T) {
	inputs := newMockInputRepo()
	client := &mockClient{}
	svc := newSubmissionService(inputs, nil, client)

	res, err := svc.Submit(context.Background(), newSubmitRequest(), submitNow)
	require.NoError(t, err)
	assert.True(t, res.IsNewEntry)
	assert.False(t, res.Notified)
	assert.Empty(t, client.sent)

	_, err = inputs.Get(context.Background(), "2025-01-20", "u1")
	assert.NoError(t, err)
}

func TestSubmitPushFailureDoesNotFail(t *testing.T) {
	inputs := newMockInputRepo()
	svc := newSubmissionService(inputs, &settings.SystemConfig{GroupChatID: 99}, &mockClient{err: errBoom})

	res, err := svc.Submit(context.Background(), newSubmitRequest(), submitNow)
	require.NoError(t, err)
	assert.False(t, res.Notified)
}

func TestSubmitValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *SubmitRequest)
	}{
		{"missing week", func(r *SubmitRequest) { r.WeekID = "" }},
		{"week not a monday", func(r *SubmitRequest) { r.WeekID = "2025-01-21" }},
		{"missing user", func(r *SubmitRequest) { r.UserID = "" }},
		{"missing display name", func(r *SubmitRequest) { r.DisplayName = "" }},
		{"nil slots", func(r *SubmitRequest) { r.Slots = nil }},
		{"slot outside week", func(r *SubmitRequest) { r.Slots = schedule.Slots{"2025-01-27:09": true} }},
		{"unknown token", func(r *SubmitRequest) { r.Slots = schedule.Slots{"2025-01-20:12": true} }},
		{"note outside week", func(r *SubmitRequest) { r.Notes = schedule.Notes{"2025-01-19": "x"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inputs := newMockInputRepo()
			client := &mockClient{}
			svc := newSubmissionService(inputs, &settings.SystemConfig{GroupChatID: 99}, client)
			req := newSubmitRequest()
			tt.mutate(req)

			_, err := svc.Submit(context.Background(), req, submitNow)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Empty(t, inputs.inputs)
			assert.Empty(t, client.sent)
		})
	}
}

func TestSubmitEmptySlotsAccepted(t *testing.T) {
	svc := newSubmissionService(newMockInputRepo(), nil, &mockClient{})
	req := newSubmitRequest()
	req.Slots = schedule.Slots{}
	req.Notes = nil

	_, err := svc.Submit(context.Background(), req, submitNow)
	assert.NoError(t, err)
}

func TestSubmitSaveError(t *testing.T) {
	inputs := newMockInputRepo()
	inputs.saveErr = errBoom
	client := &mockClient{}
	svc := newSubmissionService(inputs, &settings.SystemConfig{GroupChatID: 99}, client)

	_, err := svc.Submit(context.Background(), newSubmitRequest(), submitNow)
	assert.ErrorIs(t, err, errBoom)
	assert.Empty(t, client.sent)
}
