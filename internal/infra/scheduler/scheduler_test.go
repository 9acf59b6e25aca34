package scheduler

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"family_schedule_bot/internal/app"
	"family_schedule_bot/internal/domain/week"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFinalizer struct {
	calls []time.Time
	err   error
}

func (f *fakeFinalizer) FinalizeCurrentWeek(ctx context.Context, now time.Time) (*app.FinalizeResult, error) {
	f.calls = append(f.calls, now)
	if _, ok := ctx.Deadline(); !ok {
		return nil, errors.New("no deadline")
	}
	if f.err != nil {
		return nil, f.err
	}
	return &app.FinalizeResult{WeekID: week.CurrentID(now), Status: app.FinalizeStatusFinalized}, nil
}

type fakeNotifier struct {
	notified int
	reminded int
	status   app.NotifyStatus
	err      error
}

func (f *fakeNotifier) NotifyFinalizedWeek(_ context.Context, _ time.Time) (app.NotifyStatus, error) {
	f.notified++
	return f.status, f.err
}

func (f *fakeNotifier) SendReminder(_ context.Context, _ time.Time) (app.NotifyStatus, error) {
	f.reminded++
	return f.status, f.err
}

var fixedNow = time.Date(2025, 1, 13, 0, 0, 0, 0, week.Location())

func newTestScheduler(f app.Finalizer, n app.Notifier) (*WeeklyScheduler, *test.Hook) {
	l, hook := test.NewNullLogger()
	l.SetOutput(io.Discard)
	s := NewWeeklyScheduler(f, n, Specs{Finalize: "0 0 * * 1", Notify: "0 6 * * 1", Reminder: "0 10 * * 5"}, logrus.NewEntry(l))
	s.now = func() time.Time { return fixedNow }
	return s, hook
}

func TestRunFinalize(t *testing.T) {
	f := &fakeFinalizer{}
	s, hook := newTestScheduler(f, &fakeNotifier{})

	s.runFinalize()
	require.Len(t, f.calls, 1)
	assert.Equal(t, fixedNow, f.calls[0])
	assert.Equal(t, "Finalization finished", hook.LastEntry().Message)
	assert.Equal(t, "2025-01-13", hook.LastEntry().Data["week_id"])
}

func TestRunFinalizeLogsError(t *testing.T) {
	s, hook := newTestScheduler(&fakeFinalizer{err: errors.New("db down")}, &fakeNotifier{})

	s.runFinalize()
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func TestRunNotifierJobs(t *testing.T) {
	n := &fakeNotifier{status: app.NotifyStatusSent}
	s, hook := newTestScheduler(&fakeFinalizer{}, n)

	s.runNotify()
	s.runReminder()
	assert.Equal(t, 1, n.notified)
	assert.Equal(t, 1, n.reminded)
	assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)

	n.status = app.NotifyStatusSkipped
	s.runNotify()
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)

	n.err = errors.New("telegram down")
	s.runReminder()
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func TestStartAndStop(t *testing.T) {
	s, _ := newTestScheduler(&fakeFinalizer{}, &fakeNotifier{})
	s.Start()
	assert.Len(t, s.cronEngine.Entries(), 3)
	s.Stop()
}
