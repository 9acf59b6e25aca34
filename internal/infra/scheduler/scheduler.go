package scheduler

import (
	"context"
	"time"

	"family_schedule_bot/internal/app"
	"family_schedule_bot/internal/domain/week"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const (
	finalizeTimeout = 2 * time.Minute
	notifyTimeout   = 1 * time.Minute
)

// Specs holds the cron expressions of the weekly jobs, evaluated in Asia/Tokyo.
type Specs struct {
	Finalize string // e.g. "0 0 * * 1" (Monday 00:00)
	Notify   string // e.g. "0 6 * * 1" (Monday 06:00)
	Reminder string // e.g. "0 10 * * 5" (Friday 10:00)
}

type WeeklyScheduler struct {
	cronEngine *cron.Cron
	finalizer  app.Finalizer
	notifier   app.Notifier
	specs      Specs
	now        func() time.Time
	logger     *logrus.Entry
}

func NewWeeklyScheduler(finalizer app.Finalizer, notifier app.Notifier, specs Specs, logger *logrus.Entry) *WeeklyScheduler {
	return &WeeklyScheduler{
		cronEngine: cron.New(cron.WithLocation(week.Location())),
		finalizer:  finalizer,
		notifier:   notifier,
		specs:      specs,
		now:        time.Now,
		logger:     logger.WithField("component", "scheduler"),
	}
}

// Start registers the jobs and starts the cron engine. An invalid spec is fatal.
func (s *WeeklyScheduler) Start() {
	s.logger.Info("Starting weekly scheduler...")

	jobs := []struct {
		name string
		spec string
		run  func()
	}{
		{"finalize", s.specs.Finalize, s.runFinalize},
		{"notify", s.specs.Notify, s.runNotify},
		{"reminder", s.specs.Reminder, s.runReminder},
	}
	for _, job := range jobs {
		if _, err := s.cronEngine.AddFunc(job.spec, job.run); err != nil {
			s.logger.WithError(err).WithField("job", job.name).Fatal("Could not add cron job")
		}
		s.logger.WithFields(logrus.Fields{"job": job.name, "spec": job.spec}).Info("Cron job registered")
	}

	s.cronEngine.Start()
	s.logger.Info("Weekly scheduler started with jobs.")
}

func (s *WeeklyScheduler) runFinalize() {
	now := s.now()
	log := s.logger.WithFields(logrus.Fields{"job": "finalize", "week_id": week.CurrentID(now)})
	log.Info("Cron job triggered")

	ctx, cancel := context.WithTimeout(context.Background(), finalizeTimeout)
	defer cancel()
	res, err := s.finalizer.FinalizeCurrentWeek(ctx, now)
	if err != nil {
		log.WithError(err).Error("Finalization failed")
		return
	}
	log.WithFields(logrus.Fields{"status": res.Status, "participants": res.Participants}).Info("Finalization finished")
}

func (s *WeeklyScheduler) runNotify() {
	s.runNotifier("notify", s.notifier.NotifyFinalizedWeek)
}

func (s *WeeklyScheduler) runReminder() {
	s.runNotifier("reminder", s.notifier.SendReminder)
}

func (s *WeeklyScheduler) runNotifier(job string, fn func(context.Context, time.Time) (app.NotifyStatus, error)) {
	now := s.now()
	log := s.logger.WithField("job", job)
	log.Info("Cron job triggered")

	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()
	status, err := fn(ctx, now)
	if err != nil {
		log.WithError(err).Error("Notification job failed")
		return
	}
	if status != app.NotifyStatusSent {
		log.WithField("status", status).Warn("Notification job did not send")
		return
	}
	log.WithField("status", status).Info("Notification job finished")
}

func (s *WeeklyScheduler) Stop() {
	s.logger.Info("Stopping weekly scheduler...")
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()
	s.logger.Info("Weekly scheduler gracefully stopped.")
}
