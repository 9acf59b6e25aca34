// Command maintenance runs one-shot repair jobs against the schedule database.
//
//	maintenance finalize-week <weekId>
//	maintenance finalize-missing
//	maintenance recalculate
//	maintenance rebuild-totals
//	maintenance check-cumulative
//	maintenance delete-week <weekId>...
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"family_schedule_bot/internal/app"
	"family_schedule_bot/internal/infra/config"
	idb "family_schedule_bot/internal/infra/database"
	"family_schedule_bot/internal/infra/logger"

	"github.com/sirupsen/logrus"
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `usage: %s [flags] <command> [args]

commands:
  finalize-week <weekId>     finalize one week without touching totals
  finalize-missing           finalize past weeks that have inputs but no finalized record
  recalculate                recompute points of every finalized week
  rebuild-totals             rebuild cumulative totals from finalized weeks
  check-cumulative           compare stored totals with finalized weeks
  delete-week <weekId>...    delete all inputs of the given weeks

flags:
`, os.Args[0])
	flag.PrintDefaults()
}

func main() {
	timeout := flag.Duration("timeout", 5*time.Minute, "overall deadline for the command")
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("Could not load application configuration: %v", err)
	}
	logger.Init(cfg)
	log := logger.Component("maintenance")

	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("Could not connect to database")
	}
	defer db.Close()
	if err := idb.RunMigrations(db, log); err != nil {
		log.WithError(err).Fatal("Could not migrate database")
	}

	inputRepo := idb.NewPostgresInputRepository(db)
	finalizedRepo := idb.NewPostgresFinalizedRepository(db)
	pointsRepo := idb.NewPostgresPointsRepository(db)

	serviceLogger := logrus.NewEntry(logger.Get())
	links := app.Links{BaseURL: cfg.DashboardBaseURL}
	finalizer := app.NewFinalizationService(inputRepo, finalizedRepo, pointsRepo, links, serviceLogger)
	maintenance := app.NewMaintenanceService(inputRepo, finalizedRepo, pointsRepo, finalizer, serviceLogger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, flag.Args(), finalizer, maintenance, log); err != nil {
		log.WithError(err).Error("Command failed")
		cancel()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, finalizer *app.FinalizationService, m *app.MaintenanceService, log *logrus.Entry) error {
	now := time.Now()
	cmd, rest := args[0], args[1:]

	switch cmd {
	case "finalize-week":
		if len(rest) != 1 {
			return fmt.Errorf("finalize-week takes exactly one week id")
		}
		res, err := finalizer.FinalizeWeek(ctx, rest[0], now)
		if err != nil {
			return err
		}
		log.WithFields(logrus.Fields{
			"week_id":      res.WeekID,
			"status":       res.Status,
			"version":      res.Version,
			"participants": res.Participants,
			"rolled_up":    res.RolledUp,
		}).Info("Week finalized")

	case "finalize-missing":
		results, err := m.FinalizeMissing(ctx, now)
		if err != nil {
			return err
		}
		for _, res := range results {
			log.WithFields(logrus.Fields{"week_id": res.WeekID, "status": res.Status}).Info("Finalized missing week")
		}
		log.WithField("count", len(results)).Info("finalize-missing done; run rebuild-totals to refresh totals")

	case "recalculate":
		diffs, err := m.Recalculate(ctx, now)
		if err != nil {
			return err
		}
		changed := 0
		for _, d := range diffs {
			if !d.Changed() {
				continue
			}
			changed++
			log.WithFields(logrus.Fields{
				"week_id": d.WeekID,
				"user_id": d.UserID,
				"old":     d.Old.TotalPoints,
				"new":     d.New.TotalPoints,
			}).Info("Points changed")
		}
		log.WithFields(logrus.Fields{"entries": len(diffs), "changed": changed}).Info("recalculate done")

	case "rebuild-totals":
		totals, err := m.RebuildTotals(ctx, now)
		if err != nil {
			return err
		}
		for _, t := range totals {
			log.WithFields(logrus.Fields{
				"user_id":      t.UserID,
				"total":        t.TotalPoints,
				"last_updated": t.LastUpdatedWeek,
			}).Info("Total rebuilt")
		}

	case "check-cumulative":
		report, err := m.CheckCumulative(ctx)
		if err != nil {
			return err
		}
		for _, w := range report.Weeks {
			log.WithFields(logrus.Fields{"week_id": w.WeekID, "participants": len(w.Breakdown)}).Info("Finalized week")
		}
		if len(report.Mismatches) == 0 {
			log.Info("Stored totals match finalized weeks")
			break
		}
		for _, msg := range report.Mismatches {
			log.Warn(msg)
		}
		return fmt.Errorf("%d cumulative mismatches", len(report.Mismatches))

	case "delete-week":
		if len(rest) == 0 {
			return fmt.Errorf("delete-week takes at least one week id")
		}
		for _, weekID := range rest {
			n, err := m.DeleteWeek(ctx, weekID)
			if err != nil {
				return err
			}
			log.WithFields(logrus.Fields{"week_id": weekID, "deleted": n}).Info("Week inputs deleted")
		}

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}
