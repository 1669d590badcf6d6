package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/measgrid/internal/ctxlog"
	"github.com/specialistvlad/measgrid/internal/executor"
	"github.com/specialistvlad/measgrid/internal/monitor"
	"github.com/specialistvlad/measgrid/internal/taskdb"
)

// Run builds a fresh database for the loaded measurement and performs it.
// When a report path is configured the report is written even if the
// measurement fails after the database was built.
func (a *App) Run(ctx context.Context) (err error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if _, err := a.startHealthcheckServer(); err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, a.closeHealthcheckServer())
	}()

	db := taskdb.New()
	mon := monitor.New(ctx)
	detach := mon.Attach(db)
	defer detach()

	exec := executor.New(a.registry, db, a.model)
	root, err := exec.Build(ctx)
	if err != nil {
		return fmt.Errorf("failed to build measurement: %w", err)
	}
	paths, err := db.ListAllEntries(taskdb.RootPath)
	if err != nil {
		return err
	}
	a.logger.Debug("Database built.", "entries", len(paths))

	if err := exec.Check(ctx, root); err != nil {
		return err
	}

	a.logger.Info("🚀 Starting measurement...")
	runErr := exec.Perform(ctx, root)
	if runErr == nil {
		a.logger.Info("🏁 Measurement finished.")
	}

	if a.config.ReportPath != "" && db.Running() {
		report, err := buildReport(db, paths, mon.Snapshot())
		if err == nil {
			err = writeReport(a.config.ReportPath, report)
		}
		if err != nil {
			return errors.Join(runErr, err)
		}
		a.logger.Info("Report written.", "path", a.config.ReportPath)
	}

	if runErr != nil {
		return fmt.Errorf("measurement failed: %w", runErr)
	}
	a.logger.Debug("App.Run method finished.")
	return nil
}
