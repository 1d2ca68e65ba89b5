package schedule

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"

	"starmirror/internal/ui"
	apperrors "starmirror/pkg/errors"
)

// Daemon drives the runner once per day at the configured wall-clock time.
type Daemon struct {
	runner *Runner
	spec   string
	ui     *ui.UI
}

// NewDaemon validates the HH:MM schedule time and prepares a daemon around
// the runner.
func NewDaemon(runner *Runner, scheduleTime string, ui *ui.UI) (*Daemon, error) {
	spec, err := cronSpec(scheduleTime)
	if err != nil {
		return nil, err
	}
	return &Daemon{runner: runner, spec: spec, ui: ui}, nil
}

// Start blocks, firing a job at every scheduled tick, until ctx is
// cancelled.
func (d *Daemon) Start(ctx context.Context) error {
	c := cron.New()
	_, err := c.AddFunc(d.spec, func() {
		d.runner.RunJob(ctx)
	})
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeSchedulerFailed, "failed to register cron schedule").
			WithContext("spec", d.spec)
	}

	c.Start()
	d.ui.Info("Scheduler started, next run at %s", c.Entries()[0].Next.Format("2006-01-02 15:04"))

	<-ctx.Done()
	stopCtx := c.Stop()
	<-stopCtx.Done()
	d.ui.Info("Scheduler stopped")
	return nil
}

// cronSpec converts a daily "HH:MM" time to a five-field cron expression.
func cronSpec(scheduleTime string) (string, error) {
	parts := strings.SplitN(scheduleTime, ":", 2)
	invalid := func() error {
		return apperrors.New(apperrors.ErrCodeSchedulerFailed, "schedule time must be HH:MM").
			WithContext("time", scheduleTime).
			WithSuggestions("Set scheduler.time to a 24-hour value such as 02:00")
	}
	if len(parts) != 2 {
		return "", invalid()
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", invalid()
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", invalid()
	}
	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}
