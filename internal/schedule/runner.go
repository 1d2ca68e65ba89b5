// Package schedule wraps the replication engine for recurring execution: a
// child process with a wall-clock timeout, an execution-history log, optional
// email notification, and a daily cron daemon.
package schedule

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"

	"starmirror/internal/ui"
	"starmirror/pkg/models"
)

// Outcome classifies one wrapped replication run.
type Outcome string

const (
	OutcomeSuccess   Outcome = "SUCCESS"
	OutcomeError     Outcome = "ERROR"
	OutcomeTimeout   Outcome = "TIMEOUT"
	OutcomeException Outcome = "EXCEPTION"
)

// ExecutionRecord is one entry of the execution-history log, the scheduler's
// view of a child replication run.
type ExecutionRecord struct {
	Timestamp       string  `json:"timestamp"`
	DurationSeconds float64 `json:"duration_seconds"`
	ReturnCode      int     `json:"return_code"`
	Stdout          string  `json:"stdout"`
	Stderr          string  `json:"stderr"`
	Success         bool    `json:"success"`
	Outcome         Outcome `json:"outcome"`
}

// Runner executes one replication run as a child process under a timeout.
// The core itself is not cancellable mid-flight; exceeding the ceiling
// abandons the child and records the run as TIMEOUT.
type Runner struct {
	cfg      models.Scheduler
	command  []string
	notifier *Notifier
	ui       *ui.UI
}

// NewRunner creates a runner that executes command (program plus arguments)
// for each job.
func NewRunner(cfg models.Scheduler, command []string, ui *ui.UI) *Runner {
	return &Runner{
		cfg:      cfg,
		command:  command,
		notifier: NewNotifier(cfg.Notifications, ui),
		ui:       ui,
	}
}

// RunJob executes one child run, appends it to the history log, and
// dispatches a notification keyed on the outcome.
func (r *Runner) RunJob(ctx context.Context) ExecutionRecord {
	timeout, err := time.ParseDuration(r.cfg.Timeout)
	if err != nil || timeout <= 0 {
		timeout = time.Hour
	}

	start := time.Now()
	r.ui.Info("Starting scheduled replication run")

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, r.command[0], r.command[1:]...) // #nosec G204 - command is self-invocation
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	record := ExecutionRecord{
		Timestamp:       start.Format(time.RFC3339),
		DurationSeconds: time.Since(start).Seconds(),
		Stdout:          stdout.String(),
		Stderr:          stderr.String(),
	}

	var exitErr *exec.ExitError
	switch {
	case runCtx.Err() == context.DeadlineExceeded:
		record.Outcome = OutcomeTimeout
		record.ReturnCode = -1
		record.Stderr = "timeout after " + timeout.String()
		r.ui.Error("Replication run exceeded the %s ceiling", timeout)
	case runErr == nil:
		record.Outcome = OutcomeSuccess
		record.Success = true
		r.ui.Success("Replication run completed in %.1fs", record.DurationSeconds)
	case errors.As(runErr, &exitErr):
		record.Outcome = OutcomeError
		record.ReturnCode = exitErr.ExitCode()
		r.ui.Error("Replication run failed with exit code %d", record.ReturnCode)
	default:
		// The child never ran (missing binary, fork failure, ...)
		record.Outcome = OutcomeException
		record.ReturnCode = -1
		record.Stderr = runErr.Error()
		r.ui.Error("Failed to execute replication run: %v", runErr)
	}

	if err := AppendHistory(r.cfg.HistoryFile, record); err != nil {
		r.ui.Warning("Failed to save execution history: %v", err)
	}
	if err := r.notifier.Send(record); err != nil {
		r.ui.Warning("Failed to send notification: %v", err)
	}
	return record
}
