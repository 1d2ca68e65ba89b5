package replicate

import (
	"context"
	"database/sql"
	"time"

	"starmirror/internal/db"
	"starmirror/internal/ui"
	"starmirror/pkg/models"
)

// Orchestrator sequences one full replication run:
// provisioning, ordered table replication, validation, report.
//
// State machine:
//
//	INIT -> CONNECTED -> SCHEMA_READY -> REPLICATING -> VALIDATING -> REPORTED -> DONE|FAILED
//
// Connection and schema failures are fatal; a table failure is recorded and
// the loop continues. Validation only runs when every load succeeded. A
// report is produced on every path that reaches CONNECTED.
type Orchestrator struct {
	cfg    *models.Config
	ui     *ui.UI
	tables []TableSpec
	state  State
}

// NewOrchestrator creates an orchestrator over the default star schema.
func NewOrchestrator(cfg *models.Config, ui *ui.UI) *Orchestrator {
	return &Orchestrator{
		cfg:    cfg,
		ui:     ui,
		tables: DefaultTables(),
		state:  StateInit,
	}
}

// State returns the orchestrator's current state.
func (o *Orchestrator) State() State {
	return o.state
}

// Run executes one full replication and reports overall success. It owns both
// connections for the run's duration and closes them on every exit path.
func (o *Orchestrator) Run(ctx context.Context) bool {
	o.state = StateInit
	o.ui.Printf("=== Starting full replication ===\n")

	source, err := db.OpenSource(o.cfg.Source)
	if err != nil {
		o.ui.Error("Source connection failed: %v", err)
		o.state = StateFailed
		return false
	}
	defer db.Close(source)

	target, err := db.OpenTarget(o.cfg.Target)
	if err != nil {
		o.ui.Error("Target connection failed: %v", err)
		o.state = StateFailed
		return false
	}
	defer db.Close(target)

	o.state = StateConnected
	return o.run(ctx, source, target)
}

// run drives the replication over already-opened handles.
func (o *Orchestrator) run(ctx context.Context, source, target *sql.DB) bool {
	started := time.Now()
	ok := true

	var outcomes []LoadOutcome
	var validation *ValidationReport

	if err := NewProvisioner(target, o.ui).EnsureSchema(ctx); err != nil {
		o.ui.Error("Schema provisioning failed: %v", err)
		ok = false
	} else {
		o.state = StateSchemaReady

		tables, err := OrderTables(o.tables)
		if err != nil {
			o.ui.Error("Invalid table order: %v", err)
			ok = false
		} else {
			o.state = StateReplicating
			outcomes = o.replicateTables(ctx, source, target, tables)
			for _, out := range outcomes {
				if out.Status != StatusSuccess {
					ok = false
				}
			}

			if ok {
				o.state = StateValidating
				validation, err = NewValidator(source, target, o.cfg.Source.Schema, o.ui).Validate(ctx, tables)
				if err != nil {
					o.ui.Error("Validation failed: %v", err)
					ok = false
				} else if !validation.Match {
					ok = false
				}
			}
		}
	}

	o.state = StateReported
	report := BuildReport(started, outcomes, validation)
	if _, err := NewEmitter(o.cfg.Replication.ReportDir, o.ui).Emit(report); err != nil {
		// Report write failure is logged but never changes the verdict
		o.ui.Warning("Failed to persist run report: %v", err)
	}

	elapsed := time.Since(started)
	if ok {
		o.state = StateDone
		o.ui.Success("=== Replication completed successfully (%s) ===", elapsed.Round(time.Millisecond))
	} else {
		o.state = StateFailed
		o.ui.Error("=== Replication completed with errors (%s) ===", elapsed.Round(time.Millisecond))
	}
	return ok
}

// replicateTables attempts every table in dependency order. A failed table is
// recorded and the loop continues to the remaining tables.
func (o *Orchestrator) replicateTables(ctx context.Context, source, target *sql.DB, tables []TableSpec) []LoadOutcome {
	extractor := NewExtractor(source, o.cfg.Source.Schema, o.ui)
	loader := NewLoader(target, o.ui)

	outcomes := make([]LoadOutcome, 0, len(tables))
	for _, table := range tables {
		o.ui.Info("Replicating %s", table.Name)

		dataset, err := extractor.Extract(ctx, table.Name)
		if err != nil {
			o.ui.Error("Failed to extract %s: %v", table.Name, err)
			// The attempt still goes into the ledger
			loader.RecordError(ctx, table.Name, err)
			outcomes = append(outcomes, LoadOutcome{
				Table:  table.Name,
				Status: StatusError,
				Error:  err.Error(),
			})
			continue
		}

		outcomes = append(outcomes, loader.Load(ctx, table.Name, dataset))
	}
	return outcomes
}
