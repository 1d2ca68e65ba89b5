package replicate

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"starmirror/internal/ui"
	"starmirror/pkg/errors"
)

const insertControlSQL = `INSERT INTO etl_control
		(table_name, last_update, records_processed, execution_time_seconds, status, error_message)
		VALUES (?, ?, ?, ?, ?, ?)`

// Loader replaces target table contents with extracted datasets.
type Loader struct {
	target *sql.DB
	ui     *ui.UI
}

// NewLoader creates a loader for the target handle.
func NewLoader(target *sql.DB, ui *ui.UI) *Loader {
	return &Loader{target: target, ui: ui}
}

// Load replaces the entire contents of the target table with the dataset:
// delete all rows, bulk-insert the dataset, append a SUCCESS control record,
// commit — all in one transaction, so a failed insert rolls back the delete
// and the table's prior contents survive. On failure an ERROR control record
// is written in a separate, independently committed transaction.
func (l *Loader) Load(ctx context.Context, table string, dataset *Dataset) LoadOutcome {
	start := time.Now()
	err := l.replaceAll(ctx, table, dataset, start)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		l.ui.Error("Failed to load %s: %v", table, err)
		l.RecordError(ctx, table, err)
		return LoadOutcome{Table: table, Seconds: elapsed, Status: StatusError, Error: err.Error()}
	}

	l.ui.Success("Loaded %d records into %s (%.2fs)", dataset.Len(), table, elapsed)
	return LoadOutcome{Table: table, Records: dataset.Len(), Seconds: elapsed, Status: StatusSuccess}
}

func (l *Loader) replaceAll(ctx context.Context, table string, dataset *Dataset, start time.Time) error {
	tx, err := l.target.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSQLTransaction, "Failed to begin transaction")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return errors.LoadError(table, err)
	}

	stmt, err := tx.PrepareContext(ctx, insertSQL(table, dataset.Columns))
	if err != nil {
		return errors.LoadError(table, err)
	}
	defer stmt.Close()

	for _, row := range dataset.Rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return errors.LoadError(table, err)
		}
	}

	record := ControlRecord{
		TableName:        table,
		LastUpdate:       time.Now(),
		RecordsProcessed: dataset.Len(),
		ExecutionTime:    time.Since(start).Seconds(),
		Status:           StatusSuccess,
	}
	if err := insertControl(ctx, tx, record); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.ErrCodeSQLTransaction, "Failed to commit transaction")
	}
	committed = true
	return nil
}

// RecordError appends an ERROR control record outside any data transaction,
// so the ledger survives a rolled-back load. Best effort: a ledger write
// failure is logged but cannot mask the original error.
func (l *Loader) RecordError(ctx context.Context, table string, cause error) {
	record := ControlRecord{
		TableName:    table,
		LastUpdate:   time.Now(),
		Status:       StatusError,
		ErrorMessage: cause.Error(),
	}
	if err := insertControl(ctx, l.target, record); err != nil {
		l.ui.Warning("Failed to write control record for %s: %v", table, err)
	}
}

// execer covers *sql.DB and *sql.Tx for control-ledger writes.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func insertControl(ctx context.Context, db execer, record ControlRecord) error {
	var errMsg interface{}
	if record.ErrorMessage != "" {
		errMsg = record.ErrorMessage
	}
	_, err := db.ExecContext(ctx, insertControlSQL,
		record.TableName,
		record.LastUpdate.Format(time.RFC3339),
		record.RecordsProcessed,
		record.ExecutionTime,
		string(record.Status),
		errMsg,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeControlWrite, "Failed to append control record").
			WithContext("table", record.TableName)
	}
	return nil
}

func insertSQL(table string, columns []string) string {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), placeholders)
}
