package replicate

import (
	"context"
	"database/sql"

	"starmirror/internal/ui"
	"starmirror/pkg/errors"
)

// targetSchemaStatements provision the mirror schema in dependency order:
// dimensions, fact table, control ledger, then the fact-table indexes the
// validator's integrity queries lean on. Every statement is IF NOT EXISTS, so
// re-running after a partial failure completes the rest.
var targetSchemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS dim_date (
		dateid INTEGER PRIMARY KEY,
		date TEXT NOT NULL,
		year INTEGER NOT NULL,
		quarter INTEGER NOT NULL,
		quarter_name TEXT NOT NULL,
		month INTEGER NOT NULL,
		month_name TEXT NOT NULL,
		day INTEGER NOT NULL,
		weekday INTEGER NOT NULL,
		weekday_name TEXT NOT NULL,
		created_at TEXT DEFAULT CURRENT_TIMESTAMP,
		updated_at TEXT DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS dim_customer_segment (
		segment_id INTEGER PRIMARY KEY,
		city TEXT NOT NULL,
		created_at TEXT DEFAULT CURRENT_TIMESTAMP,
		updated_at TEXT DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS dim_product (
		product_id INTEGER PRIMARY KEY,
		product_type TEXT NOT NULL,
		created_at TEXT DEFAULT CURRENT_TIMESTAMP,
		updated_at TEXT DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS fact_sales (
		sales_id TEXT PRIMARY KEY,
		date_id INTEGER NOT NULL,
		product_id INTEGER NOT NULL,
		segment_id INTEGER NOT NULL,
		price_per_unit REAL NOT NULL,
		quantity_sold INTEGER NOT NULL,
		total_amount REAL NOT NULL,
		created_at TEXT DEFAULT CURRENT_TIMESTAMP,
		updated_at TEXT DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (date_id) REFERENCES dim_date(dateid),
		FOREIGN KEY (product_id) REFERENCES dim_product(product_id),
		FOREIGN KEY (segment_id) REFERENCES dim_customer_segment(segment_id)
	)`,
	`CREATE TABLE IF NOT EXISTS etl_control (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		table_name TEXT NOT NULL,
		last_update TEXT NOT NULL,
		records_processed INTEGER NOT NULL,
		execution_time_seconds REAL NOT NULL,
		status TEXT NOT NULL,
		error_message TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_date ON fact_sales(date_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_product ON fact_sales(product_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_segment ON fact_sales(segment_id)`,
}

// Provisioner creates the target's tables and indexes.
type Provisioner struct {
	target *sql.DB
	ui     *ui.UI
}

// NewProvisioner creates a provisioner for the target handle.
func NewProvisioner(target *sql.DB, ui *ui.UI) *Provisioner {
	return &Provisioner{target: target, ui: ui}
}

// EnsureSchema provisions the mirror schema. Idempotent: a fully provisioned
// target is a no-op. Statements are not wrapped in one transaction; tables
// created before a failure stay in place and a rerun finishes the remainder.
func (p *Provisioner) EnsureSchema(ctx context.Context) error {
	for _, stmt := range targetSchemaStatements {
		if _, err := p.target.ExecContext(ctx, stmt); err != nil {
			return errors.SchemaError("Failed to provision target schema", stmt, err)
		}
	}
	p.ui.Success("Target schema ready")
	return nil
}
