// Package replicate implements the replication engine: target schema
// provisioning, table-by-table extract and full-replace load, post-load
// validation, and the execution ledger (control table plus JSON report).
package replicate

import "time"

// Status is the outcome of one table-load attempt.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusError   Status = "ERROR"
)

// State is the orchestrator's position in a run.
type State string

const (
	StateInit        State = "INIT"
	StateConnected   State = "CONNECTED"
	StateSchemaReady State = "SCHEMA_READY"
	StateReplicating State = "REPLICATING"
	StateValidating  State = "VALIDATING"
	StateReported    State = "REPORTED"
	StateDone        State = "DONE"
	StateFailed      State = "FAILED"
)

// Dataset is the full contents of one source table, held in memory.
// Column order matches row value order.
type Dataset struct {
	Table   string
	Columns []string
	Rows    [][]interface{}
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.Rows)
}

// ControlRecord is one append-only row of the etl_control ledger, written at
// the end of every load attempt, failed ones included.
type ControlRecord struct {
	TableName        string
	LastUpdate       time.Time
	RecordsProcessed int
	ExecutionTime    float64
	Status           Status
	ErrorMessage     string
}

// LoadOutcome describes one table-load attempt in the run report.
type LoadOutcome struct {
	Table   string  `json:"table"`
	Records int     `json:"records"`
	Seconds float64 `json:"time"`
	Status  Status  `json:"status"`
	Error   string  `json:"error,omitempty"`
}

// TableCount holds the source/target row-count comparison for one table.
type TableCount struct {
	Source int64 `json:"source"`
	Target int64 `json:"target"`
	Match  bool  `json:"match"`
}

// OrphanCounts are fact rows whose dimension key resolves to no dimension row.
type OrphanCounts struct {
	SalesWithoutDate    int64 `json:"sales_without_date"`
	SalesWithoutProduct int64 `json:"sales_without_product"`
	SalesWithoutSegment int64 `json:"sales_without_segment"`
}

// FactMetrics are aggregate figures computed on the replicated fact table.
type FactMetrics struct {
	TotalRevenue float64 `json:"total_revenue"`
	TotalSales   int64   `json:"total_sales"`
	AvgSale      float64 `json:"avg_sale"`
}

// ValidationReport is the validator's result. Match is true only when every
// table's row counts agree; orphan counts are surfaced but do not flip it.
type ValidationReport struct {
	Tables  map[string]TableCount `json:"tables"`
	Orphans OrphanCounts          `json:"orphans"`
	Metrics FactMetrics           `json:"metrics"`
	Match   bool                  `json:"match"`
}

// RunReport is the immutable per-run snapshot persisted by the report emitter.
type RunReport struct {
	Timestamp             string            `json:"timestamp"`
	TotalTables           int               `json:"total_tables"`
	SuccessfulTables      int               `json:"successful_tables"`
	FailedTables          int               `json:"failed_tables"`
	TotalRecordsProcessed int               `json:"total_records_processed"`
	TotalExecutionTime    float64           `json:"total_execution_time"`
	TablesDetail          []LoadOutcome     `json:"tables_detail"`
	Validation            *ValidationReport `json:"validation,omitempty"`
}

// BuildReport assembles the run report from per-table outcomes.
func BuildReport(started time.Time, outcomes []LoadOutcome, validation *ValidationReport) *RunReport {
	report := &RunReport{
		Timestamp:    started.Format(time.RFC3339),
		TotalTables:  len(outcomes),
		TablesDetail: outcomes,
		Validation:   validation,
	}
	for _, o := range outcomes {
		report.TotalExecutionTime += o.Seconds
		if o.Status == StatusSuccess {
			report.SuccessfulTables++
			report.TotalRecordsProcessed += o.Records
		} else {
			report.FailedTables++
		}
	}
	return report
}
