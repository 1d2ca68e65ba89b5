package replicate

import (
	"context"
	"database/sql"
	"fmt"

	"starmirror/internal/ui"
	"starmirror/pkg/errors"
)

// Orphan queries: fact rows whose dimension key resolves to no dimension row.
// Left-join-and-filter-null against the target; the provisioned indexes on
// the fact table's key columns keep these cheap.
var orphanQueries = []struct {
	name  string
	query string
}{
	{"sales_without_date", `SELECT COUNT(*) FROM fact_sales fs
		LEFT JOIN dim_date dd ON fs.date_id = dd.dateid
		WHERE dd.dateid IS NULL`},
	{"sales_without_product", `SELECT COUNT(*) FROM fact_sales fs
		LEFT JOIN dim_product dp ON fs.product_id = dp.product_id
		WHERE dp.product_id IS NULL`},
	{"sales_without_segment", `SELECT COUNT(*) FROM fact_sales fs
		LEFT JOIN dim_customer_segment dcs ON fs.segment_id = dcs.segment_id
		WHERE dcs.segment_id IS NULL`},
}

const factMetricsSQL = `SELECT
		COALESCE(SUM(total_amount), 0) AS total_revenue,
		COUNT(*) AS total_sales,
		COALESCE(AVG(total_amount), 0) AS avg_sale
	FROM fact_sales`

// Validator compares the mirror against the source after all tables load.
type Validator struct {
	source *sql.DB
	target *sql.DB
	schema string
	ui     *ui.UI
}

// NewValidator creates a validator over both handles. schema qualifies
// source-side table names.
func NewValidator(source, target *sql.DB, schema string, ui *ui.UI) *Validator {
	return &Validator{source: source, target: target, schema: schema, ui: ui}
}

// Validate runs row-count parity per table, the three referential-integrity
// queries, and the fact-table metrics. Match is true only when every table's
// counts agree; a non-zero orphan count is surfaced as a warning and does not
// flip it.
func (v *Validator) Validate(ctx context.Context, tables []TableSpec) (*ValidationReport, error) {
	report := &ValidationReport{
		Tables: make(map[string]TableCount, len(tables)),
		Match:  true,
	}

	for _, table := range tables {
		sourceCount, err := v.count(ctx, v.source, v.qualify(table.Name))
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeValidationFailed,
				fmt.Sprintf("Failed to count source rows for %s", table.Name))
		}
		targetCount, err := v.count(ctx, v.target, table.Name)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeValidationFailed,
				fmt.Sprintf("Failed to count target rows for %s", table.Name))
		}

		match := sourceCount == targetCount
		report.Tables[table.Name] = TableCount{Source: sourceCount, Target: targetCount, Match: match}
		if match {
			v.ui.Success("%s: %d records (OK)", table.Name, sourceCount)
		} else {
			report.Match = false
			v.ui.Warning("%s: source=%d target=%d (MISMATCH)", table.Name, sourceCount, targetCount)
		}
	}

	orphans := []*int64{
		&report.Orphans.SalesWithoutDate,
		&report.Orphans.SalesWithoutProduct,
		&report.Orphans.SalesWithoutSegment,
	}
	for i, oq := range orphanQueries {
		count, err := v.scalar(ctx, v.target, oq.query)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeValidationFailed,
				fmt.Sprintf("Integrity query %s failed", oq.name))
		}
		*orphans[i] = count
		if count > 0 {
			v.ui.Warning("%s = %d", oq.name, count)
		}
	}

	if err := v.target.QueryRowContext(ctx, factMetricsSQL).Scan(
		&report.Metrics.TotalRevenue,
		&report.Metrics.TotalSales,
		&report.Metrics.AvgSale,
	); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidationFailed, "Failed to compute fact metrics")
	}
	v.ui.Info("Target metrics: revenue=%.2f sales=%d avg=%.2f",
		report.Metrics.TotalRevenue, report.Metrics.TotalSales, report.Metrics.AvgSale)

	return report, nil
}

func (v *Validator) count(ctx context.Context, db *sql.DB, table string) (int64, error) {
	return v.scalar(ctx, db, "SELECT COUNT(*) FROM "+table)
}

func (v *Validator) scalar(ctx context.Context, db *sql.DB, query string) (int64, error) {
	var n int64
	if err := db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (v *Validator) qualify(table string) string {
	if v.schema == "" {
		return table
	}
	return fmt.Sprintf("%s.%s", v.schema, table)
}
