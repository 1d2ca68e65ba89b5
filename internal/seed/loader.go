// Package seed populates the source database's star schema from CSV files.
// It is a one-shot utility run before the replication engine; the engine has
// no dependency on CSV formats.
package seed

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"starmirror/internal/ui"
	"starmirror/pkg/errors"
)

// Loader loads the DimDate, DimCustomerSegment, DimProduct and FactSales CSVs
// into the source schema, one transaction per table.
type Loader struct {
	source  *sql.DB
	dataDir string
	schema  string
	ui      *ui.UI
}

// NewLoader creates a seeding loader over the source handle.
func NewLoader(source *sql.DB, dataDir, schema string, ui *ui.UI) *Loader {
	return &Loader{source: source, dataDir: dataDir, schema: schema, ui: ui}
}

// RunFullLoad seeds all four tables, dimensions first, then validates the
// result. Any table failure aborts the load; nothing after it runs.
func (l *Loader) RunFullLoad(ctx context.Context) error {
	l.ui.Printf("=== Loading CSV data into source ===\n")

	steps := []func(context.Context) error{
		l.LoadDimDate,
		l.LoadDimCustomerSegment,
		l.LoadDimProduct,
		l.LoadFactSales,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			return err
		}
	}
	return l.Validate(ctx)
}

// LoadDimDate seeds the date dimension.
func (l *Loader) LoadDimDate(ctx context.Context) error {
	file, err := l.open("DimDate.csv", "DimDate (1).csv")
	if err != nil {
		return err
	}

	columns := []string{"dateid", "date", "year", "quarter", "quarter_name",
		"month", "month_name", "day", "weekday", "weekday_name"}
	rows := make([][]interface{}, 0, len(file.records))
	for _, record := range file.records {
		dateid, err := file.intField(record, "dateid")
		if err != nil {
			return err
		}
		date, err := file.field(record, "date")
		if err != nil {
			return err
		}
		year, err := file.intField(record, "year")
		if err != nil {
			return err
		}
		quarter, err := file.intField(record, "quarter")
		if err != nil {
			return err
		}
		quarterName, err := file.field(record, "quartername")
		if err != nil {
			return err
		}
		month, err := file.intField(record, "month")
		if err != nil {
			return err
		}
		monthName, err := file.field(record, "monthname")
		if err != nil {
			return err
		}
		day, err := file.intField(record, "day")
		if err != nil {
			return err
		}
		weekday, err := file.intField(record, "weekday")
		if err != nil {
			return err
		}
		weekdayName, err := file.field(record, "weekdayname")
		if err != nil {
			return err
		}
		rows = append(rows, []interface{}{dateid, date, year, quarter, quarterName,
			month, monthName, day, weekday, weekdayName})
	}

	return l.replaceTable(ctx, "dim_date", columns, rows)
}

// LoadDimCustomerSegment seeds the customer-segment dimension.
func (l *Loader) LoadDimCustomerSegment(ctx context.Context) error {
	file, err := l.open("DimCustomerSegment.csv")
	if err != nil {
		return err
	}

	rows := make([][]interface{}, 0, len(file.records))
	for _, record := range file.records {
		id, err := file.intField(record, "segmentid")
		if err != nil {
			return err
		}
		city, err := file.field(record, "city")
		if err != nil {
			return err
		}
		rows = append(rows, []interface{}{id, city})
	}

	return l.replaceTable(ctx, "dim_customer_segment", []string{"segment_id", "city"}, rows)
}

// LoadDimProduct seeds the product dimension.
func (l *Loader) LoadDimProduct(ctx context.Context) error {
	file, err := l.open("DimProduct.csv")
	if err != nil {
		return err
	}

	rows := make([][]interface{}, 0, len(file.records))
	for _, record := range file.records {
		id, err := file.intField(record, "productid")
		if err != nil {
			return err
		}
		productType, err := file.field(record, "producttype")
		if err != nil {
			return err
		}
		rows = append(rows, []interface{}{id, productType})
	}

	return l.replaceTable(ctx, "dim_product", []string{"product_id", "product_type"}, rows)
}

// LoadFactSales seeds the sales fact table. The total amount is computed as
// price × quantity with decimal arithmetic, never floats.
func (l *Loader) LoadFactSales(ctx context.Context) error {
	file, err := l.open("FactSales.csv")
	if err != nil {
		return err
	}

	columns := []string{"sales_id", "date_id", "product_id", "segment_id",
		"price_per_unit", "quantity_sold", "total_amount"}
	rows := make([][]interface{}, 0, len(file.records))
	for _, record := range file.records {
		salesID, err := file.field(record, "salesid")
		if err != nil {
			return err
		}
		dateID, err := file.intField(record, "dateid")
		if err != nil {
			return err
		}
		productID, err := file.intField(record, "productid")
		if err != nil {
			return err
		}
		segmentID, err := file.intField(record, "segmentid")
		if err != nil {
			return err
		}
		priceRaw, err := file.field(record, "price_perunit")
		if err != nil {
			return err
		}
		price, err := decimal.NewFromString(priceRaw)
		if err != nil || price.IsNegative() {
			return errors.New(errors.ErrCodeInvalidInput,
				fmt.Sprintf("invalid price %q for sale %s", priceRaw, salesID))
		}
		quantity, err := file.intField(record, "quantitysold")
		if err != nil {
			return err
		}
		if quantity <= 0 {
			return errors.New(errors.ErrCodeInvalidInput,
				fmt.Sprintf("invalid quantity %d for sale %s", quantity, salesID))
		}

		total := price.Mul(decimal.NewFromInt(int64(quantity)))
		rows = append(rows, []interface{}{salesID, dateID, productID, segmentID,
			price, quantity, total})
	}

	return l.replaceTable(ctx, "fact_sales", columns, rows)
}

// Validate counts each seeded table, reports orphaned fact rows, and prints
// the revenue metrics. Orphans are warnings; seeding still succeeds.
func (l *Loader) Validate(ctx context.Context) error {
	tables := []string{"dim_date", "dim_customer_segment", "dim_product", "fact_sales"}
	l.ui.Printf("=== Load summary ===\n")
	for _, table := range tables {
		var count int64
		if err := l.source.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+l.qualify(table)).Scan(&count); err != nil {
			return errors.Wrap(err, errors.ErrCodeValidationFailed, "Failed to count "+table)
		}
		l.ui.Info("%s: %d records", table, count)
	}

	orphanQueries := []struct {
		name  string
		query string
	}{
		{"sales without valid date", fmt.Sprintf(`SELECT COUNT(*) FROM %s fs
			LEFT JOIN %s dd ON fs.date_id = dd.dateid
			WHERE dd.dateid IS NULL`, l.qualify("fact_sales"), l.qualify("dim_date"))},
		{"sales without valid product", fmt.Sprintf(`SELECT COUNT(*) FROM %s fs
			LEFT JOIN %s dp ON fs.product_id = dp.product_id
			WHERE dp.product_id IS NULL`, l.qualify("fact_sales"), l.qualify("dim_product"))},
		{"sales without valid segment", fmt.Sprintf(`SELECT COUNT(*) FROM %s fs
			LEFT JOIN %s dcs ON fs.segment_id = dcs.segment_id
			WHERE dcs.segment_id IS NULL`, l.qualify("fact_sales"), l.qualify("dim_customer_segment"))},
	}
	for _, oq := range orphanQueries {
		var count int64
		if err := l.source.QueryRowContext(ctx, oq.query).Scan(&count); err != nil {
			return errors.Wrap(err, errors.ErrCodeValidationFailed, "Integrity query failed")
		}
		if count > 0 {
			l.ui.Warning("Found %d %s", count, oq.name)
		}
	}

	var revenue, avg float64
	var quantity int64
	metricsSQL := fmt.Sprintf(`SELECT
			COALESCE(SUM(total_amount), 0),
			COALESCE(AVG(total_amount), 0),
			COALESCE(SUM(quantity_sold), 0)
		FROM %s`, l.qualify("fact_sales"))
	if err := l.source.QueryRowContext(ctx, metricsSQL).Scan(&revenue, &avg, &quantity); err != nil {
		return errors.Wrap(err, errors.ErrCodeValidationFailed, "Failed to compute metrics")
	}
	l.ui.Info("Total revenue: %.2f", revenue)
	l.ui.Info("Average sale: %.2f", avg)
	l.ui.Info("Total quantity sold: %d", quantity)
	return nil
}

// replaceTable truncates the table and inserts all rows in one transaction.
func (l *Loader) replaceTable(ctx context.Context, table string, columns []string, rows [][]interface{}) error {
	tx, err := l.source.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSQLTransaction, "Failed to begin transaction")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	qualified := l.qualify(table)
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", qualified)); err != nil {
		return errors.LoadError(table, err)
	}

	stmt, err := tx.PrepareContext(ctx, pgInsertSQL(qualified, columns))
	if err != nil {
		return errors.LoadError(table, err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return errors.LoadError(table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.ErrCodeSQLTransaction, "Failed to commit transaction")
	}
	committed = true

	l.ui.Success("Loaded %d records into %s", len(rows), table)
	return nil
}

func (l *Loader) open(candidates ...string) (*csvFile, error) {
	path, err := findCSV(l.dataDir, candidates...)
	if err != nil {
		return nil, err
	}
	return readCSV(path)
}

func (l *Loader) qualify(table string) string {
	if l.schema == "" {
		return table
	}
	return l.schema + "." + table
}

// intField parses the named column as an integer.
func (c *csvFile) intField(record []string, name string) (int, error) {
	raw, err := c.field(record, name)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("column %s: %q is not an integer", name, raw))
	}
	return n, nil
}

// pgInsertSQL builds a PostgreSQL insert with $n placeholders.
func pgInsertSQL(table string, columns []string) string {
	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), strings.Join(placeholders, ", "))
}
