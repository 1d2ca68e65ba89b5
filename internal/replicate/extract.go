package replicate

import (
	"context"
	"database/sql"
	"fmt"

	"starmirror/internal/ui"
	"starmirror/pkg/errors"
)

// Extractor reads full source tables into memory.
type Extractor struct {
	source *sql.DB
	schema string
	ui     *ui.UI
}

// NewExtractor creates an extractor for the source handle. schema qualifies
// table names in source queries; empty means no qualifier.
func NewExtractor(source *sql.DB, schema string, ui *ui.UI) *Extractor {
	return &Extractor{source: source, schema: schema, ui: ui}
}

// Extract reads every row and column of the named table. The whole table is
// held in memory; dataset sizes are assumed to fit. On any read failure it
// returns an ExtractError and no partial dataset.
func (e *Extractor) Extract(ctx context.Context, table string) (*Dataset, error) {
	rows, err := e.source.QueryContext(ctx, "SELECT * FROM "+e.qualify(table))
	if err != nil {
		return nil, errors.ExtractError(table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.ExtractError(table, err)
	}

	dataset := &Dataset{Table: table, Columns: columns}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, errors.ExtractError(table, err)
		}
		// Drivers hand back []byte for text and numeric columns; store
		// strings so the target receives TEXT, not BLOB.
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		dataset.Rows = append(dataset.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.ExtractError(table, err)
	}

	e.ui.Info("Extracted %d records from %s", dataset.Len(), table)
	return dataset, nil
}

func (e *Extractor) qualify(table string) string {
	if e.schema == "" {
		return table
	}
	return fmt.Sprintf("%s.%s", e.schema, table)
}
