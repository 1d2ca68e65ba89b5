package replicate

import (
	"fmt"

	"starmirror/pkg/errors"
)

// TableSpec declares one replicated table: its name, the columns the seeder
// and provisioner know about, and the tables it references. The replication
// path itself is generic; per-table behavior is configuration, not code.
type TableSpec struct {
	Name      string
	Columns   []string
	DependsOn []string
}

// DefaultTables is the star schema in declaration order: dimensions first,
// then the fact table that references them.
func DefaultTables() []TableSpec {
	return []TableSpec{
		{
			Name: "dim_date",
			Columns: []string{
				"dateid", "date", "year", "quarter", "quarter_name",
				"month", "month_name", "day", "weekday", "weekday_name",
			},
		},
		{
			Name:    "dim_customer_segment",
			Columns: []string{"segment_id", "city"},
		},
		{
			Name:    "dim_product",
			Columns: []string{"product_id", "product_type"},
		},
		{
			Name: "fact_sales",
			Columns: []string{
				"sales_id", "date_id", "product_id", "segment_id",
				"price_per_unit", "quantity_sold", "total_amount",
			},
			DependsOn: []string{"dim_date", "dim_customer_segment", "dim_product"},
		},
	}
}

// OrderTables validates that the declared order satisfies every dependency:
// a table may only depend on tables that precede it. Returns the specs
// unchanged when valid.
func OrderTables(specs []TableSpec) ([]TableSpec, error) {
	seen := make(map[string]bool, len(specs))
	for _, spec := range specs {
		if seen[spec.Name] {
			return nil, errors.New(errors.ErrCodeTableOrder,
				fmt.Sprintf("table %s declared twice", spec.Name))
		}
		for _, dep := range spec.DependsOn {
			if !seen[dep] {
				return nil, errors.New(errors.ErrCodeTableOrder,
					fmt.Sprintf("table %s depends on %s, which does not precede it", spec.Name, dep)).
					WithContext("table", spec.Name).
					WithContext("dependency", dep)
			}
		}
		seen[spec.Name] = true
	}
	return specs, nil
}
