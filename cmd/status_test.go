package cmd

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"starmirror/internal/db"
	"starmirror/internal/replicate"
	"starmirror/internal/ui"
	"starmirror/pkg/models"
)

// The ledger query must stay aligned with the provisioned etl_control DDL,
// so it is exercised here against a mirror built by EnsureSchema rather
// than a mocked schema.
func TestReadControlLedgerAgainstProvisionedSchema(t *testing.T) {
	ctx := context.Background()
	target, err := db.OpenTarget(models.Target{
		Database: filepath.Join(t.TempDir(), "mirror.db"),
	})
	require.NoError(t, err)
	defer db.Close(target)

	quiet := ui.NewWriter(io.Discard, false, false)
	require.NoError(t, replicate.NewProvisioner(target, quiet).EnsureSchema(ctx))

	// Empty ledger reads cleanly.
	ledger, err := readControlLedger(ctx, target, 10)
	require.NoError(t, err)
	assert.Empty(t, ledger)

	_, err = target.ExecContext(ctx,
		"INSERT INTO etl_control (table_name, last_update, records_processed, execution_time_seconds, status, error_message) "+
			"VALUES (?, ?, ?, ?, ?, ?)",
		"dim_date", "2026-08-26T02:00:05Z", 3653, 0.42, "SUCCESS", nil)
	require.NoError(t, err)
	_, err = target.ExecContext(ctx,
		"INSERT INTO etl_control (table_name, last_update, records_processed, execution_time_seconds, status, error_message) "+
			"VALUES (?, ?, ?, ?, ?, ?)",
		"fact_sales", "2026-08-26T02:00:09Z", 0, 1.05, "ERROR", "connection reset")
	require.NoError(t, err)

	ledger, err = readControlLedger(ctx, target, 10)
	require.NoError(t, err)
	require.Len(t, ledger, 2)

	// Newest first.
	assert.Equal(t, "fact_sales", ledger[0].Table)
	assert.Equal(t, "ERROR", ledger[0].Status)
	assert.Equal(t, "connection reset", ledger[0].Error)
	assert.InDelta(t, 1.05, ledger[0].Seconds, 0.001)

	assert.Equal(t, "dim_date", ledger[1].Table)
	assert.Equal(t, "2026-08-26T02:00:05Z", ledger[1].LastUpdate)
	assert.Equal(t, int64(3653), ledger[1].Records)
	assert.Equal(t, "SUCCESS", ledger[1].Status)
	assert.Empty(t, ledger[1].Error)

	ledger, err = readControlLedger(ctx, target, 1)
	require.NoError(t, err)
	require.Len(t, ledger, 1)
	assert.Equal(t, "fact_sales", ledger[0].Table)
}
