package replicate

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"starmirror/pkg/models"
)

func testOrchestrator(t *testing.T, tables []TableSpec) *Orchestrator {
	t.Helper()
	cfg := &models.Config{}
	cfg.ApplyDefaults()
	cfg.Replication.ReportDir = filepath.Join(t.TempDir(), "reports")

	o := NewOrchestrator(cfg, testUI())
	if tables != nil {
		o.tables = tables
	}
	return o
}

func expectProvisioning(targetMock sqlmock.Sqlmock) {
	for range targetSchemaStatements {
		targetMock.ExpectExec("CREATE").WillReturnResult(sqlmock.NewResult(0, 0))
	}
}

func expectSuccessfulLoad(targetMock sqlmock.Sqlmock, table string, rows int) {
	targetMock.ExpectBegin()
	targetMock.ExpectExec("DELETE FROM " + table).WillReturnResult(sqlmock.NewResult(0, 0))
	prepared := targetMock.ExpectPrepare("INSERT INTO " + table)
	for i := 0; i < rows; i++ {
		prepared.ExpectExec().WillReturnResult(sqlmock.NewResult(int64(i+1), 1))
	}
	targetMock.ExpectExec("INSERT INTO etl_control").
		WithArgs(table, sqlmock.AnyArg(), rows, sqlmock.AnyArg(), "SUCCESS", nil).
		WillReturnResult(sqlmock.NewResult(1, 1))
	targetMock.ExpectCommit()
}

func TestRunFullReplicationSuccess(t *testing.T) {
	source, sourceMock, err := sqlmock.New()
	require.NoError(t, err)
	defer source.Close()
	target, targetMock, err := sqlmock.New()
	require.NoError(t, err)
	defer target.Close()

	o := testOrchestrator(t, []TableSpec{{Name: "dim_product", Columns: []string{"product_id", "product_type"}}})

	expectProvisioning(targetMock)

	// Source has dim_product with 3 rows, target starts empty
	sourceMock.ExpectQuery(`SELECT \* FROM bi_schema\.dim_product`).
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "product_type"}).
			AddRow(1, "Electronics").
			AddRow(2, "Furniture").
			AddRow(3, "Toys"))
	expectSuccessfulLoad(targetMock, "dim_product", 3)

	expectCounts(sourceMock, targetMock, "dim_product", 3, 3)
	expectOrphans(targetMock, 0, 0, 0)
	expectMetrics(targetMock, 0, 0, 0)

	ok := o.run(context.Background(), source, target)

	assert.True(t, ok)
	assert.Equal(t, StateDone, o.State())
	assert.NoError(t, sourceMock.ExpectationsWereMet())
	assert.NoError(t, targetMock.ExpectationsWereMet())

	report, _, err := LatestReport(o.cfg.Replication.ReportDir)
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, 1, report.SuccessfulTables)
	assert.Equal(t, 3, report.TotalRecordsProcessed)
	require.NotNil(t, report.Validation)
	assert.True(t, report.Validation.Match)
}

func TestRunContinuesAfterTableFailure(t *testing.T) {
	source, sourceMock, err := sqlmock.New()
	require.NoError(t, err)
	defer source.Close()
	target, targetMock, err := sqlmock.New()
	require.NoError(t, err)
	defer target.Close()

	o := testOrchestrator(t, []TableSpec{
		{Name: "dim_date"},
		{Name: "dim_product"},
	})

	expectProvisioning(targetMock)

	// dim_date extract fails: skipped, recorded in the ledger, run continues
	sourceMock.ExpectQuery(`SELECT \* FROM bi_schema\.dim_date`).
		WillReturnError(fmt.Errorf("permission denied for schema bi_schema"))
	targetMock.ExpectExec("INSERT INTO etl_control").
		WithArgs("dim_date", sqlmock.AnyArg(), 0, sqlmock.AnyArg(), "ERROR", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	// dim_product still replicates
	sourceMock.ExpectQuery(`SELECT \* FROM bi_schema\.dim_product`).
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "product_type"}).AddRow(1, "Electronics"))
	expectSuccessfulLoad(targetMock, "dim_product", 1)

	// Validation must not run after a failed load
	ok := o.run(context.Background(), source, target)

	assert.False(t, ok)
	assert.Equal(t, StateFailed, o.State())
	assert.NoError(t, sourceMock.ExpectationsWereMet())
	assert.NoError(t, targetMock.ExpectationsWereMet())

	report, _, err := LatestReport(o.cfg.Replication.ReportDir)
	require.NoError(t, err)
	require.NotNil(t, report, "a report is produced even after failures")
	assert.Equal(t, 1, report.FailedTables)
	assert.Equal(t, 1, report.SuccessfulTables)
	assert.Nil(t, report.Validation)
}

func TestRunSchemaFailureIsFatal(t *testing.T) {
	source, sourceMock, err := sqlmock.New()
	require.NoError(t, err)
	defer source.Close()
	target, targetMock, err := sqlmock.New()
	require.NoError(t, err)
	defer target.Close()

	o := testOrchestrator(t, nil)

	targetMock.ExpectExec("CREATE").WillReturnError(fmt.Errorf("attempt to write a readonly database"))

	ok := o.run(context.Background(), source, target)

	assert.False(t, ok)
	assert.Equal(t, StateFailed, o.State())
	// No extract was ever attempted
	assert.NoError(t, sourceMock.ExpectationsWereMet())
	assert.NoError(t, targetMock.ExpectationsWereMet())

	report, _, err := LatestReport(o.cfg.Replication.ReportDir)
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Zero(t, report.TotalTables)
}

func TestRunValidationMismatchFailsRun(t *testing.T) {
	source, sourceMock, err := sqlmock.New()
	require.NoError(t, err)
	defer source.Close()
	target, targetMock, err := sqlmock.New()
	require.NoError(t, err)
	defer target.Close()

	o := testOrchestrator(t, []TableSpec{{Name: "dim_product"}})

	expectProvisioning(targetMock)
	sourceMock.ExpectQuery(`SELECT \* FROM bi_schema\.dim_product`).
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "product_type"}).AddRow(1, "Electronics"))
	expectSuccessfulLoad(targetMock, "dim_product", 1)

	// Source gained a row between extract and validation
	expectCounts(sourceMock, targetMock, "dim_product", 2, 1)
	expectOrphans(targetMock, 0, 0, 0)
	expectMetrics(targetMock, 0, 0, 0)

	ok := o.run(context.Background(), source, target)

	assert.False(t, ok)
	assert.Equal(t, StateFailed, o.State())
}

func TestRunConnectionFailure(t *testing.T) {
	// Unreachable source: the run terminates in FAILED before any schema or
	// table operations, and no artifacts appear.
	cfg := &models.Config{
		Source: models.Source{Host: "127.0.0.1", Port: 1, Database: "nope", User: "x", Password: "x"},
		Target: models.Target{Database: filepath.Join(t.TempDir(), "mirror.db")},
	}
	cfg.ApplyDefaults()
	cfg.Replication.ReportDir = filepath.Join(t.TempDir(), "reports")

	o := NewOrchestrator(cfg, testUI())
	ok := o.Run(context.Background())

	assert.False(t, ok)
	assert.Equal(t, StateFailed, o.State())
	report, _, err := LatestReport(cfg.Replication.ReportDir)
	require.NoError(t, err)
	assert.Nil(t, report, "no report before a connection is established")
}
