package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"starmirror/internal/config"
	"starmirror/internal/db"
	"starmirror/internal/replicate"
	"starmirror/internal/ui"
)

var flagStatusLimit int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent load attempts and the latest run report",
	Long: "Read the mirror's audit table and the most recent JSON run report to show " +
		"what the last replication runs did.",
	SilenceUsage: true,
	RunE:         runStatus,
}

// controlLedgerSQL reads the newest load attempts from etl_control. The
// column list must stay aligned with the provisioned DDL.
const controlLedgerSQL = "SELECT table_name, last_update, records_processed, execution_time_seconds, status, COALESCE(error_message, '') " +
	"FROM etl_control ORDER BY id DESC LIMIT ?"

// controlRow is one rendered line of the status ledger.
type controlRow struct {
	Table      string
	LastUpdate string
	Records    int64
	Seconds    float64
	Status     string
	Error      string
}

// readControlLedger fetches up to limit load attempts, newest first.
func readControlLedger(ctx context.Context, target *sql.DB, limit int) ([]controlRow, error) {
	rows, err := target.QueryContext(ctx, controlLedgerSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read etl_control: %w", err)
	}
	defer rows.Close()

	var out []controlRow
	for rows.Next() {
		var r controlRow
		if err := rows.Scan(&r.Table, &r.LastUpdate, &r.Records, &r.Seconds, &r.Status, &r.Error); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	target, err := db.OpenTarget(cfg.Target)
	if err != nil {
		return err
	}
	defer db.Close(target)

	ledger, err := readControlLedger(cmd.Context(), target, flagStatusLimit)
	if err != nil {
		return err
	}
	if len(ledger) == 0 {
		fmt.Println("No load attempts recorded yet. Run 'starmirror replicate' first.")
		return nil
	}

	ui.ShowHeader("Replication Status")

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Table", "Last Update", "Records", "Seconds", "Status", "Error"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, r := range ledger {
		rendered := color.GreenString(r.Status)
		if r.Status != string(replicate.StatusSuccess) {
			rendered = color.RedString(r.Status)
		}
		table.Append([]string{
			r.Table,
			r.LastUpdate,
			strconv.FormatInt(r.Records, 10),
			fmt.Sprintf("%.2f", r.Seconds),
			rendered,
			r.Error,
		})
	}

	fmt.Printf("Last %d load attempts:\n\n", len(ledger))
	table.Render()

	printLatestReport(cfg.Replication.ReportDir)
	return nil
}

// printLatestReport shows the newest run report, if any exists.
func printLatestReport(dir string) {
	report, path, err := replicate.LatestReport(dir)
	if err != nil || report == nil {
		return
	}
	fmt.Printf("\nLatest report: %s\n", ui.ColorDim(path))
	fmt.Printf("  %s  %d/%d tables succeeded, %d records in %.1fs\n",
		report.Timestamp, report.SuccessfulTables, report.TotalTables,
		report.TotalRecordsProcessed, report.TotalExecutionTime)
	if report.Validation != nil {
		verdict := color.GreenString("PASS")
		if !report.Validation.Match {
			verdict = color.RedString("FAIL")
		}
		fmt.Printf("  Validation: %s\n", verdict)
	}
}

func init() {
	statusCmd.Flags().IntVar(&flagStatusLimit, "limit", 10, "number of load attempts to show")
	rootCmd.AddCommand(statusCmd)
}
