package replicate

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"starmirror/internal/ui"
	"starmirror/pkg/errors"
)

// Emitter persists run reports as timestamp-named JSON artifacts.
type Emitter struct {
	dir string
	ui  *ui.UI
}

// NewEmitter creates an emitter writing into dir.
func NewEmitter(dir string, ui *ui.UI) *Emitter {
	return &Emitter{dir: dir, ui: ui}
}

// Emit writes the report to <dir>/etl_report_<timestamp>.json and returns the
// path. The report is never mutated after this point.
func (e *Emitter) Emit(report *RunReport) (string, error) {
	if err := os.MkdirAll(e.dir, 0750); err != nil {
		return "", errors.ReportError(e.dir, err)
	}

	path := filepath.Join(e.dir, "etl_report_"+time.Now().Format("20060102_150405")+".json")
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", errors.ReportError(path, err)
	}
	if err := os.WriteFile(path, data, 0640); err != nil {
		return "", errors.ReportError(path, err)
	}

	e.ui.Info("Report saved to %s", path)
	return path, nil
}

// LatestReport loads the most recent report artifact in dir, or nil when none
// exist. Used by the status command.
func LatestReport(dir string) (*RunReport, string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "etl_report_*.json"))
	if err != nil || len(matches) == 0 {
		return nil, "", err
	}

	// Timestamp-named files sort chronologically
	latest := matches[0]
	for _, m := range matches[1:] {
		if m > latest {
			latest = m
		}
	}

	data, err := os.ReadFile(latest) // #nosec G304 - path comes from the report dir glob
	if err != nil {
		return nil, "", err
	}
	var report RunReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, "", err
	}
	return &report, latest, nil
}
