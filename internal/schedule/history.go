package schedule

import (
	"encoding/json"
	"os"
	"path/filepath"

	apperrors "starmirror/pkg/errors"
)

// LoadHistory reads the execution-history log. A missing file is an empty
// history, not an error.
func LoadHistory(path string) ([]ExecutionRecord, error) {
	data, err := os.ReadFile(path) // #nosec G304 - operator-configured path
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeHistoryWrite, "failed to read execution history").
			WithContext("path", path)
	}

	var history []ExecutionRecord
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeHistoryWrite, "execution history is not valid JSON").
			WithContext("path", path).
			WithSuggestions("Delete the history file to start a fresh log")
	}
	return history, nil
}

// AppendHistory adds one record to the history log, creating the file and
// its directory on first use.
func AppendHistory(path string, record ExecutionRecord) error {
	history, err := LoadHistory(path)
	if err != nil {
		return err
	}
	history = append(history, record)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeHistoryWrite, "failed to create history directory").
				WithContext("dir", dir)
		}
	}
	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeHistoryWrite, "failed to encode execution history")
	}
	if err := os.WriteFile(path, data, 0640); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeHistoryWrite, "failed to write execution history").
			WithContext("path", path)
	}
	return nil
}

// StatusSummary aggregates the history log for the status view.
type StatusSummary struct {
	TotalExecutions   int
	RecentSuccessRate float64
	LastExecution     *ExecutionRecord
}

// Summarize computes totals and the success rate over the most recent ten
// executions.
func Summarize(history []ExecutionRecord) StatusSummary {
	summary := StatusSummary{TotalExecutions: len(history)}
	if len(history) == 0 {
		return summary
	}
	last := history[len(history)-1]
	summary.LastExecution = &last

	recent := history
	if len(recent) > 10 {
		recent = recent[len(recent)-10:]
	}
	ok := 0
	for _, rec := range recent {
		if rec.Success {
			ok++
		}
	}
	summary.RecentSuccessRate = float64(ok) / float64(len(recent)) * 100
	return summary
}
