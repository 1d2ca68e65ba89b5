package seed

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"starmirror/pkg/errors"
)

// csvFile is one parsed CSV with case-insensitive header lookup. Exported
// column names vary between vendor drops (DateID vs dateid), so headers are
// normalized to lower case.
type csvFile struct {
	path    string
	headers map[string]int
	records [][]string
}

// findCSV locates the first existing candidate file under dir. Some source
// drops carry duplicate-download suffixes like "DimDate (1).csv".
func findCSV(dir string, candidates ...string) (string, error) {
	for _, name := range candidates {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", errors.New(errors.ErrCodeFileNotFound,
		fmt.Sprintf("none of %s found in %s", strings.Join(candidates, ", "), dir))
}

func readCSV(path string) (*csvFile, error) {
	f, err := os.Open(path) // #nosec G304 - path comes from the configured data dir
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeFileNotFound, "Failed to open CSV file").
			WithContext("path", path)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidInput, "Failed to parse CSV file").
			WithContext("path", path)
	}
	if len(rows) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "CSV file has no header row").
			WithContext("path", path)
	}

	headers := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		headers[strings.ToLower(strings.TrimSpace(h))] = i
	}

	return &csvFile{path: path, headers: headers, records: rows[1:]}, nil
}

// field returns the named column of a record.
func (c *csvFile) field(record []string, name string) (string, error) {
	idx, ok := c.headers[name]
	if !ok || idx >= len(record) {
		return "", errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("column %s missing in %s", name, c.path))
	}
	return strings.TrimSpace(record[idx]), nil
}
