// Package manifest reads the CSV list of paths to back up.
//
// The file has a header row with the columns path, tar_children_separately
// and job_requirements. Columns are matched by name; only path is mandatory.
package manifest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"elmbackup/internal/model"
)

// DefaultFile is the manifest used when none is named on the command line.
const DefaultFile = "backup_path_list.csv"

const (
	colPath     = "path"
	colChildren = "tar_children_separately"
	colJobReqs  = "job_requirements"
)

var (
	// ErrNoPathColumn is returned when the header lacks a path column.
	ErrNoPathColumn = errors.New("manifest has no path column")
	// ErrBadFlag is returned for an unparseable tar_children_separately value.
	ErrBadFlag = errors.New("invalid tar_children_separately value")
)

// Manifest is the ordered list of rows. Row order is the order in the file and
// never changes, so row numbers are stable across runs.
type Manifest struct {
	Source string
	Rows   []model.Row
}

// Len reports the number of data rows.
func (m *Manifest) Len() int {
	return len(m.Rows)
}

// Load opens and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	m, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	m.Source = path
	return m, nil
}

// Parse reads a manifest from r.
func Parse(r io.Reader) (*Manifest, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoPathColumn
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := map[string]int{}
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, seen := cols[name]; !seen {
			cols[name] = i
		}
	}
	pathCol, ok := cols[colPath]
	if !ok {
		return nil, ErrNoPathColumn
	}

	m := &Manifest{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(m.Rows), err)
		}
		if blank(record) {
			continue
		}

		row := model.Row{
			Number: len(m.Rows),
			Path:   model.ExpandHome(strings.TrimSpace(field(record, pathCol))),
		}
		if i, ok := cols[colChildren]; ok {
			row.TarChildrenSeparately, err = ParseFlag(field(record, i))
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", row.Number, err)
			}
		}
		if i, ok := cols[colJobReqs]; ok {
			row.JobRequirements = NormalizeJobRequirements(field(record, i))
		}
		m.Rows = append(m.Rows, row)
	}
	return m, nil
}

// ParseFlag parses the tar_children_separately column. Spreadsheet exports
// write it as 0/1, dataframe exports as True/False; both are accepted.
func ParseFlag(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "1.0", "true", "t", "yes", "y":
		return true, nil
	case "", "0", "0.0", "false", "f", "no", "n", "nan", "none":
		return false, nil
	}
	return false, fmt.Errorf("%w: %q", ErrBadFlag, v)
}

// NormalizeJobRequirements maps the missing-value spellings to empty and trims
// everything else.
func NormalizeJobRequirements(v string) string {
	v = strings.TrimSpace(v)
	switch strings.ToLower(v) {
	case "nan", "none", "null":
		return ""
	}
	return v
}

func field(record []string, i int) string {
	if i < len(record) {
		return record[i]
	}
	return ""
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
