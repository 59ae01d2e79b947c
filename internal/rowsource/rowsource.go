// Package rowsource loads input contact tables (CSV, XLSX) into RowSets.
package rowsource

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/enrich-cli/internal/model"
)

// Options configures table loading.
type Options struct {
	EmailColumn string // if empty, detected from headers
	NameColumn  string
	SheetName   string // XLSX only
	Limit       int    // 0 = no limit
}

// Load reads a contact table, dispatching on file extension.
func Load(path string, opts Options) (*model.RowSet, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadCSV(path, opts)
	case ".xlsx":
		return LoadXLSX(path, opts)
	default:
		return nil, eris.Errorf("rowsource: unsupported file type %q", filepath.Ext(path))
	}
}

// LoadCSV reads a CSV file with a header row into a RowSet.
func LoadCSV(path string, opts Options) (*model.RowSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "rowsource: open csv")
	}
	defer f.Close() //nolint:errcheck

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, eris.Wrap(err, "rowsource: read csv header")
	}

	var records [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "rowsource: read csv row")
		}
		records = append(records, rec)
		if opts.Limit > 0 && len(records) >= opts.Limit {
			break
		}
	}

	return buildRowSet(header, records, opts)
}

func buildRowSet(header []string, records [][]string, opts Options) (*model.RowSet, error) {
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(h)
	}

	emailCol := opts.EmailColumn
	if emailCol == "" {
		emailCol = detectEmailColumn(columns, records)
	}
	if emailCol == "" {
		return nil, eris.New("rowsource: no email column found; specify one explicitly")
	}
	if !contains(columns, emailCol) {
		return nil, eris.Errorf("rowsource: email column %q not in header", emailCol)
	}
	if opts.NameColumn != "" && !contains(columns, opts.NameColumn) {
		return nil, eris.Errorf("rowsource: name column %q not in header", opts.NameColumn)
	}

	rows := make([]model.Row, 0, len(records))
	for _, rec := range records {
		row := make(model.Row, len(columns))
		for i, col := range columns {
			if i < len(rec) {
				row[col] = strings.TrimSpace(rec[i])
			}
		}
		rows = append(rows, row)
	}

	return &model.RowSet{
		Columns:     columns,
		EmailColumn: emailCol,
		NameColumn:  opts.NameColumn,
		Rows:        rows,
	}, nil
}

// emailHeaderNames are header spellings recognized as the email column.
var emailHeaderNames = []string{"email", "e-mail", "email address", "e-mail address", "mail"}

// detectEmailColumn finds the email column: first by header name, then
// by sampling values for an @ sign.
func detectEmailColumn(columns []string, records [][]string) string {
	for _, col := range columns {
		lower := strings.ToLower(strings.TrimSpace(col))
		for _, name := range emailHeaderNames {
			if lower == name {
				return col
			}
		}
	}

	// Fall back to the first column whose sampled values look like emails.
	sample := len(records)
	if sample > 20 {
		sample = 20
	}
	for i, col := range columns {
		hits := 0
		for _, rec := range records[:sample] {
			if i < len(rec) && strings.Contains(rec[i], "@") {
				hits++
			}
		}
		if sample > 0 && hits*2 > sample {
			return col
		}
	}
	return ""
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
