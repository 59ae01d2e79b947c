package rowsource

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/enrich-cli/internal/model"
)

// LoadXLSX reads the first sheet (or the named one) of an XLSX file
// into a RowSet. The first row is the header.
func LoadXLSX(path string, opts Options) (*model.RowSet, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "rowsource: open xlsx")
	}

	sheet, err := getSheet(f, opts.SheetName)
	if err != nil {
		return nil, err
	}
	if len(sheet.Rows) == 0 {
		return nil, eris.New("rowsource: xlsx sheet is empty")
	}

	header := rowToStrings(sheet.Rows[0])

	var records [][]string
	for _, row := range sheet.Rows[1:] {
		records = append(records, rowToStrings(row))
		if opts.Limit > 0 && len(records) >= opts.Limit {
			break
		}
	}

	return buildRowSet(header, records, opts)
}

func getSheet(f *xlsx.File, name string) (*xlsx.Sheet, error) {
	if name != "" {
		sheet, ok := f.Sheet[name]
		if !ok {
			return nil, eris.Errorf("rowsource: sheet %q not found", name)
		}
		return sheet, nil
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("rowsource: xlsx file has no sheets")
	}
	return f.Sheets[0], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for i, cell := range row.Cells {
		cells[i] = cell.String()
	}
	return cells
}
