package feed

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/climate-atlas/climfill/internal/observe"
)

// ReadDistrictXLSX reads a district-keyed observation workbook. sheet may be
// empty to use the first sheet. Row shape matches ReadDistrictCSV.
func ReadDistrictXLSX(path, sheet, metric string, g observe.Granularity) ([]observe.Observation, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "feed: open workbook %s", path)
	}

	s, err := workbookSheet(f, sheet)
	if err != nil {
		return nil, eris.Wrapf(err, "feed: %s", path)
	}
	if len(s.Rows) < 2 {
		return nil, eris.Errorf("feed: sheet %q in %s has no data rows", s.Name, path)
	}

	header := rowStrings(s.Rows[0])
	cols, err := detectDistrictColumns(header, metric)
	if err != nil {
		return nil, eris.Wrapf(err, "feed: %s", path)
	}

	var obs []observe.Observation
	for _, row := range s.Rows[1:] {
		o, ok := parseDistrictRow(rowStrings(row), cols, g)
		if !ok {
			continue
		}
		obs = append(obs, o)
	}
	if len(obs) == 0 {
		return nil, eris.Errorf("feed: no usable rows in %s", path)
	}
	return obs, nil
}

func workbookSheet(f *xlsx.File, name string) (*xlsx.Sheet, error) {
	if name != "" {
		s, ok := f.Sheet[name]
		if !ok {
			return nil, eris.Errorf("sheet %q not found", name)
		}
		return s, nil
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("workbook has no sheets")
	}
	return f.Sheets[0], nil
}

func rowStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for i, cell := range row.Cells {
		cells[i] = strings.TrimSpace(cell.String())
	}
	return cells
}
