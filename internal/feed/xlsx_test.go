package feed

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/climate-atlas/climfill/internal/observe"
)

func writeWorkbook(t *testing.T, sheet string, rows [][]string) string {
	t.Helper()

	f := xlsx.NewFile()
	s, err := f.AddSheet(sheet)
	require.NoError(t, err)
	for _, row := range rows {
		r := s.AddRow()
		for _, cell := range row {
			r.AddCell().SetString(cell)
		}
	}

	path := filepath.Join(t.TempDir(), "feed.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestReadDistrictXLSX(t *testing.T) {
	t.Parallel()

	path := writeWorkbook(t, "observations", [][]string{
		{"district", "year", "month", "rainfall_mm"},
		{"Gurgaon", "2020", "6", "102.5"},
		{"Nuh", "2020", "6", "88.0"},
		{"Nuh", "2020", "13", "1.0"}, // month out of range, dropped
	})

	obs, err := ReadDistrictXLSX(path, "observations", "rainfall", observe.Monthly)
	require.NoError(t, err)
	require.Len(t, obs, 2)

	assert.Equal(t, "Gurgaon", obs[0].District)
	assert.Equal(t, observe.Period{Year: 2020, Month: 6}, obs[0].Period)
	assert.Equal(t, 102.5, obs[0].Value)
}

func TestReadDistrictXLSX_DefaultSheet(t *testing.T) {
	t.Parallel()

	path := writeWorkbook(t, "whatever", [][]string{
		{"district", "date", "temperature"},
		{"Nuh", "2020-06-15", "41.0"},
	})

	obs, err := ReadDistrictXLSX(path, "", "temperature", observe.Daily)
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, observe.Period{Year: 2020, Month: 6, Day: 15}, obs[0].Period)
}

func TestReadDistrictXLSX_UnknownSheet(t *testing.T) {
	t.Parallel()

	path := writeWorkbook(t, "data", [][]string{
		{"district", "year", "month", "rainfall"},
		{"Nuh", "2020", "6", "1.0"},
	})

	_, err := ReadDistrictXLSX(path, "missing", "rainfall", observe.Monthly)
	require.Error(t, err)
}

func TestReadDistrictXLSX_NoDataRows(t *testing.T) {
	t.Parallel()

	path := writeWorkbook(t, "data", [][]string{
		{"district", "year", "month", "rainfall"},
	})

	_, err := ReadDistrictXLSX(path, "data", "rainfall", observe.Monthly)
	require.Error(t, err)
}
