// Package report writes the run's flat tabular outputs: the completed cell
// table, the fill audit report, period summaries, the run manifest, and a
// GeoJSON export for map consumers.
package report

import (
	"encoding/csv"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/climate-atlas/climfill/internal/aggregate"
	"github.com/climate-atlas/climfill/internal/interp"
	"github.com/climate-atlas/climfill/internal/observe"
)

var cellHeader = []string{"district", "period", "metric", "value", "source"}

// WriteCells writes the completed cell table. Unresolved cells carry an
// empty value field; zero is a valid observation and never stands in for
// missing data.
func WriteCells(path string, cells []interp.Cell) error {
	return writeCSV(path, cellHeader, len(cells), func(i int) []string {
		c := cells[i]
		value := ""
		if c.Source != interp.SourceUnresolved {
			value = formatFloat(c.Value)
		}
		return []string{c.District, c.Period.String(), c.Metric, value, string(c.Source)}
	})
}

// ReadCells reads a completed cell table back, for the aggregate and export
// commands.
func ReadCells(path string) ([]interp.Cell, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "report: open %s", path)
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrapf(err, "report: read %s", path)
	}
	if len(rows) < 1 || strings.Join(rows[0], ",") != strings.Join(cellHeader, ",") {
		return nil, eris.Errorf("report: %s is not a completed cell table", path)
	}

	cells := make([]interp.Cell, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) != len(cellHeader) {
			return nil, eris.Errorf("report: %s row %d: want %d fields, got %d", path, i+2, len(cellHeader), len(row))
		}
		p, err := observe.ParsePeriod(row[1])
		if err != nil {
			return nil, eris.Wrapf(err, "report: %s row %d", path, i+2)
		}
		c := interp.Cell{District: row[0], Period: p, Metric: row[2], Source: interp.Source(row[4])}
		if c.Source != interp.SourceUnresolved {
			v, err := strconv.ParseFloat(row[3], 64)
			if err != nil {
				return nil, eris.Wrapf(err, "report: %s row %d: parse value", path, i+2)
			}
			c.Value = v
		}
		cells = append(cells, c)
	}
	return cells, nil
}

// WriteFills writes the audit report: one row per filled or unresolved
// cell, with donor districts and normalized weights pipe-joined in input
// order.
func WriteFills(path string, fills []interp.FillAction) error {
	header := []string{"district", "period", "metric", "method", "donor_districts", "donor_weights", "donor_values"}
	return writeCSV(path, header, len(fills), func(i int) []string {
		a := fills[i]
		names := make([]string, len(a.Donors))
		weights := make([]string, len(a.Donors))
		values := make([]string, len(a.Donors))
		for j, d := range a.Donors {
			names[j] = d.District
			weights[j] = formatFloat(d.Weight)
			values[j] = formatFloat(d.Value)
		}
		return []string{
			a.District, a.Period.String(), a.Metric, string(a.Method),
			strings.Join(names, "|"), strings.Join(weights, "|"), strings.Join(values, "|"),
		}
	})
}

// WriteSummaries writes the aggregate layer's period summaries.
func WriteSummaries(path string, summaries []aggregate.Summary) error {
	header := []string{
		"district", "period", "metric", "mean", "std_dev", "cv", "z_score",
		"extremes", "n", "original", "filled", "unresolved",
	}
	return writeCSV(path, header, len(summaries), func(i int) []string {
		s := summaries[i]
		return []string{
			s.District, s.Period.String(), s.Metric,
			formatFloat(s.Mean), formatFloat(s.StdDev), formatFloat(s.CV), formatFloat(s.ZScore),
			strconv.Itoa(s.Extremes), strconv.Itoa(s.N),
			strconv.Itoa(s.Original), strconv.Itoa(s.Filled), strconv.Itoa(s.Unresolved),
		}
	})
}

func writeCSV(path string, header []string, n int, row func(i int) []string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "report: create %s", path)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return eris.Wrapf(err, "report: write header to %s", path)
	}
	for i := 0; i < n; i++ {
		if err := w.Write(row(i)); err != nil {
			return eris.Wrapf(err, "report: write row to %s", path)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrapf(err, "report: flush %s", path)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
