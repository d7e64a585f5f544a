// Package feed parses observation inputs: raw grid-point CSVs and
// district-keyed CSV/XLSX tables, already unit-normalized upstream.
package feed

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/climate-atlas/climfill/internal/observe"
)

// ReadPointsCSV reads a grid-point observation feed: one row per sample with
// coordinate, timestamp, and value columns. Column names are detected from
// the header; rows with unparsable coordinates or values are dropped with a
// tally.
func ReadPointsCSV(ctx context.Context, path, metric string) ([]observe.RawPoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "feed: open %s", path)
	}
	defer func() { _ = f.Close() }()

	rowCh, errCh := streamRows(ctx, f)

	header, ok := <-rowCh
	if !ok {
		if err := <-errCh; err != nil {
			return nil, err
		}
		return nil, eris.Errorf("feed: %s is empty", path)
	}

	cols, err := detectPointColumns(header, metric)
	if err != nil {
		return nil, eris.Wrapf(err, "feed: %s", path)
	}

	var points []observe.RawPoint
	var dropped int
	for row := range rowCh {
		pt, ok := parsePointRow(row, cols)
		if !ok {
			dropped++
			continue
		}
		points = append(points, pt)
	}
	if err := <-errCh; err != nil {
		return nil, err
	}

	if dropped > 0 {
		zap.L().Warn("feed: dropped unparsable point rows",
			zap.String("path", path),
			zap.Int("dropped", dropped),
		)
	}
	if len(points) == 0 {
		return nil, eris.Errorf("feed: no usable rows in %s", path)
	}
	return points, nil
}

// ReadDistrictCSV reads a district-keyed observation table, one row per
// (district, period): either YEAR/MONTH columns or a date column, plus a
// value column detected against the metric name. District names are
// returned as they appear; the caller normalizes them against the boundary
// universe.
func ReadDistrictCSV(ctx context.Context, path, metric string, g observe.Granularity) ([]observe.Observation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "feed: open %s", path)
	}
	defer func() { _ = f.Close() }()

	rowCh, errCh := streamRows(ctx, f)

	header, ok := <-rowCh
	if !ok {
		if err := <-errCh; err != nil {
			return nil, err
		}
		return nil, eris.Errorf("feed: %s is empty", path)
	}

	cols, err := detectDistrictColumns(header, metric)
	if err != nil {
		return nil, eris.Wrapf(err, "feed: %s", path)
	}

	var obs []observe.Observation
	var dropped int
	for row := range rowCh {
		o, ok := parseDistrictRow(row, cols, g)
		if !ok {
			dropped++
			continue
		}
		obs = append(obs, o)
	}
	if err := <-errCh; err != nil {
		return nil, err
	}

	if dropped > 0 {
		zap.L().Warn("feed: dropped unparsable district rows",
			zap.String("path", path),
			zap.Int("dropped", dropped),
		)
	}
	if len(obs) == 0 {
		return nil, eris.Errorf("feed: no usable rows in %s", path)
	}
	return obs, nil
}

// DistrictNamesCSV returns the distinct raw district names appearing in a
// district-keyed feed, for universe diffing.
func DistrictNamesCSV(ctx context.Context, path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "feed: open %s", path)
	}
	defer func() { _ = f.Close() }()

	rowCh, errCh := streamRows(ctx, f)

	header, ok := <-rowCh
	if !ok {
		if err := <-errCh; err != nil {
			return nil, err
		}
		return nil, eris.Errorf("feed: %s is empty", path)
	}

	districtIdx := findColumn(header, districtColumnCandidates)
	if districtIdx < 0 {
		return nil, eris.Errorf("feed: %s: no district name column among %v", path, districtColumnCandidates)
	}

	seen := make(map[string]bool)
	var names []string
	for row := range rowCh {
		if districtIdx >= len(row) {
			continue
		}
		name := strings.TrimSpace(row[districtIdx])
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	if err := <-errCh; err != nil {
		return nil, err
	}
	return names, nil
}

// streamRows reads CSV rows onto a channel. Both channels close when the
// reader is drained; the error channel carries at most one error.
func streamRows(ctx context.Context, r io.Reader) (<-chan []string, <-chan error) {
	rowCh := make(chan []string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		reader := csv.NewReader(r)
		reader.FieldsPerRecord = -1
		reader.LazyQuotes = true

		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "feed: context cancelled")
				return
			}

			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "feed: read csv row")
				return
			}

			for i := range record {
				record[i] = strings.TrimSpace(record[i])
			}

			select {
			case rowCh <- record:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "feed: context cancelled")
				return
			}
		}
	}()

	return rowCh, errCh
}
