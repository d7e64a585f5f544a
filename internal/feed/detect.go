package feed

import (
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/climate-atlas/climfill/internal/observe"
)

// Column-name candidates across the feed variants seen in practice. All
// matching is case-insensitive.
var (
	lonColumnCandidates      = []string{"lon", "longitude", "lng", "x"}
	latColumnCandidates      = []string{"lat", "latitude", "y"}
	timeColumnCandidates     = []string{"time", "date", "timestamp", "time_iso"}
	districtColumnCandidates = []string{"district_name", "district", "dtname", "dt_name", "name_2"}
	yearColumnCandidates     = []string{"year"}
	monthColumnCandidates    = []string{"month"}
)

type pointColumns struct {
	lon, lat, time, value int
}

type districtColumns struct {
	district    int
	year, month int // -1 when a date column is used instead
	date        int // -1 when year/month columns are used
	value       int
}

func findColumn(header []string, candidates []string) int {
	for _, cand := range candidates {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), cand) {
				return i
			}
		}
	}
	return -1
}

// detectValueColumn picks the value column: first a header containing the
// metric name, then one containing "value", then the first column not
// claimed by another role. Mirrors how heterogeneous exports name their
// measurement column (RAINFALL, minT, tmax_value, ...).
func detectValueColumn(header []string, metric string, claimed map[int]bool) int {
	metric = strings.ToLower(metric)
	for i, h := range header {
		if !claimed[i] && metric != "" && strings.Contains(strings.ToLower(h), metric) {
			return i
		}
	}
	for i, h := range header {
		if !claimed[i] && strings.Contains(strings.ToLower(h), "value") {
			return i
		}
	}
	for i := range header {
		if !claimed[i] {
			return i
		}
	}
	return -1
}

func detectPointColumns(header []string, metric string) (pointColumns, error) {
	cols := pointColumns{
		lon:  findColumn(header, lonColumnCandidates),
		lat:  findColumn(header, latColumnCandidates),
		time: findColumn(header, timeColumnCandidates),
	}
	if cols.lon < 0 || cols.lat < 0 || cols.time < 0 {
		return cols, eris.Errorf("feed: point feed needs lon/lat/time columns, header %v", header)
	}
	claimed := map[int]bool{cols.lon: true, cols.lat: true, cols.time: true}
	cols.value = detectValueColumn(header, metric, claimed)
	if cols.value < 0 {
		return cols, eris.Errorf("feed: no value column in header %v", header)
	}
	return cols, nil
}

func detectDistrictColumns(header []string, metric string) (districtColumns, error) {
	cols := districtColumns{
		district: findColumn(header, districtColumnCandidates),
		year:     findColumn(header, yearColumnCandidates),
		month:    findColumn(header, monthColumnCandidates),
		date:     findColumn(header, timeColumnCandidates),
	}
	if cols.district < 0 {
		return cols, eris.Errorf("feed: no district name column among %v in header %v", districtColumnCandidates, header)
	}
	if cols.date < 0 && (cols.year < 0 || cols.month < 0) {
		return cols, eris.Errorf("feed: need either a date column or year+month columns, header %v", header)
	}

	claimed := map[int]bool{cols.district: true}
	for _, i := range []int{cols.year, cols.month, cols.date} {
		if i >= 0 {
			claimed[i] = true
		}
	}
	cols.value = detectValueColumn(header, metric, claimed)
	if cols.value < 0 {
		return cols, eris.Errorf("feed: no value column in header %v", header)
	}
	return cols, nil
}

var timeLayouts = []string{
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02",
	"2006/01/02",
	"02-01-2006",
}

func parseTime(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parsePointRow(row []string, cols pointColumns) (observe.RawPoint, bool) {
	maxIdx := cols.lon
	for _, i := range []int{cols.lat, cols.time, cols.value} {
		if i > maxIdx {
			maxIdx = i
		}
	}
	if maxIdx >= len(row) {
		return observe.RawPoint{}, false
	}

	lon, err1 := strconv.ParseFloat(row[cols.lon], 64)
	lat, err2 := strconv.ParseFloat(row[cols.lat], 64)
	val, err3 := strconv.ParseFloat(row[cols.value], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return observe.RawPoint{}, false
	}
	t, ok := parseTime(row[cols.time])
	if !ok {
		return observe.RawPoint{}, false
	}
	return observe.RawPoint{Lon: lon, Lat: lat, Time: t, Value: val}, true
}

func parseDistrictRow(row []string, cols districtColumns, g observe.Granularity) (observe.Observation, bool) {
	if cols.district >= len(row) || cols.value >= len(row) {
		return observe.Observation{}, false
	}
	district := row[cols.district]
	if district == "" {
		return observe.Observation{}, false
	}
	value, err := strconv.ParseFloat(row[cols.value], 64)
	if err != nil {
		return observe.Observation{}, false
	}

	var p observe.Period
	switch {
	case cols.year >= 0 && cols.month >= 0 && cols.year < len(row) && cols.month < len(row) && row[cols.year] != "":
		year, err1 := strconv.Atoi(row[cols.year])
		month, err2 := strconv.Atoi(row[cols.month])
		if err1 != nil || err2 != nil || month < 1 || month > 12 {
			return observe.Observation{}, false
		}
		p = observe.Period{Year: year, Month: month}
	case cols.date >= 0 && cols.date < len(row):
		t, ok := parseTime(row[cols.date])
		if !ok {
			return observe.Observation{}, false
		}
		p = observe.PeriodFor(t, g)
	default:
		return observe.Observation{}, false
	}

	return observe.Observation{District: district, Period: p, Value: value}, true
}
