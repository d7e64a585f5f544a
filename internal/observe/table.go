package observe

import (
	"sort"
	"time"

	"go.uber.org/zap"
)

// RawPoint is one grid-point sample from the upstream reader, already
// unit-normalized (temperature in degC, rainfall in mm).
type RawPoint struct {
	Lon   float64
	Lat   float64
	Time  time.Time
	Value float64
}

// Observation is a directly measured value for one district and period.
type Observation struct {
	District string
	Period   Period
	Value    float64
}

type cellKey struct {
	district string
	period   Period
}

// Table is the immutable set of observations for a single metric. It is
// built once per run and never mutated afterward.
type Table struct {
	metric    string
	values    map[cellKey]float64
	districts []string
	periods   []Period
}

// NewTable builds a table from district-keyed observations. Duplicate
// (district, period) rows are averaged, matching the treatment of multiple
// grid points landing in one district.
func NewTable(metric string, obs []Observation) *Table {
	sums := make(map[cellKey]float64)
	counts := make(map[cellKey]int)
	for _, o := range obs {
		k := cellKey{district: o.District, period: o.Period}
		sums[k] += o.Value
		counts[k]++
	}

	values := make(map[cellKey]float64, len(sums))
	for k, sum := range sums {
		values[k] = sum / float64(counts[k])
	}
	return newTable(metric, values)
}

// Locator assigns a coordinate to the district containing it.
type Locator interface {
	Locate(lon, lat float64) (string, bool)
}

// Assign bins raw grid points into districts by point-in-polygon containment
// and averages the points that land in the same (district, period) cell.
// Points outside every district polygon are discarded.
func Assign(loc Locator, metric string, points []RawPoint, g Granularity) *Table {
	sums := make(map[cellKey]float64)
	counts := make(map[cellKey]int)
	var dropped int

	for _, pt := range points {
		district, ok := loc.Locate(pt.Lon, pt.Lat)
		if !ok {
			dropped++
			continue
		}
		k := cellKey{district: district, period: PeriodFor(pt.Time, g)}
		sums[k] += pt.Value
		counts[k]++
	}

	if dropped > 0 {
		zap.L().Debug("observe: discarded points outside district boundaries",
			zap.String("metric", metric),
			zap.Int("dropped", dropped),
			zap.Int("total", len(points)),
		)
	}

	values := make(map[cellKey]float64, len(sums))
	for k, sum := range sums {
		values[k] = sum / float64(counts[k])
	}
	return newTable(metric, values)
}

func newTable(metric string, values map[cellKey]float64) *Table {
	districtSet := make(map[string]bool)
	periodSet := make(map[Period]bool)
	for k := range values {
		districtSet[k.district] = true
		periodSet[k.period] = true
	}

	districts := make([]string, 0, len(districtSet))
	for d := range districtSet {
		districts = append(districts, d)
	}
	sort.Strings(districts)

	periods := make([]Period, 0, len(periodSet))
	for p := range periodSet {
		periods = append(periods, p)
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i].Before(periods[j]) })

	return &Table{metric: metric, values: values, districts: districts, periods: periods}
}

// Metric returns the metric name the table was built for.
func (t *Table) Metric() string { return t.metric }

// Value returns the observed value for a cell, if one exists.
func (t *Table) Value(district string, p Period) (float64, bool) {
	v, ok := t.values[cellKey{district: district, period: p}]
	return v, ok
}

// Districts returns the sorted district names that have at least one
// observation. This may be a strict subset of the boundary universe.
func (t *Table) Districts() []string { return t.districts }

// Periods returns the sorted periods that have at least one observation.
func (t *Table) Periods() []Period { return t.periods }

// Len returns the number of observed cells.
func (t *Table) Len() int { return len(t.values) }
