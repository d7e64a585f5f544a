// Package interp fills absent cells of the district x period cross-product
// with the least assumption-laden method that succeeds, and records which
// method produced every output value.
package interp

import "github.com/climate-atlas/climfill/internal/observe"

// Source tags the provenance of a completed cell.
type Source string

const (
	// SourceOriginal marks a directly observed value, passed through
	// unchanged.
	SourceOriginal Source = "original"
	// SourceNeighbor marks a mean over adjacent districts' observed values.
	SourceNeighbor Source = "neighbor_filled"
	// SourceDistance marks an inverse-distance-weighted estimate from the
	// k nearest observed districts.
	SourceDistance Source = "distance_filled"
	// SourceUnresolved marks a cell no method could fill because the whole
	// period lacks observations. Zero is a valid physical observation, so
	// unresolved cells never default to it.
	SourceUnresolved Source = "unresolved"
)

// Cell is the output unit: exactly one per (district, period) slot of the
// cross-product after Complete runs.
type Cell struct {
	District string
	Period   observe.Period
	Metric   string
	Value    float64 // undefined when Source is SourceUnresolved
	Source   Source
}

// Donor records one contributing district of a filled value.
type Donor struct {
	District string
	Distance float64 // meters; 0 for neighbor-average donors
	Weight   float64
	Value    float64
}

// FillAction is the audit record for one filled or unresolved cell.
type FillAction struct {
	District string
	Period   observe.Period
	Metric   string
	Method   Source
	Donors   []Donor
}

// Result is one complete run of the interpolator over a metric.
type Result struct {
	RunID         string
	Metric        string
	Cells         []Cell
	Fills         []FillAction
	AbsentPeriods []observe.Period // periods with zero observations anywhere
}

// Counts tallies cells by provenance tag.
func (r *Result) Counts() map[Source]int {
	counts := make(map[Source]int, 4)
	for _, c := range r.Cells {
		counts[c.Source]++
	}
	return counts
}
