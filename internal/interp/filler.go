package interp

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/climate-atlas/climfill/internal/coverage"
	"github.com/climate-atlas/climfill/internal/geoindex"
	"github.com/climate-atlas/climfill/internal/observe"
)

// Filler completes absent cells against a boundary index. Periods are
// independent units, so passes run on a bounded worker pool; every worker
// reads only the immutable observation table and writes only its own
// period's slot.
type Filler struct {
	idx     *geoindex.Index
	k       int
	workers int
}

// New returns a Filler. k is the donor count for the distance fallback;
// workers bounds the parallel period passes (values < 1 mean serial).
func New(idx *geoindex.Index, k, workers int) *Filler {
	if k < 1 {
		k = 1
	}
	if workers < 1 {
		workers = 1
	}
	return &Filler{idx: idx, k: k, workers: workers}
}

// periodOutput is one period's completed slice, written by exactly one
// worker into its own slot.
type periodOutput struct {
	cells  []Cell
	fills  []FillAction
	absent bool
}

// Complete fills every absent cell of cov. The result covers the full cross
// product: exactly one cell per (district, period), each tagged with its
// provenance. Only total data absence for a period leaves cells unresolved.
func (f *Filler) Complete(ctx context.Context, tbl *observe.Table, cov *coverage.Coverage) (*Result, error) {
	universe := f.idx.Universe()

	// Group absent cells by period once, up front.
	absentByPeriod := make(map[observe.Period][]string, len(cov.Periods))
	for _, c := range cov.Absent {
		absentByPeriod[c.Period] = append(absentByPeriod[c.Period], c.District)
	}

	outputs := make([]periodOutput, len(cov.Periods))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers)
	for i, p := range cov.Periods {
		i, p := i, p
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return eris.Wrap(err, "interp: period pass cancelled")
			}
			outputs[i] = f.fillPeriod(tbl, universe, p, absentByPeriod[p])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{RunID: uuid.NewString(), Metric: tbl.Metric()}
	for i, p := range cov.Periods {
		res.Cells = append(res.Cells, outputs[i].cells...)
		res.Fills = append(res.Fills, outputs[i].fills...)
		if outputs[i].absent {
			res.AbsentPeriods = append(res.AbsentPeriods, p)
		}
	}

	if len(res.AbsentPeriods) > 0 {
		zap.L().Warn("periods with total data absence left unresolved",
			zap.String("metric", tbl.Metric()),
			zap.Int("periods", len(res.AbsentPeriods)),
		)
	}

	counts := res.Counts()
	zap.L().Info("fill complete",
		zap.String("run_id", res.RunID),
		zap.String("metric", tbl.Metric()),
		zap.Int("original", counts[SourceOriginal]),
		zap.Int("neighbor_filled", counts[SourceNeighbor]),
		zap.Int("distance_filled", counts[SourceDistance]),
		zap.Int("unresolved", counts[SourceUnresolved]),
	)
	return res, nil
}

// fillPeriod resolves one period. All districts resolve against the same
// snapshot of observed values taken at the start of the pass; nothing filled
// within the pass is visible to other districts, which keeps results
// independent of iteration order.
func (f *Filler) fillPeriod(tbl *observe.Table, universe []string, p observe.Period, absent []string) periodOutput {
	snapshot := make(map[string]float64, len(universe))
	for _, d := range universe {
		if v, ok := tbl.Value(d, p); ok {
			snapshot[d] = v
		}
	}

	var out periodOutput
	out.cells = make([]Cell, 0, len(universe))

	if len(snapshot) == 0 {
		// Total absence: the grid missed this period entirely. Surfaced,
		// never zero-filled.
		out.absent = true
		for _, d := range universe {
			out.cells = append(out.cells, Cell{District: d, Period: p, Metric: tbl.Metric(), Source: SourceUnresolved})
			out.fills = append(out.fills, FillAction{District: d, Period: p, Metric: tbl.Metric(), Method: SourceUnresolved})
		}
		return out
	}

	absentSet := make(map[string]bool, len(absent))
	for _, d := range absent {
		absentSet[d] = true
	}

	for _, d := range universe {
		if !absentSet[d] {
			out.cells = append(out.cells, Cell{
				District: d,
				Period:   p,
				Metric:   tbl.Metric(),
				Value:    snapshot[d],
				Source:   SourceOriginal,
			})
			continue
		}

		cell, action := f.fillCell(d, p, tbl.Metric(), snapshot)
		out.cells = append(out.cells, cell)
		out.fills = append(out.fills, action)
	}
	return out
}

// fillCell resolves a single absent cell: neighbor averaging first, then the
// inverse-distance fallback over the k nearest observed districts.
func (f *Filler) fillCell(d string, p observe.Period, metric string, snapshot map[string]float64) (Cell, FillAction) {
	if value, donors, ok := f.neighborAverage(d, snapshot); ok {
		return Cell{District: d, Period: p, Metric: metric, Value: value, Source: SourceNeighbor},
			FillAction{District: d, Period: p, Metric: metric, Method: SourceNeighbor, Donors: donors}
	}

	value, donors := f.distanceWeighted(d, snapshot)
	return Cell{District: d, Period: p, Metric: metric, Value: value, Source: SourceDistance},
		FillAction{District: d, Period: p, Metric: metric, Method: SourceDistance, Donors: donors}
}

// neighborAverage is stage one: the arithmetic mean over adjacent districts
// holding an observed value this period. The neighbor list is already sorted
// by name, so donor order is reproducible.
func (f *Filler) neighborAverage(d string, snapshot map[string]float64) (float64, []Donor, bool) {
	neighbors, err := f.idx.Adjacent(d)
	if err != nil || len(neighbors) == 0 {
		return 0, nil, false
	}

	var donors []Donor
	var sum float64
	for _, n := range neighbors {
		v, ok := snapshot[n]
		if !ok {
			continue
		}
		donors = append(donors, Donor{District: n, Value: v})
		sum += v
	}
	if len(donors) == 0 {
		return 0, nil, false
	}

	for i := range donors {
		donors[i].Weight = 1 / float64(len(donors))
	}
	return sum / float64(len(donors)), donors, true
}

// distanceWeighted is stage two: inverse-distance weighting over the k
// nearest districts with observed values. Donors are observed values only;
// estimates never feed estimates. A coincident centroid short-circuits to
// that donor's value directly.
func (f *Filler) distanceWeighted(d string, snapshot map[string]float64) (float64, []Donor) {
	type candidate struct {
		district string
		distance float64
		value    float64
	}

	candidates := make([]candidate, 0, len(snapshot))
	for donor, v := range snapshot {
		if donor == d {
			continue
		}
		dist, err := f.idx.CentroidDistance(d, donor)
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{district: donor, distance: dist, value: v})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].distance != candidates[j].distance {
			return candidates[i].distance < candidates[j].distance
		}
		return candidates[i].district < candidates[j].district
	})
	if len(candidates) > f.k {
		candidates = candidates[:f.k]
	}

	if candidates[0].distance == 0 {
		c := candidates[0]
		return c.value, []Donor{{District: c.district, Distance: 0, Weight: 1, Value: c.value}}
	}

	var weightSum, valueSum float64
	donors := make([]Donor, 0, len(candidates))
	for _, c := range candidates {
		w := 1 / c.distance
		weightSum += w
		valueSum += w * c.value
		donors = append(donors, Donor{District: c.district, Distance: c.distance, Weight: w, Value: c.value})
	}
	for i := range donors {
		donors[i].Weight /= weightSum
	}
	return valueSum / weightSum, donors
}
