// Package coverage classifies the full district x period cross-product for
// a metric into cells with direct observations and cells that need filling.
package coverage

import (
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/climate-atlas/climfill/internal/observe"
)

// ErrIntegrity marks an observation table that references a district outside
// the boundary universe. The run must abort: cross-district statistics are
// meaningless with an unrecognized district in play.
var ErrIntegrity = eris.New("coverage: observation references district outside boundary universe")

// Cell identifies one (district, period) slot of the cross-product.
type Cell struct {
	District string
	Period   observe.Period
}

// Coverage is the resolver output: the explicit cross-product split into
// present and absent cells, in deterministic (period, district) order.
type Coverage struct {
	Metric  string
	Periods []observe.Period
	Present []Cell
	Absent  []Cell
}

// Resolve enumerates universe x periods and classifies every cell. The
// cross-product is built explicitly rather than from whatever combinations
// appear in the input; sparse grids otherwise under-report missing coverage.
// Table districts outside the universe fail with ErrIntegrity.
func Resolve(tbl *observe.Table, universe []string, periods []observe.Period) (*Coverage, error) {
	known := make(map[string]bool, len(universe))
	for _, d := range universe {
		known[d] = true
	}
	for _, d := range tbl.Districts() {
		if !known[d] {
			return nil, eris.Wrapf(ErrIntegrity, "district %q, metric %q", d, tbl.Metric())
		}
	}

	sortedUniverse := make([]string, len(universe))
	copy(sortedUniverse, universe)
	sort.Strings(sortedUniverse)

	sortedPeriods := make([]observe.Period, len(periods))
	copy(sortedPeriods, periods)
	sort.Slice(sortedPeriods, func(i, j int) bool { return sortedPeriods[i].Before(sortedPeriods[j]) })

	cov := &Coverage{Metric: tbl.Metric(), Periods: sortedPeriods}
	for _, p := range sortedPeriods {
		for _, d := range sortedUniverse {
			cell := Cell{District: d, Period: p}
			if _, ok := tbl.Value(d, p); ok {
				cov.Present = append(cov.Present, cell)
			} else {
				cov.Absent = append(cov.Absent, cell)
			}
		}
	}

	zap.L().Info("coverage resolved",
		zap.String("metric", tbl.Metric()),
		zap.Int("districts", len(sortedUniverse)),
		zap.Int("periods", len(sortedPeriods)),
		zap.Int("present", len(cov.Present)),
		zap.Int("absent", len(cov.Absent)),
	)
	return cov, nil
}
