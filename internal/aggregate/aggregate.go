// Package aggregate reduces completed cells to per-district period
// summaries, carrying the provenance tallies through to the aggregate layer.
package aggregate

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/climate-atlas/climfill/internal/interp"
	"github.com/climate-atlas/climfill/internal/observe"
)

// Summary is one district's reduction over a month of completed cells.
type Summary struct {
	District string
	Period   observe.Period // monthly key
	Metric   string

	Mean     float64
	StdDev   float64 // sample standard deviation
	CV       float64 // coefficient of variation, StdDev/Mean
	Extremes int     // values above the district's p95 within the period

	// ZScore standardizes Mean against the district's own series of
	// summaries, for cross-month trend comparison.
	ZScore float64

	// Provenance tallies of the inputs. Unresolved inputs are counted but
	// excluded from every statistic above.
	N          int
	Original   int
	Filled     int
	Unresolved int
}

type groupKey struct {
	district string
	period   observe.Period
}

// Summarize rolls completed cells up to monthly summaries per district.
// Daily cells group into their containing month; monthly cells summarize
// over themselves, which degenerates to N=1 groups. Unresolved cells are
// excluded from the reduction, never treated as zero.
func Summarize(cells []interp.Cell) ([]Summary, error) {
	if len(cells) == 0 {
		return nil, eris.New("aggregate: no cells to summarize")
	}

	groups := make(map[groupKey][]interp.Cell)
	for _, c := range cells {
		k := groupKey{district: c.District, period: c.Period.MonthKey()}
		groups[k] = append(groups[k], c)
	}

	keys := make([]groupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].district != keys[j].district {
			return keys[i].district < keys[j].district
		}
		return keys[i].period.Before(keys[j].period)
	})

	summaries := make([]Summary, 0, len(keys))
	for _, k := range keys {
		summaries = append(summaries, summarizeGroup(k, groups[k]))
	}

	attachZScores(summaries)
	return summaries, nil
}

func summarizeGroup(k groupKey, cells []interp.Cell) Summary {
	s := Summary{District: k.district, Period: k.period}

	var values []float64
	for _, c := range cells {
		s.Metric = c.Metric
		switch c.Source {
		case interp.SourceUnresolved:
			s.Unresolved++
			continue
		case interp.SourceOriginal:
			s.Original++
		default:
			s.Filled++
		}
		values = append(values, c.Value)
	}
	s.N = len(cells)

	if len(values) == 0 {
		return s
	}

	s.Mean = mean(values)
	s.StdDev = sampleStdDev(values, s.Mean)
	if s.Mean != 0 {
		s.CV = s.StdDev / s.Mean
	}

	p95 := Quantile(values, 0.95)
	for _, v := range values {
		if v > p95 {
			s.Extremes++
		}
	}
	return s
}

// attachZScores standardizes each summary's mean against the district's own
// series, in place. Degenerate series (constant or singleton) score zero.
func attachZScores(summaries []Summary) {
	byDistrict := make(map[string][]int)
	for i, s := range summaries {
		byDistrict[s.District] = append(byDistrict[s.District], i)
	}

	for _, idxs := range byDistrict {
		var means []float64
		for _, i := range idxs {
			if summaries[i].Original+summaries[i].Filled > 0 {
				means = append(means, summaries[i].Mean)
			}
		}
		if len(means) < 2 {
			continue
		}
		m := mean(means)
		sd := sampleStdDev(means, m)
		if sd == 0 {
			continue
		}
		for _, i := range idxs {
			if summaries[i].Original+summaries[i].Filled > 0 {
				summaries[i].ZScore = (summaries[i].Mean - m) / sd
			}
		}
	}
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func sampleStdDev(values []float64, m float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var ss float64
	for _, v := range values {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)-1))
}

// Quantile returns the empirical q-quantile of values with linear
// interpolation between order statistics.
func Quantile(values []float64, q float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if len(sorted) == 1 {
		return sorted[0]
	}

	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
