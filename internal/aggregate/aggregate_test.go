package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/climate-atlas/climfill/internal/interp"
	"github.com/climate-atlas/climfill/internal/observe"
)

func dayCell(district string, day int, value float64, src interp.Source) interp.Cell {
	return interp.Cell{
		District: district,
		Period:   observe.Period{Year: 2020, Month: 6, Day: day},
		Metric:   "rainfall",
		Value:    value,
		Source:   src,
	}
}

func TestSummarize_MonthlyRollup(t *testing.T) {
	t.Parallel()

	var cells []interp.Cell
	for d := 1; d <= 10; d++ {
		cells = append(cells, dayCell("a", d, float64(d), interp.SourceOriginal))
	}

	summaries, err := Summarize(cells)
	require.NoError(t, err)
	require.Len(t, summaries, 1)

	s := summaries[0]
	assert.Equal(t, "a", s.District)
	assert.Equal(t, observe.Period{Year: 2020, Month: 6}, s.Period)
	assert.Equal(t, "rainfall", s.Metric)
	assert.Equal(t, 10, s.N)
	assert.Equal(t, 10, s.Original)
	assert.Zero(t, s.Filled)
	assert.Zero(t, s.Unresolved)

	assert.InDelta(t, 5.5, s.Mean, 1e-12)
	assert.InDelta(t, 3.0276503541, s.StdDev, 1e-9)
	assert.InDelta(t, s.StdDev/s.Mean, s.CV, 1e-12)
	// p95 of 1..10 is 9.55; only the 10 exceeds it.
	assert.Equal(t, 1, s.Extremes)
}

func TestSummarize_ExcludesUnresolved(t *testing.T) {
	t.Parallel()

	summaries, err := Summarize([]interp.Cell{
		dayCell("a", 1, 10, interp.SourceOriginal),
		dayCell("a", 2, 0, interp.SourceUnresolved),
		dayCell("a", 3, 20, interp.SourceDistance),
	})
	require.NoError(t, err)
	require.Len(t, summaries, 1)

	s := summaries[0]
	assert.Equal(t, 3, s.N)
	assert.Equal(t, 1, s.Original)
	assert.Equal(t, 1, s.Filled)
	assert.Equal(t, 1, s.Unresolved)
	// The unresolved zero must not drag the mean down.
	assert.InDelta(t, 15.0, s.Mean, 1e-12)
}

func TestSummarize_AllUnresolvedGroup(t *testing.T) {
	t.Parallel()

	summaries, err := Summarize([]interp.Cell{
		dayCell("a", 1, 0, interp.SourceUnresolved),
		dayCell("a", 2, 0, interp.SourceUnresolved),
	})
	require.NoError(t, err)
	require.Len(t, summaries, 1)

	s := summaries[0]
	assert.Equal(t, 2, s.N)
	assert.Equal(t, 2, s.Unresolved)
	assert.Zero(t, s.Mean)
	assert.Zero(t, s.StdDev)
	assert.Zero(t, s.Extremes)
	assert.Zero(t, s.ZScore)
}

func TestSummarize_MonthlyCellsDegenerate(t *testing.T) {
	t.Parallel()

	// Monthly input cells summarize over themselves: one value per group.
	summaries, err := Summarize([]interp.Cell{
		{District: "a", Period: observe.Period{Year: 2020, Month: 6}, Metric: "t", Value: 31, Source: interp.SourceOriginal},
		{District: "a", Period: observe.Period{Year: 2020, Month: 7}, Metric: "t", Value: 33, Source: interp.SourceNeighbor},
	})
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	for _, s := range summaries {
		assert.Equal(t, 1, s.N)
		assert.Zero(t, s.StdDev)
		assert.Zero(t, s.Extremes)
	}
	assert.Equal(t, 31.0, summaries[0].Mean)
	assert.Equal(t, 33.0, summaries[1].Mean)
}

func TestSummarize_SortedOutput(t *testing.T) {
	t.Parallel()

	summaries, err := Summarize([]interp.Cell{
		dayCell("b", 1, 1, interp.SourceOriginal),
		{District: "a", Period: observe.Period{Year: 2020, Month: 7, Day: 1}, Metric: "rainfall", Value: 1, Source: interp.SourceOriginal},
		dayCell("a", 1, 1, interp.SourceOriginal),
	})
	require.NoError(t, err)
	require.Len(t, summaries, 3)
	assert.Equal(t, "a", summaries[0].District)
	assert.Equal(t, observe.Period{Year: 2020, Month: 6}, summaries[0].Period)
	assert.Equal(t, "a", summaries[1].District)
	assert.Equal(t, observe.Period{Year: 2020, Month: 7}, summaries[1].Period)
	assert.Equal(t, "b", summaries[2].District)
}

func TestSummarize_ZScores(t *testing.T) {
	t.Parallel()

	var cells []interp.Cell
	for m, v := range map[int]float64{6: 10, 7: 20, 8: 30} {
		cells = append(cells, interp.Cell{
			District: "a",
			Period:   observe.Period{Year: 2020, Month: m, Day: 1},
			Metric:   "rainfall",
			Value:    v,
			Source:   interp.SourceOriginal,
		})
	}

	summaries, err := Summarize(cells)
	require.NoError(t, err)
	require.Len(t, summaries, 3)

	// Means 10, 20, 30: mean 20, sample sd 10.
	assert.InDelta(t, -1.0, summaries[0].ZScore, 1e-12)
	assert.InDelta(t, 0.0, summaries[1].ZScore, 1e-12)
	assert.InDelta(t, 1.0, summaries[2].ZScore, 1e-12)
}

func TestSummarize_ZScoreDegenerateSeries(t *testing.T) {
	t.Parallel()

	// Singleton and constant series both score zero.
	summaries, err := Summarize([]interp.Cell{
		dayCell("single", 1, 42, interp.SourceOriginal),
		{District: "flat", Period: observe.Period{Year: 2020, Month: 6, Day: 1}, Metric: "r", Value: 7, Source: interp.SourceOriginal},
		{District: "flat", Period: observe.Period{Year: 2020, Month: 7, Day: 1}, Metric: "r", Value: 7, Source: interp.SourceOriginal},
	})
	require.NoError(t, err)
	for _, s := range summaries {
		assert.Zero(t, s.ZScore, s.District)
	}
}

func TestSummarize_Empty(t *testing.T) {
	t.Parallel()

	_, err := Summarize(nil)
	require.Error(t, err)
}

func TestQuantile(t *testing.T) {
	t.Parallel()

	var values []float64
	for v := 20; v >= 1; v-- {
		values = append(values, float64(v))
	}
	assert.InDelta(t, 19.05, Quantile(values, 0.95), 1e-12)
	assert.InDelta(t, 1.0, Quantile(values, 0), 1e-12)
	assert.InDelta(t, 20.0, Quantile(values, 1), 1e-12)
	assert.InDelta(t, 10.5, Quantile(values, 0.5), 1e-12)
	assert.Equal(t, 3.0, Quantile([]float64{3}, 0.95))
}
