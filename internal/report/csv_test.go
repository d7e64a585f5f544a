package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/climate-atlas/climfill/internal/aggregate"
	"github.com/climate-atlas/climfill/internal/interp"
	"github.com/climate-atlas/climfill/internal/observe"
)

var (
	jun = observe.Period{Year: 2020, Month: 6}
	jul = observe.Period{Year: 2020, Month: 7}
)

func TestCells_RoundTrip(t *testing.T) {
	t.Parallel()

	cells := []interp.Cell{
		{District: "gurugram", Period: jun, Metric: "rainfall", Value: 102.5, Source: interp.SourceOriginal},
		{District: "nuh", Period: jun, Metric: "rainfall", Value: 97.25, Source: interp.SourceNeighbor},
		{District: "nuh", Period: observe.Period{Year: 2020, Month: 6, Day: 3}, Metric: "rainfall", Value: 0, Source: interp.SourceDistance},
		{District: "rohtak", Period: jul, Metric: "rainfall", Value: 999, Source: interp.SourceUnresolved},
	}

	path := filepath.Join(t.TempDir(), "cells.csv")
	require.NoError(t, WriteCells(path, cells))

	got, err := ReadCells(path)
	require.NoError(t, err)
	require.Len(t, got, 4)

	// Values survive except the unresolved one, which reads back zero-valued
	// but keeps its tag.
	assert.Equal(t, cells[:3], got[:3])
	assert.Equal(t, interp.Cell{District: "rohtak", Period: jul, Metric: "rainfall", Source: interp.SourceUnresolved}, got[3])
}

func TestWriteCells_UnresolvedValueIsEmpty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cells.csv")
	require.NoError(t, WriteCells(path, []interp.Cell{
		{District: "nuh", Period: jun, Metric: "rainfall", Value: 12.3, Source: interp.SourceUnresolved},
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "district,period,metric,value,source", lines[0])
	assert.Equal(t, "nuh,2020-06,rainfall,,unresolved", lines[1])
}

func TestReadCells_RejectsForeignTable(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "other.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b,c\n1,2,3\n"), 0o644))

	_, err := ReadCells(path)
	require.Error(t, err)
}

func TestReadCells_RejectsBadValue(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cells.csv")
	content := "district,period,metric,value,source\nnuh,2020-06,rainfall,notanumber,original\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := ReadCells(path)
	require.Error(t, err)
}

func TestWriteFills(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "fills.csv")
	require.NoError(t, WriteFills(path, []interp.FillAction{
		{
			District: "nuh", Period: jun, Metric: "rainfall", Method: interp.SourceNeighbor,
			Donors: []interp.Donor{
				{District: "gurugram", Weight: 0.5, Value: 10},
				{District: "palwal", Weight: 0.5, Value: 20},
			},
		},
		{District: "rohtak", Period: jul, Metric: "rainfall", Method: interp.SourceUnresolved},
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "nuh,2020-06,rainfall,neighbor_filled,gurugram|palwal,0.5|0.5,10|20", lines[1])
	assert.Equal(t, "rohtak,2020-07,rainfall,unresolved,,,", lines[2])
}

func TestWriteSummaries(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "summaries.csv")
	require.NoError(t, WriteSummaries(path, []aggregate.Summary{
		{
			District: "nuh", Period: jun, Metric: "rainfall",
			Mean: 15, StdDev: 5, CV: 1.0 / 3, ZScore: -0.5,
			Extremes: 1, N: 30, Original: 20, Filled: 9, Unresolved: 1,
		},
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t,
		"district,period,metric,mean,std_dev,cv,z_score,extremes,n,original,filled,unresolved",
		lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "nuh,2020-06,rainfall,15,5,0.3333333333333333,-0.5,1,30,20,9,1"), lines[1])
}
