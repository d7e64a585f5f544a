package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/climate-atlas/climfill/internal/geoindex"
	"github.com/climate-atlas/climfill/internal/interp"
)

func exportIndex(t *testing.T) *geoindex.Index {
	t.Helper()

	mkDistrict := func(name string, x float64) *geoindex.District {
		poly := geom.NewPolygonFlat(geom.XY, []float64{
			x, 0, x + 1, 0, x + 1, 1, x, 1, x, 0,
		}, []int{10})
		mp := geom.NewMultiPolygon(geom.XY)
		require.NoError(t, mp.Push(poly))
		return &geoindex.District{Name: name, Key: geoindex.NormalizeName(name), Geom: mp}
	}

	idx, err := geoindex.NewIndex([]*geoindex.District{
		mkDistrict("Nuh", 0),
		mkDistrict("Palwal", 2),
	})
	require.NoError(t, err)
	return idx
}

func TestExportGeoJSON(t *testing.T) {
	t.Parallel()

	idx := exportIndex(t)
	cells := []interp.Cell{
		{District: "nuh", Period: jun, Metric: "rainfall", Value: 12.5, Source: interp.SourceOriginal},
		{District: "palwal", Period: jun, Metric: "rainfall", Source: interp.SourceUnresolved},
		{District: "nuh", Period: jul, Metric: "rainfall", Value: 99, Source: interp.SourceOriginal},
	}

	path := filepath.Join(t.TempDir(), "june.geojson")
	require.NoError(t, ExportGeoJSON(path, idx, cells, jun))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var fc geojson.FeatureCollection
	require.NoError(t, json.Unmarshal(data, &fc))
	require.Len(t, fc.Features, 2, "only the requested period exports")

	byDistrict := make(map[string]map[string]interface{}, len(fc.Features))
	for _, f := range fc.Features {
		byDistrict[f.Properties["district"].(string)] = f.Properties
	}

	nuh := byDistrict["Nuh"]
	require.NotNil(t, nuh)
	assert.Equal(t, "original", nuh["source"])
	assert.Equal(t, "2020-06", nuh["period"])
	assert.InDelta(t, 12.5, nuh["value"].(float64), 1e-9)

	palwal := byDistrict["Palwal"]
	require.NotNil(t, palwal)
	assert.Equal(t, "unresolved", palwal["source"])
	assert.Nil(t, palwal["value"], "unresolved exports null, not zero")
}

func TestExportGeoJSON_EmptyPeriod(t *testing.T) {
	t.Parallel()

	idx := exportIndex(t)
	cells := []interp.Cell{
		{District: "nuh", Period: jun, Metric: "rainfall", Value: 1, Source: interp.SourceOriginal},
	}

	err := ExportGeoJSON(filepath.Join(t.TempDir(), "out.geojson"), idx, cells, jul)
	require.Error(t, err)
}

func TestExportGeoJSON_UnknownDistrict(t *testing.T) {
	t.Parallel()

	idx := exportIndex(t)
	cells := []interp.Cell{
		{District: "ghost", Period: jun, Metric: "rainfall", Value: 1, Source: interp.SourceOriginal},
	}

	err := ExportGeoJSON(filepath.Join(t.TempDir(), "out.geojson"), idx, cells, jun)
	require.Error(t, err)
}
