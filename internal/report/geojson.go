package report

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/climate-atlas/climfill/internal/geoindex"
	"github.com/climate-atlas/climfill/internal/interp"
	"github.com/climate-atlas/climfill/internal/observe"
)

// ExportGeoJSON joins one period's completed cells onto the boundary
// geometries and writes a FeatureCollection for map renderers. Unresolved
// cells export a null value so choropleth layers can distinguish "no data"
// from zero.
func ExportGeoJSON(path string, idx *geoindex.Index, cells []interp.Cell, period observe.Period) error {
	var features []*geojson.Feature
	for _, c := range cells {
		if c.Period != period {
			continue
		}
		g, err := idx.Geometry(c.District)
		if err != nil {
			return eris.Wrapf(err, "report: export period %s", period)
		}

		props := map[string]interface{}{
			"district": idx.DisplayName(c.District),
			"metric":   c.Metric,
			"period":   c.Period.String(),
			"source":   string(c.Source),
		}
		if c.Source != interp.SourceUnresolved {
			props["value"] = c.Value
		} else {
			props["value"] = nil
		}

		features = append(features, &geojson.Feature{
			ID:         c.District,
			Geometry:   g,
			Properties: props,
		})
	}
	if len(features) == 0 {
		return eris.Errorf("report: no cells for period %s", period)
	}

	fc := &geojson.FeatureCollection{Features: features}
	data, err := json.Marshal(fc)
	if err != nil {
		return eris.Wrap(err, "report: marshal feature collection")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "report: write %s", path)
	}
	return nil
}
