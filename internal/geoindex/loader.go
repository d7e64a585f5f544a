package geoindex

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
)

// nameFieldCandidates are the district-name attribute keys seen across
// boundary exports, tried in order when no explicit field is configured.
var nameFieldCandidates = []string{"dtname", "NAME_2", "DISTRICT_NAME", "dt_name", "district", "District"}

// Load reads a boundary file, dispatching on extension: .geojson/.json or
// .shp. nameField may be empty to auto-detect the district name attribute.
func Load(path, nameField string) ([]*District, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".geojson", ".json":
		return LoadGeoJSON(path, nameField)
	case ".shp":
		return LoadShapefile(path, nameField)
	default:
		return nil, eris.Errorf("geoindex: unsupported boundary format %q", filepath.Ext(path))
	}
}

// LoadGeoJSON reads a GeoJSON FeatureCollection of district boundaries.
// Features sharing a district name are merged into one multi-part District.
func LoadGeoJSON(path, nameField string) ([]*District, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geoindex: read boundary file %s", path)
	}

	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, eris.Wrapf(err, "geoindex: decode geojson %s", path)
	}
	if len(fc.Features) == 0 {
		return nil, eris.Errorf("geoindex: no features in %s", path)
	}

	explicit := nameField != ""
	if !explicit {
		nameField = detectNameField(fc.Features[0].Properties)
	}

	log := zap.L().With(zap.String("component", "geoindex"))
	builder := newDistrictBuilder()
	var skipped int

	for i, f := range fc.Features {
		name, ok := featureName(f.Properties, nameField)
		if !ok {
			if explicit {
				return nil, eris.Errorf("geoindex: feature %d missing name property %q", i, nameField)
			}
			name = strconv.Itoa(i)
		}

		mp, ok := toMultiPolygon(f.Geometry)
		if !ok {
			skipped++
			continue
		}
		builder.add(name, mp)
	}

	if skipped > 0 {
		log.Warn("skipped non-polygon boundary features", zap.Int("skipped", skipped))
	}
	return builder.finish(path)
}

func detectNameField(props map[string]interface{}) string {
	for _, cand := range nameFieldCandidates {
		if _, ok := props[cand]; ok {
			return cand
		}
	}
	return ""
}

func featureName(props map[string]interface{}, field string) (string, bool) {
	if field == "" {
		return "", false
	}
	v, ok := props[field]
	if !ok || v == nil {
		return "", false
	}
	s := strings.TrimSpace(fmt.Sprint(v))
	return s, s != ""
}

// toMultiPolygon coerces a decoded geometry to a MultiPolygon.
func toMultiPolygon(g geom.T) (*geom.MultiPolygon, bool) {
	switch t := g.(type) {
	case *geom.MultiPolygon:
		if t.NumPolygons() == 0 {
			return nil, false
		}
		return t, true
	case *geom.Polygon:
		if t.NumLinearRings() == 0 {
			return nil, false
		}
		mp := geom.NewMultiPolygon(t.Layout())
		if err := mp.Push(t); err != nil {
			return nil, false
		}
		return mp, true
	default:
		return nil, false
	}
}

// districtBuilder merges same-named geometry parts into single logical
// districts, keyed by normalized name.
type districtBuilder struct {
	byKey map[string]*District
	order []string
}

func newDistrictBuilder() *districtBuilder {
	return &districtBuilder{byKey: make(map[string]*District)}
}

func (b *districtBuilder) add(name string, mp *geom.MultiPolygon) {
	key := NormalizeName(name)
	if existing, ok := b.byKey[key]; ok {
		existing.Geom = appendParts(existing.Geom, mp)
		return
	}
	b.byKey[key] = &District{Name: name, Key: key, Geom: mp}
	b.order = append(b.order, key)
}

func (b *districtBuilder) finish(path string) ([]*District, error) {
	if len(b.byKey) == 0 {
		return nil, eris.Errorf("geoindex: no usable district geometries in %s", path)
	}
	out := make([]*District, 0, len(b.byKey))
	for _, k := range b.order {
		out = append(out, b.byKey[k])
	}
	return out, nil
}

// appendParts concatenates the parts of b onto a, producing one multi-part
// geometry for districts split across features (enclaves, exclaves).
func appendParts(a, b *geom.MultiPolygon) *geom.MultiPolygon {
	merged := geom.NewMultiPolygon(a.Layout())
	for i := 0; i < a.NumPolygons(); i++ {
		_ = merged.Push(a.Polygon(i))
	}
	for i := 0; i < b.NumPolygons(); i++ {
		if b.Layout() != a.Layout() {
			continue
		}
		_ = merged.Push(b.Polygon(i))
	}
	return merged
}
