package geoindex

import (
	"strings"

	shp "github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
)

// LoadShapefile reads district boundaries from an ESRI shapefile. nameField
// may be empty to auto-detect the district name attribute. Records sharing a
// district name are merged into one multi-part District.
func LoadShapefile(path, nameField string) ([]*District, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geoindex: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	nameIdx := -1
	if nameField != "" {
		nameIdx = shpFieldIndex(reader, nameField)
		if nameIdx < 0 {
			return nil, eris.Errorf("geoindex: shapefile field %q not found", nameField)
		}
	} else {
		for _, cand := range nameFieldCandidates {
			if i := shpFieldIndex(reader, cand); i >= 0 {
				nameIdx = i
				break
			}
		}
		if nameIdx < 0 {
			return nil, eris.Errorf("geoindex: no district name field among %v", nameFieldCandidates)
		}
	}

	builder := newDistrictBuilder()
	var skipped int

	for reader.Next() {
		_, shape := reader.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok || poly == nil {
			skipped++
			continue
		}

		name := strings.TrimSpace(strings.TrimRight(reader.Attribute(nameIdx), "\x00"))
		if name == "" {
			skipped++
			continue
		}

		mp := shapePolygonToGeom(poly)
		if mp == nil {
			skipped++
			continue
		}
		builder.add(name, mp)
	}

	if skipped > 0 {
		zap.L().Warn("geoindex: skipped shapefile records",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}
	return builder.finish(path)
}

func shpFieldIndex(reader *shp.Reader, name string) int {
	for i, f := range reader.Fields() {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), name) {
			return i
		}
	}
	return -1
}

// shapePolygonToGeom converts a shapefile polygon record to a MultiPolygon.
// Shapefile parts encode shells clockwise and holes counter-clockwise; each
// hole is attached to the most recent shell.
func shapePolygonToGeom(p *shp.Polygon) *geom.MultiPolygon {
	if p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY)
	var current *geom.Polygon

	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}
		if end-start < 3 {
			continue
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}
		ring := geom.NewLinearRingFlat(geom.XY, flat)

		if signedRingArea(flat) < 0 || current == nil {
			// Clockwise: a new shell. Treat a leading counter-clockwise
			// ring as a shell too; some writers ignore the convention.
			if current != nil && current.NumLinearRings() > 0 {
				_ = mp.Push(current)
			}
			current = geom.NewPolygon(geom.XY)
			_ = current.Push(ring)
		} else {
			_ = current.Push(ring)
		}
	}
	if current != nil && current.NumLinearRings() > 0 {
		_ = mp.Push(current)
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

// signedRingArea is the shoelace sum over an XY flat ring; negative for
// clockwise winding.
func signedRingArea(flat []float64) float64 {
	n := len(flat) / 2
	var a float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		a += flat[i*2]*flat[j*2+1] - flat[j*2]*flat[i*2+1]
	}
	return a / 2
}
