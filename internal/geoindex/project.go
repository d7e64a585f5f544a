package geoindex

import (
	"math"

	"github.com/twpayne/go-geom"
)

const earthRadiusM = 6371000.0

// Point is a 2D position in the run's projected coordinate system, in
// meters.
type Point struct {
	X float64
	Y float64
}

// Distance returns the Euclidean distance to q in meters.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// projection is a local equirectangular projection about a reference point.
// Centroid distances are only ever compared against each other, never
// reported, so a locally equidistant approximation is sufficient at district
// scale. Scoped to one Index so independent runs stay independent.
type projection struct {
	lon0    float64
	lat0    float64
	cosLat0 float64
}

func newProjection(lon0, lat0 float64) projection {
	return projection{lon0: lon0, lat0: lat0, cosLat0: math.Cos(lat0 * math.Pi / 180)}
}

func (p projection) project(lon, lat float64) Point {
	return Point{
		X: earthRadiusM * (lon - p.lon0) * math.Pi / 180 * p.cosLat0,
		Y: earthRadiusM * (lat - p.lat0) * math.Pi / 180,
	}
}

// projectedCentroid computes the area-weighted centroid of the geometry in
// projected coordinates. Hole rings subtract from shell rings. Returns false
// for degenerate (effectively zero-area) geometries.
func projectedCentroid(mp *geom.MultiPolygon, proj projection) (Point, bool) {
	var sumA, sumX, sumY float64

	for i := 0; i < mp.NumPolygons(); i++ {
		poly := mp.Polygon(i)
		stride := poly.Layout().Stride()
		for r := 0; r < poly.NumLinearRings(); r++ {
			a, cx, cy := ringCentroid(poly.LinearRing(r).FlatCoords(), stride, proj)
			if r == 0 {
				sumA += a
				sumX += a * cx
				sumY += a * cy
			} else {
				sumA -= a
				sumX -= a * cx
				sumY -= a * cy
			}
		}
	}

	if math.Abs(sumA) < 1e-9 {
		return Point{}, false
	}
	return Point{X: sumX / sumA, Y: sumY / sumA}, true
}

// ringCentroid returns the absolute shoelace area and centroid of one ring
// after projection.
func ringCentroid(ring []float64, stride int, proj projection) (area, cx, cy float64) {
	n := len(ring) / stride
	if n < 3 {
		return 0, 0, 0
	}

	pts := make([]Point, n)
	for i := 0; i < n; i++ {
		pts[i] = proj.project(ring[i*stride], ring[i*stride+1])
	}

	var a, sx, sy float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		w := pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
		a += w
		sx += (pts[i].X + pts[j].X) * w
		sy += (pts[i].Y + pts[j].Y) * w
	}
	a /= 2
	if a == 0 {
		return 0, 0, 0
	}
	cx = sx / (6 * a)
	cy = sy / (6 * a)
	return math.Abs(a), cx, cy
}
