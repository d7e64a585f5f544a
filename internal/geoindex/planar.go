package geoindex

import "github.com/twpayne/go-geom"

// Planar predicates over go-geom flat coordinates. go-geom supplies the
// geometry model and codecs but no polygon-polygon intersection test, so the
// small amount of computational geometry the adjacency graph needs lives
// here.

// mpIntersects reports whether any part of a intersects any part of b:
// a crossing or touching edge pair, or one part lying entirely inside the
// other. Multi-part districts are therefore adjacent when any piece touches.
func mpIntersects(a, b *geom.MultiPolygon) bool {
	if a == nil || b == nil || a.NumPolygons() == 0 || b.NumPolygons() == 0 {
		return false
	}
	if !a.Bounds().Overlaps(a.Layout(), b.Bounds()) {
		return false
	}

	for i := 0; i < a.NumPolygons(); i++ {
		pa := a.Polygon(i)
		for j := 0; j < b.NumPolygons(); j++ {
			pb := b.Polygon(j)
			if polysIntersect(pa, pb) {
				return true
			}
		}
	}
	return false
}

func polysIntersect(a, b *geom.Polygon) bool {
	if a.NumLinearRings() == 0 || b.NumLinearRings() == 0 {
		return false
	}
	if !a.Bounds().Overlaps(a.Layout(), b.Bounds()) {
		return false
	}

	if ringsEdgesIntersect(a, b) {
		return true
	}

	// No edge contact: one polygon may still sit wholly inside the other.
	if ax, ay, ok := firstVertex(a); ok && polygonContains(b, ax, ay) {
		return true
	}
	if bx, by, ok := firstVertex(b); ok && polygonContains(a, bx, by) {
		return true
	}
	return false
}

// ringsEdgesIntersect tests every edge of a's rings against every edge of
// b's rings. The callers' bounding-box prefilters keep this quadratic scan
// off the hot path.
func ringsEdgesIntersect(a, b *geom.Polygon) bool {
	as := a.Layout().Stride()
	bs := b.Layout().Stride()
	for i := 0; i < a.NumLinearRings(); i++ {
		ra := a.LinearRing(i).FlatCoords()
		for j := 0; j < b.NumLinearRings(); j++ {
			rb := b.LinearRing(j).FlatCoords()
			if flatRingsEdgesIntersect(ra, as, rb, bs) {
				return true
			}
		}
	}
	return false
}

func flatRingsEdgesIntersect(a []float64, as int, b []float64, bs int) bool {
	na := len(a) / as
	nb := len(b) / bs
	for i := 0; i < na-1; i++ {
		p1x, p1y := a[i*as], a[i*as+1]
		p2x, p2y := a[(i+1)*as], a[(i+1)*as+1]
		for j := 0; j < nb-1; j++ {
			q1x, q1y := b[j*bs], b[j*bs+1]
			q2x, q2y := b[(j+1)*bs], b[(j+1)*bs+1]
			if segmentsIntersect(p1x, p1y, p2x, p2y, q1x, q1y, q2x, q2y) {
				return true
			}
		}
	}
	return false
}

// segmentsIntersect is the standard orientation test, including collinear
// overlap and endpoint touches (districts sharing a single boundary vertex
// count as adjacent).
func segmentsIntersect(p1x, p1y, p2x, p2y, q1x, q1y, q2x, q2y float64) bool {
	d1 := cross(q1x, q1y, q2x, q2y, p1x, p1y)
	d2 := cross(q1x, q1y, q2x, q2y, p2x, p2y)
	d3 := cross(p1x, p1y, p2x, p2y, q1x, q1y)
	d4 := cross(p1x, p1y, p2x, p2y, q2x, q2y)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	switch {
	case d1 == 0 && onSegment(q1x, q1y, q2x, q2y, p1x, p1y):
		return true
	case d2 == 0 && onSegment(q1x, q1y, q2x, q2y, p2x, p2y):
		return true
	case d3 == 0 && onSegment(p1x, p1y, p2x, p2y, q1x, q1y):
		return true
	case d4 == 0 && onSegment(p1x, p1y, p2x, p2y, q2x, q2y):
		return true
	}
	return false
}

func cross(ax, ay, bx, by, px, py float64) float64 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

func onSegment(ax, ay, bx, by, px, py float64) bool {
	return min(ax, bx) <= px && px <= max(ax, bx) &&
		min(ay, by) <= py && py <= max(ay, by)
}

// polygonContains reports whether (x, y) lies inside the polygon's shell and
// outside all of its holes, by even-odd ray casting.
func polygonContains(p *geom.Polygon, x, y float64) bool {
	if p.NumLinearRings() == 0 {
		return false
	}
	stride := p.Layout().Stride()
	if !pointInFlatRing(p.LinearRing(0).FlatCoords(), stride, x, y) {
		return false
	}
	for i := 1; i < p.NumLinearRings(); i++ {
		if pointInFlatRing(p.LinearRing(i).FlatCoords(), stride, x, y) {
			return false
		}
	}
	return true
}

// mpContains reports whether (x, y) lies inside any part of the geometry.
func mpContains(mp *geom.MultiPolygon, x, y float64) bool {
	if mp == nil {
		return false
	}
	for i := 0; i < mp.NumPolygons(); i++ {
		if polygonContains(mp.Polygon(i), x, y) {
			return true
		}
	}
	return false
}

func pointInFlatRing(ring []float64, stride int, x, y float64) bool {
	n := len(ring) / stride
	if n < 3 {
		return false
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := ring[i*stride], ring[i*stride+1]
		xj, yj := ring[j*stride], ring[j*stride+1]
		if (yi > y) != (yj > y) &&
			x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}

func firstVertex(p *geom.Polygon) (float64, float64, bool) {
	if p.NumLinearRings() == 0 {
		return 0, 0, false
	}
	flat := p.LinearRing(0).FlatCoords()
	if len(flat) < 2 {
		return 0, 0, false
	}
	return flat[0], flat[1], true
}
