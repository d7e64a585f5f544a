package geoindex

import (
	"sort"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
)

// ErrUnknownDistrict marks a district name that is absent from the boundary
// universe. This is a data-integrity failure, distinct from a missing value.
var ErrUnknownDistrict = eris.New("geoindex: district not in boundary universe")

// Index answers adjacency, centroid, and containment queries over an
// immutable district boundary set. Build once per run with NewIndex; all
// methods are read-only afterward.
type Index struct {
	districts map[string]*District
	keys      []string // sorted, fixes iteration order everywhere
	adjacency map[string][]string
	centroids map[string]Point
	proj      projection
}

// NewIndex builds the index: projected centroids, then the symmetric
// polygon-intersection adjacency graph. Districts with degenerate geometry
// are kept in the universe but get an empty adjacency list, which pushes
// them straight to the distance fallback.
func NewIndex(districts []*District) (*Index, error) {
	if len(districts) == 0 {
		return nil, eris.New("geoindex: empty boundary set")
	}

	log := zap.L().With(zap.String("component", "geoindex"))

	byKey := make(map[string]*District, len(districts))
	for _, d := range districts {
		if d.Key == "" {
			return nil, eris.Errorf("geoindex: district %q has empty match key", d.Name)
		}
		if _, dup := byKey[d.Key]; dup {
			return nil, eris.Errorf("geoindex: duplicate district key %q", d.Key)
		}
		byKey[d.Key] = d
	}

	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	idx := &Index{
		districts: byKey,
		keys:      keys,
		adjacency: make(map[string][]string, len(keys)),
		centroids: make(map[string]Point, len(keys)),
	}
	idx.proj = referenceProjection(districts)

	// Centroids are cached up front; boundaries are static for the run.
	degenerate := make(map[string]bool)
	for _, k := range keys {
		d := byKey[k]
		c, ok := projectedCentroid(d.Geom, idx.proj)
		if !ok {
			degenerate[k] = true
			log.Warn("degenerate district geometry, adjacency disabled",
				zap.String("district", d.Name),
			)
			c = fallbackCentroid(d.Geom, idx.proj)
		}
		idx.centroids[k] = c
	}

	// Adjacency is symmetric, so test each unordered pair once.
	for i, a := range keys {
		if degenerate[a] {
			continue
		}
		for _, b := range keys[i+1:] {
			if degenerate[b] {
				continue
			}
			if mpIntersects(byKey[a].Geom, byKey[b].Geom) {
				idx.adjacency[a] = append(idx.adjacency[a], b)
				idx.adjacency[b] = append(idx.adjacency[b], a)
			}
		}
	}
	for k := range idx.adjacency {
		sort.Strings(idx.adjacency[k])
	}

	log.Debug("boundary index built",
		zap.Int("districts", len(keys)),
		zap.Int("degenerate", len(degenerate)),
	)
	return idx, nil
}

// referenceProjection centers the run's projection on the mean of the
// boundary set's bounding boxes.
func referenceProjection(districts []*District) projection {
	var sumLon, sumLat float64
	var n int
	for _, d := range districts {
		b := d.Geom.Bounds()
		sumLon += (b.Min(0) + b.Max(0)) / 2
		sumLat += (b.Min(1) + b.Max(1)) / 2
		n++
	}
	return newProjection(sumLon/float64(n), sumLat/float64(n))
}

// fallbackCentroid is the vertex mean, used only for zero-area geometries so
// the district still participates in distance queries.
func fallbackCentroid(mp *geom.MultiPolygon, proj projection) Point {
	var sx, sy float64
	var n int
	for i := 0; i < mp.NumPolygons(); i++ {
		poly := mp.Polygon(i)
		if poly.NumLinearRings() == 0 {
			continue
		}
		stride := poly.Layout().Stride()
		flat := poly.LinearRing(0).FlatCoords()
		for j := 0; j+1 < len(flat); j += stride {
			p := proj.project(flat[j], flat[j+1])
			sx += p.X
			sy += p.Y
			n++
		}
	}
	if n == 0 {
		return Point{}
	}
	return Point{X: sx / float64(n), Y: sy / float64(n)}
}

// Universe returns the sorted normalized keys of every district in the
// boundary set.
func (idx *Index) Universe() []string {
	out := make([]string, len(idx.keys))
	copy(out, idx.keys)
	return out
}

// Has reports whether key names a district in the universe.
func (idx *Index) Has(key string) bool {
	_, ok := idx.districts[key]
	return ok
}

// DisplayName returns the source display name for a district key, or the
// key itself if unknown.
func (idx *Index) DisplayName(key string) string {
	if d, ok := idx.districts[key]; ok {
		return d.Name
	}
	return key
}

// Geometry returns the boundary geometry for a district key.
func (idx *Index) Geometry(key string) (*geom.MultiPolygon, error) {
	d, ok := idx.districts[key]
	if !ok {
		return nil, eris.Wrapf(ErrUnknownDistrict, "%q", key)
	}
	return d.Geom, nil
}

// Adjacent returns the sorted keys of districts whose geometry intersects
// the named district's geometry, excluding itself.
func (idx *Index) Adjacent(key string) ([]string, error) {
	if _, ok := idx.districts[key]; !ok {
		return nil, eris.Wrapf(ErrUnknownDistrict, "%q", key)
	}
	return idx.adjacency[key], nil
}

// Centroid returns the cached projected centroid of a district.
func (idx *Index) Centroid(key string) (Point, error) {
	c, ok := idx.centroids[key]
	if !ok {
		return Point{}, eris.Wrapf(ErrUnknownDistrict, "%q", key)
	}
	return c, nil
}

// CentroidDistance returns the projected centroid distance between two
// districts in meters.
func (idx *Index) CentroidDistance(a, b string) (float64, error) {
	ca, err := idx.Centroid(a)
	if err != nil {
		return 0, err
	}
	cb, err := idx.Centroid(b)
	if err != nil {
		return 0, err
	}
	return ca.Distance(cb), nil
}

// Locate returns the key of the district containing the coordinate, testing
// districts in sorted-key order so overlapping boundaries resolve
// deterministically. ok is false when no district contains the point.
func (idx *Index) Locate(lon, lat float64) (string, bool) {
	for _, k := range idx.keys {
		if mpContains(idx.districts[k].Geom, lon, lat) {
			return k, true
		}
	}
	return "", false
}
