package geoindex

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

// square returns a closed ring polygon with lower-left corner (x, y).
func square(x, y, size float64) *geom.MultiPolygon {
	poly := geom.NewPolygonFlat(geom.XY, []float64{
		x, y,
		x + size, y,
		x + size, y + size,
		x, y + size,
		x, y,
	}, []int{10})
	mp := geom.NewMultiPolygon(geom.XY)
	if err := mp.Push(poly); err != nil {
		panic(err)
	}
	return mp
}

func district(name string, mp *geom.MultiPolygon) *District {
	return &District{Name: name, Key: NormalizeName(name), Geom: mp}
}

func mustIndex(t *testing.T, districts ...*District) *Index {
	t.Helper()
	idx, err := NewIndex(districts)
	require.NoError(t, err)
	return idx
}

func TestAdjacency_RowOfSquares(t *testing.T) {
	t.Parallel()

	// a | b | c share edges; a and c only meet through b.
	idx := mustIndex(t,
		district("a", square(0, 0, 1)),
		district("b", square(1, 0, 1)),
		district("c", square(2, 0, 1)),
	)

	adj, err := idx.Adjacent("b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, adj)

	adj, err = idx.Adjacent("a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, adj)
}

func TestAdjacency_DiagonalTouchCounts(t *testing.T) {
	t.Parallel()

	// Sharing only a corner vertex still counts as intersecting.
	idx := mustIndex(t,
		district("a", square(0, 0, 1)),
		district("b", square(1, 1, 1)),
	)

	adj, err := idx.Adjacent("a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, adj)
}

func TestAdjacency_MultiPartDistrict(t *testing.T) {
	t.Parallel()

	// "split" has two disjoint parts, one touching west and one touching
	// east; both intersections belong to the same logical district.
	parts := geom.NewMultiPolygon(geom.XY)
	require.NoError(t, parts.Push(square(1, 0, 1).Polygon(0)))
	require.NoError(t, parts.Push(square(5, 0, 1).Polygon(0)))

	idx := mustIndex(t,
		district("west", square(0, 0, 1)),
		district("east", square(6, 0, 1)),
		district("split", parts),
	)

	adj, err := idx.Adjacent("split")
	require.NoError(t, err)
	assert.Equal(t, []string{"east", "west"}, adj)

	adj, err = idx.Adjacent("west")
	require.NoError(t, err)
	assert.Equal(t, []string{"split"}, adj)

	adj, err = idx.Adjacent("east")
	require.NoError(t, err)
	assert.Equal(t, []string{"split"}, adj)
}

func TestAdjacency_DisjointSquares(t *testing.T) {
	t.Parallel()

	idx := mustIndex(t,
		district("a", square(0, 0, 1)),
		district("b", square(3, 3, 1)),
	)

	adj, err := idx.Adjacent("a")
	require.NoError(t, err)
	assert.Empty(t, adj)
}

func TestAdjacency_ContainedDistrict(t *testing.T) {
	t.Parallel()

	// An enclave strictly inside another district intersects it.
	idx := mustIndex(t,
		district("outer", square(0, 0, 10)),
		district("inner", square(4, 4, 1)),
	)

	adj, err := idx.Adjacent("outer")
	require.NoError(t, err)
	assert.Equal(t, []string{"inner"}, adj)
}

func TestCentroidDistance_Ordering(t *testing.T) {
	t.Parallel()

	idx := mustIndex(t,
		district("a", square(0, 0, 1)),
		district("b", square(1, 0, 1)),
		district("c", square(4, 0, 1)),
	)

	ab, err := idx.CentroidDistance("a", "b")
	require.NoError(t, err)
	ac, err := idx.CentroidDistance("a", "c")
	require.NoError(t, err)
	ba, err := idx.CentroidDistance("b", "a")
	require.NoError(t, err)

	assert.Greater(t, ab, 0.0)
	assert.Greater(t, ac, ab)
	assert.InDelta(t, ab, ba, 1e-9)
	// Same latitude, 4x the longitude gap.
	assert.InDelta(t, 4.0, ac/ab, 1e-6)
}

func TestLocate(t *testing.T) {
	t.Parallel()

	idx := mustIndex(t,
		district("a", square(0, 0, 1)),
		district("b", square(1, 0, 1)),
	)

	key, ok := idx.Locate(1.5, 0.5)
	require.True(t, ok)
	assert.Equal(t, "b", key)

	_, ok = idx.Locate(10, 10)
	assert.False(t, ok)
}

func TestUnknownDistrict(t *testing.T) {
	t.Parallel()

	idx := mustIndex(t, district("a", square(0, 0, 1)))

	_, err := idx.Adjacent("nowhere")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrUnknownDistrict))

	_, err = idx.Centroid("nowhere")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrUnknownDistrict))

	_, err = idx.Geometry("nowhere")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrUnknownDistrict))
}

func TestDegenerateGeometry(t *testing.T) {
	t.Parallel()

	// A collapsed ring has no area: the district stays in the universe but
	// gets no adjacency, pushing it to the distance fallback.
	flatLine := geom.NewPolygonFlat(geom.XY, []float64{
		0, 0, 1, 0, 2, 0, 0, 0,
	}, []int{8})
	mp := geom.NewMultiPolygon(geom.XY)
	require.NoError(t, mp.Push(flatLine))

	idx := mustIndex(t,
		district("flat", mp),
		district("b", square(0, 0, 1)),
	)

	assert.True(t, idx.Has("flat"))
	adj, err := idx.Adjacent("flat")
	require.NoError(t, err)
	assert.Empty(t, adj)

	// Centroid still resolves (vertex mean) so distance queries work.
	_, err = idx.CentroidDistance("flat", "b")
	require.NoError(t, err)
}

func TestDuplicateKeyRejected(t *testing.T) {
	t.Parallel()

	_, err := NewIndex([]*District{
		district("Gurugram", square(0, 0, 1)),
		district("gurugram", square(5, 5, 1)),
	})
	require.Error(t, err)
}

func TestPolygonContains_Hole(t *testing.T) {
	t.Parallel()

	poly := geom.NewPolygonFlat(geom.XY, []float64{
		// shell
		0, 0, 10, 0, 10, 10, 0, 10, 0, 0,
		// hole
		4, 4, 6, 4, 6, 6, 4, 6, 4, 4,
	}, []int{10, 20})

	assert.True(t, polygonContains(poly, 1, 1))
	assert.False(t, polygonContains(poly, 5, 5), "point in hole is outside")
	assert.False(t, polygonContains(poly, 11, 5))
}
