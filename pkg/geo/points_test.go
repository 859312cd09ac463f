package geo

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sliderlabel/pkg/model"
)

const sampleCollection = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [10.4, 20.6]}, "properties": {"name": "Alpha"}},
    {"type": "Feature", "geometry": {"type": "MultiPoint", "coordinates": [[1, 2], [3, 4]]}, "properties": {}},
    {"type": "Feature", "geometry": {"type": "LineString", "coordinates": [[0, 0], [1, 1]]}, "properties": {"name": "road"}}
  ]
}`

func TestDecodePoints(t *testing.T) {
	pts, err := DecodePoints([]byte(sampleCollection))
	require.NoError(t, err)

	assert.Equal(t, []model.Point{
		{X: 10, Y: 21, Name: "Alpha"},
		{X: 1, Y: 2},
		{X: 3, Y: 4},
	}, pts)
}

func TestDecodePoints_Invalid(t *testing.T) {
	_, err := DecodePoints([]byte("{not json"))
	assert.Error(t, err)
}

func TestLoadPoints_GeoJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.geojson")
	require.NoError(t, os.WriteFile(path, []byte(sampleCollection), 0o644))

	pts, err := LoadPoints(path)
	require.NoError(t, err)
	assert.Len(t, pts, 3)
}

func TestLoadPoints_Unsupported(t *testing.T) {
	_, err := LoadPoints("points.csv")
	assert.Error(t, err)
}

func TestLoadPoints_Shapefile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "towns.shp")

	w, err := shp.Create(path, shp.POINT)
	require.NoError(t, err)
	require.NoError(t, w.SetFields([]shp.Field{shp.StringField("NAME", 20)}))
	for i, p := range []struct {
		x, y float64
		name string
	}{{5.2, 6.7, "North"}, {-3.5, 8, "South"}} {
		n := w.Write(&shp.Point{X: p.x, Y: p.y})
		require.Equal(t, int32(i), n)
		require.NoError(t, w.WriteAttribute(int(n), 0, p.name))
	}
	w.Close()

	pts, err := LoadPoints(path)
	require.NoError(t, err)
	require.Len(t, pts, 2)
	assert.Equal(t, model.Point{X: 5, Y: 7, Name: "North"}, pts[0])
	assert.Equal(t, "South", pts[1].Name)
}

func TestWritePlacements(t *testing.T) {
	placements := []model.Placement{
		{Index: 0, Name: "Alpha", X: 100, Y: 40, LabelX: 70, Placed: true},
		{Index: 1, X: 100, Y: 40, Placed: false},
	}

	var buf bytes.Buffer
	require.NoError(t, WritePlacements(&buf, placements, 60, 14))

	fc, err := geojson.UnmarshalFeatureCollection(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, fc.Features, 2)

	placed := fc.Features[0]
	assert.Equal(t, geojson.BBox{70, 40, 130, 54}, placed.BBox)
	assert.Equal(t, true, placed.Properties["placed"])
	assert.Equal(t, "Alpha", placed.Properties.MustString("name", ""))

	unplaced := fc.Features[1]
	assert.Nil(t, unplaced.BBox)
	assert.Equal(t, false, unplaced.Properties["placed"])
	_, ok := unplaced.Properties["label_x"]
	assert.False(t, ok)
}

func TestWritePlacementsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.geojson")
	require.NoError(t, WritePlacementsFile(path, []model.Placement{{X: 1, Y: 2, LabelX: 0, Placed: true}}, 4, 2))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "FeatureCollection")
}
