package cloud

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromLineString(t *testing.T) {
	got := FromLineString(orb.LineString{{0, 0}, {1, 2}})
	assert.Equal(t, []SamplePoint{{X: 0, Y: 0}, {X: 1, Y: 2}}, got)
}

func TestFromMultiLineString(t *testing.T) {
	mls := orb.MultiLineString{
		{{0, 0}, {1, 0}},
		{{5, 5}, {5, 5}}, // tap
		{{0, 1}, {1, 1}},
	}

	got := FromMultiLineString(mls)
	want := []SamplePoint{
		{X: 0, Y: 0, Path: 0}, {X: 1, Y: 0, Path: 0},
		{X: 0, Y: 1, Path: 2}, {X: 1, Y: 1, Path: 2},
	}
	assert.Equal(t, want, got)
}

func TestFromGeometry(t *testing.T) {
	tests := []struct {
		name    string
		geom    orb.Geometry
		paths   []int
		wantErr string
	}{
		{"line string", orb.LineString{{0, 0}, {1, 1}}, []int{0, 0}, ""},
		{"ring", orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 0}}, []int{0, 0, 0, 0}, ""},
		{
			name:  "polygon with hole",
			geom:  orb.Polygon{{{0, 0}, {4, 0}, {4, 4}, {0, 0}}, {{1, 1}, {2, 1}, {1, 1}}},
			paths: []int{0, 0, 0, 0, 1, 1, 1},
		},
		{"point", orb.Point{1, 2}, nil, "unsupported geometry type Point"},
		{"nil", nil, nil, "missing geometry"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromGeometry(tt.geom)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			paths := make([]int, len(got))
			for i, s := range got {
				paths[i] = s.Path
			}
			assert.Equal(t, tt.paths, paths)
		})
	}
}

func TestSimplifyStrokes(t *testing.T) {
	mls := orb.MultiLineString{{{0, 0}, {1, 0}, {2, 0}, {3, 1}}}

	got := SimplifyStrokes(mls, 0.1)
	require.Len(t, got, 1)
	assert.Equal(t, orb.LineString{{0, 0}, {2, 0}, {3, 1}}, got[0])
	assert.Len(t, mls[0], 4, "input must not change")

	assert.Equal(t, mls, SimplifyStrokes(mls, 0))
}

const geoJSONSamples = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"label": "check"},
      "geometry": {"type": "LineString", "coordinates": [[0, 1], [1, 0], [1.5, 0], [2, 0], [4, 3]]}
    },
    {
      "type": "Feature",
      "properties": {"gesture": "x"},
      "geometry": {"type": "MultiLineString", "coordinates": [[[0, 0], [2, 2]], [[2, 0], [0, 2]]]}
    }
  ]
}`

func TestParseGeoJSONSamples(t *testing.T) {
	samples, err := ParseGeoJSONSamples([]byte(geoJSONSamples), "label", 0)
	require.NoError(t, err)
	require.Len(t, samples, 2)

	assert.Equal(t, "check", samples[0].Label)
	assert.Len(t, samples[0].Points, 5)
	assert.Equal(t, "", samples[1].Label, "missing property gives empty label")
	assert.Len(t, samples[1].Points, 4)
	assert.Equal(t, 1, samples[1].Points[2].Path)

	simplified, err := ParseGeoJSONSamples([]byte(geoJSONSamples), "gesture", 0.01)
	require.NoError(t, err)
	assert.Len(t, simplified[0].Points, 4, "collinear (1.5, 0) dropped")
	assert.Equal(t, "x", simplified[1].Label)
}

func TestParseGeoJSONSamples_Errors(t *testing.T) {
	_, err := ParseGeoJSONSamples([]byte("{"), "label", 0)
	assert.Error(t, err)

	point := `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{},"geometry":{"type":"Point","coordinates":[1,2]}}]}`
	_, err = ParseGeoJSONSamples([]byte(point), "label", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "feature 0")
}
