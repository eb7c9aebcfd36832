package cloud

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/simplify"
)

// FromLineString converts a single 2D stroke into samples on path 0 with z = 0.
func FromLineString(ls orb.LineString) []SamplePoint {
	return appendStroke(nil, ls, 0)
}

// FromMultiLineString converts 2D strokes into samples, one path per
// stroke. Strokes with zero planar length (taps) carry no shape and are
// dropped; path identifiers still follow the original stroke index.
func FromMultiLineString(mls orb.MultiLineString) []SamplePoint {
	var samples []SamplePoint
	for i, ls := range mls {
		if planar.Length(ls) == 0 {
			continue
		}
		samples = appendStroke(samples, ls, i)
	}
	return samples
}

func appendStroke(samples []SamplePoint, ls orb.LineString, path int) []SamplePoint {
	for _, p := range ls {
		samples = append(samples, SamplePoint{X: p.X(), Y: p.Y(), Path: path})
	}
	return samples
}

// FromGeometry accepts LineString, MultiLineString, Ring and Polygon
// geometries. Polygon rings become separate paths.
func FromGeometry(g orb.Geometry) ([]SamplePoint, error) {
	switch geom := g.(type) {
	case orb.LineString:
		return FromLineString(geom), nil
	case orb.MultiLineString:
		return FromMultiLineString(geom), nil
	case orb.Ring:
		return FromLineString(orb.LineString(geom)), nil
	case orb.Polygon:
		mls := make(orb.MultiLineString, len(geom))
		for i, r := range geom {
			mls[i] = orb.LineString(r)
		}
		return FromMultiLineString(mls), nil
	case nil:
		return nil, fmt.Errorf("missing geometry")
	default:
		return nil, fmt.Errorf("unsupported geometry type %s", g.GeoJSONType())
	}
}

// SimplifyStrokes thins every stroke with Douglas-Peucker at the given
// tolerance. Useful for dense pointer recordings before resampling.
func SimplifyStrokes(mls orb.MultiLineString, tolerance float64) orb.MultiLineString {
	if tolerance <= 0 {
		return mls
	}
	simplified, ok := simplify.DouglasPeucker(tolerance).Simplify(mls.Clone()).(orb.MultiLineString)
	if !ok {
		return mls
	}
	return simplified
}

// ParseGeoJSONSamples reads a FeatureCollection where every feature is one
// gesture recording labeled by the labelKey property. A positive tolerance
// thins each geometry with Douglas-Peucker first.
func ParseGeoJSONSamples(data []byte, labelKey string, tolerance float64) ([]GestureSample, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parsing GeoJSON: %w", err)
	}

	samples := make([]GestureSample, 0, len(fc.Features))
	for i, f := range fc.Features {
		g := f.Geometry
		if g != nil && tolerance > 0 {
			g = simplify.DouglasPeucker(tolerance).Simplify(orb.Clone(g))
		}
		points, err := FromGeometry(g)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		samples = append(samples, GestureSample{
			Label:  f.Properties.MustString(labelKey, ""),
			Points: points,
		})
	}
	return samples, nil
}
