// Package scenario reads and writes obstacle sets as GeoJSON feature
// collections.
//
// A LineString feature becomes a line obstacle whose thickness is taken from
// the "width" property. A Polygon feature becomes a polygon obstacle built
// from its outer ring. Multi geometries contribute one obstacle per member.
package scenario

import (
	"errors"
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"curve-planner/geometry"
)

// WidthProperty is the feature property holding a line obstacle's width.
const WidthProperty = "width"

var (
	// ErrUnsupportedGeometry is returned for geometries other than
	// (Multi)LineString and (Multi)Polygon.
	ErrUnsupportedGeometry = errors.New("unsupported geometry")

	// ErrInvalidObstacle is returned for features that cannot form an
	// obstacle, such as a line with fewer than two points or a negative
	// width.
	ErrInvalidObstacle = errors.New("invalid obstacle")
)

// Options controls decoding.
type Options struct {
	// DefaultWidth is used for line features without a width property.
	DefaultWidth float64
	// SimplifyEpsilon > 0 simplifies polygon rings with Douglas-Peucker.
	SimplifyEpsilon float64
	// DropContained removes polygons lying inside another polygon.
	DropContained bool
}

// Decode parses a GeoJSON FeatureCollection into obstacles.
func Decode(data []byte, opts Options) ([]geometry.Obstacle, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feature collection: %w", err)
	}
	return FromFeatureCollection(fc, opts)
}

// FromFeatureCollection converts already parsed features into obstacles.
func FromFeatureCollection(fc *geojson.FeatureCollection, opts Options) ([]geometry.Obstacle, error) {
	var obstacles []geometry.Obstacle
	for i, f := range fc.Features {
		obs, err := fromFeature(f, opts)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		obstacles = append(obstacles, obs...)
	}

	if opts.SimplifyEpsilon > 0 {
		before := vertexCount(obstacles)
		obstacles = Simplify(obstacles, opts.SimplifyEpsilon)
		zap.L().Debug("simplified polygon obstacles",
			zap.Float64("epsilon", opts.SimplifyEpsilon),
			zap.Int("vertices_before", before),
			zap.Int("vertices_after", vertexCount(obstacles)),
		)
	}
	if opts.DropContained {
		obstacles = RemoveContained(obstacles)
	}
	return obstacles, nil
}

// LoadFile reads a GeoJSON scenario from disk.
func LoadFile(path string, opts Options) ([]geometry.Obstacle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	obstacles, err := Decode(data, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	zap.L().Info("loaded scenario",
		zap.String("path", path),
		zap.Int("obstacles", len(obstacles)),
	)
	return obstacles, nil
}

func fromFeature(f *geojson.Feature, opts Options) ([]geometry.Obstacle, error) {
	switch g := f.Geometry.(type) {
	case orb.LineString:
		o, err := lineObstacle(g, f.Properties, opts)
		if err != nil {
			return nil, err
		}
		return []geometry.Obstacle{o}, nil

	case orb.MultiLineString:
		out := make([]geometry.Obstacle, 0, len(g))
		for _, ls := range g {
			o, err := lineObstacle(ls, f.Properties, opts)
			if err != nil {
				return nil, err
			}
			out = append(out, o)
		}
		return out, nil

	case orb.Polygon:
		o, err := polygonObstacle(g)
		if err != nil {
			return nil, err
		}
		return []geometry.Obstacle{o}, nil

	case orb.MultiPolygon:
		out := make([]geometry.Obstacle, 0, len(g))
		for _, poly := range g {
			o, err := polygonObstacle(poly)
			if err != nil {
				return nil, err
			}
			out = append(out, o)
		}
		return out, nil

	case nil:
		return nil, fmt.Errorf("missing geometry: %w", ErrInvalidObstacle)
	}

	return nil, fmt.Errorf("%s: %w", f.Geometry.GeoJSONType(), ErrUnsupportedGeometry)
}

func lineObstacle(ls orb.LineString, props geojson.Properties, opts Options) (geometry.Obstacle, error) {
	if len(ls) < 2 {
		return geometry.Obstacle{}, fmt.Errorf("line with %d points: %w", len(ls), ErrInvalidObstacle)
	}

	width := opts.DefaultWidth
	if v, ok := props[WidthProperty]; ok {
		w, ok := v.(float64)
		if !ok {
			return geometry.Obstacle{}, fmt.Errorf("width %v is not a number: %w", v, ErrInvalidObstacle)
		}
		width = w
	}
	if width < 0 {
		return geometry.Obstacle{}, fmt.Errorf("negative width %g: %w", width, ErrInvalidObstacle)
	}

	points := make([]geometry.Point, len(ls))
	for i, p := range ls {
		points[i] = geometry.Pt(p.X(), p.Y())
	}
	return geometry.Obstacle{Kind: geometry.KindLine, Points: points, Width: width}, nil
}

// polygonObstacle keeps the outer ring without its closing vertex. Holes
// are ignored.
func polygonObstacle(poly orb.Polygon) (geometry.Obstacle, error) {
	if len(poly) == 0 {
		return geometry.Obstacle{}, fmt.Errorf("polygon without rings: %w", ErrInvalidObstacle)
	}

	ring := poly[0]
	if len(ring) > 1 && ring[0] == ring[len(ring)-1] {
		ring = ring[:len(ring)-1]
	}
	if len(ring) < 3 {
		return geometry.Obstacle{}, fmt.Errorf("ring with %d vertices: %w", len(ring), ErrInvalidObstacle)
	}

	vertices := make([]geometry.Point, len(ring))
	for i, p := range ring {
		vertices[i] = geometry.Pt(p.X(), p.Y())
	}
	return geometry.NewPolygonObstacle(vertices...), nil
}

// Encode writes obstacles as a GeoJSON FeatureCollection, the inverse of
// Decode.
func Encode(obstacles []geometry.Obstacle) ([]byte, error) {
	return FeatureCollection(obstacles).MarshalJSON()
}

// FeatureCollection converts obstacles into GeoJSON features. Polygon rings
// are closed and line obstacles carry their width as a property.
func FeatureCollection(obstacles []geometry.Obstacle) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, o := range obstacles {
		switch o.Kind {
		case geometry.KindLine:
			f := geojson.NewFeature(toLineString(o.Points))
			f.Properties[WidthProperty] = o.Width
			fc.Append(f)
		case geometry.KindPolygon:
			ring := orb.Ring(toLineString(o.Points))
			if len(ring) > 0 {
				ring = append(ring, ring[0])
			}
			fc.Append(geojson.NewFeature(orb.Polygon{ring}))
		}
	}
	return fc
}

func toLineString(points []geometry.Point) orb.LineString {
	ls := make(orb.LineString, len(points))
	for i, p := range points {
		ls[i] = orb.Point{p.X, p.Y}
	}
	return ls
}

func vertexCount(obstacles []geometry.Obstacle) int {
	n := 0
	for _, o := range obstacles {
		n += len(o.Points)
	}
	return n
}
