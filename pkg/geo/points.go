// Package geo reads input points and writes labeled results as GeoJSON.
package geo

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"sliderlabel/pkg/model"
)

// NameProperty is the feature property (or shapefile field) used as label text.
const NameProperty = "name"

// LoadPoints reads points from a GeoJSON (.geojson, .json) or shapefile (.shp).
// Coordinates are rounded to the integer grid the annealer works on.
func LoadPoints(path string) ([]model.Point, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".geojson", ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read geojson %s: %w", path, err)
		}
		pts, err := DecodePoints(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse geojson %s: %w", path, err)
		}
		return pts, nil
	case ".shp":
		return loadShapefile(path)
	default:
		return nil, fmt.Errorf("unsupported input format: %s", path)
	}
}

// DecodePoints parses a GeoJSON FeatureCollection. Point and MultiPoint
// geometries are taken; other geometries are skipped.
func DecodePoints(data []byte) ([]model.Point, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, err
	}

	var pts []model.Point
	skipped := 0
	for _, f := range fc.Features {
		name := f.Properties.MustString(NameProperty, "")
		switch g := f.Geometry.(type) {
		case orb.Point:
			pts = append(pts, toPoint(g, name))
		case orb.MultiPoint:
			for _, p := range g {
				pts = append(pts, toPoint(p, name))
			}
		default:
			skipped++
		}
	}
	if skipped > 0 {
		slog.Debug("Skipped non-point features", "count", skipped)
	}
	return pts, nil
}

func loadShapefile(path string) ([]model.Point, error) {
	shape, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open shapefile: %w", err)
	}
	defer shape.Close()

	nameField := -1
	for i, f := range shape.Fields() {
		if strings.EqualFold(f.String(), NameProperty) {
			nameField = i
			break
		}
	}

	var pts []model.Point
	for shape.Next() {
		n, s := shape.Shape()
		var name string
		if nameField >= 0 {
			name = strings.TrimSpace(shape.ReadAttribute(n, nameField))
		}
		switch p := s.(type) {
		case *shp.Point:
			pts = append(pts, toPoint(orb.Point{p.X, p.Y}, name))
		case *shp.MultiPoint:
			for _, q := range p.Points {
				pts = append(pts, toPoint(orb.Point{q.X, q.Y}, name))
			}
		case *shp.Null:
			continue
		default:
			slog.Debug("Skipping unsupported shape type", "type", fmt.Sprintf("%T", s))
		}
	}
	if err := shape.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shapes: %w", err)
	}
	return pts, nil
}

func toPoint(p orb.Point, name string) model.Point {
	return model.Point{
		X:    int(math.Round(p.X())),
		Y:    int(math.Round(p.Y())),
		Name: name,
	}
}

// PlacementCollection converts placements to GeoJSON. Each feature is the
// input point; the label rectangle is the feature bbox when placed.
func PlacementCollection(placements []model.Placement, width, height int) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, p := range placements {
		f := geojson.NewFeature(orb.Point{float64(p.X), float64(p.Y)})
		f.Properties["index"] = p.Index
		f.Properties["placed"] = p.Placed
		if p.Name != "" {
			f.Properties[NameProperty] = p.Name
		}
		if p.Placed {
			minX, minY, maxX, maxY := p.Rect(width, height)
			f.Properties["label_x"] = p.LabelX
			f.BBox = geojson.BBox{float64(minX), float64(minY), float64(maxX), float64(maxY)}
		}
		fc.Append(f)
	}
	return fc
}

// WritePlacements encodes placements as an indented GeoJSON FeatureCollection.
func WritePlacements(w io.Writer, placements []model.Placement, width, height int) error {
	data, err := json.MarshalIndent(PlacementCollection(placements, width, height), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal GeoJSON: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// WritePlacementsFile writes placements to path, creating parent directories.
func WritePlacementsFile(path string, placements []model.Placement, width, height int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := WritePlacements(f, placements, width, height); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
