package io

import (
	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"
	"io"
	"os"
	"spatialgrid/index"
	"time"
)

func WritePointsAsGeoJsonFile(points []orb.Point, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "Unable to create GeoJSON file %s", filename)
	}

	err = WritePointsAsGeoJson(points, file)
	if err != nil {
		file.Close()
		return err
	}

	return errors.Wrapf(file.Close(), "Unable to close file handle for GeoJSON file %s", filename)
}

// WritePointsAsGeoJson writes the points as a FeatureCollection of point features.
func WritePointsAsGeoJson(points []orb.Point, writer io.Writer) error {
	sigolo.Debugf("Write %d points to GeoJSON", len(points))
	writeStartTime := time.Now()

	featureCollection := geojson.NewFeatureCollection()
	for _, point := range points {
		featureCollection.Append(geojson.NewFeature(point))
	}

	err := writeFeatureCollection(featureCollection, writer)
	if err != nil {
		return err
	}

	sigolo.Debugf("Finished writing in %s", time.Since(writeStartTime))
	return nil
}

// WriteSearchResultAsGeoJson writes the query point and, if one has been found, the nearest point. The features are
// distinguished by their "role" property.
func WriteSearchResultAsGeoJson(result index.SearchResult, strategy index.Strategy, writer io.Writer) error {
	featureCollection := geojson.NewFeatureCollection()

	queryFeature := geojson.NewFeature(result.Query)
	queryFeature.Properties["role"] = "query"
	queryFeature.Properties["strategy"] = strategy.String()
	queryFeature.Properties["cells_visited"] = result.Stats.CellsVisited
	queryFeature.Properties["cells_scanned"] = result.Stats.CellsScanned
	queryFeature.Properties["points_compared"] = result.Stats.PointsCompared
	queryFeature.Properties["rings"] = result.Stats.Rings
	featureCollection.Append(queryFeature)

	if result.Found {
		nearestFeature := geojson.NewFeature(result.Point)
		nearestFeature.Properties["role"] = "nearest"
		nearestFeature.Properties["distance"] = result.Distance
		featureCollection.Append(nearestFeature)
	}

	return writeFeatureCollection(featureCollection, writer)
}

func writeFeatureCollection(featureCollection *geojson.FeatureCollection, writer io.Writer) error {
	geojsonBytes, err := featureCollection.MarshalJSON()
	if err != nil {
		return errors.Wrap(err, "Unable to marshal GeoJSON feature collection")
	}

	_, err = writer.Write(geojsonBytes)
	if err != nil {
		return errors.Wrap(err, "Unable to write GeoJSON")
	}

	return nil
}

// ReadPointsFromGeoJson reads all point features of a FeatureCollection. Any other geometry type is an error.
func ReadPointsFromGeoJson(reader io.Reader) ([]orb.Point, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to read GeoJSON")
	}

	featureCollection, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to parse GeoJSON feature collection")
	}

	points := make([]orb.Point, 0, len(featureCollection.Features))
	for i, feature := range featureCollection.Features {
		point, ok := feature.Geometry.(orb.Point)
		if !ok {
			if feature.Geometry == nil {
				return nil, errors.Errorf("Feature %d has no geometry", i)
			}
			return nil, errors.Errorf("Feature %d has unsupported geometry type %s, only points are supported", i, feature.Geometry.GeoJSONType())
		}
		points = append(points, point)
	}

	return points, nil
}
