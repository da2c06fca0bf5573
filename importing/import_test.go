package importing

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"spatialgrid/index"
	"spatialgrid/util"
	"testing"
)

func TestImport(t *testing.T) {
	// Arrange
	grid, err := index.NewGrid(0, 10, 0, 10, 10, 10)
	util.AssertNil(t, err)

	// Act
	summary, err := Import("testdata/nodes.osm", grid)

	// Assert
	util.AssertNil(t, err)
	util.AssertEqual(t, &ImportSummary{Imported: 4, Rejected: 1}, summary)
	util.AssertEqual(t, 4, grid.Len())

	point, found := grid.NearestExpanding(2.6, 3.2)
	util.AssertTrue(t, found)
	util.AssertEqual(t, orb.Point{2.8, 3.1}, point)
}

func TestImport_unknownFileType(t *testing.T) {
	grid, err := index.NewGrid(0, 10, 0, 10, 10, 10)
	util.AssertNil(t, err)

	_, err = Import("testdata/nodes.txt", grid)

	util.AssertError(t, "Input file testdata/nodes.txt must be an .osm or .pbf file", err)
	util.AssertEqual(t, 0, grid.Len())
}

func TestGridImporter_handleNode(t *testing.T) {
	grid, err := index.NewGrid(0, 10, 0, 10, 10, 10)
	util.AssertNil(t, err)
	importer := NewGridImporter(grid)
	util.AssertNil(t, importer.Init())

	util.AssertNil(t, importer.HandleNode(&osm.Node{ID: 1, Lon: 1, Lat: 2}))
	util.AssertNil(t, importer.HandleNode(&osm.Node{ID: 2, Lon: -1, Lat: 2}))
	util.AssertNil(t, importer.HandleNode(&osm.Node{ID: 3, Lon: 9.9, Lat: 9.9}))

	util.AssertEqual(t, ImportSummary{Imported: 2, Rejected: 1}, importer.Summary)
	util.AssertEqual(t, []orb.Point{{1, 2}, {9.9, 9.9}}, grid.Points())
}

func TestFitGrid(t *testing.T) {
	// Act
	grid, err := FitGrid("testdata/nodes.osm", 4, 4)

	// Assert
	util.AssertNil(t, err)
	bound := grid.Bound()
	util.AssertEqual(t, 2.5, bound.Min.X())
	util.AssertEqual(t, 3.1, bound.Min.Y())
	util.AssertTrue(t, bound.Max.X() > 8.1)
	util.AssertTrue(t, bound.Max.Y() > 12.0)

	summary, err := Import("testdata/nodes.osm", grid)
	util.AssertNil(t, err)
	util.AssertEqual(t, 5, summary.Imported)
	util.AssertEqual(t, 0, summary.Rejected)
}

func TestPaddedEnd(t *testing.T) {
	util.AssertApprox(t, 10.00001, paddedEnd(0, 10), 1e-12)
	util.AssertApprox(t, 5+FitMinPadding, paddedEnd(5, 5), 1e-12)
}
