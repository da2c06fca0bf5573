package importing

import (
	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/osm"
	"github.com/pkg/errors"
	"spatialgrid/index"
	ownOsm "spatialgrid/osm"
	"time"
)

const (
	// FitPaddingRatio widens a fitted grid beyond the data extent, relative to the extent, so that the maximal node
	// still maps into the last bin.
	FitPaddingRatio = 1e-6
	// FitMinPadding is used instead when the data extent has no width or height.
	FitMinPadding = 1e-6
)

type ImportSummary struct {
	Imported int
	Rejected int
}

// GridImporter inserts every node it receives into a grid, using the longitude as x and the latitude as y.
type GridImporter struct {
	grid    index.PointIndex
	Summary ImportSummary
}

func NewGridImporter(grid index.PointIndex) *GridImporter {
	return &GridImporter{grid: grid}
}

func (i *GridImporter) Name() string {
	return "GridImporter"
}

func (i *GridImporter) Init() error {
	i.Summary = ImportSummary{}
	return nil
}

func (i *GridImporter) HandleNode(node *osm.Node) error {
	err := i.grid.Insert(node.Lon, node.Lat)
	if errors.Is(err, index.ErrOutOfBounds) {
		sigolo.Tracef("Skip node %d outside of grid: %s", node.ID, err.Error())
		i.Summary.Rejected++
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "Unable to insert node %d", node.ID)
	}

	i.Summary.Imported++
	return nil
}

func (i *GridImporter) Done() error {
	return nil
}

// Import inserts all nodes of the given OSM file into the grid. Nodes outside the grid are counted as rejected.
func Import(inputFile string, grid index.PointIndex) (*ImportSummary, error) {
	sigolo.Infof("Start import of file %s", inputFile)
	importStartTime := time.Now()

	importer := NewGridImporter(grid)
	err := ownOsm.NewOsmReader().Read(inputFile, importer)
	if err != nil {
		return nil, err
	}

	importDuration := time.Since(importStartTime)
	sigolo.Infof("Finished import in %s: %d nodes imported, %d nodes outside of grid", importDuration, importer.Summary.Imported, importer.Summary.Rejected)

	return &importer.Summary, nil
}

// FitGrid creates a grid with the given resolution covering all nodes of the given OSM file.
func FitGrid(inputFile string, numXBins int, numYBins int) (*index.Grid, error) {
	extent := ownOsm.NewExtentAggregator()
	err := ownOsm.NewOsmReader().Read(inputFile, extent)
	if err != nil {
		return nil, err
	}
	if !extent.HasNodes() {
		return nil, errors.Errorf("Unable to fit grid to file %s: file contains no nodes", inputFile)
	}

	bound := extent.Bound
	sigolo.Debugf("Data extent of %s: x=[%f, %f], y=[%f, %f]", inputFile, bound.Min.X(), bound.Max.X(), bound.Min.Y(), bound.Max.Y())

	return index.NewGrid(
		bound.Min.X(), paddedEnd(bound.Min.X(), bound.Max.X()),
		bound.Min.Y(), paddedEnd(bound.Min.Y(), bound.Max.Y()),
		numXBins, numYBins,
	)
}

func paddedEnd(start float64, end float64) float64 {
	padding := (end - start) * FitPaddingRatio
	if padding == 0 {
		padding = FitMinPadding
	}
	return end + padding
}
