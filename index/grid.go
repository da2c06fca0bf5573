package index

import (
	"fmt"
	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"math"
	"spatialgrid/common"
)

// DeleteTolerance is the maximum per-axis difference between a deletion target and a stored point for the point to be
// considered the same. Any point within this distance on both axes matches, so in densely populated bins a deletion
// may remove a neighbor instead of the intended point.
const DeleteTolerance = 1.5

// MaxBins limits the total number of bins of a grid.
const MaxBins = 1 << 26

const epsilon = 0x1p-52

// Grid is a uniform 2-D grid of bins over a fixed rectangle. Every stored point lives in the bucket of the bin its
// coordinates map to. The grid is not safe for concurrent use.
type Grid struct {
	xStart     float64
	xEnd       float64
	yStart     float64
	yEnd       float64
	numXBins   int
	numYBins   int
	cellWidth  float64
	cellHeight float64
	xSlack     float64
	ySlack     float64
	extent     common.CellExtent
	buckets    [][]bucket // [x][y]
	size       int
}

// NewGrid creates an empty grid over [xStart, xEnd) x [yStart, yEnd) with the given amount of bins per axis.
func NewGrid(xStart float64, xEnd float64, yStart float64, yEnd float64, numXBins int, numYBins int) (*Grid, error) {
	if numXBins <= 0 || numYBins <= 0 {
		return nil, errors.Wrapf(ErrInvalidGrid, "bin counts must be positive but were %dx%d", numXBins, numYBins)
	}
	if !isFinite(xStart) || !isFinite(xEnd) || !isFinite(yStart) || !isFinite(yEnd) {
		return nil, errors.Wrapf(ErrInvalidGrid, "bounds must be finite but were x=[%f, %f), y=[%f, %f)", xStart, xEnd, yStart, yEnd)
	}
	if xStart >= xEnd || yStart >= yEnd {
		return nil, errors.Wrapf(ErrInvalidGrid, "start must be less than end on both axes but was x=[%f, %f), y=[%f, %f)", xStart, xEnd, yStart, yEnd)
	}
	if float64(numXBins)*float64(numYBins) > MaxBins {
		return nil, errors.Wrapf(ErrInvalidGrid, "%dx%d bins exceed the maximum of %d bins", numXBins, numYBins, MaxBins)
	}

	buckets := make([][]bucket, numXBins)
	for x := range buckets {
		buckets[x] = make([]bucket, numYBins)
	}

	sigolo.Debugf("Create grid x=[%f, %f), y=[%f, %f) with %dx%d bins", xStart, xEnd, yStart, yEnd, numXBins, numYBins)

	return &Grid{
		xStart:     xStart,
		xEnd:       xEnd,
		yStart:     yStart,
		yEnd:       yEnd,
		numXBins:   numXBins,
		numYBins:   numYBins,
		cellWidth:  (xEnd - xStart) / float64(numXBins),
		cellHeight: (yEnd - yStart) / float64(numYBins),
		xSlack:     edgeSlack(xStart, xEnd),
		ySlack:     edgeSlack(yStart, yEnd),
		extent:     common.NewCellExtent(numXBins, numYBins),
		buckets:    buckets,
	}, nil
}

// edgeSlack covers the rounding difference between binning a coordinate and recomputing the edges of its bin. A
// point may lie a few ULPs outside the recomputed edges of the bin it has been stored in.
func edgeSlack(start float64, end float64) float64 {
	return 8 * epsilon * math.Max(math.Abs(start), math.Abs(end))
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Bound returns the rectangle covered by the grid. Coordinates on the max edges are not part of the grid.
func (g *Grid) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{g.xStart, g.yStart},
		Max: orb.Point{g.xEnd, g.yEnd},
	}
}

// Resolution returns the number of bins along the x and y axis.
func (g *Grid) Resolution() (int, int) {
	return g.numXBins, g.numYBins
}

func (g *Grid) CellWidth() float64 { return g.cellWidth }

func (g *Grid) CellHeight() float64 { return g.cellHeight }

// Len returns the number of stored points.
func (g *Grid) Len() int {
	return g.size
}

func (g *Grid) cellIndexFor(x float64, y float64) common.CellIndex {
	return common.GetCellIndexForCoordinate(x, y, g.xStart, g.yStart, g.cellWidth, g.cellHeight)
}

// CellFor returns the bin the coordinate maps to. For coordinates outside the grid the boolean is false and the
// nearest bin of the grid is returned instead.
func (g *Grid) CellFor(x float64, y float64) (common.CellIndex, bool) {
	binX, binY := g.binCoordinates(x, y)
	if !isInRange(binX, g.numXBins) || !isInRange(binY, g.numYBins) {
		// Converting huge values to int is undefined, so clamp before the conversion.
		return g.clampedCellFor(x, y), false
	}
	return g.cellIndexFor(x, y), true
}

// clampedCellFor returns the bin (x, y) maps to, moved into the grid if the coordinate lies outside of it.
func (g *Grid) clampedCellFor(x float64, y float64) common.CellIndex {
	binX, binY := g.binCoordinates(x, y)
	return g.extent.Clamp(common.CellIndex{limitBin(binX, g.numXBins), limitBin(binY, g.numYBins)})
}

// limitBin converts the bin coordinate to int after limiting it to [-1, numBins]. NaN maps to bin 0.
func limitBin(bin float64, numBins int) int {
	if math.IsNaN(bin) {
		return 0
	}
	return int(math.Max(-1, math.Min(bin, float64(numBins))))
}

func (g *Grid) binCoordinates(x float64, y float64) (float64, float64) {
	return math.Floor((x - g.xStart) / g.cellWidth), math.Floor((y - g.yStart) / g.cellHeight)
}

func (g *Grid) boundString() string {
	return fmt.Sprintf("x=[%f, %f), y=[%f, %f)", g.xStart, g.xEnd, g.yStart, g.yEnd)
}

func isInRange(bin float64, numBins int) bool {
	return bin >= 0 && bin < float64(numBins)
}

// BucketSize returns the number of points stored in the given bin and 0 for bins outside the grid.
func (g *Grid) BucketSize(cell common.CellIndex) int {
	if !g.extent.Contains(cell) {
		return 0
	}
	return g.buckets[cell.X()][cell.Y()].len()
}

// Insert stores the point in the bucket of the bin it maps to. Duplicates are stored as separate entries.
func (g *Grid) Insert(x float64, y float64) error {
	cell, ok := g.CellFor(x, y)
	if !ok {
		return errors.Wrapf(ErrOutOfBounds, "unable to insert point (%f, %f) outside of grid %s", x, y, g.boundString())
	}

	g.buckets[cell.X()][cell.Y()].add(orb.Point{x, y})
	g.size++

	if sigolo.ShouldLogTrace() {
		sigolo.Tracef("Inserted point (%f, %f) into bin x=%d, y=%d", x, y, cell.X(), cell.Y())
	}

	return nil
}

// Delete removes one point of the bin (x, y) maps to whose coordinates are within DeleteTolerance of (x, y) on both
// axes. Only that bin is searched, even if a closer match exists in a neighboring bin.
func (g *Grid) Delete(x float64, y float64) error {
	cell, ok := g.CellFor(x, y)
	if !ok {
		return errors.Wrapf(ErrOutOfBounds, "unable to delete point (%f, %f) outside of grid %s", x, y, g.boundString())
	}

	if !g.buckets[cell.X()][cell.Y()].removeFirstApprox(orb.Point{x, y}, DeleteTolerance) {
		return errors.Wrapf(ErrNotFound, "no point near (%f, %f) in bin x=%d, y=%d", x, y, cell.X(), cell.Y())
	}
	g.size--

	if sigolo.ShouldLogTrace() {
		sigolo.Tracef("Deleted point near (%f, %f) from bin x=%d, y=%d", x, y, cell.X(), cell.Y())
	}

	return nil
}

// Points returns a copy of all stored points, bin by bin in row-major order (all y-bins of x-bin 0 first).
func (g *Grid) Points() []orb.Point {
	points := make([]orb.Point, 0, g.size)
	for x := range g.buckets {
		for y := range g.buckets[x] {
			points = append(points, g.buckets[x][y].points...)
		}
	}
	return points
}

// Clear removes all points. Bounds and resolution stay unchanged.
func (g *Grid) Clear() {
	for x := range g.buckets {
		for y := range g.buckets[x] {
			g.buckets[x][y].clear()
		}
	}
	g.size = 0
}
