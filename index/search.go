package index

import (
	"fmt"
	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"math"
	"spatialgrid/common"
	"strings"
)

// Strategy selects the nearest-neighbor algorithm of a search.
type Strategy int

const (
	// StrategyLinear visits every bin of the grid.
	StrategyLinear Strategy = iota
	// StrategyExpanding visits bins in growing diamond-shaped rings around the query.
	StrategyExpanding
)

func (s Strategy) String() string {
	switch s {
	case StrategyLinear:
		return "linear"
	case StrategyExpanding:
		return "expanding"
	}
	return fmt.Sprintf("[!UNKNOWN Strategy %d]", s)
}

func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "linear":
		return StrategyLinear, nil
	case "expanding", "":
		return StrategyExpanding, nil
	}
	return 0, errors.Errorf("Unknown search strategy '%s', expected 'linear' or 'expanding'", s)
}

// SearchStats counts the work a search performed.
type SearchStats struct {
	CellsVisited   int // Bins whose lower-bound distance has been computed
	CellsScanned   int // Bins whose bucket has been scanned
	PointsCompared int // Exact distance computations
	Rings          int // Rounds of the expanding search, 0 for the linear scan
}

type SearchResult struct {
	Query    orb.Point
	Point    orb.Point
	Distance float64 // Only meaningful when Found is true
	Found    bool
	Stats    SearchStats
}

func newSearchResult(x float64, y float64) SearchResult {
	return SearchResult{
		Query:    orb.Point{x, y},
		Distance: math.Inf(1),
	}
}

// MinDistanceToCell returns the smallest possible distance between (x, y) and any point that may be stored in the
// given bin. It is +Inf for bins outside the grid. The bin edges are widened by the rounding slack of the grid and the
// result is lowered by a few ULPs, so the bound never exceeds the Distance to a point stored in the bin.
func (g *Grid) MinDistanceToCell(cell common.CellIndex, x float64, y float64) float64 {
	if !g.extent.Contains(cell) {
		return math.Inf(1)
	}

	xMin := g.xStart + float64(cell.X())*g.cellWidth - g.xSlack
	xMax := g.xStart + float64(cell.X()+1)*g.cellWidth + g.xSlack
	yMin := g.yStart + float64(cell.Y())*g.cellHeight - g.ySlack
	yMax := g.yStart + float64(cell.Y()+1)*g.cellHeight + g.ySlack

	return math.Hypot(axisGap(x, xMin, xMax), axisGap(y, yMin, yMax)) * (1 - 8*epsilon)
}

// Distance is the Euclidean distance both searches rank points by. It does not overflow for coordinates beyond the
// square root of the largest float64.
func Distance(a orb.Point, b orb.Point) float64 {
	return math.Hypot(a.X()-b.X(), a.Y()-b.Y())
}

// axisGap is the distance from v to the interval [lower, upper] and 0 if v lies within.
func axisGap(v float64, lower float64, upper float64) float64 {
	if v < lower {
		return lower - v
	}
	if v > upper {
		return v - upper
	}
	return 0
}

// scanCell compares every point of the bin with the query and keeps the first point that is strictly closer than the
// current best one.
func (g *Grid) scanCell(cell common.CellIndex, result *SearchResult) {
	result.Stats.CellsScanned++
	for _, point := range g.buckets[cell.X()][cell.Y()].points {
		result.Stats.PointsCompared++
		distance := Distance(result.Query, point)
		if distance < result.Distance {
			result.Distance = distance
			result.Point = point
			result.Found = true
		}
	}
}

// checkCell scans the bin when it may contain a point closer than the current best one. It returns true when the bin
// qualified for scanning.
func (g *Grid) checkCell(cell common.CellIndex, result *SearchResult) bool {
	result.Stats.CellsVisited++
	if !(g.MinDistanceToCell(cell, result.Query.X(), result.Query.Y()) < result.Distance) {
		return false
	}
	g.scanCell(cell, result)
	return true
}

// SearchLinear finds the nearest point by visiting every bin in row-major order (all y-bins of x-bin 0, then x-bin 1
// and so on). Bins that cannot contain a closer point are not scanned. On equal distances the point found first wins.
func (g *Grid) SearchLinear(x float64, y float64) SearchResult {
	result := newSearchResult(x, y)

	for cellX := 0; cellX < g.numXBins; cellX++ {
		for cellY := 0; cellY < g.numYBins; cellY++ {
			g.checkCell(common.CellIndex{cellX, cellY}, &result)
		}
	}

	g.logSearch(StrategyLinear, &result)
	return result
}

// SearchExpanding finds the nearest point by visiting bins in rings of growing Manhattan distance around the bin of the
// query (clamped into the grid). Ring n consists of all offsets with |xOffset| + |yOffset| == n. The search stops after
// the first ring in which no bin could contain a point closer than the best one found so far.
//
// Every bin of ring n+1 has a neighbor in ring n lying between it and the start bin, whose lower-bound distance is not
// larger. Therefore, no later ring can improve the result once a whole ring got rejected.
func (g *Grid) SearchExpanding(x float64, y float64) SearchResult {
	result := newSearchResult(x, y)
	start := g.clampedCellFor(x, y)

	for steps := 0; ; steps++ {
		result.Stats.Rings++
		explore := false

		for xOffset := -steps; xOffset <= steps; xOffset++ {
			yOffset := steps - abs(xOffset)

			if g.checkCell(start.Offset(xOffset, -yOffset), &result) {
				explore = true
			}
			if yOffset != 0 && g.checkCell(start.Offset(xOffset, yOffset), &result) {
				explore = true
			}
		}

		if !explore {
			break
		}
	}

	g.logSearch(StrategyExpanding, &result)
	return result
}

// Search runs the given strategy.
func (g *Grid) Search(x float64, y float64, strategy Strategy) SearchResult {
	if strategy == StrategyLinear {
		return g.SearchLinear(x, y)
	}
	return g.SearchExpanding(x, y)
}

// NearestLinear returns the nearest stored point using the exhaustive scan. The boolean is false for an empty grid.
func (g *Grid) NearestLinear(x float64, y float64) (orb.Point, bool) {
	result := g.SearchLinear(x, y)
	return result.Point, result.Found
}

// NearestExpanding returns the nearest stored point using the expanding ring search. The boolean is false for an
// empty grid.
func (g *Grid) NearestExpanding(x float64, y float64) (orb.Point, bool) {
	result := g.SearchExpanding(x, y)
	return result.Point, result.Found
}

func (g *Grid) logSearch(strategy Strategy, result *SearchResult) {
	if !sigolo.ShouldLogTrace() {
		return
	}
	sigolo.Tracef("%s search for %v: found=%t point=%v distance=%f cells=%d/%d points=%d rings=%d", strategy.String(),
		result.Query, result.Found, result.Point, result.Distance, result.Stats.CellsScanned, result.Stats.CellsVisited,
		result.Stats.PointsCompared, result.Stats.Rings)
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}
