package index

import (
	"github.com/paulmach/orb"
	"spatialgrid/common"
)

// PointIndex is a dynamic set of 2-D points supporting nearest-neighbor queries.
type PointIndex interface {
	Insert(x float64, y float64) error
	Delete(x float64, y float64) error
	Search(x float64, y float64, strategy Strategy) SearchResult
	Points() []orb.Point
	Len() int
	Bound() orb.Bound
	Resolution() (int, int)
	CellWidth() float64
	CellHeight() float64
	CellFor(x float64, y float64) (common.CellIndex, bool)
}
