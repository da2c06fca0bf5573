package common

import "math"

// CellIndex addresses one bin of a grid by its integer column (X) and row (Y).
type CellIndex [2]int

// GetCellIndexForCoordinate returns the cell a coordinate falls into when cells of the given size are laid out starting
// at the given origin. The result may lie outside any concrete grid, callers have to check it against their extent.
func GetCellIndexForCoordinate(x float64, y float64, originX float64, originY float64, cellWidth float64, cellHeight float64) CellIndex {
	return CellIndex{
		int(math.Floor((x - originX) / cellWidth)),
		int(math.Floor((y - originY) / cellHeight)),
	}
}

func (c CellIndex) X() int { return c[0] }

func (c CellIndex) Y() int { return c[1] }

func (c CellIndex) Offset(dx int, dy int) CellIndex {
	return CellIndex{c[0] + dx, c[1] + dy}
}

func (c CellIndex) isBelowOrLeftOf(other CellIndex) bool {
	return c.X() < other.X() || c.Y() < other.Y()
}

func (c CellIndex) isAboveOrRightOf(other CellIndex) bool {
	return c.X() > other.X() || c.Y() > other.Y()
}

// CellExtent is an inclusive range of cells given by its lower-left and upper-right cell.
type CellExtent [2]CellIndex

// NewCellExtent returns the extent of a grid with the given amount of columns and rows, starting at cell 0/0.
func NewCellExtent(numX int, numY int) CellExtent {
	return CellExtent{
		CellIndex{0, 0},
		CellIndex{numX - 1, numY - 1},
	}
}

func (c CellExtent) LowerLeftCell() CellIndex { return c[0] }

func (c CellExtent) UpperRightCell() CellIndex { return c[1] }

func (c CellExtent) Contains(cell CellIndex) bool {
	return !cell.isAboveOrRightOf(c.UpperRightCell()) && !cell.isBelowOrLeftOf(c.LowerLeftCell())
}

// Clamp moves the given cell into this extent. Each axis is clamped independently, so a cell diagonally outside the
// extent ends up in the nearest corner.
func (c CellExtent) Clamp(cell CellIndex) CellIndex {
	return CellIndex{
		clamp(cell.X(), c.LowerLeftCell().X(), c.UpperRightCell().X()),
		clamp(cell.Y(), c.LowerLeftCell().Y(), c.UpperRightCell().Y()),
	}
}

func clamp(value int, lower int, upper int) int {
	if value < lower {
		return lower
	}
	if value > upper {
		return upper
	}
	return value
}
