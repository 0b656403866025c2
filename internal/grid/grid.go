// Package grid locates UI elements by coarse-to-fine visual search over a
// numbered grid. Geometry here is pure integer arithmetic: identical inputs
// always produce identical rectangles, which is what lets the second pass
// translate back into the first pass's coordinate space.
package grid

import (
	"fmt"

	"github.com/pilot-dev/pilot/internal/domain"
)

const (
	DefaultSize = 6
	MinSize     = 2
	MaxSize     = 10
)

// Grid partitions a width x height region into size x size cells, numbered
// 1-based in row-major order. OffsetX/OffsetY shift all bounds when the grid
// overlays a cropped sub-region of a larger image.
type Grid struct {
	Width   int
	Height  int
	Size    int
	OffsetX int
	OffsetY int
}

// New clamps size into [MinSize, MaxSize]; size <= 0 selects DefaultSize.
func New(width, height, size, offsetX, offsetY int) Grid {
	if size <= 0 {
		size = DefaultSize
	}
	if size < MinSize {
		size = MinSize
	}
	if size > MaxSize {
		size = MaxSize
	}
	return Grid{Width: width, Height: height, Size: size, OffsetX: offsetX, OffsetY: offsetY}
}

// Cells returns the number of cells in the grid.
func (g Grid) Cells() int {
	return g.Size * g.Size
}

// CellBounds returns the pixel bounds of cell n. Cell 1 starts at the offset
// origin. Edges are computed as (i*extent)/size so the cells tile the region
// exactly even when the extent does not divide evenly.
func (g Grid) CellBounds(n int) (domain.Rect, error) {
	if n < 1 || n > g.Cells() {
		return domain.Rect{}, fmt.Errorf("cell %d out of range (grid has %d cells)", n, g.Cells())
	}
	col := (n - 1) % g.Size
	row := (n - 1) / g.Size
	return domain.Rect{
		X1: g.OffsetX + col*g.Width/g.Size,
		Y1: g.OffsetY + row*g.Height/g.Size,
		X2: g.OffsetX + (col+1)*g.Width/g.Size,
		Y2: g.OffsetY + (row+1)*g.Height/g.Size,
	}, nil
}
