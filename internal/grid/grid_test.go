package grid_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pilot-dev/pilot/internal/domain"
	"github.com/pilot-dev/pilot/internal/grid"
)

func TestGrid_CellBoundsDeterministic(t *testing.T) {
	g := grid.New(5120, 2880, 6, 0, 0)

	first, err := g.CellBounds(14)
	require.NoError(t, err)
	second, err := g.CellBounds(14)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	cell1, err := g.CellBounds(1)
	require.NoError(t, err)
	assert.Equal(t, 0, cell1.X1)
	assert.Equal(t, 0, cell1.Y1)
}

func TestGrid_CellsTileRegionExactly(t *testing.T) {
	// 1000 does not divide by 6; edges must still meet with no gaps.
	g := grid.New(1000, 700, 6, 0, 0)

	for n := 1; n <= g.Cells(); n++ {
		b, err := g.CellBounds(n)
		require.NoError(t, err)
		assert.Greater(t, b.X2, b.X1, "cell %d has no width", n)
		assert.Greater(t, b.Y2, b.Y1, "cell %d has no height", n)

		if n%g.Size != 0 {
			next, err := g.CellBounds(n + 1)
			require.NoError(t, err)
			assert.Equal(t, b.X2, next.X1, "gap between cell %d and %d", n, n+1)
		}
	}

	last, err := g.CellBounds(g.Cells())
	require.NoError(t, err)
	assert.Equal(t, 1000, last.X2)
	assert.Equal(t, 700, last.Y2)
}

func TestGrid_RowMajorNumbering(t *testing.T) {
	g := grid.New(600, 600, 3, 0, 0)

	b2, err := g.CellBounds(2)
	require.NoError(t, err)
	assert.Equal(t, domain.Rect{X1: 200, Y1: 0, X2: 400, Y2: 200}, b2)

	b4, err := g.CellBounds(4)
	require.NoError(t, err)
	assert.Equal(t, domain.Rect{X1: 0, Y1: 200, X2: 200, Y2: 400}, b4)
}

func TestGrid_OffsetShiftsBounds(t *testing.T) {
	base := grid.New(300, 300, 3, 0, 0)
	shifted := grid.New(300, 300, 3, 120, 450)

	for n := 1; n <= base.Cells(); n++ {
		b, err := base.CellBounds(n)
		require.NoError(t, err)
		s, err := shifted.CellBounds(n)
		require.NoError(t, err)
		assert.Equal(t, b.X1+120, s.X1)
		assert.Equal(t, b.Y1+450, s.Y1)
		assert.Equal(t, b.X2+120, s.X2)
		assert.Equal(t, b.Y2+450, s.Y2)
	}
}

func TestGrid_SubCellCenterInsideOuterCell(t *testing.T) {
	outer := grid.New(5120, 2880, 6, 0, 0)

	for n := 1; n <= outer.Cells(); n += 7 {
		cell, err := outer.CellBounds(n)
		require.NoError(t, err)

		inner := grid.New(cell.Width(), cell.Height(), 6, cell.X1, cell.Y1)
		for m := 1; m <= inner.Cells(); m++ {
			sub, err := inner.CellBounds(m)
			require.NoError(t, err)
			center := sub.Center()
			assert.True(t, cell.Contains(center),
				"sub-cell %d center (%d,%d) escaped outer cell %d %+v", m, center.X, center.Y, n, cell)
		}
	}
}

func TestGrid_SizeClamping(t *testing.T) {
	assert.Equal(t, grid.DefaultSize, grid.New(100, 100, 0, 0, 0).Size)
	assert.Equal(t, grid.MinSize, grid.New(100, 100, 1, 0, 0).Size)
	assert.Equal(t, grid.MaxSize, grid.New(100, 100, 50, 0, 0).Size)
}

func TestGrid_CellOutOfRange(t *testing.T) {
	g := grid.New(100, 100, 3, 0, 0)

	_, err := g.CellBounds(0)
	assert.Error(t, err)
	_, err = g.CellBounds(10)
	assert.Error(t, err)
	_, err = g.CellBounds(9)
	assert.NoError(t, err)
}
