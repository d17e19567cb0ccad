// File: internal/input/plan_test.go
package input

import (
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDragPathEndsAtTarget(t *testing.T) {
	pts := DragPath(0, 0, 1400, 700, DefaultDragSteps)
	require.Len(t, pts, DefaultDragSteps)
	assert.Equal(t, [2]int32{1400, 700}, pts[len(pts)-1])
}

func TestDragPathIsMonotonic(t *testing.T) {
	pts := DragPath(100, 500, 1500, 500, DefaultDragSteps)
	prev := int32(100)
	for _, p := range pts {
		assert.GreaterOrEqual(t, p[0], prev)
		assert.Equal(t, int32(500), p[1])
		prev = p[0]
	}
}

func TestDragPathZeroDistance(t *testing.T) {
	pts := DragPath(42, 42, 42, 42, DefaultDragSteps)
	for _, p := range pts {
		assert.Equal(t, [2]int32{42, 42}, p)
	}
}

func TestWheelTicks(t *testing.T) {
	ticks, amount := WheelTicks(0)
	assert.Equal(t, 0, ticks)
	assert.Equal(t, int32(0), amount)

	// Sub-detent deltas still scroll one tick.
	ticks, amount = WheelTicks(50)
	assert.Equal(t, 1, ticks)
	assert.Equal(t, int32(WheelDivisor), amount)

	ticks, amount = WheelTicks(-50)
	assert.Equal(t, 1, ticks)
	assert.Equal(t, int32(-WheelDivisor), amount)

	ticks, _ = WheelTicks(360)
	assert.Equal(t, 3, ticks)

	ticks, amount = WheelTicks(-1200)
	assert.Equal(t, 10, ticks)
	assert.Equal(t, int32(-WheelDivisor), amount)
}

func TestUTF16UnitsSurrogatePairs(t *testing.T) {
	units := UTF16Units("a😀")
	require.Len(t, units, 3, "emoji expands to a surrogate pair")
	assert.Equal(t, uint16('a'), units[0])

	r := utf16.Decode(units[1:])
	require.Len(t, r, 1)
	assert.Equal(t, '😀', r[0])
}

func TestUTF16UnitsEmpty(t *testing.T) {
	assert.Empty(t, UTF16Units(""))
}
