// File: internal/input/plan.go
//
// Pure planning helpers for synthetic input. Kept separate from the
// SendInput binding so the math is testable anywhere.
package input

import "unicode/utf16"

// DefaultDragSteps is how many interpolated move events a drag emits between
// press and release. Many UI drag targets ignore teleporting cursors, so the
// drag has to look like motion.
const DefaultDragSteps = 14

// WheelDivisor converts a requested scroll delta into wheel detents.
const WheelDivisor = 120

// DragPath returns the interpolated device-absolute points of a drag,
// linearly spaced from start (exclusive) to end (inclusive).
func DragPath(x1, y1, x2, y2 int32, steps int) [][2]int32 {
	if steps < 1 {
		steps = 1
	}
	pts := make([][2]int32, 0, steps)
	for k := 1; k <= steps; k++ {
		t := float64(k) / float64(steps)
		pts = append(pts, [2]int32{
			x1 + int32(float64(x2-x1)*t),
			y1 + int32(float64(y2-y1)*t),
		})
	}
	return pts
}

// WheelTicks converts a scroll delta into a number of discrete wheel
// detents and a signed per-tick amount. A zero delta yields zero ticks; any
// non-zero delta yields at least one.
func WheelTicks(delta float64) (ticks int, amount int32) {
	if delta == 0 {
		return 0, 0
	}
	n := int(delta)
	if n < 0 {
		n = -n
	}
	ticks = n / WheelDivisor
	if ticks < 1 {
		ticks = 1
	}
	if delta > 0 {
		return ticks, WheelDivisor
	}
	return ticks, -WheelDivisor
}

// UTF16Units expands text into UTF-16 code units, surrogate pairs included.
// Each unit becomes one down+up KEYEVENTF_UNICODE pair.
func UTF16Units(text string) []uint16 {
	return utf16.Encode([]rune(text))
}
