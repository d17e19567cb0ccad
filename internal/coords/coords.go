// File: internal/coords/coords.go
package coords

// The oracle communicates in a normalized 0..1000 space on both axes with
// the origin at the top-left, independent of the real screen resolution.
// Win32 absolute input injection uses a third space, 0..65535 per axis.
const (
	NormMax   = 1000.0
	DeviceMax = 65535
)

// Mapper converts between normalized task coordinates, physical screen
// pixels and device-absolute input coordinates. Pure value type; safe to
// copy and has no failure modes.
type Mapper struct {
	ScreenW int
	ScreenH int
}

// ToScreen scales a normalized coordinate pair into screen pixels,
// truncating toward zero.
func (m Mapper) ToScreen(nx, ny float64) (int, int) {
	return int(nx * float64(m.ScreenW) / NormMax), int(ny * float64(m.ScreenH) / NormMax)
}

// ToDeviceAbsolute converts screen pixels into the 16-bit absolute space
// SendInput expects. The scale divides by (dimension-1) so that the last
// pixel maps exactly to 65535. Degenerate screens (dimension <= 1) map to 0.
func (m Mapper) ToDeviceAbsolute(x, y int) (uint16, uint16) {
	return scaleAxis(x, m.ScreenW), scaleAxis(y, m.ScreenH)
}

func scaleAxis(v, dim int) uint16 {
	if dim <= 1 {
		return 0
	}
	scaled := v * DeviceMax / (dim - 1)
	if scaled < 0 {
		return 0
	}
	if scaled > DeviceMax {
		return DeviceMax
	}
	return uint16(scaled)
}

// ClampNorm clamps a normalized coordinate into [0, 1000]. Oracle inputs are
// always clamped before mapping.
func ClampNorm(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > NormMax {
		return NormMax
	}
	return v
}
