// File: internal/overlay/layout.go
//
// Pure layout math for the story HUD: tier partitioning, panel sizing and
// the software BGRA rectangle fill. Kept free of OS calls so it tests
// anywhere.
package overlay

import "time"

// TierCount partitions the story into priority, detail and fade sections,
// rendered at decreasing font sizes.
const TierCount = 3

// Style configures the HUD rendering. Font sizes are negative GDI heights
// (character height in pixels); colors are COLORREF 0x00bbggrr values.
type Style struct {
	Margin      int
	TierLines   [TierCount]int
	FontSizes   [TierCount]int
	FontWeight  int
	FontFace    string
	LineSpacing int

	TextColor    uint32
	OutlineColor uint32
	OutlinePx    int

	PanelEnabled bool
	PanelColor   [3]byte // BGR
	PanelAlpha   byte

	ReassertPulses int
	ReassertPause  time.Duration
}

// DefaultStyle is the tuned production HUD: white text with a 2px black
// outline over an optional 43%-opacity black panel, 6/8/8 tier capacities.
func DefaultStyle() Style {
	return Style{
		Margin:         10,
		TierLines:      [TierCount]int{6, 8, 8},
		FontSizes:      [TierCount]int{-26, -18, -14},
		FontWeight:     700,
		FontFace:       "Segoe UI",
		LineSpacing:    3,
		TextColor:      0x00FFFFFF,
		OutlineColor:   0x00000000,
		OutlinePx:      2,
		PanelEnabled:   true,
		PanelColor:     [3]byte{0, 0, 0},
		PanelAlpha:     110,
		ReassertPulses: 2,
		ReassertPause:  50 * time.Millisecond,
	}
}

// Tiers splits lines into the three sections by position, each capped at
// its capacity. Lines beyond the combined capacity are dropped.
func Tiers(lines []string, caps [TierCount]int) [TierCount][]string {
	var out [TierCount][]string
	pos := 0
	for i := 0; i < TierCount; i++ {
		end := pos + caps[i]
		if end > len(lines) {
			end = len(lines)
		}
		if pos < end {
			out[i] = lines[pos:end]
		}
		pos = end
	}
	return out
}

// LineHeight is the vertical advance for a tier.
func (s Style) LineHeight(tier int) int {
	h := s.FontSizes[tier]
	if h < 0 {
		h = -h
	}
	return h + s.LineSpacing
}

// PanelHeight estimates the text block height from tier line counts.
func (s Style) PanelHeight(tiers [TierCount][]string) int {
	total := 0
	for i, lines := range tiers {
		total += len(lines) * s.LineHeight(i)
	}
	return total
}

// FillRect writes a flat translucent BGRA color into a pixel buffer,
// clipping the rectangle to the buffer bounds.
func FillRect(pix []byte, w, h, x1, y1, x2, y2 int, bgr [3]byte, alpha byte) {
	if x1 < 0 {
		x1 = 0
	}
	if y1 < 0 {
		y1 = 0
	}
	if x2 > w {
		x2 = w
	}
	if y2 > h {
		y2 = h
	}
	for y := y1; y < y2; y++ {
		row := y * w * 4
		for x := x1; x < x2; x++ {
			off := row + x*4
			pix[off+0] = bgr[0]
			pix[off+1] = bgr[1]
			pix[off+2] = bgr[2]
			pix[off+3] = alpha
		}
	}
}
