//go:build windows

// File: internal/overlay/compositor.go
package overlay

import (
	"errors"
	"time"
	"unsafe"

	"go.uber.org/zap"
	"golang.org/x/sys/windows"

	"github.com/storyhud/storyhud/internal/faults"
	"github.com/storyhud/storyhud/internal/story"
	"github.com/storyhud/storyhud/internal/winapi"
)

const windowClass = "StoryHUDOverlay"

// Compositor owns the persistent always-on-top, click-through, unfocusable
// overlay surface and renders the story into it. The overlay is load-bearing
// memory: a failed render is fatal, never silently skipped.
type Compositor struct {
	api    *winapi.Context
	style  Style
	logger *zap.Logger

	width  int
	height int

	hwnd   windows.Handle
	memDC  windows.Handle
	bitmap windows.Handle
	bits   unsafe.Pointer
	fonts  [TierCount]windows.Handle

	storyText string
	closed    bool
}

// NewCompositor creates the overlay window sized to the full screen along
// with its backing DIB, memory DC and the three tier fonts. On any failure
// everything acquired so far is released before returning.
func NewCompositor(api *winapi.Context, width, height int, style Style, logger *zap.Logger) (*Compositor, error) {
	c := &Compositor{
		api:    api,
		style:  style,
		logger: logger.Named("overlay"),
		width:  width,
		height: height,
	}

	if err := c.acquire(); err != nil {
		c.Close()
		return nil, faults.Wrap(faults.ClassAcquisition, err)
	}

	c.api.ShowWindow(c.hwnd, winapi.SWShowNoActivate)
	if err := c.Render(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Compositor) acquire() error {
	instance, err := c.api.ModuleHandle()
	if err != nil {
		return err
	}

	className, err := windows.UTF16PtrFromString(windowClass)
	if err != nil {
		return err
	}
	wc := winapi.WndClass{
		WndProc:   c.api.DefWindowProc(),
		Instance:  instance,
		ClassName: className,
	}
	if err := c.api.RegisterClass(&wc); err != nil &&
		!errors.Is(err, windows.Errno(1410)) { // ERROR_CLASS_ALREADY_EXISTS
		return err
	}

	exStyle := winapi.WSExLayered | winapi.WSExTransparent | winapi.WSExTopmost |
		winapi.WSExNoActivate | winapi.WSExToolWindow
	c.hwnd, err = c.api.CreateWindowEx(exStyle, windowClass, winapi.WSPopup,
		0, 0, c.width, c.height, instance)
	if err != nil {
		return err
	}

	bmi := winapi.BitmapInfo{
		Header: winapi.BitmapInfoHeader{
			Size:     uint32(unsafe.Sizeof(winapi.BitmapInfoHeader{})),
			Width:    int32(c.width),
			Height:   -int32(c.height),
			Planes:   1,
			BitCount: 32,
		},
	}
	c.bitmap, c.bits, err = c.api.CreateDIBSection(0, &bmi)
	if err != nil {
		return err
	}

	c.memDC, err = c.api.CreateCompatibleDC(0)
	if err != nil {
		return err
	}
	if _, err := c.api.SelectObject(c.memDC, c.bitmap); err != nil {
		return err
	}
	c.api.SetBkMode(c.memDC, winapi.BkModeTransparent)

	for i, size := range c.style.FontSizes {
		c.fonts[i], err = c.api.CreateFont(size, c.style.FontWeight, c.style.FontFace)
		if err != nil {
			return err
		}
	}
	return nil
}

// SetStory replaces the overlay text; Render pushes it to the compositor.
func (c *Compositor) SetStory(s string) {
	c.storyText = s
}

// Render redraws the whole surface: clear to transparent, partition the
// story into tiers, measure, paint the panel, draw outlined text, push the
// buffer as a per-pixel-alpha layered update and reassert topmost stacking.
func (c *Compositor) Render() error {
	pix := unsafe.Slice((*byte)(c.bits), c.width*c.height*4)
	for i := range pix {
		pix[i] = 0
	}

	if c.storyText == "" {
		return c.reassertTopmost()
	}

	tiers := Tiers(story.Lines(c.storyText), c.style.TierLines)

	maxWidth := 0
	for i, lines := range tiers {
		if len(lines) == 0 {
			continue
		}
		if _, err := c.api.SelectObject(c.memDC, c.fonts[i]); err != nil {
			return faults.Wrap(faults.ClassAcquisition, err)
		}
		for _, line := range lines {
			sz, err := c.api.GetTextExtent(c.memDC, line)
			if err != nil {
				return faults.Wrap(faults.ClassAcquisition, err)
			}
			if int(sz.CX) > maxWidth {
				maxWidth = int(sz.CX)
			}
		}
	}

	m := c.style.Margin
	if c.style.PanelEnabled && maxWidth > 0 {
		FillRect(pix, c.width, c.height,
			m-6, m-6, m+maxWidth+12, m+c.style.PanelHeight(tiers)+12,
			c.style.PanelColor, c.style.PanelAlpha)
	}

	y := m
	for i, lines := range tiers {
		if len(lines) == 0 {
			continue
		}
		if _, err := c.api.SelectObject(c.memDC, c.fonts[i]); err != nil {
			return faults.Wrap(faults.ClassAcquisition, err)
		}
		lh := c.style.LineHeight(i)
		for _, line := range lines {
			rect := winapi.Rect{
				Left:   int32(m),
				Top:    int32(y),
				Right:  int32(m + maxWidth),
				Bottom: int32(y + lh),
			}
			if err := c.drawOutlined(line, rect); err != nil {
				return err
			}
			y += lh
		}
	}

	blend := winapi.BlendFunction{
		BlendOp:             winapi.ACSrcOver,
		SourceConstantAlpha: 255,
		AlphaFormat:         winapi.ACSrcAlpha,
	}
	size := winapi.Size{CX: int32(c.width), CY: int32(c.height)}
	var origin winapi.Point
	var dst winapi.Point
	if err := c.api.UpdateLayeredWindow(c.hwnd, &dst, &size, c.memDC, &origin, &blend); err != nil {
		return faults.Wrap(faults.ClassAcquisition, err)
	}

	return c.reassertTopmost()
}

// drawOutlined draws the text four times offset in each cardinal direction
// in the outline color, then once at the true position in the fill color.
// GDI has no stroke primitive; this is the readable-on-anything trick.
func (c *Compositor) drawOutlined(text string, rect winapi.Rect) error {
	const flags = winapi.DTLeft | winapi.DTNoPrefix
	px := int32(c.style.OutlinePx)

	c.api.SetTextColor(c.memDC, c.style.OutlineColor)
	for _, d := range [][2]int32{{-px, 0}, {px, 0}, {0, -px}, {0, px}} {
		shifted := winapi.Rect{
			Left:   rect.Left + d[0],
			Top:    rect.Top + d[1],
			Right:  rect.Right + d[0],
			Bottom: rect.Bottom + d[1],
		}
		if err := c.api.DrawText(c.memDC, text, &shifted, flags); err != nil {
			return faults.Wrap(faults.ClassAcquisition, err)
		}
	}

	c.api.SetTextColor(c.memDC, c.style.TextColor)
	if err := c.api.DrawText(c.memDC, text, &rect, flags); err != nil {
		return faults.Wrap(faults.ClassAcquisition, err)
	}
	return nil
}

// reassertTopmost pulses the window back to the top of the z-order a fixed
// number of times. Other applications grab the topmost slot; pulsing wins
// it back without activating the overlay.
func (c *Compositor) reassertTopmost() error {
	flags := winapi.SWPNoMove | winapi.SWPNoSize | winapi.SWPShowWindow | winapi.SWPNoActivate
	for i := 0; i < c.style.ReassertPulses; i++ {
		if err := c.api.SetWindowPos(c.hwnd, winapi.HWNDTopmost, flags); err != nil {
			return faults.Wrap(faults.ClassAcquisition, err)
		}
		time.Sleep(c.style.ReassertPause)
	}
	return nil
}

// Close releases the window, device context, bitmap and fonts exactly once.
// Safe to call on a partially-acquired compositor.
func (c *Compositor) Close() {
	if c.closed {
		return
	}
	c.closed = true

	if c.hwnd != 0 {
		c.api.DestroyWindow(c.hwnd)
		c.hwnd = 0
	}
	if c.memDC != 0 {
		c.api.DeleteDC(c.memDC)
		c.memDC = 0
	}
	if c.bitmap != 0 {
		c.api.DeleteObject(c.bitmap)
		c.bitmap = 0
	}
	for i, f := range c.fonts {
		if f != 0 {
			c.api.DeleteObject(f)
			c.fonts[i] = 0
		}
	}
	c.logger.Debug("overlay resources released")
}
