//go:build windows

// File: internal/capture/grab.go
package capture

import (
	"unsafe"

	"go.uber.org/zap"
	"golang.org/x/sys/windows"

	"github.com/storyhud/storyhud/internal/faults"
	"github.com/storyhud/storyhud/internal/winapi"
)

// Grabber snapshots the desktop into Frames through GDI. All OS handles it
// acquires are released on every exit path, including failures; no partial
// frame is ever returned.
type Grabber struct {
	api    *winapi.Context
	logger *zap.Logger
}

func NewGrabber(api *winapi.Context, logger *zap.Logger) *Grabber {
	return &Grabber{api: api, logger: logger.Named("capture")}
}

// Capture blits the virtual screen into an off-screen 32-bit DIB, optionally
// composites the current cursor at its hotspot-adjusted position, and copies
// the pixel bytes out before any handle is released.
func (g *Grabber) Capture(width, height int, includeCursor bool) (Frame, error) {
	screenDC, err := g.api.GetDC(0)
	if err != nil {
		return Frame{}, faults.Wrap(faults.ClassAcquisition, err)
	}
	defer g.api.ReleaseDC(0, screenDC)

	memDC, err := g.api.CreateCompatibleDC(screenDC)
	if err != nil {
		return Frame{}, faults.Wrap(faults.ClassAcquisition, err)
	}
	defer g.api.DeleteDC(memDC)

	bmi := winapi.BitmapInfo{
		Header: winapi.BitmapInfoHeader{
			Size:     uint32(unsafe.Sizeof(winapi.BitmapInfoHeader{})),
			Width:    int32(width),
			Height:   -int32(height), // top-down rows
			Planes:   1,
			BitCount: 32,
		},
	}
	bitmap, bits, err := g.api.CreateDIBSection(screenDC, &bmi)
	if err != nil {
		return Frame{}, faults.Wrap(faults.ClassAcquisition, err)
	}
	defer g.api.DeleteObject(bitmap)

	if _, err := g.api.SelectObject(memDC, bitmap); err != nil {
		return Frame{}, faults.Wrap(faults.ClassAcquisition, err)
	}

	if err := g.api.BitBlt(memDC, 0, 0, width, height, screenDC, 0, 0, winapi.SrcCopy); err != nil {
		return Frame{}, faults.Wrap(faults.ClassAcquisition, err)
	}

	if includeCursor {
		g.compositeCursor(memDC)
	}

	pix := make([]byte, width*height*bytesPerPixel)
	copy(pix, unsafe.Slice((*byte)(bits), len(pix)))
	return Frame{Width: width, Height: height, Pix: pix}, nil
}

// compositeCursor draws the live cursor into the bitmap. A hidden cursor or
// a failed lookup just leaves the frame cursor-free.
func (g *Grabber) compositeCursor(memDC windows.Handle) {
	var ci winapi.CursorInfo
	if !g.api.GetCursorInfo(&ci) || ci.Flags&winapi.CursorShowing == 0 {
		return
	}

	var ii winapi.IconInfo
	if !g.api.GetIconInfo(ci.Cursor, &ii) {
		return
	}
	// GetIconInfo hands us bitmap copies we now own.
	if ii.Mask != 0 {
		defer g.api.DeleteObject(ii.Mask)
	}
	if ii.Color != 0 {
		defer g.api.DeleteObject(ii.Color)
	}

	x := int(ci.ScreenPos.X) - int(ii.XHotspot)
	y := int(ci.ScreenPos.Y) - int(ii.YHotspot)
	if !g.api.DrawIconEx(memDC, x, y, ci.Cursor) {
		g.logger.Debug("cursor composite skipped", zap.Int("x", x), zap.Int("y", y))
	}
}
