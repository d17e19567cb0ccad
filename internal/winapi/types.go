//go:build windows

// File: internal/winapi/types.go
//
// Fixed-layout records matching the Win32 ABI. Field order and widths
// matter: these structs cross the syscall boundary by pointer. Nothing in
// this file is exposed above the capture/overlay/input layers.
package winapi

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

type Point struct {
	X int32
	Y int32
}

type Size struct {
	CX int32
	CY int32
}

type Rect struct {
	Left   int32
	Top    int32
	Right  int32
	Bottom int32
}

// MouseInput mirrors MOUSEINPUT. It is the largest INPUT union member and
// therefore defines the union's size.
type MouseInput struct {
	Dx        int32
	Dy        int32
	MouseData uint32
	Flags     MouseEventFlags
	Time      uint32
	ExtraInfo uintptr
}

// KeybdInput mirrors KEYBDINPUT.
type KeybdInput struct {
	Vk        uint16
	Scan      uint16
	Flags     KeyEventFlags
	Time      uint32
	ExtraInfo uintptr
}

// Input mirrors INPUT. The union field is declared as MouseInput (the widest
// member, 8-byte aligned); keyboard payloads are written through the same
// storage.
type Input struct {
	Type uint32
	Mi   MouseInput
}

// MouseEvent builds a mouse INPUT record.
func MouseEvent(mi MouseInput) Input {
	return Input{Type: InputMouse, Mi: mi}
}

// KeyboardEvent builds a keyboard INPUT record by writing the KEYBDINPUT
// payload into the union storage.
func KeyboardEvent(ki KeybdInput) Input {
	in := Input{Type: InputKeyboard}
	*(*KeybdInput)(unsafe.Pointer(&in.Mi)) = ki
	return in
}

// BitmapInfoHeader mirrors BITMAPINFOHEADER. A negative Height requests a
// top-down DIB, which keeps pixel buffers row-major with the top row first.
type BitmapInfoHeader struct {
	Size          uint32
	Width         int32
	Height        int32
	Planes        uint16
	BitCount      uint16
	Compression   uint32
	SizeImage     uint32
	XPelsPerMeter int32
	YPelsPerMeter int32
	ClrUsed       uint32
	ClrImportant  uint32
}

// BitmapInfo mirrors BITMAPINFO with a single color entry.
type BitmapInfo struct {
	Header BitmapInfoHeader
	Colors [1]uint32
}

// CursorInfo mirrors CURSORINFO. Size must be set before GetCursorInfo.
type CursorInfo struct {
	Size      uint32
	Flags     uint32
	Cursor    windows.Handle
	ScreenPos Point
}

// IconInfo mirrors ICONINFO. Mask and Color are owned by the caller after
// GetIconInfo succeeds and must be deleted.
type IconInfo struct {
	Icon     int32
	XHotspot uint32
	YHotspot uint32
	Mask     windows.Handle
	Color    windows.Handle
}

// BlendFunction mirrors BLENDFUNCTION for per-pixel-alpha layered updates.
type BlendFunction struct {
	BlendOp             byte
	BlendFlags          byte
	SourceConstantAlpha byte
	AlphaFormat         byte
}

// WndClass mirrors WNDCLASSW.
type WndClass struct {
	Style      uint32
	WndProc    uintptr
	ClsExtra   int32
	WndExtra   int32
	Instance   windows.Handle
	Icon       windows.Handle
	Cursor     windows.Handle
	Background windows.Handle
	MenuName   *uint16
	ClassName  *uint16
}
