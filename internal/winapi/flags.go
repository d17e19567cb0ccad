//go:build windows

// File: internal/winapi/flags.go
package winapi

// MouseEventFlags is the dwFlags field of MOUSEINPUT.
type MouseEventFlags uint32

const (
	MouseMove     MouseEventFlags = 0x0001
	MouseLeftDown MouseEventFlags = 0x0002
	MouseLeftUp   MouseEventFlags = 0x0004
	MouseWheel    MouseEventFlags = 0x0800
	MouseHWheel   MouseEventFlags = 0x1000
	MouseAbsolute MouseEventFlags = 0x8000
)

// KeyEventFlags is the dwFlags field of KEYBDINPUT.
type KeyEventFlags uint32

const (
	KeyUp      KeyEventFlags = 0x0002
	KeyUnicode KeyEventFlags = 0x0004
)

// WindowStyleEx is the dwExStyle argument of CreateWindowExW.
type WindowStyleEx uint32

const (
	WSExTopmost     WindowStyleEx = 0x00000008
	WSExTransparent WindowStyleEx = 0x00000020
	WSExToolWindow  WindowStyleEx = 0x00000080
	WSExLayered     WindowStyleEx = 0x00080000
	WSExNoActivate  WindowStyleEx = 0x08000000
)

// WindowStyle is the dwStyle argument of CreateWindowExW.
type WindowStyle uint32

const WSPopup WindowStyle = 0x80000000

// SetWindowPosFlags is the uFlags argument of SetWindowPos.
type SetWindowPosFlags uint32

const (
	SWPNoSize     SetWindowPosFlags = 0x0001
	SWPNoMove     SetWindowPosFlags = 0x0002
	SWPNoActivate SetWindowPosFlags = 0x0010
	SWPShowWindow SetWindowPosFlags = 0x0040
)

const (
	InputMouse    = 0
	InputKeyboard = 1

	// WheelDelta is one detent of the mouse wheel.
	WheelDelta = 120

	SrcCopy = 0x00CC0020

	SWShowNoActivate = 4
	SWHide           = 0

	ULWAlpha    = 2
	ACSrcOver   = 0
	ACSrcAlpha  = 1
	HWNDTopmost = ^uintptr(0) // (HWND)-1

	CursorShowing = 0x00000001
	DINormal      = 0x0003

	BkModeTransparent = 1

	DTLeft     = 0x00000000
	DTNoPrefix = 0x00000800

	SMCxScreen = 0
	SMCyScreen = 1

	FontWeightBold = 700
	BIRGB          = 0
)
