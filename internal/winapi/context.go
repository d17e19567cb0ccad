//go:build windows

// File: internal/winapi/context.go
package winapi

import (
	"fmt"
	"unsafe"

	"go.uber.org/zap"
	"golang.org/x/sys/windows"
)

// Context owns the lazily-loaded user32/gdi32 entry points used by the
// capture, overlay and input layers. It is constructed once at startup and
// passed to the components that need it; there is no ambient global lookup.
type Context struct {
	logger *zap.Logger

	user32   *windows.LazyDLL
	gdi32    *windows.LazyDLL
	kernel32 *windows.LazyDLL

	procGetSystemMetrics      *windows.LazyProc
	procGetDC                 *windows.LazyProc
	procReleaseDC             *windows.LazyProc
	procGetCursorInfo         *windows.LazyProc
	procGetIconInfo           *windows.LazyProc
	procDrawIconEx            *windows.LazyProc
	procSendInput             *windows.LazyProc
	procRegisterClassW        *windows.LazyProc
	procCreateWindowExW       *windows.LazyProc
	procDestroyWindow         *windows.LazyProc
	procShowWindow            *windows.LazyProc
	procSetWindowPos          *windows.LazyProc
	procUpdateLayeredWindow   *windows.LazyProc
	procDrawTextW             *windows.LazyProc
	procDefWindowProcW        *windows.LazyProc
	procSetProcessDPIAware    *windows.LazyProc
	procCreateCompatibleDC    *windows.LazyProc
	procCreateDIBSection      *windows.LazyProc
	procSelectObject          *windows.LazyProc
	procDeleteObject          *windows.LazyProc
	procDeleteDC              *windows.LazyProc
	procBitBlt                *windows.LazyProc
	procSetBkMode             *windows.LazyProc
	procSetTextColor          *windows.LazyProc
	procCreateFontW           *windows.LazyProc
	procGetTextExtentPoint32W *windows.LazyProc
	procGetModuleHandleW      *windows.LazyProc
}

// NewContext loads the interop entry points and makes the process DPI-aware
// so that GetSystemMetrics reports physical pixels.
func NewContext(logger *zap.Logger) (*Context, error) {
	c := &Context{
		logger:   logger.Named("winapi"),
		user32:   windows.NewLazySystemDLL("user32.dll"),
		gdi32:    windows.NewLazySystemDLL("gdi32.dll"),
		kernel32: windows.NewLazySystemDLL("kernel32.dll"),
	}

	c.procGetSystemMetrics = c.user32.NewProc("GetSystemMetrics")
	c.procGetDC = c.user32.NewProc("GetDC")
	c.procReleaseDC = c.user32.NewProc("ReleaseDC")
	c.procGetCursorInfo = c.user32.NewProc("GetCursorInfo")
	c.procGetIconInfo = c.user32.NewProc("GetIconInfo")
	c.procDrawIconEx = c.user32.NewProc("DrawIconEx")
	c.procSendInput = c.user32.NewProc("SendInput")
	c.procRegisterClassW = c.user32.NewProc("RegisterClassW")
	c.procCreateWindowExW = c.user32.NewProc("CreateWindowExW")
	c.procDestroyWindow = c.user32.NewProc("DestroyWindow")
	c.procShowWindow = c.user32.NewProc("ShowWindow")
	c.procSetWindowPos = c.user32.NewProc("SetWindowPos")
	c.procUpdateLayeredWindow = c.user32.NewProc("UpdateLayeredWindow")
	c.procDrawTextW = c.user32.NewProc("DrawTextW")
	c.procDefWindowProcW = c.user32.NewProc("DefWindowProcW")
	c.procSetProcessDPIAware = c.user32.NewProc("SetProcessDPIAware")
	c.procCreateCompatibleDC = c.gdi32.NewProc("CreateCompatibleDC")
	c.procCreateDIBSection = c.gdi32.NewProc("CreateDIBSection")
	c.procSelectObject = c.gdi32.NewProc("SelectObject")
	c.procDeleteObject = c.gdi32.NewProc("DeleteObject")
	c.procDeleteDC = c.gdi32.NewProc("DeleteDC")
	c.procBitBlt = c.gdi32.NewProc("BitBlt")
	c.procSetBkMode = c.gdi32.NewProc("SetBkMode")
	c.procSetTextColor = c.gdi32.NewProc("SetTextColor")
	c.procCreateFontW = c.gdi32.NewProc("CreateFontW")
	c.procGetTextExtentPoint32W = c.gdi32.NewProc("GetTextExtentPoint32W")
	c.procGetModuleHandleW = c.kernel32.NewProc("GetModuleHandleW")

	for _, p := range []*windows.LazyProc{
		c.procGetSystemMetrics, c.procGetDC, c.procSendInput,
		c.procCreateWindowExW, c.procUpdateLayeredWindow,
		c.procCreateDIBSection, c.procBitBlt,
	} {
		if err := p.Find(); err != nil {
			return nil, fmt.Errorf("winapi: required entry point missing: %w", err)
		}
	}

	c.setDPIAware()
	return c, nil
}

// setDPIAware prefers per-monitor awareness via Shcore and falls back to the
// legacy system-wide call. Failure is non-fatal; coordinates just follow the
// virtualized metrics in that case.
func (c *Context) setDPIAware() {
	shcore := windows.NewLazySystemDLL("Shcore.dll")
	setAwareness := shcore.NewProc("SetProcessDpiAwareness")
	if err := setAwareness.Find(); err == nil {
		const perMonitorDPIAware = 2
		if hr, _, _ := setAwareness.Call(perMonitorDPIAware); hr == 0 {
			return
		}
	}
	if r, _, err := c.procSetProcessDPIAware.Call(); r == 0 {
		c.logger.Warn("could not set DPI awareness", zap.Error(err))
	}
}

// ScreenSize returns the primary screen dimensions in physical pixels.
func (c *Context) ScreenSize() (int, int) {
	w, _, _ := c.procGetSystemMetrics.Call(SMCxScreen)
	h, _, _ := c.procGetSystemMetrics.Call(SMCyScreen)
	return int(w), int(h)
}

// GetDC acquires a device context. hwnd 0 yields the whole-screen DC.
func (c *Context) GetDC(hwnd windows.Handle) (windows.Handle, error) {
	r, _, err := c.procGetDC.Call(uintptr(hwnd))
	if r == 0 {
		return 0, fmt.Errorf("GetDC: %w", err)
	}
	return windows.Handle(r), nil
}

func (c *Context) ReleaseDC(hwnd, dc windows.Handle) {
	c.procReleaseDC.Call(uintptr(hwnd), uintptr(dc)) //nolint:errcheck
}

func (c *Context) CreateCompatibleDC(dc windows.Handle) (windows.Handle, error) {
	r, _, err := c.procCreateCompatibleDC.Call(uintptr(dc))
	if r == 0 {
		return 0, fmt.Errorf("CreateCompatibleDC: %w", err)
	}
	return windows.Handle(r), nil
}

func (c *Context) DeleteDC(dc windows.Handle) {
	c.procDeleteDC.Call(uintptr(dc)) //nolint:errcheck
}

// CreateDIBSection allocates a device-independent bitmap and returns both
// the bitmap handle and a pointer to its pixel bits. The bits stay valid
// until the bitmap is deleted.
func (c *Context) CreateDIBSection(dc windows.Handle, bmi *BitmapInfo) (windows.Handle, unsafe.Pointer, error) {
	var bits unsafe.Pointer
	r, _, err := c.procCreateDIBSection.Call(
		uintptr(dc),
		uintptr(unsafe.Pointer(bmi)),
		0, // DIB_RGB_COLORS
		uintptr(unsafe.Pointer(&bits)),
		0, 0,
	)
	if r == 0 || bits == nil {
		return 0, nil, fmt.Errorf("CreateDIBSection: %w", err)
	}
	return windows.Handle(r), bits, nil
}

func (c *Context) SelectObject(dc, obj windows.Handle) (windows.Handle, error) {
	r, _, err := c.procSelectObject.Call(uintptr(dc), uintptr(obj))
	if r == 0 {
		return 0, fmt.Errorf("SelectObject: %w", err)
	}
	return windows.Handle(r), nil
}

func (c *Context) DeleteObject(obj windows.Handle) {
	c.procDeleteObject.Call(uintptr(obj)) //nolint:errcheck
}

func (c *Context) BitBlt(dst windows.Handle, x, y, w, h int, src windows.Handle, sx, sy int, rop uint32) error {
	r, _, err := c.procBitBlt.Call(
		uintptr(dst), uintptr(x), uintptr(y), uintptr(w), uintptr(h),
		uintptr(src), uintptr(sx), uintptr(sy), uintptr(rop),
	)
	if r == 0 {
		return fmt.Errorf("BitBlt: %w", err)
	}
	return nil
}

// GetCursorInfo fills ci; the boolean is false when the call fails, which
// callers treat as "no cursor to composite" rather than an error.
func (c *Context) GetCursorInfo(ci *CursorInfo) bool {
	ci.Size = uint32(unsafe.Sizeof(*ci))
	r, _, _ := c.procGetCursorInfo.Call(uintptr(unsafe.Pointer(ci)))
	return r != 0
}

func (c *Context) GetIconInfo(icon windows.Handle, ii *IconInfo) bool {
	r, _, _ := c.procGetIconInfo.Call(uintptr(icon), uintptr(unsafe.Pointer(ii)))
	return r != 0
}

func (c *Context) DrawIconEx(dc windows.Handle, x, y int, icon windows.Handle) bool {
	r, _, _ := c.procDrawIconEx.Call(
		uintptr(dc), uintptr(x), uintptr(y), uintptr(icon),
		0, 0, 0, 0, DINormal,
	)
	return r != 0
}

// SendInput injects a batch of synthetic events and returns how many the OS
// accepted.
func (c *Context) SendInput(inputs []Input) (int, error) {
	if len(inputs) == 0 {
		return 0, nil
	}
	r, _, err := c.procSendInput.Call(
		uintptr(len(inputs)),
		uintptr(unsafe.Pointer(&inputs[0])),
		unsafe.Sizeof(inputs[0]),
	)
	if int(r) != len(inputs) {
		return int(r), fmt.Errorf("SendInput accepted %d of %d events: %w", r, len(inputs), err)
	}
	return int(r), nil
}

func (c *Context) RegisterClass(wc *WndClass) error {
	r, _, err := c.procRegisterClassW.Call(uintptr(unsafe.Pointer(wc)))
	if r == 0 {
		return fmt.Errorf("RegisterClassW: %w", err)
	}
	return nil
}

func (c *Context) CreateWindowEx(exStyle WindowStyleEx, className string, style WindowStyle, x, y, w, h int, instance windows.Handle) (windows.Handle, error) {
	cls, err := windows.UTF16PtrFromString(className)
	if err != nil {
		return 0, err
	}
	r, _, callErr := c.procCreateWindowExW.Call(
		uintptr(exStyle),
		uintptr(unsafe.Pointer(cls)),
		0, // no window name
		uintptr(style),
		uintptr(x), uintptr(y), uintptr(w), uintptr(h),
		0, 0, uintptr(instance), 0,
	)
	if r == 0 {
		return 0, fmt.Errorf("CreateWindowExW: %w", callErr)
	}
	return windows.Handle(r), nil
}

func (c *Context) DestroyWindow(hwnd windows.Handle) {
	c.procDestroyWindow.Call(uintptr(hwnd)) //nolint:errcheck
}

func (c *Context) ShowWindow(hwnd windows.Handle, cmd int) {
	c.procShowWindow.Call(uintptr(hwnd), uintptr(cmd)) //nolint:errcheck
}

func (c *Context) SetWindowPos(hwnd windows.Handle, after uintptr, flags SetWindowPosFlags) error {
	r, _, err := c.procSetWindowPos.Call(
		uintptr(hwnd), after, 0, 0, 0, 0, uintptr(flags),
	)
	if r == 0 {
		return fmt.Errorf("SetWindowPos: %w", err)
	}
	return nil
}

// UpdateLayeredWindow pushes a premultiplied-alpha DIB to the compositor as
// the window's entire content.
func (c *Context) UpdateLayeredWindow(hwnd windows.Handle, dst *Point, size *Size, srcDC windows.Handle, src *Point, blend *BlendFunction) error {
	r, _, err := c.procUpdateLayeredWindow.Call(
		uintptr(hwnd),
		0,
		uintptr(unsafe.Pointer(dst)),
		uintptr(unsafe.Pointer(size)),
		uintptr(srcDC),
		uintptr(unsafe.Pointer(src)),
		0,
		uintptr(unsafe.Pointer(blend)),
		ULWAlpha,
	)
	if r == 0 {
		return fmt.Errorf("UpdateLayeredWindow: %w", err)
	}
	return nil
}

func (c *Context) SetBkMode(dc windows.Handle, mode int) {
	c.procSetBkMode.Call(uintptr(dc), uintptr(mode)) //nolint:errcheck
}

func (c *Context) SetTextColor(dc windows.Handle, color uint32) {
	c.procSetTextColor.Call(uintptr(dc), uintptr(color)) //nolint:errcheck
}

// CreateFont creates a GDI font. A negative height requests character
// height in pixels (em mapping), matching how the HUD tiers are sized.
func (c *Context) CreateFont(height, weight int, face string) (windows.Handle, error) {
	name, err := windows.UTF16PtrFromString(face)
	if err != nil {
		return 0, err
	}
	r, _, callErr := c.procCreateFontW.Call(
		uintptr(height), 0, 0, 0, uintptr(weight),
		0, 0, 0, 0, 0, 0, 0, 0,
		uintptr(unsafe.Pointer(name)),
	)
	if r == 0 {
		return 0, fmt.Errorf("CreateFontW: %w", callErr)
	}
	return windows.Handle(r), nil
}

func (c *Context) DrawText(dc windows.Handle, text string, rect *Rect, format uint32) error {
	s, err := windows.UTF16PtrFromString(text)
	if err != nil {
		return err
	}
	r, _, callErr := c.procDrawTextW.Call(
		uintptr(dc),
		uintptr(unsafe.Pointer(s)),
		^uintptr(0), // -1: null-terminated
		uintptr(unsafe.Pointer(rect)),
		uintptr(format),
	)
	if r == 0 {
		return fmt.Errorf("DrawTextW: %w", callErr)
	}
	return nil
}

// GetTextExtent measures the rendered width/height of text under the font
// currently selected into dc.
func (c *Context) GetTextExtent(dc windows.Handle, text string) (Size, error) {
	var sz Size
	units, err := windows.UTF16FromString(text)
	if err != nil {
		return sz, err
	}
	// Strip the trailing NUL; the API takes an explicit length.
	n := len(units) - 1
	if n == 0 {
		return sz, nil
	}
	r, _, callErr := c.procGetTextExtentPoint32W.Call(
		uintptr(dc),
		uintptr(unsafe.Pointer(&units[0])),
		uintptr(n),
		uintptr(unsafe.Pointer(&sz)),
	)
	if r == 0 {
		return sz, fmt.Errorf("GetTextExtentPoint32W: %w", callErr)
	}
	return sz, nil
}

// DefWindowProc returns the address of DefWindowProcW for use as a window
// class procedure. The overlay never processes messages itself.
func (c *Context) DefWindowProc() uintptr {
	return c.procDefWindowProcW.Addr()
}

// ModuleHandle returns the current module's HINSTANCE.
func (c *Context) ModuleHandle() (windows.Handle, error) {
	r, _, err := c.procGetModuleHandleW.Call(0)
	if r == 0 {
		return 0, fmt.Errorf("GetModuleHandleW: %w", err)
	}
	return windows.Handle(r), nil
}
