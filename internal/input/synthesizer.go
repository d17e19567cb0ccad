//go:build windows

// File: internal/input/synthesizer.go
package input

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/storyhud/storyhud/internal/coords"
	"github.com/storyhud/storyhud/internal/faults"
	"github.com/storyhud/storyhud/internal/winapi"
)

// Config paces the synthesizer. EventDelay follows each injected batch so
// the target application can drain its queue; DragStepPause spaces the
// interpolated drag moves at human speed.
type Config struct {
	EventDelay    time.Duration
	DragStepPause time.Duration
	DragSteps     int
}

func DefaultConfig() Config {
	return Config{
		EventDelay:    100 * time.Millisecond,
		DragStepPause: 10 * time.Millisecond,
		DragSteps:     DefaultDragSteps,
	}
}

// Synthesizer emits synthetic mouse and keyboard events through SendInput at
// device-absolute coordinates. Any call where the OS accepts fewer events
// than submitted is an execution failure; partial injection is not
// distinguished from total failure.
type Synthesizer struct {
	api    *winapi.Context
	mapper coords.Mapper
	cfg    Config
	logger *zap.Logger
}

func New(api *winapi.Context, mapper coords.Mapper, cfg Config, logger *zap.Logger) *Synthesizer {
	if cfg.DragSteps < 1 {
		cfg.DragSteps = DefaultDragSteps
	}
	return &Synthesizer{api: api, mapper: mapper, cfg: cfg, logger: logger.Named("input")}
}

// Move places the cursor at a screen-pixel position.
func (s *Synthesizer) Move(ctx context.Context, x, y int) error {
	ax, ay := s.mapper.ToDeviceAbsolute(x, y)
	return s.send(ctx, []winapi.Input{absMouse(ax, ay, winapi.MouseMove)}, s.cfg.EventDelay)
}

// Click emits move+press+release as one atomic batch at the target.
func (s *Synthesizer) Click(ctx context.Context, x, y int) error {
	ax, ay := s.mapper.ToDeviceAbsolute(x, y)
	batch := []winapi.Input{
		absMouse(ax, ay, winapi.MouseMove),
		absMouse(ax, ay, winapi.MouseLeftDown),
		absMouse(ax, ay, winapi.MouseLeftUp),
	}
	return s.send(ctx, batch, s.cfg.EventDelay)
}

// Drag presses at the start point, walks interpolated intermediate moves at
// sub-10ms pacing, and releases at the end point.
func (s *Synthesizer) Drag(ctx context.Context, x1, y1, x2, y2 int) error {
	ax1, ay1 := s.mapper.ToDeviceAbsolute(x1, y1)
	ax2, ay2 := s.mapper.ToDeviceAbsolute(x2, y2)

	if err := s.send(ctx, []winapi.Input{absMouse(ax1, ay1, winapi.MouseMove)}, s.cfg.EventDelay); err != nil {
		return err
	}
	if err := s.send(ctx, []winapi.Input{absMouse(ax1, ay1, winapi.MouseLeftDown)}, s.cfg.EventDelay); err != nil {
		return err
	}

	for _, p := range DragPath(int32(ax1), int32(ay1), int32(ax2), int32(ay2), s.cfg.DragSteps) {
		if err := s.send(ctx, []winapi.Input{absMouse(uint16(p[0]), uint16(p[1]), winapi.MouseMove)}, 0); err != nil {
			return err
		}
		if err := sleepCtx(ctx, s.cfg.DragStepPause); err != nil {
			return err
		}
	}

	return s.send(ctx, []winapi.Input{absMouse(ax2, ay2, winapi.MouseLeftUp)}, s.cfg.EventDelay)
}

// TypeText injects text as UNICODE key events, one down+up pair per UTF-16
// code unit, so surrogate-pair characters type correctly.
func (s *Synthesizer) TypeText(ctx context.Context, text string) error {
	units := UTF16Units(text)
	if len(units) == 0 {
		return nil
	}
	batch := make([]winapi.Input, 0, len(units)*2)
	for _, cu := range units {
		batch = append(batch,
			winapi.KeyboardEvent(winapi.KeybdInput{Scan: cu, Flags: winapi.KeyUnicode}),
			winapi.KeyboardEvent(winapi.KeybdInput{Scan: cu, Flags: winapi.KeyUnicode | winapi.KeyUp}),
		)
	}
	return s.send(ctx, batch, s.cfg.EventDelay)
}

// Scroll translates the requested deltas into discrete wheel detents,
// vertical then horizontal.
func (s *Synthesizer) Scroll(ctx context.Context, dx, dy float64) error {
	var batch []winapi.Input
	for _, axis := range []struct {
		delta float64
		flag  winapi.MouseEventFlags
	}{
		{dy, winapi.MouseWheel},
		{dx, winapi.MouseHWheel},
	} {
		ticks, amount := WheelTicks(axis.delta)
		for i := 0; i < ticks; i++ {
			batch = append(batch, winapi.MouseEvent(winapi.MouseInput{
				MouseData: uint32(amount),
				Flags:     axis.flag,
			}))
		}
	}
	if len(batch) == 0 {
		return nil
	}
	return s.send(ctx, batch, s.cfg.EventDelay)
}

func (s *Synthesizer) send(ctx context.Context, batch []winapi.Input, delay time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	accepted, err := s.api.SendInput(batch)
	if err != nil {
		s.logger.Error("input injection failed",
			zap.Int("submitted", len(batch)), zap.Int("accepted", accepted))
		return faults.Wrap(faults.ClassExecution, err)
	}
	if delay > 0 {
		return sleepCtx(ctx, delay)
	}
	return nil
}

func absMouse(ax, ay uint16, flags winapi.MouseEventFlags) winapi.Input {
	return winapi.MouseEvent(winapi.MouseInput{
		Dx:    int32(ax),
		Dy:    int32(ay),
		Flags: flags | winapi.MouseAbsolute,
	})
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
