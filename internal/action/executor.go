// File: internal/action/executor.go
package action

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/storyhud/storyhud/internal/coords"
	"github.com/storyhud/storyhud/internal/faults"
)

// Pointer is the physical input surface the executor drives. The production
// implementation synthesizes OS input events; tests substitute a recorder.
type Pointer interface {
	Move(ctx context.Context, x, y int) error
	Click(ctx context.Context, x, y int) error
	Drag(ctx context.Context, x1, y1, x2, y2 int) error
	TypeText(ctx context.Context, text string) error
	Scroll(ctx context.Context, dx, dy float64) error
}

// WaitPolicy holds the heuristic post-action delays. The start-menu region
// is a tunable screen-region heuristic (normalized coordinates), not a law:
// clicks landing there get a longer wait because that UI opens slowly.
type WaitPolicy struct {
	AfterClick    time.Duration
	AfterType     time.Duration
	AfterDrag     time.Duration
	MoveHover     time.Duration
	AfterScroll   time.Duration
	StartMenuOpen time.Duration

	StartMenuMaxX float64
	StartMenuMinY float64
}

func DefaultWaitPolicy() WaitPolicy {
	return WaitPolicy{
		AfterClick:    850 * time.Millisecond,
		AfterType:     650 * time.Millisecond,
		AfterDrag:     600 * time.Millisecond,
		MoveHover:     1200 * time.Millisecond,
		AfterScroll:   300 * time.Millisecond,
		StartMenuOpen: 1050 * time.Millisecond,
		StartMenuMaxX: 120,
		StartMenuMinY: 900,
	}
}

// Executor maps validated commands onto coordinate conversion plus input
// synthesis and reports how long the loop should pause afterwards.
type Executor struct {
	mapper coords.Mapper
	ptr    Pointer
	waits  WaitPolicy
	logger *zap.Logger
}

func NewExecutor(mapper coords.Mapper, ptr Pointer, waits WaitPolicy, logger *zap.Logger) *Executor {
	return &Executor{mapper: mapper, ptr: ptr, waits: waits, logger: logger.Named("executor")}
}

// Execute runs one validated command. Oracle coordinates are clamped into
// [0,1000] before mapping. The returned duration is the post-action settle
// heuristic; analyze and done perform no physical action and wait nothing.
func (e *Executor) Execute(ctx context.Context, cmd Command) (time.Duration, error) {
	switch c := cmd.(type) {
	case Click:
		x, y := e.toScreen(c.X, c.Y)
		if err := e.ptr.Click(ctx, x, y); err != nil {
			return 0, err
		}
		e.logger.Debug("click", zap.Float64("nx", c.X), zap.Float64("ny", c.Y))
		if c.X <= e.waits.StartMenuMaxX && c.Y >= e.waits.StartMenuMinY {
			return maxDuration(e.waits.AfterClick, e.waits.StartMenuOpen), nil
		}
		return e.waits.AfterClick, nil

	case Move:
		x, y := e.toScreen(c.X, c.Y)
		if err := e.ptr.Move(ctx, x, y); err != nil {
			return 0, err
		}
		return e.waits.MoveHover, nil

	case Drag:
		x1, y1 := e.toScreen(c.X1, c.Y1)
		x2, y2 := e.toScreen(c.X2, c.Y2)
		if err := e.ptr.Drag(ctx, x1, y1, x2, y2); err != nil {
			return 0, err
		}
		return e.waits.AfterDrag, nil

	case Type:
		if err := e.ptr.TypeText(ctx, c.Text); err != nil {
			return 0, err
		}
		return e.waits.AfterType, nil

	case Scroll:
		if err := e.ptr.Scroll(ctx, c.DX, c.DY); err != nil {
			return 0, err
		}
		return e.waits.AfterScroll, nil

	case Analyze:
		return 0, nil

	case Done:
		return 0, nil

	default:
		return 0, faults.New(faults.ClassValidation, "executor received unknown command %T", cmd)
	}
}

func (e *Executor) toScreen(nx, ny float64) (int, int) {
	return e.mapper.ToScreen(coords.ClampNorm(nx), coords.ClampNorm(ny))
}

func maxDuration(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}
