// File: internal/agent/loop.go
package agent

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/storyhud/storyhud/internal/action"
	"github.com/storyhud/storyhud/internal/capture"
	"github.com/storyhud/storyhud/internal/faults"
	"github.com/storyhud/storyhud/internal/oracle"
	"github.com/storyhud/storyhud/internal/pngenc"
	"github.com/storyhud/storyhud/internal/story"
)

// Capturer produces full-resolution desktop frames.
type Capturer interface {
	Capture(width, height int, includeCursor bool) (capture.Frame, error)
}

// Screen reports the live desktop dimensions.
type Screen interface {
	Size() (int, int)
}

// Narrator asks the vision oracle for the next decision. It returns the raw
// model text; extraction happens in the loop so decode failures can be
// counted separately from transport ones.
type Narrator interface {
	Decide(ctx context.Context, png []byte, goal string) (string, error)
}

// Display is the on-screen HUD showing the current story.
type Display interface {
	SetStory(s string)
	Render() error
}

// Runner executes one validated command and reports how long the desktop
// should be left alone afterwards.
type Runner interface {
	Execute(ctx context.Context, cmd action.Command) (time.Duration, error)
}

// Settler blocks until the screen stops changing or its budget runs out.
type Settler interface {
	Wait(ctx context.Context) error
}

// Options tunes a Loop. Zero values come from config defaults; the loop does
// not re-default them.
type Options struct {
	Goal             string
	InitialStory     string
	MaxStoryLines    int
	MaxParseFailures int
	MaxSteps         int // 0 means no step cap
	PreCapturePause  time.Duration
	PostRenderPause  time.Duration
	ModelWidth       int
	ModelHeight      int
	IncludeCursor    bool
}

// Loop is the single-threaded observe/narrate/act cycle. Exactly one
// goroutine drives it; none of its collaborators are called concurrently.
type Loop struct {
	opts     Options
	screen   Screen
	capturer Capturer
	narrator Narrator
	display  Display
	runner   Runner
	settler  Settler
	dumper   *Dumper
	logger   *zap.Logger

	current  string
	failures int
	steps    int
}

// NewLoop wires a control loop. dumper may be nil to disable frame dumps.
func NewLoop(opts Options, screen Screen, grab Capturer, nar Narrator, disp Display, run Runner, set Settler, dumper *Dumper, logger *zap.Logger) *Loop {
	return &Loop{
		opts:     opts,
		screen:   screen,
		capturer: grab,
		narrator: nar,
		display:  disp,
		runner:   run,
		settler:  set,
		dumper:   dumper,
		logger:   logger.Named("agent"),
		current:  opts.InitialStory,
	}
}

// Story returns the current story-memory text.
func (l *Loop) Story() string {
	return l.current
}

// Run drives the loop until the oracle declares the task done, the failure
// budget is exhausted, the optional step cap is hit, or ctx is cancelled.
// A Done decision returns nil; every other exit returns an error.
func (l *Loop) Run(ctx context.Context) error {
	// The overlay is the agent's only memory; a HUD that cannot paint
	// means the next screenshot would carry stale or missing story text.
	l.display.SetStory(l.current)
	if err := l.display.Render(); err != nil {
		return err
	}
	if err := sleepCtx(ctx, l.opts.PostRenderPause); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if l.opts.MaxSteps > 0 && l.steps >= l.opts.MaxSteps {
			return faults.New(faults.ClassExecution, "step cap of %d reached before task completion", l.opts.MaxSteps)
		}

		done, err := l.step(ctx)
		if err != nil {
			return err
		}
		if done {
			l.logger.Info("task declared done", zap.Int("steps", l.steps))
			return nil
		}
	}
}

// step runs one full observe/narrate/act iteration and reports whether the
// oracle declared the task finished.
func (l *Loop) step(ctx context.Context) (bool, error) {
	l.steps++
	stepLog := l.logger.With(zap.Int("step", l.steps))

	if err := sleepCtx(ctx, l.opts.PreCapturePause); err != nil {
		return false, err
	}

	png, err := l.observe(stepLog)
	if err != nil {
		return false, err
	}
	if l.dumper != nil {
		l.dumper.Save(l.steps, png)
	}

	// The goal rides along only on the first call; afterwards the story
	// carries the task context.
	goal := ""
	if l.steps == 1 {
		goal = l.opts.Goal
	}

	// Transport failures are fatal outright; only replies that arrive but
	// carry no decodable decision count against the failure budget.
	raw, err := l.narrator.Decide(ctx, png, goal)
	if err != nil {
		return false, err
	}

	decision, ok := oracle.ExtractDecision(raw)
	if !ok {
		stepLog.Warn("no decodable decision in oracle reply",
			zap.Int("reply_len", len(raw)))
		return false, l.recordFailure()
	}
	l.failures = 0

	// An invalid decision skips the whole iteration: nothing executes and
	// the overlay keeps the previous story.
	cmd := action.FromDecision(*decision)
	if cmd == nil {
		stepLog.Warn("oracle chose an unknown tool", zap.String("tool", decision.Tool))
		return false, nil
	}
	if err := action.Validate(cmd); err != nil {
		stepLog.Warn("command rejected", zap.String("tool", decision.Tool), zap.Error(err))
		return false, nil
	}

	if err := l.advanceStory(ctx, decision); err != nil {
		return false, err
	}

	stepLog.Info("executing",
		zap.String("tool", decision.Tool),
		zap.String("reasoning", firstLine(decision.Reasoning)))

	wait, err := l.runner.Execute(ctx, cmd)
	if err != nil {
		// No partial-injection recovery; the desktop state is unknown.
		return false, err
	}

	if _, isDone := cmd.(action.Done); isDone {
		return true, nil
	}

	if err := sleepCtx(ctx, wait); err != nil {
		return false, err
	}
	if l.settler != nil {
		if err := l.settler.Wait(ctx); err != nil {
			return false, err
		}
	}
	return false, nil
}

// observe grabs a full-resolution frame, downsamples it to the oracle's
// dimensions and encodes it to PNG.
func (l *Loop) observe(log *zap.Logger) ([]byte, error) {
	sw, sh := l.screen.Size()
	frame, err := l.capturer.Capture(sw, sh, l.opts.IncludeCursor)
	if err != nil {
		return nil, err
	}
	small := capture.Downsample(frame, l.opts.ModelWidth, l.opts.ModelHeight)
	png, err := pngenc.Encode(small.Pix, small.Width, small.Height)
	if err != nil {
		return nil, err
	}
	log.Debug("frame observed",
		zap.Int("screen_w", sw), zap.Int("screen_h", sh),
		zap.Int("png_bytes", len(png)))
	return png, nil
}

// advanceStory folds the decision's memory into the running story and
// repaints the HUD. A decision without memory falls back to the reasoning
// text split into sentences, so the HUD never goes silently stale. A failed
// repaint is fatal: the overlay is the agent's memory and the next
// screenshot would otherwise carry stale story text.
func (l *Loop) advanceStory(ctx context.Context, d *oracle.Decision) error {
	fresh := d.Memory.Story()
	if fresh == "" && d.Reasoning != "" {
		fresh = strings.Join(story.SplitSentences(d.Reasoning), "\n")
	}
	l.current = story.Advance(l.current, fresh, l.opts.MaxStoryLines)

	l.display.SetStory(l.current)
	if err := l.display.Render(); err != nil {
		return err
	}
	return sleepCtx(ctx, l.opts.PostRenderPause)
}

// recordFailure bumps the consecutive failure counter and converts it into a
// hard error once the budget is spent. Any decodable decision resets the
// counter.
func (l *Loop) recordFailure() error {
	l.failures++
	if l.failures >= l.opts.MaxParseFailures {
		return faults.New(faults.ClassDecode,
			"%d consecutive unusable oracle replies", l.failures)
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
