// File: internal/agent/loop_test.go
package agent

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/storyhud/storyhud/internal/action"
	"github.com/storyhud/storyhud/internal/capture"
	"github.com/storyhud/storyhud/internal/faults"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// -- Test doubles --

type fakeScreen struct{ w, h int }

func (s fakeScreen) Size() (int, int) { return s.w, s.h }

type fakeCapturer struct {
	frames int
	err    error
}

func (c *fakeCapturer) Capture(width, height int, includeCursor bool) (capture.Frame, error) {
	c.frames++
	if c.err != nil {
		return capture.Frame{}, c.err
	}
	return capture.Frame{
		Width:  width,
		Height: height,
		Pix:    make([]byte, width*height*4),
	}, nil
}

// scriptedNarrator replays canned replies in order, recording the goal it
// was handed on each call.
type scriptedNarrator struct {
	replies []string
	errs    []error
	goals   []string
	calls   int
}

func (n *scriptedNarrator) Decide(ctx context.Context, png []byte, goal string) (string, error) {
	i := n.calls
	n.calls++
	n.goals = append(n.goals, goal)
	if i < len(n.errs) && n.errs[i] != nil {
		return "", n.errs[i]
	}
	if i < len(n.replies) {
		return n.replies[i], nil
	}
	return `{"tool": "done", "memory": ["ran out of script"]}`, nil
}

type recordingDisplay struct {
	stories []string
	renders int
}

func (d *recordingDisplay) SetStory(s string) { d.stories = append(d.stories, s) }
func (d *recordingDisplay) Render() error     { d.renders++; return nil }

// failingDisplay renders successfully failAfter times, then fails forever.
type failingDisplay struct {
	recordingDisplay
	failAfter int
}

func (d *failingDisplay) Render() error {
	d.renders++
	if d.renders > d.failAfter {
		return faults.New(faults.ClassAcquisition, "UpdateLayeredWindow failed")
	}
	return nil
}

type recordingRunner struct {
	cmds []action.Command
	err  error
}

func (r *recordingRunner) Execute(ctx context.Context, cmd action.Command) (time.Duration, error) {
	r.cmds = append(r.cmds, cmd)
	return 0, r.err
}

type countingSettler struct{ waits int }

func (s *countingSettler) Wait(ctx context.Context) error { s.waits++; return nil }

func testOptions() Options {
	return Options{
		Goal:             "open notepad",
		MaxStoryLines:    16,
		MaxParseFailures: 3,
		ModelWidth:       2,
		ModelHeight:      2,
	}
}

func newTestLoop(opts Options, nar Narrator, disp *recordingDisplay, run *recordingRunner, set Settler) *Loop {
	return NewLoop(opts, fakeScreen{4, 4}, &fakeCapturer{}, nar, disp, run, set, nil, zap.NewNop())
}

// -- Tests --

func TestLoopRunsUntilDone(t *testing.T) {
	nar := &scriptedNarrator{replies: []string{
		`{"tool": "click", "x": 500, "y": 500, "reasoning": "Clicking the icon.", "memory": ["I clicked the icon."]}`,
		`{"tool": "done", "reasoning": "Finished.", "memory": ["I clicked the icon.", "The task is complete."]}`,
	}}
	disp := &recordingDisplay{}
	run := &recordingRunner{}
	set := &countingSettler{}
	loop := newTestLoop(testOptions(), nar, disp, run, set)

	err := loop.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, run.cmds, 2)
	assert.Equal(t, action.Click{X: 500, Y: 500}, run.cmds[0])
	assert.Equal(t, action.Done{}, run.cmds[1])

	assert.Contains(t, loop.Story(), "I clicked the icon.")
	assert.Contains(t, loop.Story(), "The task is complete.")

	// Done is terminal; no settle wait follows it.
	assert.Equal(t, 1, set.waits)
	// Initial render plus one per decision.
	assert.Equal(t, 3, disp.renders)
}

func TestLoopSendsGoalOnlyOnFirstCall(t *testing.T) {
	nar := &scriptedNarrator{replies: []string{
		`{"tool": "analyze", "reasoning": "Looking around.", "memory": ["The desktop is empty."]}`,
		`{"tool": "done", "memory": ["Nothing to do."]}`,
	}}
	loop := newTestLoop(testOptions(), nar, &recordingDisplay{}, &recordingRunner{}, &countingSettler{})

	require.NoError(t, loop.Run(context.Background()))
	require.Equal(t, []string{"open notepad", ""}, nar.goals)
}

func TestLoopAbortsAfterConsecutiveDecodeFailures(t *testing.T) {
	nar := &scriptedNarrator{replies: []string{
		"I cannot see any JSON here.",
		"still chatting away",
		"nope",
		`{"tool": "done"}`, // must never be reached
	}}
	run := &recordingRunner{}
	loop := newTestLoop(testOptions(), nar, &recordingDisplay{}, run, &countingSettler{})

	err := loop.Run(context.Background())
	require.Error(t, err)
	assert.True(t, faults.Is(err, faults.ClassDecode))
	assert.Equal(t, 3, nar.calls, "the fourth reply must never be requested")
	assert.Empty(t, run.cmds)
}

func TestLoopFailureCounterResetsOnSuccess(t *testing.T) {
	nar := &scriptedNarrator{replies: []string{
		"garbage",
		"more garbage",
		`{"tool": "analyze", "memory": ["Recovered."]}`,
		"garbage again",
		"and again",
		`{"tool": "done", "memory": ["Finally."]}`,
	}}
	loop := newTestLoop(testOptions(), nar, &recordingDisplay{}, &recordingRunner{}, &countingSettler{})

	require.NoError(t, loop.Run(context.Background()))
	assert.Equal(t, 6, nar.calls)
}

func TestLoopTransportErrorIsFatal(t *testing.T) {
	boom := faults.New(faults.ClassTransport, "endpoint unreachable")
	nar := &scriptedNarrator{errs: []error{boom}}
	run := &recordingRunner{}
	loop := newTestLoop(testOptions(), nar, &recordingDisplay{}, run, &countingSettler{})

	err := loop.Run(context.Background())
	require.Error(t, err)
	assert.True(t, faults.Is(err, faults.ClassTransport))
	assert.Equal(t, 1, nar.calls, "no retry after a transport failure")
	assert.Empty(t, run.cmds)
}

func TestLoopSkipsInvalidDecisionsSilently(t *testing.T) {
	nar := &scriptedNarrator{replies: []string{
		`{"tool": "teleport", "x": 1, "y": 1, "memory": ["I teleported."]}`,
		`{"tool": "click", "x": 2000, "y": 500, "memory": ["I clicked far away."]}`, // out of range
		`{"tool": "teleport", "memory": ["Third strike."]}`,
		`{"tool": "done", "memory": ["Wrapping up."]}`,
	}}
	run := &recordingRunner{}
	disp := &recordingDisplay{}
	loop := newTestLoop(testOptions(), nar, disp, run, &countingSettler{})

	// Three consecutive invalid decisions must not exhaust any budget; the
	// loop skips them and carries on to the fourth.
	require.NoError(t, loop.Run(context.Background()))
	require.Len(t, run.cmds, 1)
	assert.Equal(t, action.Done{}, run.cmds[0])

	// Skipped iterations leave the overlay untouched.
	for _, s := range disp.stories {
		assert.NotContains(t, s, "I teleported.")
		assert.NotContains(t, s, "I clicked far away.")
		assert.NotContains(t, s, "Third strike.")
	}
	assert.Contains(t, loop.Story(), "Wrapping up.")
}

func TestLoopStepCap(t *testing.T) {
	nar := &scriptedNarrator{replies: []string{
		`{"tool": "analyze", "memory": ["Still looking."]}`,
		`{"tool": "analyze", "memory": ["Still looking."]}`,
		`{"tool": "analyze", "memory": ["Still looking."]}`,
	}}
	opts := testOptions()
	opts.MaxSteps = 2
	loop := newTestLoop(opts, nar, &recordingDisplay{}, &recordingRunner{}, &countingSettler{})

	err := loop.Run(context.Background())
	require.Error(t, err)
	assert.True(t, faults.Is(err, faults.ClassExecution))
	assert.Equal(t, 2, nar.calls)
}

func TestLoopExecutionErrorAborts(t *testing.T) {
	boom := faults.New(faults.ClassExecution, "SendInput accepted 1 of 3 events")
	nar := &scriptedNarrator{replies: []string{
		`{"tool": "click", "x": 10, "y": 10, "memory": ["Tried a click."]}`,
		`{"tool": "done", "memory": ["Must never be reached."]}`,
	}}
	run := &recordingRunner{err: boom}
	loop := newTestLoop(testOptions(), nar, &recordingDisplay{}, run, &countingSettler{})

	// Partial injection leaves the desktop in an unknown state; the run
	// must stop rather than keep narrating.
	err := loop.Run(context.Background())
	require.Error(t, err)
	assert.True(t, faults.Is(err, faults.ClassExecution))
	require.Len(t, run.cmds, 1, "nothing may execute after a failed injection")
	assert.Equal(t, action.Click{X: 10, Y: 10}, run.cmds[0])
}

func TestLoopRenderFailureIsFatal(t *testing.T) {
	nar := &scriptedNarrator{replies: []string{
		`{"tool": "click", "x": 10, "y": 10, "memory": ["First step."]}`,
		`{"tool": "done", "memory": ["Must never be reached."]}`,
	}}
	run := &recordingRunner{}
	// The initial paint succeeds; the repaint after the first decision fails.
	disp := &failingDisplay{failAfter: 1}
	loop := NewLoop(testOptions(), fakeScreen{4, 4}, &fakeCapturer{}, nar,
		disp, run, &countingSettler{}, nil, zap.NewNop())

	err := loop.Run(context.Background())
	require.Error(t, err)
	assert.True(t, faults.Is(err, faults.ClassAcquisition))
	assert.Empty(t, run.cmds, "no command may execute after a failed repaint")
}

func TestLoopInitialRenderFailureIsFatal(t *testing.T) {
	nar := &scriptedNarrator{}
	disp := &failingDisplay{failAfter: 0}
	loop := NewLoop(testOptions(), fakeScreen{4, 4}, &fakeCapturer{}, nar,
		disp, &recordingRunner{}, &countingSettler{}, nil, zap.NewNop())

	err := loop.Run(context.Background())
	require.Error(t, err)
	assert.True(t, faults.Is(err, faults.ClassAcquisition))
	assert.Zero(t, nar.calls)
}

func TestLoopStoryFallsBackToReasoning(t *testing.T) {
	nar := &scriptedNarrator{replies: []string{
		`{"tool": "analyze", "reasoning": "The desktop is visible. The taskbar is at the bottom."}`,
		`{"tool": "done", "memory": ["done"]}`,
	}}
	disp := &recordingDisplay{}
	loop := newTestLoop(testOptions(), nar, disp, &recordingRunner{}, &countingSettler{})

	require.NoError(t, loop.Run(context.Background()))
	require.NotEmpty(t, disp.stories)
	var seen bool
	for _, s := range disp.stories {
		if s != "" && s != "done" {
			seen = true
			assert.Contains(t, s, "The desktop is visible.")
		}
	}
	assert.True(t, seen, "reasoning sentences should have reached the HUD")
}

func TestLoopContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	nar := &scriptedNarrator{}
	loop := newTestLoop(testOptions(), nar, &recordingDisplay{}, &recordingRunner{}, &countingSettler{})

	err := loop.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, nar.calls)
}

func TestDumperSavesFrames(t *testing.T) {
	base := t.TempDir()
	d, err := NewDumper(base, time.Date(2026, 8, 26, 15, 30, 10, 0, time.UTC), zap.NewNop())
	require.NoError(t, err)
	assert.Contains(t, filepath.Base(d.Dir()), "run_20260826_153010_")

	d.Save(7, []byte("not really a png"))
	data, err := os.ReadFile(filepath.Join(d.Dir(), "step007.png"))
	require.NoError(t, err)
	assert.Equal(t, "not really a png", string(data))
}

func TestDumperIsWiredIntoLoop(t *testing.T) {
	base := t.TempDir()
	d, err := NewDumper(base, time.Now(), zap.NewNop())
	require.NoError(t, err)

	nar := &scriptedNarrator{replies: []string{`{"tool": "done", "memory": ["instant"]}`}}
	loop := NewLoop(testOptions(), fakeScreen{4, 4}, &fakeCapturer{}, nar,
		&recordingDisplay{}, &recordingRunner{}, &countingSettler{}, d, zap.NewNop())

	require.NoError(t, loop.Run(context.Background()))

	entries, err := os.ReadDir(d.Dir())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "step001.png", entries[0].Name())
}
