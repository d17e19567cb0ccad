//go:build windows

// File: cmd/run_windows.go
package cmd

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/storyhud/storyhud/internal/action"
	"github.com/storyhud/storyhud/internal/agent"
	"github.com/storyhud/storyhud/internal/capture"
	"github.com/storyhud/storyhud/internal/config"
	"github.com/storyhud/storyhud/internal/coords"
	"github.com/storyhud/storyhud/internal/input"
	"github.com/storyhud/storyhud/internal/oracle"
	"github.com/storyhud/storyhud/internal/overlay"
	"github.com/storyhud/storyhud/internal/settle"
	"github.com/storyhud/storyhud/internal/winapi"
)

// screenSize adapts the Win32 context to the agent's Screen interface.
type screenSize struct{ api *winapi.Context }

func (s screenSize) Size() (int, int) { return s.api.ScreenSize() }

// runAgent assembles the full Windows stack and drives the control loop
// until the task finishes or ctx is cancelled.
func runAgent(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	api, err := winapi.NewContext(logger)
	if err != nil {
		return err
	}

	screenW, screenH := api.ScreenSize()
	mapper := coords.Mapper{ScreenW: screenW, ScreenH: screenH}
	grabber := capture.NewGrabber(api, logger)

	comp, err := overlay.NewCompositor(api, screenW, screenH, overlayStyle(cfg.Overlay), logger)
	if err != nil {
		return err
	}
	defer comp.Close()

	synth := input.New(api, mapper, input.Config{
		EventDelay:    cfg.Input.EventDelay,
		DragStepPause: cfg.Input.DragStepPause,
		DragSteps:     input.DefaultDragSteps,
	}, logger)

	waits := action.DefaultWaitPolicy()
	waits.StartMenuMaxX = cfg.Agent.StartMenuMaxX
	waits.StartMenuMinY = cfg.Agent.StartMenuMinY
	executor := action.NewExecutor(mapper, synth, waits, logger)

	// The settle sampler looks at a small downsampled frame without the
	// cursor, so an idling pointer animation never counts as screen change.
	sampler := func(ctx context.Context) ([]byte, error) {
		frame, err := grabber.Capture(screenW, screenH, false)
		if err != nil {
			return nil, err
		}
		small := capture.Downsample(frame, cfg.Settle.SampleWidth, cfg.Settle.SampleHeight)
		return small.Pix, nil
	}
	detector := settle.New(sampler, settle.Config{
		Enabled:              cfg.Settle.Enabled,
		MaxWait:              cfg.Settle.MaxWait,
		CheckInterval:        cfg.Settle.CheckInterval,
		ChangeRatioThreshold: cfg.Settle.ChangeRatio,
		RequiredStable:       cfg.Settle.RequiredStable,
	}, logger)

	client := oracle.NewClient(oracle.Config{
		URL:              cfg.Oracle.URL,
		Model:            cfg.Oracle.Model,
		Timeout:          cfg.Oracle.Timeout,
		Temperature:      cfg.Oracle.Temperature,
		TopP:             cfg.Oracle.TopP,
		MaxTokens:        cfg.Oracle.MaxTokens,
		FrequencyPenalty: cfg.Oracle.FrequencyPenalty,
		MinCallInterval:  cfg.Oracle.MinCallInterval,
	}, logger)

	var dumper *agent.Dumper
	if cfg.Agent.DumpEnabled {
		dumper, err = agent.NewDumper(cfg.Agent.DumpDir, time.Now(), logger)
		if err != nil {
			return err
		}
		logger.Info("frame dumps enabled", zap.String("dir", dumper.Dir()))
	}

	modelW, modelH := cfg.Capture.ModelDims()
	loop := agent.NewLoop(agent.Options{
		Goal:             cfg.Agent.Goal,
		InitialStory:     cfg.Agent.InitialStory,
		MaxStoryLines:    cfg.Agent.MaxStoryLines,
		MaxParseFailures: cfg.Agent.MaxParseFailures,
		MaxSteps:         cfg.Agent.MaxSteps,
		PreCapturePause:  cfg.Agent.PreCapturePause,
		PostRenderPause:  cfg.Agent.PostRenderPause,
		ModelWidth:       modelW,
		ModelHeight:      modelH,
		IncludeCursor:    cfg.Capture.IncludeCursor,
	}, screenSize{api}, grabber, client, comp, executor, detector, dumper, logger)

	return loop.Run(ctx)
}

// overlayStyle folds the configured HUD knobs into the default style.
func overlayStyle(cfg config.OverlayConfig) overlay.Style {
	style := overlay.DefaultStyle()
	if cfg.Margin > 0 {
		style.Margin = cfg.Margin
	}
	if cfg.FontFace != "" {
		style.FontFace = cfg.FontFace
	}
	style.PanelEnabled = cfg.PanelEnabled
	style.PanelAlpha = byte(cfg.PanelAlpha)
	return style
}
