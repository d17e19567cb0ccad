//go:build windows

// File: cmd/hudtest_windows.go
package cmd

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/storyhud/storyhud/internal/config"
	"github.com/storyhud/storyhud/internal/overlay"
	"github.com/storyhud/storyhud/internal/winapi"
)

// sampleStory exercises all three HUD tiers: large recent lines up top,
// progressively smaller history below.
var sampleStory = strings.Join([]string{
	"I opened the Start menu and searched for Paint.",
	"Paint is now open with a blank canvas.",
	"I drew the left eye as a small circle.",
	"I drew the right eye as a matching circle.",
	"A triangle nose sits between the eyes.",
	"The smile still needs its curved stroke.",
	"Earlier I confirmed the taskbar is at the bottom.",
	"The desktop wallpaper is mostly blue.",
	"No dialog boxes are currently open.",
	"The canvas occupies most of the window.",
	"The toolbar shows the brush tool selected.",
	"Black is the active color.",
	"The task began on an empty desktop.",
	"Zoom level is at one hundred percent.",
	"The file has not been saved yet.",
	"Paint responded quickly to every click so far.",
}, "\n")

func runHUDTest(ctx context.Context, cfg *config.Config, hold time.Duration, logger *zap.Logger) error {
	api, err := winapi.NewContext(logger)
	if err != nil {
		return err
	}

	screenW, screenH := api.ScreenSize()
	comp, err := overlay.NewCompositor(api, screenW, screenH, overlayStyle(cfg.Overlay), logger)
	if err != nil {
		return err
	}
	defer comp.Close()

	comp.SetStory(sampleStory)
	if err := comp.Render(); err != nil {
		return err
	}
	logger.Info("sample HUD rendered",
		zap.Int("width", screenW), zap.Int("height", screenH),
		zap.Duration("hold", hold))

	t := time.NewTimer(hold)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
