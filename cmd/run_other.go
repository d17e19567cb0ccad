//go:build !windows

// File: cmd/run_other.go
package cmd

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/storyhud/storyhud/internal/config"
)

var errWindowsOnly = errors.New("desktop capture, overlay and input synthesis require Windows")

func runAgent(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	return errWindowsOnly
}

func runHUDTest(ctx context.Context, cfg *config.Config, hold time.Duration, logger *zap.Logger) error {
	return errWindowsOnly
}
