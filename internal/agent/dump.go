// File: internal/agent/dump.go
package agent

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Dumper writes the per-step PNG frames of one run to disk for replay and
// prompt debugging. Each run gets its own directory so runs never clobber
// each other.
type Dumper struct {
	dir    string
	logger *zap.Logger
}

// NewDumper creates the run directory under baseDir and returns a Dumper
// bound to it. The directory name embeds the start time and a short unique
// suffix, e.g. run_20260826_153010_1a2b3c4d.
func NewDumper(baseDir string, now time.Time, logger *zap.Logger) (*Dumper, error) {
	name := fmt.Sprintf("run_%s_%s", now.Format("20060102_150405"), uuid.NewString()[:8])
	dir := filepath.Join(baseDir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating dump directory %s: %w", dir, err)
	}
	return &Dumper{dir: dir, logger: logger.Named("dump")}, nil
}

// Dir returns the run directory.
func (d *Dumper) Dir() string {
	return d.dir
}

// Save writes one step's PNG. Dump failures never break the run; they are
// logged and dropped.
func (d *Dumper) Save(step int, png []byte) {
	path := filepath.Join(d.dir, fmt.Sprintf("step%03d.png", step))
	if err := os.WriteFile(path, png, 0o644); err != nil {
		d.logger.Warn("frame dump failed", zap.String("path", path), zap.Error(err))
	}
}
