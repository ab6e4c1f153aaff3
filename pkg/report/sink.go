package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/klokku/meetstats/internal/utils"
	"github.com/klokku/meetstats/pkg/aggregate"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultFilePrefix = "outlook_meetings"
	fileTimestamp     = "20060102150405"
)

// FileSink persists one rendered report per call into a directory.
type FileSink struct {
	dir    string
	prefix string
	clock  utils.Clock
}

func NewFileSink(dir string, prefix string, clock utils.Clock) *FileSink {
	if prefix == "" {
		prefix = DefaultFilePrefix
	}
	return &FileSink{dir: dir, prefix: prefix, clock: clock}
}

// FileName is <prefix>_<YYYYMMDDHHMMSS>.<ext>, stamped at export time.
func (s *FileSink) FileName(renderer Renderer) string {
	return fmt.Sprintf("%s_%s.%s", s.prefix, s.clock.Now().Format(fileTimestamp), renderer.Extension())
}

// Save renders rows and writes them, creating the directory if needed.
// It returns the path of the written file.
func (s *FileSink) Save(rows []aggregate.Row, renderer Renderer) (string, error) {
	body, err := renderer.RenderReport(rows)
	if err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output folder %s: %w", s.dir, err)
	}
	path := filepath.Join(s.dir, s.FileName(renderer))
	if err := os.WriteFile(path, body, 0o644); err != nil {
		log.Errorf("unable to write report %s: %v", path, err)
		return "", err
	}
	log.Infof("Saved %d report rows to %s", len(rows), path)
	return path, nil
}
