package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/MushroomFleet/Markdown3D-MCP/pkg/observability"
)

// viewerLogHooks forwards preview-server activity to the CLI logger at
// debug level, so --verbose surfaces per-request traffic without the
// server package knowing about the logger.
type viewerLogHooks struct {
	observability.NoopViewerHooks
	logger *log.Logger
}

func (h viewerLogHooks) OnResponse(_ context.Context, method, path string, status int, d time.Duration) {
	h.logger.Debug("request",
		"method", method,
		"path", path,
		"status", status,
		"duration", d)
}

func (h viewerLogHooks) OnRebuild(_ context.Context, source string, d time.Duration, err error) {
	if err != nil {
		return // the server logs rebuild failures itself
	}
	h.logger.Debug("rebuild", "source", source, "duration", d)
}
