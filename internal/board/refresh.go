package board

import (
	"context"
	"time"

	"bermudago/internal/logging"
)

// RunRefreshLoop calls render immediately and then on every tick until ctx
// is cancelled. Render errors are logged and do not stop the loop.
func RunRefreshLoop(ctx context.Context, interval time.Duration, render func(context.Context) error) error {
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	if err := render(ctx); err != nil {
		logging.Error("board_render_error", map[string]any{"error": err.Error()})
	}
	for {
		select {
		case <-ctx.Done():
			logging.Debug("refresh_loop_stop", nil)
			return ctx.Err()
		case <-t.C:
			if err := render(ctx); err != nil {
				logging.Error("board_render_error", map[string]any{"error": err.Error()})
			}
		}
	}
}
