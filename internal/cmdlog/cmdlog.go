package cmdlog

import (
	"bermudago/internal/logging"
	"bermudago/internal/metrics"
)

// Run executes a CLI command body, counting and logging its outcome.
func Run(cmd string, f func() error) error {
	metrics.IncCommandRun(cmd)
	err := f()
	if err != nil {
		metrics.IncCommandError(cmd)
		logging.Error(cmd+"_error", map[string]any{"error": err.Error()})
	} else {
		logging.Debug(cmd+"_ok", nil)
	}
	return err
}
