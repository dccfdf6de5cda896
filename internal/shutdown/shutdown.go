package shutdown

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/go-sod/powersod/internal/logging"
)

// New returns a context that is cancelled on SIGINT or SIGTERM. The context
// carries the process logger.
func New() (context.Context, func()) {
	ctx := logging.WithLogger(context.Background(), logging.NewLoggerFromEnv())
	return signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
}
