package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
)

// safeHandle runs the handler and converts a panic into an error so one bad
// message cannot take the consumer loop down.
func safeHandle(ctx context.Context, handler Handler, msg Message) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			slog.ErrorContext(ctx, "panic in message handler", "panic", rvr, "stack", string(debug.Stack()))
			err = fmt.Errorf("pkgmessage: handler panic: %v", rvr)
		}
	}()

	return handler(ctx, msg)
}
