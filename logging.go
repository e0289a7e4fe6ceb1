package eventproc

import (
	"context"
	"log/slog"
	"time"
)

// WithLogger installs hooks that log processor outcomes to logger. Dispatch
// and success are logged at debug level; bad input, missing handlers and
// handler failures at warn level. A nil logger uses slog.Default().
//
// Example:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
//	p := eventproc.New(table, eventproc.WithLogger(logger))
func WithLogger(logger *slog.Logger) Option {
	if logger == nil {
		logger = slog.Default()
	}
	return func(p *Processor) {
		WithOnDispatch(func(ctx context.Context, name string, version uint16) {
			logger.DebugContext(ctx, "dispatching event",
				slog.String("event", name),
				slog.Int("version", int(version)),
			)
		})(p)
		WithOnSuccess(func(ctx context.Context, name string, version uint16, d time.Duration) {
			logger.DebugContext(ctx, "event handled",
				slog.String("event", name),
				slog.Int("version", int(version)),
				slog.Duration("duration", d),
			)
		})(p)
		WithOnFailure(func(ctx context.Context, name string, version uint16, err *Error, d time.Duration) {
			logger.WarnContext(ctx, "event handler failed",
				slog.String("event", name),
				slog.Int("version", int(version)),
				slog.String("error_type", err.Tag()),
				slog.String("code", err.Code()),
				slog.Duration("duration", d),
			)
		})(p)
		WithOnNotFound(func(ctx context.Context, name string, version uint16) {
			logger.WarnContext(ctx, "no handler registered",
				slog.String("event", name),
				slog.Int("version", int(version)),
			)
		})(p)
		WithOnBadProtocol(func(ctx context.Context, raw []byte, err error) {
			logger.WarnContext(ctx, "invalid event",
				slog.Int("size", len(raw)),
				slog.String("error", err.Error()),
			)
		})(p)
	}
}
