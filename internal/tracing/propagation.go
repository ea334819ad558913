package tracing

import (
	"context"

	"github.com/rs/zerolog"
)

// PropagateToNode returns a context for evaluating a prompt node.
// Trace and turn IDs are inherited; the node name is replaced.
func PropagateToNode(ctx context.Context, node string) context.Context {
	if GetTraceID(ctx) == "" {
		ctx = NewRequestContext(ctx)
	}
	return WithNode(ctx, node)
}

// PropagateToLogger adds tracing context to a zerolog logger
func PropagateToLogger(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	tc := FromContext(ctx)

	if tc.TraceID != "" {
		logger = logger.With().Str("trace_id", tc.TraceID).Logger()
	}
	if tc.TurnID != "" {
		logger = logger.With().Str("turn_id", tc.TurnID).Logger()
	}
	if tc.TurnKind != "" {
		logger = logger.With().Str("turn_kind", tc.TurnKind).Logger()
	}
	if tc.Node != "" {
		logger = logger.With().Str("node", tc.Node).Logger()
	}

	return logger
}

// LoggerFromContext creates a logger with tracing context from the given context
func LoggerFromContext(ctx context.Context, baseLogger zerolog.Logger) zerolog.Logger {
	return PropagateToLogger(ctx, baseLogger)
}

// CloneContext creates a new background context with the same tracing information.
// Used by the watcher so a turn is not tied to the event loop's lifetime.
func CloneContext(ctx context.Context) context.Context {
	return NewContext(context.Background(), FromContext(ctx))
}
