package tracing

import (
	"context"

	"github.com/google/uuid"
)

// ContextKey is the type for context keys
type ContextKey string

const (
	// TraceIDKey is the context key for trace ID
	TraceIDKey ContextKey = "trace_id"
	// TurnIDKey is the context key for the analyzer turn ID
	TurnIDKey ContextKey = "turn_id"
	// TurnKindKey is the context key for the turn kind (answer, code)
	TurnKindKey ContextKey = "turn_kind"
	// NodeKey is the context key for the prompt node being evaluated
	NodeKey ContextKey = "node"
)

// TraceContext holds tracing information
type TraceContext struct {
	TraceID  string
	TurnID   string
	TurnKind string
	Node     string
}

// NewTraceID generates a new trace ID
func NewTraceID() string {
	return uuid.New().String()
}

// NewTurnID generates a new turn ID
func NewTurnID() string {
	return uuid.New().String()
}

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

func WithTurnID(ctx context.Context, turnID string) context.Context {
	return context.WithValue(ctx, TurnIDKey, turnID)
}

func WithTurnKind(ctx context.Context, kind string) context.Context {
	return context.WithValue(ctx, TurnKindKey, kind)
}

func WithNode(ctx context.Context, node string) context.Context {
	return context.WithValue(ctx, NodeKey, node)
}

func GetTraceID(ctx context.Context) string {
	return stringValue(ctx, TraceIDKey)
}

func GetTurnID(ctx context.Context) string {
	return stringValue(ctx, TurnIDKey)
}

func GetTurnKind(ctx context.Context) string {
	return stringValue(ctx, TurnKindKey)
}

func GetNode(ctx context.Context) string {
	return stringValue(ctx, NodeKey)
}

func stringValue(ctx context.Context, key ContextKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// FromContext extracts all tracing information from the context
func FromContext(ctx context.Context) *TraceContext {
	return &TraceContext{
		TraceID:  GetTraceID(ctx),
		TurnID:   GetTurnID(ctx),
		TurnKind: GetTurnKind(ctx),
		Node:     GetNode(ctx),
	}
}

// NewContext creates a new context with tracing information
func NewContext(ctx context.Context, tc *TraceContext) context.Context {
	if tc.TraceID != "" {
		ctx = WithTraceID(ctx, tc.TraceID)
	}
	if tc.TurnID != "" {
		ctx = WithTurnID(ctx, tc.TurnID)
	}
	if tc.TurnKind != "" {
		ctx = WithTurnKind(ctx, tc.TurnKind)
	}
	if tc.Node != "" {
		ctx = WithNode(ctx, tc.Node)
	}
	return ctx
}

// NewRequestContext creates a new context for a request with a new trace ID
func NewRequestContext(ctx context.Context) context.Context {
	return WithTraceID(ctx, NewTraceID())
}

// NewTurnContext starts a turn: it keeps an existing trace ID (or creates one)
// and assigns a fresh turn ID.
func NewTurnContext(ctx context.Context, kind string) context.Context {
	if GetTraceID(ctx) == "" {
		ctx = NewRequestContext(ctx)
	}
	ctx = WithTurnID(ctx, NewTurnID())
	return WithTurnKind(ctx, kind)
}
