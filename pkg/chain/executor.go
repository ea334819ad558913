package chain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/harun/cheetah/internal/observability"
	"github.com/harun/cheetah/internal/tracing"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

// MergeOrder controls how sibling results are folded into their parent's context.
type MergeOrder string

const (
	// MergeDeclared folds children in the order they were declared.
	MergeDeclared MergeOrder = "declared"
	// MergeCompletion folds children in the order they finished.
	// Overlapping writes then resolve nondeterministically.
	MergeCompletion MergeOrder = "completion"
)

// ExecutorConfig holds executor configuration
type ExecutorConfig struct {
	Backend        Backend
	Entitled       bool
	MergeOrder     MergeOrder
	LogPrompts     bool
	LogCompletions bool
	Logger         zerolog.Logger
}

// Executor evaluates prompt trees. It holds no per-turn state and is safe for concurrent use.
type Executor struct {
	backend        Backend
	entitled       bool
	mergeOrder     MergeOrder
	logPrompts     bool
	logCompletions bool
	logger         zerolog.Logger
}

// NewExecutor creates a new executor
func NewExecutor(cfg ExecutorConfig) (*Executor, error) {
	observability.EnsureRegistered()

	if cfg.Backend == nil {
		return nil, fmt.Errorf("backend is required")
	}

	order := cfg.MergeOrder
	switch order {
	case "":
		order = MergeDeclared
	case MergeDeclared, MergeCompletion:
	default:
		return nil, fmt.Errorf("invalid merge order: %s", order)
	}

	return &Executor{
		backend:        cfg.Backend,
		entitled:       cfg.Entitled,
		mergeOrder:     order,
		logPrompts:     cfg.LogPrompts,
		logCompletions: cfg.LogCompletions,
		logger:         cfg.Logger,
	}, nil
}

// Execute drives the tree rooted at root to a final context.
// On error the returned context is nil and err is the first error raised anywhere in the tree.
func (e *Executor) Execute(ctx context.Context, root *Node, initial Context) (Context, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := root.Validate(); err != nil {
		return nil, err
	}

	ctx, span := tracing.StartSpan(ctx, "cheetah.chain", "chain.execute", attribute.String("root", root.name))
	defer span.End()

	if initial == nil {
		initial = Context{}
	}

	result, err := e.run(ctx, root, initial.Clone())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return result, nil
}

// run evaluates one node. c is owned by the caller's branch and is never mutated here.
func (e *Executor) run(ctx context.Context, node *Node, c Context) (Context, error) {
	ctx = tracing.PropagateToNode(ctx, node.name)
	logger := tracing.LoggerFromContext(ctx, e.logger)

	input, err := node.generate(c.Clone())
	if err != nil {
		logger.Debug().Err(err).Msg("Generator failed")
		return nil, err
	}
	if input == nil {
		observability.RecordNodeSkipped(node.name)
		logger.Debug().Msg("Node skipped")
		return c, nil
	}

	// A sibling may already have failed.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	output, err := e.call(ctx, node, input)
	if err != nil {
		return nil, err
	}
	if output == "" {
		logger.Debug().Msg("Backend returned no content")
		return c, nil
	}

	updated := node.update(output, c.Clone())
	if updated == nil {
		updated = c.Clone()
	}

	if len(node.children) == 0 {
		return updated, nil
	}
	return e.runChildren(ctx, node, updated)
}

// runChildren evaluates children concurrently from read-only copies of base and folds
// each child's changes back. The first failure cancels the remaining siblings.
func (e *Executor) runChildren(ctx context.Context, node *Node, base Context) (Context, error) {
	changes := make([]Context, len(node.children))
	finished := make(chan int, len(node.children))

	g, gctx := errgroup.WithContext(ctx)
	for i, child := range node.children {
		g.Go(func() error {
			out, err := e.run(gctx, child, base.Clone())
			if err != nil {
				return err
			}
			changes[i] = out.Changes(base)
			finished <- i
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger := tracing.LoggerFromContext(ctx, e.logger)
		logger.Debug().Err(err).Msg("Child branch failed, discarding siblings")
		return nil, err
	}
	close(finished)

	order := make([]int, 0, len(node.children))
	if e.mergeOrder == MergeCompletion {
		for i := range finished {
			order = append(order, i)
		}
	} else {
		for i := range node.children {
			order = append(order, i)
		}
	}

	merged := base
	for _, i := range order {
		merged = merged.Merge(changes[i])
	}
	return merged, nil
}

type callResult struct {
	text string
	err  error
}

// call resolves the effective request and invokes the backend. A call that does not
// honour cancellation is abandoned; its eventual result is dropped.
func (e *Executor) call(ctx context.Context, node *Node, input ModelInput) (string, error) {
	var (
		op     string
		tier   string
		invoke func(context.Context) (string, error)
		prompt func() string
	)

	switch in := input.(type) {
	case TextCompletion:
		op, tier = "complete", string(in.Tier)
		prompt = func() string { return in.Prompt }
		invoke = func(ctx context.Context) (string, error) {
			return e.backend.Complete(ctx, in.Prompt, in.Tier, node.tokenBudget)
		}
	case ChatCompletion:
		selected := SelectTier(in.Tier, e.entitled)
		op, tier = "chat", string(selected)
		prompt = func() string { return renderMessages(in.Messages) }
		invoke = func(ctx context.Context) (string, error) {
			return e.backend.Chat(ctx, in.Messages, selected, node.tokenBudget)
		}
	case ChatPromptPair:
		selected := SelectTier(in.Tier, e.entitled)
		messages := in.Messages()
		op, tier = "chat", string(selected)
		prompt = func() string { return renderMessages(messages) }
		invoke = func(ctx context.Context) (string, error) {
			return e.backend.Chat(ctx, messages, selected, node.tokenBudget)
		}
	default:
		return "", fmt.Errorf("%w: node %q produced unsupported input %T", ErrInvalidTree, node.name, input)
	}

	ctx, span := tracing.StartSpan(ctx, "cheetah.chain", "chain.node", attribute.String("tier", tier), attribute.Int("max_tokens", node.tokenBudget))
	defer span.End()
	logger := tracing.LoggerFromContext(ctx, e.logger).With().Str("tier", tier).Logger()

	if e.logPrompts {
		logger.Info().Str("prompt", prompt()).Msg("Prompt")
	}

	start := time.Now()
	done := make(chan callResult, 1)
	go func() {
		text, err := invoke(ctx)
		done <- callResult{text: text, err: err}
	}()

	var res callResult
	select {
	case <-ctx.Done():
		observability.RecordNodeCall(node.name, tier, time.Since(start), observability.StatusError)
		return "", ctx.Err()
	case res = <-done:
	}

	if res.err != nil {
		observability.RecordNodeCall(node.name, tier, time.Since(start), observability.StatusError)
		span.RecordError(res.err)
		span.SetStatus(codes.Error, res.err.Error())
		if errors.Is(res.err, context.Canceled) && ctx.Err() != nil {
			return "", ctx.Err()
		}
		logger.Warn().Err(res.err).Msg("Backend call failed")
		var backendErr *BackendError
		if errors.As(res.err, &backendErr) {
			return "", res.err
		}
		return "", &BackendError{Node: node.name, Op: op, Err: res.err}
	}

	text := strings.TrimSpace(res.text)
	if text == "" {
		observability.RecordNodeCall(node.name, tier, time.Since(start), observability.StatusEmpty)
		return "", nil
	}

	observability.RecordNodeCall(node.name, tier, time.Since(start), observability.StatusSuccess)
	if e.logCompletions {
		logger.Info().Str("completion", text).Msg("Completion")
	}
	return text, nil
}

func renderMessages(messages []Message) string {
	var b strings.Builder
	for i, m := range messages {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "[%s] %s", m.Role, m.Content)
	}
	return b.String()
}
