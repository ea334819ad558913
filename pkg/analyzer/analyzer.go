// Package analyzer runs answer and code-review turns over an interview transcript.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/harun/cheetah/internal/observability"
	"github.com/harun/cheetah/internal/tracing"
	"github.com/harun/cheetah/pkg/chain"
	"github.com/harun/cheetah/pkg/prompts"
	"github.com/rs/zerolog"
)

var (
	// ErrInvalidSelection is returned when a highlight range falls outside the previous answer.
	ErrInvalidSelection = errors.New("invalid selection")
	// ErrNoPreviousAnswer is returned when a highlight is requested before any answer exists.
	ErrNoPreviousAnswer = errors.New("no previous answer")
)

const (
	highlightStart = " [start highlighted text] "
	highlightEnd   = " [end highlighted text] "
)

// Turn kinds, used for metrics and tracing.
const (
	TurnAnswer    = "answer"
	TurnRefine    = "refine"
	TurnHighlight = "highlight"
	TurnCode      = "code"
)

// Executor drives a prompt tree. *chain.Executor implements it.
type Executor interface {
	Execute(ctx context.Context, root *chain.Node, initial chain.Context) (chain.Context, error)
}

// Snapshot supplies rendered browser code and logs. *extension.State implements it.
type Snapshot interface {
	CodeDescription() string
	LogsDescription() string
}

// Selection is a byte range [Start, End) of the previous answer. Both ends must fall on character boundaries.
type Selection struct {
	Start int
	End   int
}

// AnswerOptions controls an answer turn.
type AnswerOptions struct {
	// Refine continues from the previous answer.
	Refine bool
	// Selection, with Refine, asks for depth on part of the previous answer instead.
	Selection *Selection
}

// Config holds analyzer configuration
type Config struct {
	Executor Executor
	Prompts  *prompts.Generator
	Logger   zerolog.Logger
}

// Analyzer keeps the context of the last successful turn.
type Analyzer struct {
	executor Executor
	prompts  *prompts.Generator
	logger   zerolog.Logger

	mu      sync.Mutex
	context chain.Context
}

// New creates a new analyzer
func New(cfg Config) (*Analyzer, error) {
	if cfg.Executor == nil {
		return nil, fmt.Errorf("executor is required")
	}
	p := cfg.Prompts
	if p == nil {
		p = prompts.NewGenerator("")
	}
	return &Analyzer{
		executor: cfg.Executor,
		prompts:  p,
		logger:   cfg.Logger,
		context:  chain.Context{},
	}, nil
}

// Answer runs the answer tree over transcript and returns the resulting context.
func (a *Analyzer) Answer(ctx context.Context, transcript string, opts AnswerOptions) (chain.Context, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	initial := chain.Context{chain.KeyTranscript: transcript}
	kind := TurnAnswer

	if opts.Refine {
		previous, ok := a.context.Get(chain.KeyAnswer)
		switch {
		case opts.Selection != nil && !ok:
			return nil, ErrNoPreviousAnswer
		case opts.Selection != nil:
			highlighted, err := highlight(previous, *opts.Selection)
			if err != nil {
				return nil, err
			}
			initial.Set(chain.KeyHighlightedAnswer, highlighted)
			kind = TurnHighlight
		case ok:
			initial.Set(chain.KeyPreviousAnswer, previous)
			kind = TurnRefine
		}
	}

	return a.turn(ctx, kind, AnswerTree(a.prompts), initial)
}

// AnalyzeCode runs the code tree over transcript and the snapshot's code and logs.
func (a *Analyzer) AnalyzeCode(ctx context.Context, transcript string, snapshot Snapshot) (chain.Context, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	initial := chain.Context{
		chain.KeyTranscript:  transcript,
		chain.KeyBrowserCode: snapshot.CodeDescription(),
		chain.KeyBrowserLogs: snapshot.LogsDescription(),
	}
	return a.turn(ctx, TurnCode, CodeTree(a.prompts), initial)
}

// turn must be called with a.mu held.
func (a *Analyzer) turn(ctx context.Context, kind string, root *chain.Node, initial chain.Context) (chain.Context, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = tracing.NewTurnContext(ctx, kind)
	logger := tracing.LoggerFromContext(ctx, a.logger)

	done := observability.TurnStarted()
	defer done()
	start := time.Now()

	logger.Debug().Msg("Turn started")
	result, err := a.executor.Execute(ctx, root, initial)
	observability.RecordTurn(kind, time.Since(start), err == nil)
	if err != nil {
		logger.Error().Err(err).Dur("duration", time.Since(start)).Msg("Turn failed")
		return nil, err
	}

	a.context = result
	logger.Info().
		Dur("duration", time.Since(start)).
		Bool("has_answer", result.Has(chain.KeyAnswer)).
		Bool("has_code_answer", result.Has(chain.KeyCodeAnswer)).
		Msg("Turn completed")
	return result.Clone(), nil
}

// Context returns a copy of the last successful turn's context.
func (a *Analyzer) Context() chain.Context {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.context.Clone()
}

// Restore replaces the stored context, e.g. to refine an answer produced by an earlier process.
func (a *Analyzer) Restore(c chain.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.context = c.Clone()
}

// Reset forgets the last turn.
func (a *Analyzer) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.context = chain.Context{}
}

func highlight(answer string, sel Selection) (string, error) {
	if sel.Start < 0 || sel.End < sel.Start || sel.End > len(answer) {
		return "", fmt.Errorf("%w: [%d, %d) of %d bytes", ErrInvalidSelection, sel.Start, sel.End, len(answer))
	}
	if !onRuneBoundary(answer, sel.Start) || !onRuneBoundary(answer, sel.End) {
		return "", fmt.Errorf("%w: [%d, %d) splits a multi-byte character", ErrInvalidSelection, sel.Start, sel.End)
	}
	return answer[:sel.Start] + highlightStart + answer[sel.Start:sel.End] + highlightEnd + answer[sel.End:], nil
}

func onRuneBoundary(s string, i int) bool {
	return i == len(s) || utf8.RuneStart(s[i])
}
