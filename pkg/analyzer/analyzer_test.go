package analyzer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/harun/cheetah/pkg/chain"
	"github.com/harun/cheetah/pkg/extension"
	"github.com/harun/cheetah/pkg/prompts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend routes each request by the shape of its user prompt.
type fakeBackend struct {
	mu       sync.Mutex
	extract  string
	answer   string
	refine   string
	explain  string
	code     string
	review   string
	err      error
	requests []string
}

func (f *fakeBackend) Complete(ctx context.Context, prompt string, tier chain.TextTier, maxTokens int) (string, error) {
	return f.route(prompt)
}

func (f *fakeBackend) Chat(ctx context.Context, messages []chain.Message, tier chain.ChatTier, maxTokens int) (string, error) {
	return f.route(messages[len(messages)-1].Content)
}

func (f *fakeBackend) route(prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, prompt)

	if f.err != nil {
		return "", f.err
	}
	switch {
	case strings.Contains(prompt, "[transcript begins]"):
		return f.extract, nil
	case strings.Contains(prompt, "Write pseudocode"):
		return f.code, nil
	case strings.Contains(prompt, "Refine the partial answer"):
		return f.refine, nil
	case strings.Contains(prompt, "highlighted part of it"):
		return f.explain, nil
	case strings.Contains(prompt, "\nCode:\n"):
		return f.review, nil
	default:
		return f.answer, nil
	}
}

func (f *fakeBackend) sawPrompt(substr string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if strings.Contains(r, substr) {
			return true
		}
	}
	return false
}

func newTestAnalyzer(t *testing.T, backend chain.Backend) *Analyzer {
	t.Helper()
	exec, err := chain.NewExecutor(chain.ExecutorConfig{Backend: backend, Entitled: true})
	require.NoError(t, err)
	a, err := New(Config{Executor: exec, Prompts: prompts.NewGenerator("")})
	require.NoError(t, err)
	return a
}

const proseExtraction = "No\nExtracted question: How does the traceroute command work?\nAnswer in code: No"

func TestNew(t *testing.T) {
	t.Run("should require an executor", func(t *testing.T) {
		_, err := New(Config{})
		assert.Error(t, err)
	})
}

func TestAnswer(t *testing.T) {
	t.Run("should answer a prose question", func(t *testing.T) {
		backend := &fakeBackend{
			extract: proseExtraction,
			answer:  "Are follow up questions needed here: No\nFinal answer:\n• Sends probes with increasing TTL\n• Routers reply with ICMP",
		}
		a := newTestAnalyzer(t, backend)

		result, err := a.Answer(context.Background(), "so how does traceroute work?", AnswerOptions{})
		require.NoError(t, err)

		assert.Equal(t, "How does the traceroute command work?", result[chain.KeyQuestion])
		assert.Equal(t, "• Sends probes with increasing TTL\n• Routers reply with ICMP", result[chain.KeyAnswer])
		assert.False(t, result.Has(chain.KeyAnswerInCode))
		assert.False(t, result.Has(chain.KeyCodeAnswer))
		assert.False(t, backend.sawPrompt("Write pseudocode"))
	})

	t.Run("should write code when asked for code", func(t *testing.T) {
		backend := &fakeBackend{
			extract: "Yes\nContext: C++\nExtracted question: Sort a vector.\nAnswer in code: Yes",
			code:    "// O(n log n)\nsort(v.begin(), v.end());",
		}
		a := newTestAnalyzer(t, backend)

		result, err := a.Answer(context.Background(), "write a sort", AnswerOptions{})
		require.NoError(t, err)

		assert.Equal(t, "Sort a vector.", result[chain.KeyQuestion])
		assert.Equal(t, "Yes", result[chain.KeyAnswerInCode])
		assert.Equal(t, "// O(n log n)\nsort(v.begin(), v.end());", result[chain.KeyCodeAnswer])
		assert.False(t, result.Has(chain.KeyAnswer))
	})

	t.Run("should fail when no question is extracted", func(t *testing.T) {
		backend := &fakeBackend{extract: "I could not find a question."}
		a := newTestAnalyzer(t, backend)

		_, err := a.Answer(context.Background(), "hello", AnswerOptions{})
		assert.True(t, chain.IsMissingContextField(err))
	})
}

func TestRefine(t *testing.T) {
	backend := &fakeBackend{
		extract: proseExtraction,
		answer:  "Final answer:\n• first draft",
		refine:  "Final answer:\n• first draft\n• more detail",
		explain: "• deeper explanation",
	}

	t.Run("should continue from the previous answer", func(t *testing.T) {
		a := newTestAnalyzer(t, backend)
		_, err := a.Answer(context.Background(), "t", AnswerOptions{})
		require.NoError(t, err)

		result, err := a.Answer(context.Background(), "t", AnswerOptions{Refine: true})
		require.NoError(t, err)

		assert.Equal(t, "• first draft", result[chain.KeyPreviousAnswer])
		assert.Equal(t, "• first draft\n• more detail", result[chain.KeyAnswer])
		assert.True(t, backend.sawPrompt("Partial answer:\n• first draft"))
	})

	t.Run("should answer plainly without a previous answer", func(t *testing.T) {
		a := newTestAnalyzer(t, backend)

		result, err := a.Answer(context.Background(), "t", AnswerOptions{Refine: true})
		require.NoError(t, err)
		assert.False(t, result.Has(chain.KeyPreviousAnswer))
		assert.Equal(t, "• first draft", result[chain.KeyAnswer])
	})

	t.Run("should mark the highlighted selection", func(t *testing.T) {
		a := newTestAnalyzer(t, backend)
		_, err := a.Answer(context.Background(), "t", AnswerOptions{})
		require.NoError(t, err)

		// "• first draft": "•" is three bytes, so "first" spans [4, 9).
		result, err := a.Answer(context.Background(), "t", AnswerOptions{Refine: true, Selection: &Selection{Start: 4, End: 9}})
		require.NoError(t, err)

		assert.Equal(t, "•  [start highlighted text] first [end highlighted text]  draft", result[chain.KeyHighlightedAnswer])
		assert.Equal(t, "• deeper explanation", result[chain.KeyAnswer])
		assert.False(t, result.Has(chain.KeyPreviousAnswer))
	})

	t.Run("should reject a selection outside the answer", func(t *testing.T) {
		a := newTestAnalyzer(t, backend)
		_, err := a.Answer(context.Background(), "t", AnswerOptions{})
		require.NoError(t, err)

		_, err = a.Answer(context.Background(), "t", AnswerOptions{Refine: true, Selection: &Selection{Start: 5, End: 500}})
		assert.ErrorIs(t, err, ErrInvalidSelection)

		_, err = a.Answer(context.Background(), "t", AnswerOptions{Refine: true, Selection: &Selection{Start: 5, End: 4}})
		assert.ErrorIs(t, err, ErrInvalidSelection)
	})

	t.Run("should reject a selection inside a multi-byte character", func(t *testing.T) {
		a := newTestAnalyzer(t, backend)
		_, err := a.Answer(context.Background(), "t", AnswerOptions{})
		require.NoError(t, err)

		// "•" occupies bytes [0, 3).
		for _, sel := range []Selection{{Start: 1, End: 5}, {Start: 0, End: 2}, {Start: 2, End: 2}} {
			_, err = a.Answer(context.Background(), "t", AnswerOptions{Refine: true, Selection: &sel})
			assert.ErrorIs(t, err, ErrInvalidSelection, "%+v", sel)
		}

		result, err := a.Answer(context.Background(), "t", AnswerOptions{Refine: true, Selection: &Selection{Start: 0, End: 3}})
		require.NoError(t, err)
		assert.True(t, utf8.ValidString(result[chain.KeyHighlightedAnswer]))
		assert.Equal(t, " [start highlighted text] • [end highlighted text]  first draft", result[chain.KeyHighlightedAnswer])
	})

	t.Run("should reject a highlight with no previous answer", func(t *testing.T) {
		a := newTestAnalyzer(t, backend)

		_, err := a.Answer(context.Background(), "t", AnswerOptions{Refine: true, Selection: &Selection{}})
		assert.ErrorIs(t, err, ErrNoPreviousAnswer)
	})
}

func TestAnalyzeCode(t *testing.T) {
	t.Run("should review captured code against the question", func(t *testing.T) {
		backend := &fakeBackend{
			extract: "Extracted question: Reverse a linked list.\nAnswer in code: Yes",
			review:  "• Iterate with three pointers\n• O(n) time",
		}
		a := newTestAnalyzer(t, backend)

		state := extension.NewState()
		state.Apply(extension.Message{
			Mode:  "leetcode",
			Files: map[string]string{"solution.py": "def reverse(head): pass"},
			Logs:  map[string]string{"stdout": "ok"},
		})

		result, err := a.AnalyzeCode(context.Background(), "reverse a list", state)
		require.NoError(t, err)

		assert.Equal(t, "• Iterate with three pointers\n• O(n) time", result[chain.KeyAnswer])
		assert.Equal(t, "[solution.py]\ndef reverse(head): pass", result[chain.KeyBrowserCode])
		assert.True(t, backend.sawPrompt("Prompt: Reverse a linked list."))
		assert.False(t, result.Has(chain.KeyCodeAnswer))
	})
}

func TestAnalyzerState(t *testing.T) {
	t.Run("should keep the previous context when a turn fails", func(t *testing.T) {
		backend := &fakeBackend{extract: proseExtraction, answer: "• one"}
		a := newTestAnalyzer(t, backend)

		_, err := a.Answer(context.Background(), "t", AnswerOptions{})
		require.NoError(t, err)
		before := a.Context()

		backend.mu.Lock()
		backend.err = errors.New("quota exceeded")
		backend.mu.Unlock()

		result, err := a.Answer(context.Background(), "t2", AnswerOptions{})
		require.Error(t, err)
		assert.True(t, chain.IsBackendError(err))
		assert.Nil(t, result)
		assert.Equal(t, before, a.Context())
	})

	t.Run("should return copies of the context", func(t *testing.T) {
		backend := &fakeBackend{extract: proseExtraction, answer: "• one"}
		a := newTestAnalyzer(t, backend)

		result, err := a.Answer(context.Background(), "t", AnswerOptions{})
		require.NoError(t, err)

		result.Set(chain.KeyAnswer, "tampered")
		snapshot := a.Context()
		snapshot.Set(chain.KeyQuestion, "tampered")

		assert.Equal(t, "• one", a.Context()[chain.KeyAnswer])
		assert.Equal(t, "How does the traceroute command work?", a.Context()[chain.KeyQuestion])
	})

	t.Run("should refine a restored answer", func(t *testing.T) {
		backend := &fakeBackend{extract: proseExtraction, refine: "• restored\n• extended"}
		a := newTestAnalyzer(t, backend)

		a.Restore(chain.Context{chain.KeyAnswer: "• restored"})
		result, err := a.Answer(context.Background(), "t", AnswerOptions{Refine: true})
		require.NoError(t, err)

		assert.Equal(t, "• restored", result[chain.KeyPreviousAnswer])
		assert.Equal(t, "• restored\n• extended", result[chain.KeyAnswer])
	})

	t.Run("should forget everything on reset", func(t *testing.T) {
		backend := &fakeBackend{extract: proseExtraction, answer: "• one"}
		a := newTestAnalyzer(t, backend)

		_, err := a.Answer(context.Background(), "t", AnswerOptions{})
		require.NoError(t, err)

		a.Reset()
		assert.Empty(t, a.Context())
	})
}

func TestAnswerInCode(t *testing.T) {
	assert.True(t, AnswerInCode(chain.Context{chain.KeyAnswerInCode: "Yes"}))
	assert.True(t, AnswerInCode(chain.Context{chain.KeyAnswerInCode: "y"}))
	assert.False(t, AnswerInCode(chain.Context{chain.KeyAnswerInCode: "No"}))
	assert.False(t, AnswerInCode(chain.Context{}))
}
