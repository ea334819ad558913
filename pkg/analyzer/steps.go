package analyzer

import (
	"strings"

	"github.com/harun/cheetah/pkg/chain"
	"github.com/harun/cheetah/pkg/extract"
	"github.com/harun/cheetah/pkg/prompts"
)

// Token budgets per step.
const (
	ExtractQuestionTokens    = 250
	AnswerQuestionTokens     = 500
	WriteCodeTokens          = 1000
	AnalyzeBrowserCodeTokens = 500
)

var (
	questionRule = extract.PatternRule{
		Patterns: []extract.Pattern{
			extract.MustPattern(`(?i)Extracted question: (?P<question>[^\n]+)(?:\nAnswer in code: (?P<answerInCode>yes))?`, "question", "answerInCode"),
		},
		Target:          chain.KeyQuestion,
		SecondaryTarget: chain.KeyAnswerInCode,
	}

	answerRule = extract.PatternRule{
		Patterns: []extract.Pattern{
			extract.MustPattern(`(?s)Final answer:\n(?P<answer>[-•].+$)`, "answer", ""),
			extract.MustPattern(`(?s)(?P<answer>[-•].+$)`, "answer", ""),
		},
		Target: chain.KeyAnswer,
	}
)

// AnswerInCode reports whether the extracted question asked for code.
func AnswerInCode(c chain.Context) bool {
	v, ok := c.Get(chain.KeyAnswerInCode)
	return ok && strings.HasPrefix(strings.ToLower(v), "y")
}

func extractQuestion(p *prompts.Generator) chain.Generator {
	return func(c chain.Context) (chain.ModelInput, error) {
		transcript, err := c.Require(chain.KeyTranscript)
		if err != nil {
			return nil, err
		}
		return p.ExtractQuestion(transcript), nil
	}
}

func answerQuestion(p *prompts.Generator) chain.Generator {
	return func(c chain.Context) (chain.ModelInput, error) {
		question, err := c.Require(chain.KeyQuestion)
		if err != nil {
			return nil, err
		}
		if AnswerInCode(c) {
			return nil, nil
		}
		if previous, ok := c.Get(chain.KeyPreviousAnswer); ok {
			return p.RefineAnswer(question, previous), nil
		}
		if highlighted, ok := c.Get(chain.KeyHighlightedAnswer); ok {
			return p.ExplainHighlight(question, highlighted), nil
		}
		return p.AnswerQuestion(question), nil
	}
}

func writeCode(p *prompts.Generator) chain.Generator {
	return func(c chain.Context) (chain.ModelInput, error) {
		question, ok := c.Get(chain.KeyQuestion)
		if !ok || !AnswerInCode(c) {
			return nil, nil
		}
		return p.WriteCode(question), nil
	}
}

func analyzeBrowserCode(p *prompts.Generator) chain.Generator {
	return func(c chain.Context) (chain.ModelInput, error) {
		code, hasCode := c.Get(chain.KeyBrowserCode)
		logs, hasLogs := c.Get(chain.KeyBrowserLogs)
		if !hasCode || !hasLogs {
			return nil, nil
		}
		question, _ := c.Get(chain.KeyQuestion)
		return p.AnalyzeBrowserCode(code, logs, question), nil
	}
}

// AnswerTree extracts the question, then answers it in prose and in code concurrently.
func AnswerTree(p *prompts.Generator) *chain.Node {
	return chain.NewNode("extractQuestion", extractQuestion(p), extract.Updater(questionRule),
		chain.WithTokenBudget(ExtractQuestionTokens),
		chain.WithChildren(
			chain.NewNode("answerQuestion", answerQuestion(p), extract.Updater(answerRule),
				chain.WithTokenBudget(AnswerQuestionTokens)),
			chain.NewNode("writeCode", writeCode(p), extract.Updater(extract.VerbatimRule{Target: chain.KeyCodeAnswer}),
				chain.WithTokenBudget(WriteCodeTokens)),
		),
	)
}

// CodeTree extracts the question, then reviews the captured browser code against it.
func CodeTree(p *prompts.Generator) *chain.Node {
	return chain.NewNode("extractQuestion", extractQuestion(p), extract.Updater(questionRule),
		chain.WithTokenBudget(ExtractQuestionTokens),
		chain.WithChildren(
			chain.NewNode("analyzeBrowserCode", analyzeBrowserCode(p), extract.Updater(extract.VerbatimRule{Target: chain.KeyAnswer}),
				chain.WithTokenBudget(AnalyzeBrowserCodeTokens)),
		),
	)
}
