package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/harun/cheetah/pkg/analyzer"
	"github.com/harun/cheetah/pkg/chain"
	"gopkg.in/yaml.v3"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// turnResult is the printable part of a turn's context.
type turnResult struct {
	Question     string `json:"question,omitempty" yaml:"question,omitempty"`
	AnswerInCode bool   `json:"answer_in_code" yaml:"answer_in_code"`
	Answer       string `json:"answer,omitempty" yaml:"answer,omitempty"`
	CodeAnswer   string `json:"code_answer,omitempty" yaml:"code_answer,omitempty"`
}

func newTurnResult(c chain.Context) turnResult {
	return turnResult{
		Question:     c[chain.KeyQuestion],
		AnswerInCode: analyzer.AnswerInCode(c),
		Answer:       c[chain.KeyAnswer],
		CodeAnswer:   c[chain.KeyCodeAnswer],
	}
}

func validateFormat(format string) error {
	switch format {
	case formatText, formatJSON, formatYAML:
		return nil
	default:
		return fmt.Errorf("invalid format %q (must be: text, json, yaml)", format)
	}
}

func render(w io.Writer, format string, c chain.Context) error {
	result := newTurnResult(c)

	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(result); err != nil {
			return err
		}
		return enc.Close()
	default:
		_, err := io.WriteString(w, renderText(result))
		return err
	}
}

func renderText(r turnResult) string {
	var blocks []string
	if r.Question != "" {
		blocks = append(blocks, "Question: "+r.Question)
	}
	if r.Answer != "" {
		blocks = append(blocks, r.Answer)
	}
	if r.CodeAnswer != "" {
		blocks = append(blocks, r.CodeAnswer)
	}
	if len(blocks) == 0 {
		return "No question found in the transcript yet.\n"
	}
	return strings.Join(blocks, "\n\n") + "\n"
}
