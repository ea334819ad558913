package cli

import (
	"fmt"
	"strings"

	"github.com/harun/cheetah/pkg/analyzer"
	"github.com/harun/cheetah/pkg/chain"
	"github.com/spf13/cobra"
)

var (
	askTranscript     string
	askPreviousAnswer string
	askHighlight      string
	askFormat         string
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Answer the latest question in a transcript",
	Long: `Extract the interviewer's latest question from a transcript and answer it.
Code questions get pseudocode instead of prose. With --previous-answer the
answer is refined; adding --highlight START:END (byte offsets into the previous
answer) explains that part in depth instead.`,
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askTranscript, "transcript", "t", "", "transcript file, or - for stdin")
	askCmd.Flags().StringVar(&askPreviousAnswer, "previous-answer", "", "file holding the answer to refine")
	askCmd.Flags().StringVar(&askHighlight, "highlight", "", "START:END byte range of the previous answer to explain")
	askCmd.Flags().StringVarP(&askFormat, "format", "f", formatText, "output format (text, json, yaml)")
	_ = askCmd.MarkFlagRequired("transcript")

	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if err := validateFormat(askFormat); err != nil {
		return err
	}
	if askHighlight != "" && askPreviousAnswer == "" {
		return fmt.Errorf("--highlight requires --previous-answer")
	}

	transcript, err := readInput(cmd, askTranscript)
	if err != nil {
		return err
	}

	rt, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	var opts analyzer.AnswerOptions
	if askPreviousAnswer != "" {
		previous, err := readInput(cmd, askPreviousAnswer)
		if err != nil {
			return err
		}
		rt.analyzer.Restore(chain.Context{chain.KeyAnswer: strings.TrimSpace(previous)})
		opts.Refine = true

		if askHighlight != "" {
			if opts.Selection, err = parseRange(askHighlight); err != nil {
				return err
			}
		}
	}

	result, err := rt.analyzer.Answer(cmd.Context(), transcript, opts)
	if err != nil {
		return describeTurnError(err)
	}
	return render(cmd.OutOrStdout(), askFormat, result)
}

// describeTurnError turns a missing question into an actionable message.
func describeTurnError(err error) error {
	if chain.IsMissingContextField(err) {
		return fmt.Errorf("no question found in the transcript yet: %w", err)
	}
	return fmt.Errorf("turn failed: %w", err)
}
