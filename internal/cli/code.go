package cli

import (
	"fmt"
	"os"

	"github.com/harun/cheetah/pkg/extension"
	"github.com/spf13/cobra"
)

var (
	codeTranscript   string
	codeBrowserState string
	codeFormat       string
)

var codeCmd = &cobra.Command{
	Use:   "code",
	Short: "Review the code captured from the browser",
	Long: `Review the code and console output captured by the browser extension
against the interviewer's latest question. The browser state file is a JSON
array of extension messages, replayed in order.`,
	RunE: runCode,
}

func init() {
	codeCmd.Flags().StringVarP(&codeTranscript, "transcript", "t", "", "transcript file, or - for stdin")
	codeCmd.Flags().StringVarP(&codeBrowserState, "browser-state", "b", "", "JSON file of extension messages")
	codeCmd.Flags().StringVarP(&codeFormat, "format", "f", formatText, "output format (text, json, yaml)")
	_ = codeCmd.MarkFlagRequired("transcript")
	_ = codeCmd.MarkFlagRequired("browser-state")

	rootCmd.AddCommand(codeCmd)
}

func runCode(cmd *cobra.Command, args []string) error {
	if err := validateFormat(codeFormat); err != nil {
		return err
	}

	transcript, err := readInput(cmd, codeTranscript)
	if err != nil {
		return err
	}
	state, err := loadBrowserState(codeBrowserState)
	if err != nil {
		return err
	}

	rt, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	result, err := rt.analyzer.AnalyzeCode(cmd.Context(), transcript, state)
	if err != nil {
		return describeTurnError(err)
	}
	return render(cmd.OutOrStdout(), codeFormat, result)
}

func loadBrowserState(path string) (*extension.State, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open browser state: %w", err)
	}
	defer f.Close()

	msgs, err := extension.ReadMessages(f)
	if err != nil {
		return nil, err
	}
	return extension.Replay(msgs), nil
}
