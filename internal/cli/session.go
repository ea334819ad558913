package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/harun/cheetah/pkg/analyzer"
	"github.com/spf13/cobra"
)

var (
	sessionTranscript string
	sessionFormat     string
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Interactive answer session over a live transcript",
	Long: `Start an interactive session. The transcript file is re-read before every
turn, so it can be appended to while the interview runs.

Commands:
  answer              answer the latest question
  refine              refine the previous answer
  highlight START END explain a byte range of the previous answer in depth
  code STATEFILE      review browser code captured in STATEFILE
  show                print the last turn again
  reset               forget the previous answer
  quit                leave the session`,
	RunE: runSession,
}

func init() {
	sessionCmd.Flags().StringVarP(&sessionTranscript, "transcript", "t", "", "transcript file")
	sessionCmd.Flags().StringVarP(&sessionFormat, "format", "f", formatText, "output format (text, json, yaml)")
	_ = sessionCmd.MarkFlagRequired("transcript")

	rootCmd.AddCommand(sessionCmd)
}

func runSession(cmd *cobra.Command, args []string) error {
	if err := validateFormat(sessionFormat); err != nil {
		return err
	}

	rt, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	stopMetrics, err := startMetricsServer(rt.cfg.Metrics, rt.logger)
	if err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}
	defer stopMetrics()

	s := &session{
		analyzer:   rt.analyzer,
		transcript: sessionTranscript,
		format:     sessionFormat,
		in:         cmd.InOrStdin(),
		out:        cmd.OutOrStdout(),
	}
	return s.run(cmd.Context())
}

// session is a line-oriented REPL over one analyzer.
type session struct {
	analyzer   *analyzer.Analyzer
	transcript string
	format     string
	in         io.Reader
	out        io.Writer
}

func (s *session) run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	fmt.Fprintln(s.out, "Type 'help' for commands.")

	for {
		fmt.Fprint(s.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		quit, err := s.handle(ctx, scanner.Text())
		if err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
}

func (s *session) handle(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}

	switch fields[0] {
	case "answer":
		return false, s.answer(ctx, analyzer.AnswerOptions{})
	case "refine":
		return false, s.answer(ctx, analyzer.AnswerOptions{Refine: true})
	case "highlight":
		if len(fields) != 3 {
			return false, fmt.Errorf("usage: highlight START END")
		}
		start, err := strconv.Atoi(fields[1])
		if err != nil {
			return false, fmt.Errorf("invalid start: %w", err)
		}
		end, err := strconv.Atoi(fields[2])
		if err != nil {
			return false, fmt.Errorf("invalid end: %w", err)
		}
		return false, s.answer(ctx, analyzer.AnswerOptions{Refine: true, Selection: &analyzer.Selection{Start: start, End: end}})
	case "code":
		if len(fields) != 2 {
			return false, fmt.Errorf("usage: code STATEFILE")
		}
		return false, s.code(ctx, fields[1])
	case "show":
		return false, render(s.out, s.format, s.analyzer.Context())
	case "reset":
		s.analyzer.Reset()
		fmt.Fprintln(s.out, "Session reset.")
		return false, nil
	case "help":
		fmt.Fprintln(s.out, "Commands: answer, refine, highlight START END, code STATEFILE, show, reset, quit")
		return false, nil
	case "quit", "exit":
		return true, nil
	default:
		return false, fmt.Errorf("unknown command %q (type 'help')", fields[0])
	}
}

func (s *session) readTranscript() (string, error) {
	data, err := os.ReadFile(s.transcript)
	if err != nil {
		return "", fmt.Errorf("failed to read transcript: %w", err)
	}
	return string(data), nil
}

func (s *session) answer(ctx context.Context, opts analyzer.AnswerOptions) error {
	transcript, err := s.readTranscript()
	if err != nil {
		return err
	}
	result, err := s.analyzer.Answer(ctx, transcript, opts)
	if err != nil {
		return describeTurnError(err)
	}
	return render(s.out, s.format, result)
}

func (s *session) code(ctx context.Context, statePath string) error {
	transcript, err := s.readTranscript()
	if err != nil {
		return err
	}
	state, err := loadBrowserState(statePath)
	if err != nil {
		return err
	}
	result, err := s.analyzer.AnalyzeCode(ctx, transcript, state)
	if err != nil {
		return describeTurnError(err)
	}
	return render(s.out, s.format, result)
}
