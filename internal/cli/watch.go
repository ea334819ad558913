package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/harun/cheetah/pkg/analyzer"
	"github.com/harun/cheetah/pkg/chain"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	watchTranscript string
	watchDebounce   time.Duration
	watchFormat     string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Answer automatically whenever the transcript changes",
	Long: `Watch a transcript file and run an answer turn each time it changes.
Bursts of writes are coalesced: a turn starts once the file has been quiet for
the debounce interval.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchTranscript, "transcript", "t", "", "transcript file")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 2*time.Second, "quiet period before a turn starts")
	watchCmd.Flags().StringVarP(&watchFormat, "format", "f", formatText, "output format (text, json, yaml)")
	_ = watchCmd.MarkFlagRequired("transcript")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := validateFormat(watchFormat); err != nil {
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

	tw, err := newTranscriptWatcher(watchTranscript, watchDebounce, rt.logger)
	if err != nil {
		return err
	}
	defer tw.Stop()

	s := &session{
		analyzer:   rt.analyzer,
		transcript: watchTranscript,
		format:     watchFormat,
		out:        cmd.OutOrStdout(),
	}

	ctx := cmd.Context()
	rt.logger.Info().Str("transcript", watchTranscript).Dur("debounce", watchDebounce).Msg("Watching transcript")
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tw.Changes():
			err := s.answer(ctx, analyzer.AnswerOptions{})
			switch {
			case err == nil:
			case chain.IsMissingContextField(err):
				rt.logger.Debug().Msg("No question in transcript yet")
			case ctx.Err() != nil:
				return nil
			default:
				rt.logger.Error().Err(err).Msg("Answer turn failed")
			}
		}
	}
}

// transcriptWatcher signals on Changes once a file has stopped changing for the debounce interval.
type transcriptWatcher struct {
	watcher  *fsnotify.Watcher
	logger   zerolog.Logger
	path     string
	debounce time.Duration
	changes  chan struct{}
	stopCh   chan struct{}
	done     chan struct{}
}

// newTranscriptWatcher watches the file's directory so that editors replacing
// the file by rename are still observed.
func newTranscriptWatcher(path string, debounce time.Duration, logger zerolog.Logger) (*transcriptWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve transcript path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	tw := &transcriptWatcher{
		watcher:  watcher,
		logger:   logger,
		path:     abs,
		debounce: debounce,
		changes:  make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	go tw.run()

	return tw, nil
}

// Changes yields one value per quiet period after a change. Missed signals coalesce.
func (tw *transcriptWatcher) Changes() <-chan struct{} {
	return tw.changes
}

// Stop stops the watcher and waits for its goroutine to exit.
func (tw *transcriptWatcher) Stop() error {
	close(tw.stopCh)
	err := tw.watcher.Close()
	<-tw.done
	return err
}

func (tw *transcriptWatcher) run() {
	defer close(tw.done)

	timer := time.NewTimer(tw.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case event, ok := <-tw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != tw.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				tw.logger.Debug().
					Str("file", filepath.Base(event.Name)).
					Str("op", event.Op.String()).
					Msg("Transcript change detected")
				timer.Reset(tw.debounce)
			}

		case <-timer.C:
			select {
			case tw.changes <- struct{}{}:
			default:
			}

		case err, ok := <-tw.watcher.Errors:
			if !ok {
				return
			}
			tw.logger.Error().Err(err).Msg("Transcript watcher error")

		case <-tw.stopCh:
			return
		}
	}
}
