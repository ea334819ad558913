package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/harun/cheetah/internal/config"
	"github.com/harun/cheetah/internal/logger"
	"github.com/harun/cheetah/internal/tracing"
	"github.com/harun/cheetah/pkg/analyzer"
	"github.com/harun/cheetah/pkg/backend"
	"github.com/harun/cheetah/pkg/chain"
	"github.com/harun/cheetah/pkg/prompts"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// app is everything a turn-running command needs.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	logger   zerolog.Logger
	analyzer *analyzer.Analyzer
}

// newApp loads configuration and wires backend, executor and analyzer.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w (run 'cheetah configure')", err)
	}

	log, err := logger.New(logger.Config{
		Level:     cfg.Logging.Level,
		File:      cfg.Logging.File,
		Console:   cfg.Logging.Console,
		Pretty:    cfg.Logging.Pretty,
		Redaction: cfg.Logging.Redaction,
		MaxSize:   cfg.Logging.MaxSize,
		MaxAge:    cfg.Logging.MaxAge,
		Compress:  cfg.Logging.Compress,
		Output:    cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	if cfg.Tracing.Enabled {
		err := tracing.InitOpenTelemetry(cmd.Context(), tracing.Options{
			ServiceName: cfg.Tracing.ServiceName,
			Endpoint:    cfg.Tracing.Endpoint,
			Insecure:    cfg.Tracing.Insecure,
			Writer:      cmd.ErrOrStderr(),
		})
		if err != nil {
			log.Close()
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
	}

	client, err := backend.New(backend.Settings{
		Provider:   cfg.Backend.Provider,
		APIKey:     cfg.Backend.APIKey,
		BaseURL:    cfg.Backend.BaseURL,
		MaxRetries: cfg.Backend.MaxRetries,
		Timeout:    cfg.RequestTimeout(),
		Models: backend.ModelMap{
			Text:     cfg.Backend.Models.Text,
			Baseline: cfg.Backend.Models.Baseline,
			Premium:  cfg.Backend.Models.Premium,
		},
		Logger: log.Component("backend"),
	})
	if err != nil {
		log.Close()
		return nil, err
	}

	executor, err := chain.NewExecutor(chain.ExecutorConfig{
		Backend:        client,
		Entitled:       cfg.Entitled,
		MergeOrder:     chain.MergeOrder(cfg.Execution.MergeOrder),
		LogPrompts:     cfg.Logging.LogPrompts,
		LogCompletions: cfg.Logging.LogCompletions,
		Logger:         log.Component("chain"),
	})
	if err != nil {
		log.Close()
		return nil, err
	}

	a, err := analyzer.New(analyzer.Config{
		Executor: executor,
		Prompts:  prompts.NewGenerator(cfg.Domain),
		Logger:   log.Component("analyzer"),
	})
	if err != nil {
		log.Close()
		return nil, err
	}

	return &app{
		cfg:      cfg,
		log:      log,
		logger:   log.GetZerolog(),
		analyzer: a,
	}, nil
}

// Close flushes tracing and closes the log file.
func (r *app) Close() {
	if r.cfg.Tracing.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracing.ShutdownOpenTelemetry(ctx); err != nil {
			r.logger.Warn().Err(err).Msg("Failed to shut down tracing")
		}
	}
	r.log.Close()
}

// readInput reads path, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// parseRange parses "START:END" byte offsets.
func parseRange(s string) (*analyzer.Selection, error) {
	start, end, ok := strings.Cut(s, ":")
	if !ok {
		return nil, fmt.Errorf("invalid range %q (expected START:END)", s)
	}
	from, err := strconv.Atoi(strings.TrimSpace(start))
	if err != nil {
		return nil, fmt.Errorf("invalid range start %q: %w", start, err)
	}
	to, err := strconv.Atoi(strings.TrimSpace(end))
	if err != nil {
		return nil, fmt.Errorf("invalid range end %q: %w", end, err)
	}
	return &analyzer.Selection{Start: from, End: to}, nil
}
