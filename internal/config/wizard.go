package config

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Wizard provides an interactive configuration wizard
type Wizard struct {
	reader *bufio.Reader
	out    io.Writer
}

// NewWizard creates a new configuration wizard
func NewWizard(in io.Reader, out io.Writer) *Wizard {
	return &Wizard{
		reader: bufio.NewReader(in),
		out:    out,
	}
}

// Run runs the interactive configuration wizard, starting from base when given
func (w *Wizard) Run(base *Config) (*Config, error) {
	fmt.Fprintln(w.out, "=== Cheetah Configuration Wizard ===")
	fmt.Fprintln(w.out)

	cfg := DefaultConfig()
	if base != nil {
		copied := *base
		cfg = &copied
	}
	validator := NewValidator()

	// Provider
	for {
		fmt.Fprintf(w.out, "Backend provider (openai/anthropic) [%s]: ", cfg.Backend.Provider)
		provider, err := w.readLine()
		if err != nil {
			return nil, err
		}
		if provider == "" {
			break
		}
		if err := validator.ValidateProvider(provider); err != nil {
			fmt.Fprintf(w.out, "Error: %v\n", err)
			continue
		}
		if provider != cfg.Backend.Provider {
			cfg.Backend.Provider = provider
			cfg.Backend.APIKey = ""
			cfg.Backend.Models = ModelsConfig{}
		}
		break
	}

	// API Key
	for {
		hint := "required"
		if cfg.Backend.APIKey != "" {
			hint = "press Enter to keep current"
		}
		fmt.Fprintf(w.out, "API Key (%s): ", hint)
		key, err := w.readLine()
		if err != nil {
			return nil, err
		}

		if key == "" {
			if cfg.Backend.APIKey != "" {
				break
			}
			fmt.Fprintln(w.out, "Error: API key is required")
			continue
		}

		if err := validator.ValidateAPIKey(key, cfg.Backend.Provider); err != nil {
			fmt.Fprintf(w.out, "Error: %v\n", err)
			continue
		}

		cfg.Backend.APIKey = key
		break
	}

	fmt.Fprintln(w.out)

	// Entitlement
	fmt.Fprintf(w.out, "Use the premium model tier? (y/n) [%s]: ", yesNo(cfg.Entitled))
	entitled, err := w.readLine()
	if err != nil {
		return nil, err
	}
	if entitled != "" {
		cfg.Entitled = strings.HasPrefix(strings.ToLower(entitled), "y")
	}

	// Domain
	fmt.Fprintf(w.out, "Interview domain [%s]: ", cfg.Domain)
	domain, err := w.readLine()
	if err != nil {
		return nil, err
	}
	if domain != "" {
		cfg.Domain = domain
	}

	fmt.Fprintln(w.out)

	// Log Level
	fmt.Fprintln(w.out, "Logging:")
	fmt.Fprintf(w.out, "Log level (debug/info/warn/error) [%s]: ", cfg.Logging.Level)
	level, err := w.readLine()
	if err != nil {
		return nil, err
	}

	if level != "" {
		if err := validator.ValidateLogLevel(level); err != nil {
			fmt.Fprintf(w.out, "Warning: %v, keeping %s\n", err, cfg.Logging.Level)
		} else {
			cfg.Logging.Level = level
		}
	}

	fmt.Fprintln(w.out)
	fmt.Fprintln(w.out, "Configuration complete!")

	return cfg, nil
}

func (w *Wizard) readLine() (string, error) {
	line, err := w.reader.ReadString('\n')
	if err != nil {
		if err == io.EOF && line != "" {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func yesNo(b bool) string {
	if b {
		return "y"
	}
	return "n"
}
