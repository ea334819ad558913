package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeOpenAI answers chat completions by the shape of the last message.
type fakeOpenAI struct {
	mu      sync.Mutex
	extract string
	answer  string
	code    string
	review  string
	prompts []string
}

func (f *fakeOpenAI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Messages []struct {
			Content string `json:"content"`
		} `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) == 0 {
		http.Error(w, `{"error":{"message":"bad request"}}`, http.StatusBadRequest)
		return
	}
	prompt := req.Messages[len(req.Messages)-1].Content

	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	var content string
	switch {
	case strings.Contains(prompt, "[transcript begins]"):
		content = f.extract
	case strings.Contains(prompt, "Write pseudocode"):
		content = f.code
	case strings.Contains(prompt, "\nCode:\n"):
		content = f.review
	default:
		content = f.answer
	}
	f.mu.Unlock()

	resp := map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-4",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"logprobs":      nil,
			"message":       map[string]any{"role": "assistant", "content": content, "refusal": nil},
		}},
		"usage": map[string]any{"prompt_tokens": 1, "completion_tokens": 1, "total_tokens": 2},
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (f *fakeOpenAI) sawPrompt(substr string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.prompts {
		if strings.Contains(p, substr) {
			return true
		}
	}
	return false
}

// setupBackend starts a fake OpenAI server and writes a config file pointing at it.
func setupBackend(t *testing.T, fake *fakeOpenAI) string {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	configPath := filepath.Join(dir, "cheetah.json")
	cfg := fmt.Sprintf(`{
		"backend": {"provider": "openai", "api_key": "sk-test", "base_url": %q, "max_retries": 0, "timeout": 10},
		"entitled": true,
		"logging": {"level": "debug", "console": false, "file": %q, "max_size": 0}
	}`, srv.URL+"/", filepath.Join(dir, "cheetah.log"))
	require.NoError(t, os.WriteFile(configPath, []byte(cfg), 0600))
	return configPath
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// resetFlags restores flag variables; cobra keeps them between Execute calls.
func resetFlags() {
	cfgFile, logLevel = "", ""
	askTranscript, askPreviousAnswer, askHighlight, askFormat = "", "", "", formatText
	codeTranscript, codeBrowserState, codeFormat = "", "", formatText
	sessionTranscript, sessionFormat = "", formatText
	watchTranscript, watchDebounce, watchFormat = "", 2*time.Second, formatText

	// --help and --version stick to the command they were parsed on.
	for _, c := range append(rootCmd.Commands(), rootCmd) {
		for _, name := range []string{"help", "version"} {
			if f := c.Flags().Lookup(name); f != nil {
				_ = f.Value.Set("false")
				f.Changed = false
			}
		}
	}
}

// execute runs the root command with args and stdin, returning stdout.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags()

	cmd := GetRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}
