// Package extension accumulates code and log snapshots pushed by the browser extension.
package extension

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

// MaxLogLines is how many trailing lines of each log are kept in LogsDescription.
const MaxLogLines = 20

const notAvailable = "N/A"

// Message is one snapshot sent by the extension.
type Message struct {
	Mode            string            `json:"mode" yaml:"mode"`
	Files           map[string]string `json:"files,omitempty" yaml:"files,omitempty"`
	Logs            map[string]string `json:"logs,omitempty" yaml:"logs,omitempty"`
	NavigationStart int64             `json:"navigationStart" yaml:"navigationStart"`
}

// State is the latest code and logs seen for the current page.
type State struct {
	mu              sync.RWMutex
	mode            string
	files           map[string]string
	logs            map[string]string
	navigationStart int64
	lastUpdate      time.Time
}

// NewState creates an empty state.
func NewState() *State {
	return &State{
		files: make(map[string]string),
		logs:  make(map[string]string),
	}
}

// Apply folds msg into the state. A newer page load or a mode change discards
// everything captured before it.
func (s *State) Apply(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.NavigationStart > s.navigationStart {
		s.navigationStart = msg.NavigationStart
		s.clear()
	}
	if msg.Mode != s.mode {
		s.mode = msg.Mode
		s.clear()
	}

	for name, content := range msg.Files {
		s.files[name] = content
	}
	for name, content := range msg.Logs {
		s.logs[name] = content
	}
	s.lastUpdate = time.Now()
}

func (s *State) clear() {
	s.files = make(map[string]string)
	s.logs = make(map[string]string)
}

func (s *State) Mode() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// LastUpdate returns when a message was last applied; zero if none was.
func (s *State) LastUpdate() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdate
}

// CodeDescription renders every captured file as "[name]\ncontent" blocks.
func (s *State) CodeDescription() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return describe(s.files, func(content string) string { return content })
}

// LogsDescription renders the tail of every captured log.
func (s *State) LogsDescription() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return describe(s.logs, tail)
}

func describe(entries map[string]string, render func(string) string) string {
	if len(entries) == 0 {
		return notAvailable
	}

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	blocks := make([]string, 0, len(names))
	for _, name := range names {
		blocks = append(blocks, fmt.Sprintf("[%s]\n%s", name, render(entries[name])))
	}
	return strings.Join(blocks, "\n\n")
}

// tail keeps the last MaxLogLines non-empty lines.
func tail(content string) string {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) > MaxLogLines {
		lines = lines[len(lines)-MaxLogLines:]
	}
	return strings.Join(lines, "\n")
}

// ReadMessages decodes a JSON array of messages.
func ReadMessages(r io.Reader) ([]Message, error) {
	var msgs []Message
	if err := json.NewDecoder(r).Decode(&msgs); err != nil {
		return nil, fmt.Errorf("failed to decode extension messages: %w", err)
	}
	return msgs, nil
}

// Replay applies msgs in order to a fresh state.
func Replay(msgs []Message) *State {
	s := NewState()
	for _, m := range msgs {
		s.Apply(m)
	}
	return s
}
