package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/harun/cheetah/pkg/chain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder captures decoded request bodies by path.
type recorder struct {
	mu       sync.Mutex
	requests map[string]map[string]any
}

func (r *recorder) record(path string, body map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.requests == nil {
		r.requests = make(map[string]map[string]any)
	}
	r.requests[path] = body
}

func (r *recorder) get(path string) map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.requests[path]
}

func newServer(t *testing.T, rec *recorder, responses map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		rec.record(r.URL.Path, body)

		resp, ok := responses[r.URL.Path]
		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(resp))
	}))
	t.Cleanup(srv.Close)
	return srv
}

const openAIChatResponse = `{
	"id": "chatcmpl-1",
	"object": "chat.completion",
	"created": 1700000000,
	"model": "gpt-4",
	"choices": [{"index": 0, "finish_reason": "stop", "logprobs": null,
		"message": {"role": "assistant", "content": "Final answer:\n• ok", "refusal": null}}],
	"usage": {"prompt_tokens": 10, "completion_tokens": 4, "total_tokens": 14}
}`

const openAICompletionResponse = `{
	"id": "cmpl-1",
	"object": "text_completion",
	"created": 1700000000,
	"model": "gpt-3.5-turbo-instruct",
	"choices": [{"index": 0, "text": " completed", "finish_reason": "stop", "logprobs": null}],
	"usage": {"prompt_tokens": 3, "completion_tokens": 1, "total_tokens": 4}
}`

const anthropicResponse = `{
	"id": "msg_1",
	"type": "message",
	"role": "assistant",
	"model": "claude-sonnet-4-0",
	"content": [{"type": "text", "text": "Hello "}, {"type": "text", "text": "there"}],
	"stop_reason": "end_turn",
	"stop_sequence": null,
	"usage": {"input_tokens": 5, "output_tokens": 2}
}`

func TestModelMap(t *testing.T) {
	t.Run("should resolve tiers", func(t *testing.T) {
		m := DefaultOpenAIModels()

		model, err := m.ChatModel(chain.ChatTierPremium)
		require.NoError(t, err)
		assert.Equal(t, "gpt-4", model)

		model, err = m.ChatModel(chain.ChatTierBaseline)
		require.NoError(t, err)
		assert.Equal(t, "gpt-3.5-turbo", model)

		model, err = m.TextModel(chain.TextTierDavinci)
		require.NoError(t, err)
		assert.Equal(t, "gpt-3.5-turbo-instruct", model)
	})

	t.Run("should reject unknown tiers", func(t *testing.T) {
		_, err := DefaultOpenAIModels().ChatModel("ultra")
		assert.Error(t, err)
		_, err = DefaultOpenAIModels().TextModel("ada")
		assert.Error(t, err)
		_, err = DefaultOpenAIModels().TextModel("curie")
		assert.Error(t, err)
	})

	t.Run("should fill only empty entries", func(t *testing.T) {
		m := ModelMap{Premium: "gpt-4o"}.WithDefaults(DefaultOpenAIModels())
		assert.Equal(t, "gpt-4o", m.Premium)
		assert.Equal(t, "gpt-3.5-turbo", m.Baseline)
	})
}

func TestFactory(t *testing.T) {
	t.Run("should create providers", func(t *testing.T) {
		c, err := New(Settings{Provider: ProviderOpenAI, APIKey: "sk-test"})
		require.NoError(t, err)
		assert.Equal(t, ProviderOpenAI, c.Provider())

		c, err = New(Settings{Provider: ProviderAnthropic, APIKey: "sk-ant-test"})
		require.NoError(t, err)
		assert.Equal(t, ProviderAnthropic, c.Provider())
	})

	t.Run("should reject unknown provider", func(t *testing.T) {
		_, err := New(Settings{Provider: "gemini"})
		assert.Error(t, err)
	})
}

func TestOpenAIClient(t *testing.T) {
	rec := &recorder{}
	srv := newServer(t, rec, map[string]string{
		"/chat/completions": openAIChatResponse,
		"/completions":      openAICompletionResponse,
	})
	client := NewOpenAIClient(Settings{APIKey: "sk-test", BaseURL: srv.URL + "/"})

	t.Run("should send chat messages with model and budget", func(t *testing.T) {
		text, err := client.Chat(context.Background(), []chain.Message{
			{Role: chain.RoleSystem, Content: "You are a software engineering expert."},
			{Role: chain.RoleUser, Content: "Question: q"},
		}, chain.ChatTierPremium, 500)
		require.NoError(t, err)
		assert.Equal(t, "Final answer:\n• ok", text)

		body := rec.get("/chat/completions")
		require.NotNil(t, body)
		assert.Equal(t, "gpt-4", body["model"])
		assert.EqualValues(t, 500, body["max_tokens"])

		messages, ok := body["messages"].([]any)
		require.True(t, ok)
		require.Len(t, messages, 2)
		assert.Equal(t, "system", messages[0].(map[string]any)["role"])
		assert.Equal(t, "user", messages[1].(map[string]any)["role"])
	})

	t.Run("should send text completions", func(t *testing.T) {
		text, err := client.Complete(context.Background(), "Say hi", chain.TextTierDavinci, 16)
		require.NoError(t, err)
		assert.Equal(t, " completed", text)

		body := rec.get("/completions")
		require.NotNil(t, body)
		assert.Equal(t, "gpt-3.5-turbo-instruct", body["model"])
		assert.Equal(t, "Say hi", body["prompt"])
		assert.EqualValues(t, 16, body["max_tokens"])
	})
}

func TestOpenAIClientError(t *testing.T) {
	srv := newServer(t, &recorder{}, map[string]string{})
	client := NewOpenAIClient(Settings{APIKey: "sk-test", BaseURL: srv.URL + "/", MaxRetries: 0})

	_, err := client.Chat(context.Background(), []chain.Message{{Role: chain.RoleUser, Content: "q"}}, chain.ChatTierBaseline, 10)
	assert.Error(t, err)
}

func TestAnthropicClient(t *testing.T) {
	rec := &recorder{}
	srv := newServer(t, rec, map[string]string{"/v1/messages": anthropicResponse})
	client := NewAnthropicClient(Settings{APIKey: "sk-ant-test", BaseURL: srv.URL + "/"})

	t.Run("should lift system messages and join text blocks", func(t *testing.T) {
		text, err := client.Chat(context.Background(), []chain.Message{
			{Role: chain.RoleSystem, Content: "You are a software engineering expert."},
			{Role: chain.RoleUser, Content: "Question: q"},
		}, chain.ChatTierPremium, 500)
		require.NoError(t, err)
		assert.Equal(t, "Hello there", text)

		body := rec.get("/v1/messages")
		require.NotNil(t, body)
		assert.Equal(t, "claude-sonnet-4-0", body["model"])
		assert.EqualValues(t, 500, body["max_tokens"])

		messages, ok := body["messages"].([]any)
		require.True(t, ok)
		require.Len(t, messages, 1)
		assert.Equal(t, "user", messages[0].(map[string]any)["role"])

		system, ok := body["system"].([]any)
		require.True(t, ok)
		assert.Equal(t, "You are a software engineering expert.", system[0].(map[string]any)["text"])
	})

	t.Run("should send text prompts as a user message", func(t *testing.T) {
		_, err := client.Complete(context.Background(), "Say hi", chain.TextTierDavinci, 0)
		require.NoError(t, err)

		body := rec.get("/v1/messages")
		require.NotNil(t, body)
		assert.Equal(t, "claude-3-5-haiku-latest", body["model"])
		assert.EqualValues(t, defaultMaxTokens, body["max_tokens"])
		assert.Nil(t, body["system"])
	})

	t.Run("should reject system-only requests", func(t *testing.T) {
		_, err := client.Chat(context.Background(), []chain.Message{{Role: chain.RoleSystem, Content: "s"}}, chain.ChatTierBaseline, 10)
		assert.Error(t, err)
	})
}
