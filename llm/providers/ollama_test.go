package providers

import (
	"encoding/json"
	"testing"

	"github.com/c360studio/contentpipe/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaProvider_BuildURL(t *testing.T) {
	p := &OllamaProvider{}

	assert.Equal(t, "http://localhost:11434/v1/chat/completions", p.BuildURL("", "m"))
	assert.Equal(t, "http://host:8080/v1/chat/completions", p.BuildURL("http://host:8080/v1/", "m"))
	// Already-complete URLs pass through
	assert.Equal(t, "http://host/v1/chat/completions", p.BuildURL("http://host/v1/chat/completions", "m"))
}

func TestOllamaProvider_BuildRequestBody(t *testing.T) {
	p := &OllamaProvider{}

	body, err := p.BuildRequestBody("test-model", []llm.Message{
		{Role: "system", Content: "sys"},
		{Role: "user", Content: "usr"},
	}, nil, 0)
	require.NoError(t, err)

	var req map[string]any
	require.NoError(t, json.Unmarshal(body, &req))
	assert.Equal(t, "test-model", req["model"])
	assert.Len(t, req["messages"], 2)
	// nil temperature and zero max_tokens are omitted
	assert.NotContains(t, req, "temperature")
	assert.NotContains(t, req, "max_tokens")
}

func TestOllamaProvider_ParseResponse(t *testing.T) {
	p := &OllamaProvider{}

	body := `{
		"model": "test-model",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": "hello"}, "finish_reason": "stop"}],
		"usage": {"prompt_tokens": 5, "completion_tokens": 7, "total_tokens": 12}
	}`

	resp, err := p.ParseResponse([]byte(body), "test-model")
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Content)
	assert.Equal(t, 12, resp.TokensUsed)
	assert.Equal(t, "stop", resp.FinishReason)
}

func TestOllamaProvider_ParseResponse_NoChoices(t *testing.T) {
	p := &OllamaProvider{}

	_, err := p.ParseResponse([]byte(`{"choices": []}`), "test-model")
	require.Error(t, err)
}

func TestRegisteredProviders(t *testing.T) {
	for _, name := range []string{"ollama", "openai", "anthropic", "gemini"} {
		assert.NotNil(t, llm.GetProvider(name), "provider %s should be registered", name)
	}
}
