package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider is a minimal provider for exercising the client transport.
type fakeProvider struct {
	url string
}

func (f *fakeProvider) Name() string                   { return "fake" }
func (f *fakeProvider) BuildURL(_, _ string) string    { return f.url }
func (f *fakeProvider) SetHeaders(req *http.Request)   { req.Header.Set("X-Fake", "1") }
func (f *fakeProvider) BuildRequestBody(model string, messages []Message, _ *float64, _ int) ([]byte, error) {
	return []byte(`{"model":"` + model + `"}`), nil
}
func (f *fakeProvider) ParseResponse(body []byte, model string) (*Response, error) {
	return &Response{Content: string(body), Model: model}, nil
}

func TestClient_Complete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.Header.Get("X-Fake"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte("generated text"))
	}))
	defer server.Close()

	RegisterProvider(&fakeProvider{url: server.URL})

	client := NewClient(Endpoint{Provider: "fake", Model: "test-model"})
	resp, err := client.Complete(context.Background(), Request{
		Messages: []Message{{Role: "user", Content: "hello"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "generated text", resp.Content)
	assert.Equal(t, "test-model", resp.Model)
}

func TestClient_Complete_NoMessages(t *testing.T) {
	client := NewClient(Endpoint{Provider: "fake"})
	_, err := client.Complete(context.Background(), Request{})
	require.Error(t, err)
}

func TestClient_Complete_UnknownProvider(t *testing.T) {
	client := NewClient(Endpoint{Provider: "does-not-exist"})
	_, err := client.Complete(context.Background(), Request{
		Messages: []Message{{Role: "user", Content: "hello"}},
	})
	require.Error(t, err)
	assert.True(t, IsFatal(err))
}

func TestClient_Complete_HTTPErrorClassification(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		wantTransient bool
	}{
		{"rate limited", http.StatusTooManyRequests, true},
		{"server error", http.StatusInternalServerError, true},
		{"bad gateway", http.StatusBadGateway, true},
		{"unauthorized", http.StatusUnauthorized, false},
		{"bad request", http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			RegisterProvider(&fakeProvider{url: server.URL})

			client := NewClient(Endpoint{Provider: "fake", Model: "test-model"})
			_, err := client.Complete(context.Background(), Request{
				Messages: []Message{{Role: "user", Content: "hello"}},
			})
			require.Error(t, err)
			assert.Equal(t, tt.wantTransient, IsTransient(err))
			assert.Equal(t, !tt.wantTransient, IsFatal(err))
		})
	}
}

func TestClient_Complete_ConnectionRefusedIsTransient(t *testing.T) {
	// Point at a closed server
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	RegisterProvider(&fakeProvider{url: url})

	client := NewClient(Endpoint{Provider: "fake", Model: "test-model"})
	_, err := client.Complete(context.Background(), Request{
		Messages: []Message{{Role: "user", Content: "hello"}},
	})
	require.Error(t, err)
	assert.True(t, IsTransient(err))
}
