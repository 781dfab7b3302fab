// Package testutil provides test utilities for the llm package.
package testutil

import (
	"context"
	"sync"

	"github.com/c360studio/contentpipe/llm"
)

// MockClient is a thread-safe mock completion client for testing.
// It returns configured responses in sequence, or a configured error.
//
// Usage:
//
//	mock := &MockClient{
//	    Responses: []*llm.Response{
//	        {Content: `{"content": "generated text"}`, Model: "test-model"},
//	    },
//	}
//
//	// Error response
//	mock := &MockClient{
//	    Err: errors.New("connection failed"),
//	}
type MockClient struct {
	mu              sync.Mutex
	capturedContext context.Context
	capturedRequest llm.Request
	Responses       []*llm.Response // Responses to return in sequence
	Err             error           // Error to return (takes precedence over Responses)
	callCount       int
	responseIndex   int
}

// Complete returns the next response from Responses, or Err if set.
// Captures the context and request for verification in tests.
func (m *MockClient) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.capturedContext = ctx
	m.capturedRequest = req
	m.callCount++

	if m.Err != nil {
		return nil, m.Err
	}

	if m.responseIndex < len(m.Responses) {
		resp := m.Responses[m.responseIndex]
		m.responseIndex++
		return resp, nil
	}

	// Default response if no responses configured
	return &llm.Response{Content: "", Model: "test-model"}, nil
}

// CapturedRequest returns the last request passed to Complete().
func (m *MockClient) CapturedRequest() llm.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.capturedRequest
}

// CallCount returns the number of times Complete() was called.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset resets the mock's state for reuse across test cases.
func (m *MockClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.responseIndex = 0
	m.capturedContext = nil
	m.capturedRequest = llm.Request{}
}
