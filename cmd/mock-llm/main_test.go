package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFixture(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("write fixture %s: %v", name, err)
	}
}

func TestLoadFixtures_BaseOnly(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "mock-overview.json", `{"content":"A goroutine overview."}`)
	writeFixture(t, dir, "mock-summary.json", `{"content":"A summary."}`)

	fixtures, err := loadFixtures(dir)
	if err != nil {
		t.Fatalf("loadFixtures: %v", err)
	}

	if len(fixtures) != 2 {
		t.Fatalf("expected 2 models, got %d", len(fixtures))
	}

	// Each model should have exactly 1 fixture (the base)
	for model, seq := range fixtures {
		if len(seq) != 1 {
			t.Errorf("model %q: expected 1 fixture, got %d", model, len(seq))
		}
	}
}

func TestLoadFixtures_Sequential(t *testing.T) {
	dir := t.TempDir()

	// Numbered fixtures (malformed first, valid second), then base fallback
	writeFixture(t, dir, "mock-overview.1.json", `{"wrong_key":"oops"}`)
	writeFixture(t, dir, "mock-overview.2.json", `{"content":"recovered"}`)
	writeFixture(t, dir, "mock-overview.json", `{"content":"fallback"}`)

	fixtures, err := loadFixtures(dir)
	if err != nil {
		t.Fatalf("loadFixtures: %v", err)
	}

	seq := fixtures["mock-overview"]
	if len(seq) != 3 {
		t.Fatalf("expected 3 fixtures, got %d", len(seq))
	}
	if !strings.Contains(seq[0], "wrong_key") {
		t.Errorf("fixture[0] should be the malformed one, got: %s", seq[0])
	}
	if !strings.Contains(seq[1], "recovered") {
		t.Errorf("fixture[1] should be recovered, got: %s", seq[1])
	}
	if !strings.Contains(seq[2], "fallback") {
		t.Errorf("fixture[2] should be fallback, got: %s", seq[2])
	}
}

func TestLoadFixtures_EmptyDir(t *testing.T) {
	if _, err := loadFixtures(t.TempDir()); err == nil {
		t.Fatal("expected error for empty fixture dir")
	}
}

func TestLoadFixtures_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "broken.json", `not json at all`)

	if _, err := loadFixtures(dir); err == nil {
		t.Fatal("expected error for invalid JSON fixture")
	}
}

func newTestServer(t *testing.T, fixtures map[string][]string) *httptest.Server {
	t.Helper()
	s := newServer(fixtures)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/v1/chat/completions", s.handleChatCompletions)
	mux.HandleFunc("/v1beta/models/", s.handleGenerateContent)
	mux.HandleFunc("/stats", s.handleStats)
	mux.HandleFunc("/requests", s.handleRequests)

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func TestChatCompletions(t *testing.T) {
	ts := newTestServer(t, map[string][]string{
		"mock-overview": {`{"content":"Channels coordinate goroutines."}`},
	})

	body := `{"model":"mock-overview","messages":[{"role":"user","content":"explain channels"}]}`
	resp, err := http.Post(ts.URL+"/v1/chat/completions", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(parsed.Choices) != 1 {
		t.Fatalf("expected 1 choice, got %d", len(parsed.Choices))
	}
	if !strings.Contains(parsed.Choices[0].Message.Content, "Channels coordinate") {
		t.Errorf("unexpected content: %s", parsed.Choices[0].Message.Content)
	}
	if parsed.Choices[0].FinishReason != "stop" {
		t.Errorf("unexpected finish reason: %s", parsed.Choices[0].FinishReason)
	}
}

func TestChatCompletions_UnknownModel(t *testing.T) {
	ts := newTestServer(t, map[string][]string{
		"mock-overview": {`{"content":"x"}`},
	})

	body := `{"model":"no-such-model","messages":[]}`
	resp, err := http.Post(ts.URL+"/v1/chat/completions", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestGenerateContent(t *testing.T) {
	ts := newTestServer(t, map[string][]string{
		"gemini-2.5-flash": {`{"content":"A generated overview."}`},
	})

	body := `{"contents":[{"role":"user","parts":[{"text":"write an overview"}]}]}`
	resp, err := http.Post(ts.URL+"/v1beta/models/gemini-2.5-flash:generateContent", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}

	var parsed geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(parsed.Candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(parsed.Candidates))
	}
	got := parsed.Candidates[0].Content.Parts[0].Text
	if !strings.Contains(got, "generated overview") {
		t.Errorf("unexpected content: %s", got)
	}
	if parsed.ModelVersion != "gemini-2.5-flash" {
		t.Errorf("unexpected model version: %s", parsed.ModelVersion)
	}
}

func TestGenerateContent_BadPath(t *testing.T) {
	ts := newTestServer(t, map[string][]string{"m": {`{}`}})

	resp, err := http.Post(ts.URL+"/v1beta/models/", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestSequentialFixtureSelection(t *testing.T) {
	ts := newTestServer(t, map[string][]string{
		"mock-overview": {`{"step":1}`, `{"step":2}`},
	})

	want := []string{`"step":1`, `"step":2`, `"step":2`} // last repeats
	for i, expect := range want {
		body := `{"model":"mock-overview","messages":[]}`
		resp, err := http.Post(ts.URL+"/v1/chat/completions", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("post %d: %v", i, err)
		}

		var parsed chatResponse
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			t.Fatalf("decode %d: %v", i, err)
		}
		resp.Body.Close()

		if !strings.Contains(parsed.Choices[0].Message.Content, expect) {
			t.Errorf("call %d: expected %s, got %s", i+1, expect, parsed.Choices[0].Message.Content)
		}
	}
}

func TestStatsAndRequests(t *testing.T) {
	ts := newTestServer(t, map[string][]string{
		"mock-overview": {`{"content":"x"}`},
	})

	body := `{"model":"mock-overview","messages":[{"role":"user","content":"prompt text"}]}`
	for i := 0; i < 2; i++ {
		resp, err := http.Post(ts.URL+"/v1/chat/completions", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("post: %v", err)
		}
		resp.Body.Close()
	}

	// Stats
	resp, err := http.Get(ts.URL + "/stats")
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	defer resp.Body.Close()

	var stats struct {
		TotalCalls   int64            `json:"total_calls"`
		CallsByModel map[string]int64 `json:"calls_by_model"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.TotalCalls != 2 {
		t.Errorf("expected 2 total calls, got %d", stats.TotalCalls)
	}
	if stats.CallsByModel["mock-overview"] != 2 {
		t.Errorf("expected 2 calls for mock-overview, got %d", stats.CallsByModel["mock-overview"])
	}

	// Captured requests
	reqResp, err := http.Get(ts.URL + "/requests?model=mock-overview&call=1")
	if err != nil {
		t.Fatalf("get requests: %v", err)
	}
	defer reqResp.Body.Close()

	var captured struct {
		RequestsByModel map[string][]capturedRequest `json:"requests_by_model"`
	}
	if err := json.NewDecoder(reqResp.Body).Decode(&captured); err != nil {
		t.Fatalf("decode requests: %v", err)
	}
	reqs := captured.RequestsByModel["mock-overview"]
	if len(reqs) != 1 {
		t.Fatalf("expected 1 captured request for call 1, got %d", len(reqs))
	}
	if reqs[0].Messages[0].Content != "prompt text" {
		t.Errorf("unexpected captured prompt: %s", reqs[0].Messages[0].Content)
	}
}
