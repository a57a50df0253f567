package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"lookuply-search-api/internal/llm"
	"lookuply-search-api/internal/metrics"
	"lookuply-search-api/internal/models"
	"lookuply-search-api/internal/search"
	"lookuply-search-api/internal/service"
	"lookuply-search-api/internal/storage"

	"go.uber.org/zap"
)

// fakeOllama records every prompt it receives and answers with a canned text.
type fakeOllama struct {
	mu      sync.Mutex
	prompts []string
}

func (f *fakeOllama) handler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt string `json:"prompt"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	f.mu.Lock()
	f.prompts = append(f.prompts, req.Prompt)
	f.mu.Unlock()
	_, _ = w.Write([]byte(`{"response":" Go has goroutines and channels. ","done":true}`))
}

func TestEndToEndSearchThenSummarize(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	index, err := search.NewBleveIndex(logger)
	if err != nil {
		t.Fatalf("Failed to create index: %v", err)
	}
	t.Cleanup(func() { _ = index.Close() })

	docs := []models.Document{
		{ID: "go", Title: "The Go Programming Language", URL: "https://go.dev", Content: "Go is an open source programming language with goroutines and channels for concurrency."},
		{ID: "rust", Title: "Rust", URL: "https://rust-lang.org", Content: "Rust is a systems programming language focused on memory safety."},
		{ID: "bread", Title: "Sourdough", URL: "https://example.com/bread", Content: "Sourdough bread uses a natural leaven."},
	}
	if err := index.IndexDocuments(ctx, docs); err != nil {
		t.Fatalf("Failed to index documents: %v", err)
	}

	ollama := &fakeOllama{}
	ollamaSrv := httptest.NewServer(http.HandlerFunc(ollama.handler))
	t.Cleanup(ollamaSrv.Close)

	client := llm.NewOllamaClient(llm.OllamaOptions{
		BaseURL: ollamaSrv.URL,
		Model:   "test-model",
		Timeout: 5 * time.Second,
	}, logger)

	m := metrics.New()
	svc := service.New(index, client, storage.NewResultCache(time.Minute, time.Minute), m, logger, service.DefaultOptions())
	server := NewServer(svc, index, m, logger, Options{Service: "Lookuply Search API", Version: "0.1.0"})

	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)

	post := func(path, body string, out interface{}) int {
		t.Helper()
		resp, err := http.Post(ts.URL+path, "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("POST %s failed: %v", path, err)
		}
		defer resp.Body.Close()
		if out != nil && resp.StatusCode == http.StatusOK {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				t.Fatalf("Failed to decode %s response: %v", path, err)
			}
		}
		return resp.StatusCode
	}

	var searchResp models.SearchResponse
	if code := post("/api/search", `{"query":"programming language","language":"de"}`, &searchResp); code != http.StatusOK {
		t.Fatalf("Expected search status 200, got %d", code)
	}
	if len(searchResp.Sources) < 2 {
		t.Fatalf("Expected at least 2 sources, got %d", len(searchResp.Sources))
	}
	for i, s := range searchResp.Sources {
		if s.RelevanceScore < 0 || s.RelevanceScore > 1 {
			t.Errorf("Score out of range: %v", s.RelevanceScore)
		}
		if i > 0 && s.RelevanceScore > searchResp.Sources[i-1].RelevanceScore {
			t.Error("Sources not sorted by relevance")
		}
	}

	ollama.mu.Lock()
	if len(ollama.prompts) != 0 {
		t.Error("Search phase must not reach the language model")
	}
	ollama.mu.Unlock()

	var sumResp models.SummarizeResponse
	body := fmt.Sprintf(`{"query":"programming language","language":"de","query_id":%q,"source_ids":["go"]}`, searchResp.QueryID)
	if code := post("/api/summarize", body, &sumResp); code != http.StatusOK {
		t.Fatalf("Expected summarize status 200, got %d", code)
	}
	if sumResp.Answer != "Go has goroutines and channels." {
		t.Errorf("Expected trimmed answer, got %q", sumResp.Answer)
	}
	if sumResp.QueryID != searchResp.QueryID {
		t.Errorf("Expected echoed query_id %q, got %q", searchResp.QueryID, sumResp.QueryID)
	}

	ollama.mu.Lock()
	defer ollama.mu.Unlock()
	if len(ollama.prompts) != 1 {
		t.Fatalf("Expected one generation call, got %d", len(ollama.prompts))
	}
	prompt := ollama.prompts[0]
	if !strings.Contains(prompt, "The Go Programming Language") || !strings.Contains(prompt, "German") {
		t.Error("Prompt missing source title or language")
	}
	if strings.Contains(prompt, "Sourdough") {
		t.Error("Prompt contains a source that was not requested")
	}
}

func TestEndToEndOllamaDown(t *testing.T) {
	logger := zap.NewNop()
	index, err := search.NewBleveIndex(logger)
	if err != nil {
		t.Fatalf("Failed to create index: %v", err)
	}
	t.Cleanup(func() { _ = index.Close() })
	_ = index.IndexDocuments(context.Background(), []models.Document{{ID: "a", Title: "A", Content: "alpha"}})

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "CUDA out of memory", http.StatusInternalServerError)
	}))
	t.Cleanup(down.Close)

	client := llm.NewOllamaClient(llm.OllamaOptions{BaseURL: down.URL, Model: "m", Timeout: time.Second}, logger)
	svc := service.New(index, client, nil, nil, logger, service.DefaultOptions())
	server := NewServer(svc, index, metrics.New(), logger, Options{})

	req := httptest.NewRequest(http.MethodPost, "/api/summarize", strings.NewReader(`{"query":"alpha","language":"en","query_id":"x","source_ids":["a"]}`))
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Expected status 500, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "CUDA") {
		t.Error("Backend error text leaked to client")
	}
}
