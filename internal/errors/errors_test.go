package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"lookuply-search-api/internal/llm"
	"lookuply-search-api/internal/search"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestTranslate(t *testing.T) {
	backend := fmt.Errorf("%w: dial tcp 10.0.0.1:7700: connection refused", search.ErrUnavailable)
	model := fmt.Errorf("%w: model 'llama' not found", llm.ErrGenerationFailed)

	tests := []struct {
		name    string
		err     error
		surface Surface
		code    int
		detail  string
	}{
		{"validation on search", Validation("query is required"), SurfaceSearch, http.StatusUnprocessableEntity, "query is required"},
		{"validation on summarize", Validation("source_ids must not be empty"), SurfaceSummarize, http.StatusUnprocessableEntity, "source_ids must not be empty"},
		{"validation on chat", Validation("Query too short"), SurfaceChat, http.StatusBadRequest, "Query too short"},
		{"index down on search", backend, SurfaceSearch, http.StatusServiceUnavailable, "Search service unavailable"},
		{"index down on health", backend, SurfaceHealth, http.StatusServiceUnavailable, "Search backend unavailable"},
		{"index down on summarize", backend, SurfaceSummarize, http.StatusInternalServerError, "Summarization failed"},
		{"index down on chat", backend, SurfaceChat, http.StatusInternalServerError, "Search failed"},
		{"model failure on summarize", model, SurfaceSummarize, http.StatusInternalServerError, "Summarization failed"},
		{"unknown on search", stderrors.New("boom"), SurfaceSearch, http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Translate(tt.err, tt.surface)
			assert.Equal(t, tt.code, got.StatusCode())
			assert.Equal(t, tt.detail, got.ReasonField)
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindValidation, KindOf(Validation("x")))
	assert.Equal(t, KindSearchUnavailable, KindOf(fmt.Errorf("wrap: %w", search.ErrUnavailable)))
	assert.Equal(t, KindGenerationFailed, KindOf(llm.ErrGenerationFailed))
	assert.Equal(t, KindInternal, KindOf(stderrors.New("other")))
	assert.Equal(t, KindGenerationFailed, KindOf(Translate(llm.ErrGenerationFailed, SurfaceChat)))
}

func TestWriterRendersDetailOnly(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	writer := NewWriter(zap.New(core))

	r := httptest.NewRequest(http.MethodPost, "/api/search", nil)
	w := httptest.NewRecorder()
	secret := fmt.Errorf("%w: meilisearch at http://internal-host:7700 said no", search.ErrUnavailable)
	writer.WriteError(w, r, Translate(secret, SurfaceSearch))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, map[string]interface{}{"detail": "Search service unavailable"}, body)
	assert.False(t, bytes.Contains(w.Body.Bytes(), []byte("internal-host")))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "request failed", entry.Message)
	ctx := entry.ContextMap()
	assert.Equal(t, "search_unavailable", ctx["kind"])
	assert.EqualValues(t, http.StatusServiceUnavailable, ctx["code"])
	for _, v := range ctx {
		assert.NotContains(t, fmt.Sprint(v), "internal-host")
	}
}

func TestWriterValidationLoggedAtInfo(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	writer := NewWriter(zap.New(core))

	r := httptest.NewRequest(http.MethodPost, "/api/summarize", nil)
	w := httptest.NewRecorder()
	writer.WriteError(w, r, Translate(Validation("source_ids must not be empty"), SurfaceSummarize))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.JSONEq(t, `{"detail":"source_ids must not be empty"}`, w.Body.String())
	require.Equal(t, 1, logs.FilterMessage("request rejected").Len())
}

func TestDetailEnhancerFallback(t *testing.T) {
	got := DetailEnhancer(nil, stderrors.New("raw text"))
	assert.Equal(t, &DetailResponse{Detail: "Internal server error"}, got)
}
