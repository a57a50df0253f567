package models

// SearchRequest is the body of POST /api/search.
type SearchRequest struct {
	Query    string `json:"query" validate:"required,max=500"`
	Language string `json:"language" validate:"required,oneof=en sk de"`
	Limit    *int   `json:"limit" validate:"omitempty,gte=1,lte=50"`
}

// SearchResponse never carries an answer; generation is a separate call.
type SearchResponse struct {
	Sources []Source `json:"sources"`
	QueryID string   `json:"query_id"`
}

// SummarizeRequest is the body of POST /api/summarize.
type SummarizeRequest struct {
	Query     string   `json:"query" validate:"required,max=500"`
	Language  string   `json:"language" validate:"required,oneof=en sk de"`
	QueryID   string   `json:"query_id" validate:"required"`
	SourceIDs []string `json:"source_ids" validate:"required,min=1,dive,required"`
}

type SummarizeResponse struct {
	Answer  string `json:"answer"`
	QueryID string `json:"query_id"`
}

// ChatRequest is the body of the legacy POST /chat.
type ChatRequest struct {
	Query string `json:"query" validate:"required,min=2,max=500"`
	Limit int    `json:"limit" validate:"gte=0,lte=50"`
}

type ChatResponse struct {
	Answer  string       `json:"answer"`
	Sources []ChatSource `json:"sources"`
	Query   string       `json:"query"`
}

type RootResponse struct {
	Service string `json:"service"`
	Version string `json:"version"`
}

type HealthResponse struct {
	Status string `json:"status"`
	Search string `json:"search"`
}
