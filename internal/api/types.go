package api

// Document is one entry in the backend's document list.
type Document struct {
	PDFID      string `json:"pdf_id"`
	PDFName    string `json:"pdf_name"`
	ChunkCount int    `json:"chunk_count"`
	Pages      []int  `json:"pages"`
}

// PageCount returns how many pages the backend indexed for this document.
func (d Document) PageCount() int { return len(d.Pages) }

// TokenUsage mirrors the backend's token accounting block.
type TokenUsage struct {
	TotalTokens      int `json:"total_tokens"`
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
}

// AskRequest is the wire body for one chat turn.
type AskRequest struct {
	Question      string `json:"question"`
	KnowledgeMode string `json:"knowledge_mode"`
}

// AskResponse is the backend's envelope for one chat turn.
type AskResponse struct {
	Success            bool        `json:"success"`
	Answer             string      `json:"answer"`
	Timestamp          string      `json:"timestamp"`
	KnowledgeMode      string      `json:"knowledge_mode"`
	SourcesUsed        int         `json:"sources_used"`
	SearchResultsCount int         `json:"search_results_count"`
	TokenUsage         *TokenUsage `json:"token_usage,omitempty"`
	Error              string      `json:"error,omitempty"`
}

// listResponse is the document list envelope.
type listResponse struct {
	Success   bool       `json:"success"`
	Documents []Document `json:"documents"`
	Error     string     `json:"error,omitempty"`
}

// statusResponse is the bare success/error envelope used by upload and delete.
type statusResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}
