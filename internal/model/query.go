package model

// SearchRequest represents a direct search request
type SearchRequest struct {
	Query   string         `json:"query" binding:"required"`
	Options *SearchOptions `json:"options,omitempty"`
}

// SearchOptions represents search options
type SearchOptions struct {
	TopK int `json:"top_k"`
}

// SearchResponse represents a search result response
type SearchResponse struct {
	Results  []PhoneResult `json:"results"`
	Total    int           `json:"total"`
	Filter   Filter        `json:"filter"`
	Complete bool          `json:"complete"`
	Took     int64         `json:"took_ms"` // Response time in milliseconds
}

// MessageRequest is one user utterance in a conversation
type MessageRequest struct {
	Text string `json:"text" binding:"required"`
}

// ConversationResponse wraps a controller reply with its session
type ConversationResponse struct {
	ConversationID string `json:"conversation_id"`
	Reply          Reply  `json:"reply"`
}

// PhoneBatchRequest represents a bulk catalog import
type PhoneBatchRequest struct {
	Phones []Phone `json:"phones" binding:"required"`
}

// PhoneBatchResponse represents the response for a bulk catalog import
type PhoneBatchResponse struct {
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

// ErrorResponse is the body of every non-2xx API response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
