package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"phonefinder/internal/model"
	"phonefinder/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// SearchHandler handles direct search requests
type SearchHandler struct {
	searchService *service.SearchService
	defaultLimit  int
	maxLimit      int
	log           zerolog.Logger
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(searchService *service.SearchService, defaultLimit, maxLimit int, log zerolog.Logger) *SearchHandler {
	return &SearchHandler{
		searchService: searchService,
		defaultLimit:  defaultLimit,
		maxLimit:      maxLimit,
		log:           log,
	}
}

// normalizeOptions fills in defaults and caps the result count
func (h *SearchHandler) normalizeOptions(req *model.SearchRequest) {
	if req.Options == nil {
		req.Options = &model.SearchOptions{}
	}
	if req.Options.TopK <= 0 {
		req.Options.TopK = h.defaultLimit
	}
	if req.Options.TopK > h.maxLimit {
		req.Options.TopK = h.maxLimit
	}
}

// Search handles POST /api/v1/search
func (h *SearchHandler) Search(c *gin.Context) {
	var req model.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid_request", "Invalid request: "+err.Error())
		return
	}
	h.normalizeOptions(&req)

	response, err := h.searchService.Search(c.Request.Context(), &req)
	if err != nil {
		h.log.Warn().Err(err).Str("query", req.Query).Msg("search failed")
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// SearchStream handles POST /api/v1/search/stream - SSE streaming search
func (h *SearchHandler) SearchStream(c *gin.Context) {
	var req model.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid_request", "Invalid request: "+err.Error())
		return
	}
	h.normalizeOptions(&req)

	c.Header("Content-Type", "text/event-stream; charset=utf-8")
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		abortWithError(c, http.StatusInternalServerError, "streaming_unsupported", "Streaming not supported")
		return
	}

	sendSSE(c, "start", map[string]any{"query": req.Query})
	flusher.Flush()

	response, err := h.searchService.SearchStream(c.Request.Context(), &req, func(event string, data any) error {
		sendSSE(c, event, data)
		flusher.Flush()
		return c.Request.Context().Err()
	})
	if err != nil {
		code := "internal_error"
		if errors.Is(err, service.ErrSearchUnavailable) {
			code = "search_unavailable"
		}
		sendSSE(c, "error", model.ErrorResponse{Error: err.Error(), Code: code})
		flusher.Flush()
		return
	}

	sendSSE(c, "results", response)
	sendSSE(c, "done", nil)
	flusher.Flush()
}

// sendSSE sends a Server-Sent Event
func sendSSE(c *gin.Context, event string, data any) {
	if data == nil {
		fmt.Fprintf(c.Writer, "event: %s\ndata: {}\n\n", event)
		return
	}
	jsonData, err := json.Marshal(data)
	if err != nil {
		fmt.Fprintf(c.Writer, "event: error\ndata: {\"error\": \"JSON marshal failed\"}\n\n")
		return
	}
	fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event, jsonData)
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, model.ErrorResponse{Error: message, Code: code})
}

// writeServiceError maps service sentinels to HTTP statuses
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSearchUnavailable):
		abortWithError(c, http.StatusServiceUnavailable, "search_unavailable", "Phone search is unavailable, please retry shortly")
	case errors.Is(err, service.ErrSessionNotFound):
		abortWithError(c, http.StatusNotFound, "conversation_not_found", "Conversation not found")
	case errors.Is(err, service.ErrReadOnlyCatalog):
		abortWithError(c, http.StatusNotImplemented, "read_only_catalog", "The configured catalog does not accept imports")
	default:
		abortWithError(c, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
