package handler

import (
	"maps"
	"net/http"
	"slices"

	"phonefinder/internal/model"
	"phonefinder/internal/service"

	"github.com/gin-gonic/gin"
)

// ConversationHandler exposes the clarification dialogue over HTTP
type ConversationHandler struct {
	store      *service.SessionStore
	controller *service.Controller
}

// NewConversationHandler creates a new conversation handler
func NewConversationHandler(store *service.SessionStore, controller *service.Controller) *ConversationHandler {
	return &ConversationHandler{store: store, controller: controller}
}

// Create handles POST /api/v1/conversations
func (h *ConversationHandler) Create(c *gin.Context) {
	state := h.store.Create()

	var reply model.Reply
	err := h.store.With(state.ID, func(s *model.State) error {
		reply = h.controller.Greeting(s)
		return nil
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, model.ConversationResponse{ConversationID: state.ID, Reply: reply})
}

// Message handles POST /api/v1/conversations/:id/messages
func (h *ConversationHandler) Message(c *gin.Context) {
	var req model.MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid_request", "Invalid request: "+err.Error())
		return
	}

	id := c.Param("id")
	var reply model.Reply
	err := h.store.With(id, func(s *model.State) error {
		reply = h.controller.Handle(c.Request.Context(), s, req.Text)
		return nil
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.ConversationResponse{ConversationID: id, Reply: reply})
}

// Get handles GET /api/v1/conversations/:id
func (h *ConversationHandler) Get(c *gin.Context) {
	var snapshot model.State
	err := h.store.With(c.Param("id"), func(s *model.State) error {
		snapshot = *s
		snapshot.Filter = s.Filter.Clone()
		snapshot.Asked = maps.Clone(s.Asked)
		snapshot.Declined = slices.Clone(s.Declined)
		if s.Pending != nil {
			q := *s.Pending
			snapshot.Pending = &q
		}
		return nil
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// Reset handles POST /api/v1/conversations/:id/reset
func (h *ConversationHandler) Reset(c *gin.Context) {
	id := c.Param("id")
	var reply model.Reply
	err := h.store.With(id, func(s *model.State) error {
		reply = h.controller.Reset(s)
		return nil
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.ConversationResponse{ConversationID: id, Reply: reply})
}

// Delete handles DELETE /api/v1/conversations/:id
func (h *ConversationHandler) Delete(c *gin.Context) {
	if err := h.store.Delete(c.Param("id")); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
