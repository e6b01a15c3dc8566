package handler

import (
	"net/http"
	"strconv"

	"phonefinder/internal/model"
	"phonefinder/internal/service"

	"github.com/gin-gonic/gin"
)

// PhoneHandler serves catalog records
type PhoneHandler struct {
	searchService *service.SearchService
}

// NewPhoneHandler creates a new phone handler
func NewPhoneHandler(searchService *service.SearchService) *PhoneHandler {
	return &PhoneHandler{searchService: searchService}
}

// GetPhone handles GET /api/v1/phones/:id
func (h *PhoneHandler) GetPhone(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid_request", "Invalid phone ID")
		return
	}

	phone, err := h.searchService.GetPhone(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "internal_error", "Failed to get phone: "+err.Error())
		return
	}
	if phone == nil {
		abortWithError(c, http.StatusNotFound, "phone_not_found", "Phone not found")
		return
	}

	c.JSON(http.StatusOK, phone)
}

// BatchImport handles POST /api/v1/phones/batch
func (h *PhoneHandler) BatchImport(c *gin.Context) {
	var req model.PhoneBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid_request", "Invalid request: "+err.Error())
		return
	}
	if len(req.Phones) == 0 {
		abortWithError(c, http.StatusBadRequest, "invalid_request", "No phones provided")
		return
	}

	resp, err := h.searchService.ImportPhones(c.Request.Context(), req.Phones)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
