package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"langgol/internal/middleware"
	"langgol/internal/models"
	"langgol/internal/services"
)

type HistoryHandler struct {
	history services.HistoryService
}

func NewHistoryHandler(history services.HistoryService) *HistoryHandler {
	return &HistoryHandler{history: history}
}

type saveHistoryRequest struct {
	Email   string          `json:"email" binding:"required,email"`
	History *models.History `json:"history" binding:"required"`
}

// @Summary      Save history
// @Description  Overwrites the full transcript for the account
// @Tags         History
// @Accept       json
// @Produce      json
// @Param        history  body      saveHistoryRequest  true  "Email and full history"
// @Success      200      {object}  map[string]interface{}
// @Failure      403      {object}  map[string]string
// @Router       /history [post]
// @Security     BearerAuth
func (h *HistoryHandler) Save(c *gin.Context) {
	var req saveHistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// history is bound to the session identity, not the body
	if !middleware.IsAdmin(c) && !strings.EqualFold(req.Email, middleware.TokenEmail(c)) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}

	if err := h.history.Save(req.Email, req.History); err != nil {
		log.Printf("[history][save] failed for %q: %v", req.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// @Summary      Load history
// @Description  Returns the saved transcript, or null when none exists
// @Tags         History
// @Produce      json
// @Param        email  path  string  true  "Account email"
// @Success      200  {object}  models.History
// @Router       /history/{email} [get]
// @Security     BearerAuth
func (h *HistoryHandler) Load(c *gin.Context) {
	email := c.Param("email")

	history, found, err := h.history.Load(email)
	if err != nil {
		log.Printf("[history][load] failed for %q: %v", email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load history"})
		return
	}
	if !found {
		// the web client expects a JSON null for a fresh account
		c.JSON(http.StatusOK, nil)
		return
	}
	c.JSON(http.StatusOK, history)
}

// @Summary      Export history
// @Description  Renders the transcript as a downloadable PDF report
// @Tags         History
// @Produce      application/pdf
// @Param        email  path  string  true  "Account email"
// @Success      200  {file}  file
// @Router       /history/{email}/export [get]
// @Security     BearerAuth
func (h *HistoryHandler) Export(c *gin.Context) {
	email := c.Param("email")

	path, err := h.history.ExportPDF(email)
	if err != nil {
		log.Printf("[history][export] failed for %q: %v", email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export history"})
		return
	}
	c.FileAttachment(path, "langgol-report.pdf")
}
