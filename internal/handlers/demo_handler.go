package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"langgol/internal/demo"
)

type DemoHandler struct {
	limits     demo.Limits
	cookieDays int
}

func NewDemoHandler(limits demo.Limits, cookieDays int) *DemoHandler {
	return &DemoHandler{limits: limits, cookieDays: cookieDays}
}

func (h *DemoHandler) meter(c *gin.Context) *demo.Meter {
	return demo.NewMeter(h.limits, demo.NewCookieStore(c, h.cookieDays))
}

// @Summary      Start demo session
// @Description  Begins an anonymous trial session unless the quota is already used up
// @Tags         Demo
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  map[string]interface{}
// @Router       /demo/start [post]
func (h *DemoHandler) Start(c *gin.Context) {
	usage, err := h.meter(c).Start()
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true, "usage": usage})
	case errors.Is(err, demo.ErrExpired):
		c.JSON(http.StatusForbidden, gin.H{"success": false, "expired": true})
	default:
		log.Printf("[demo][start] failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start demo session"})
	}
}

type demoUsageRequest struct {
	Requests int `json:"requests" binding:"min=0"`
	TalkTime int `json:"talkTime" binding:"min=0"`
}

// @Summary      Record demo usage
// @Description  Adds request and talk-time deltas; exhausting the quota ends the session
// @Tags         Demo
// @Accept       json
// @Produce      json
// @Param        usage  body      demoUsageRequest  true  "Deltas"
// @Success      200    {object}  map[string]interface{}
// @Failure      403    {object}  map[string]interface{}
// @Router       /demo/usage [post]
func (h *DemoHandler) RecordUsage(c *gin.Context) {
	var req demoUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	usage, err := h.meter(c).Record(req.Requests, req.TalkTime)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true, "usage": usage})
	case errors.Is(err, demo.ErrExpired):
		// the exhausted record stays on the client, so a restart is refused
		c.JSON(http.StatusForbidden, gin.H{"success": false, "expired": true, "usage": usage})
	case errors.Is(err, demo.ErrNoSession):
		c.JSON(http.StatusBadRequest, gin.H{"error": "No active demo session"})
	default:
		log.Printf("[demo][usage] failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record usage"})
	}
}
