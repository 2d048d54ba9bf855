package handler

import (
	"net/http"
	"strconv"

	"taskman/internal/service"

	"github.com/gin-gonic/gin"
)

// MonitorHandler serves the dashboard read side.
type MonitorHandler struct {
	monitor *service.MonitorService
}

func NewMonitorHandler(monitor *service.MonitorService) *MonitorHandler {
	return &MonitorHandler{monitor: monitor}
}

func (h *MonitorHandler) Summary(c *gin.Context) {
	summary, err := h.monitor.Summary(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *MonitorHandler) RunningInstances(c *gin.Context) {
	rows, err := h.monitor.RunningInstances(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *MonitorHandler) WorkflowSteps(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	steps, err := h.monitor.WorkflowSteps(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, steps)
}

func (h *MonitorHandler) RecentActivity(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	entries, err := h.monitor.RecentActivity(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}
