package handler

import (
	"net/http"

	"taskman/internal/api/dto"
	"taskman/internal/core/ports"
	"taskman/internal/domain"
	"taskman/internal/service"

	"github.com/gin-gonic/gin"
)

// InstanceHandler exposes the runtime layer: process instances, task
// instances, transitions and progress.
type InstanceHandler struct {
	insts     *service.InstanceService
	integrity *service.IntegrityService
}

func NewInstanceHandler(insts *service.InstanceService, integrity *service.IntegrityService) *InstanceHandler {
	return &InstanceHandler{insts: insts, integrity: integrity}
}

func (h *InstanceHandler) CreateProcessInstance(c *gin.Context) {
	var req dto.CreateProcessInstanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pi, err := h.insts.CreateProcessInstance(c.Request.Context(), req.ProcessID, req.CreatedBy)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, pi)
}

func (h *InstanceHandler) GetProcessInstance(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	pi, err := h.insts.GetProcessInstance(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pi)
}

func (h *InstanceHandler) ListProcessInstances(c *gin.Context) {
	f := ports.ProcessInstanceFilter{
		ProcessID: queryUint(c, "process_id"),
		Status:    domain.InstanceStatus(c.Query("status")),
		CreatedBy: c.Query("created_by"),
	}
	pis, err := h.insts.ListProcessInstances(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pis)
}

func (h *InstanceHandler) TransitionProcessInstance(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pi, err := h.insts.TransitionProcessInstance(c.Request.Context(), id, domain.InstanceStatus(req.Status))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pi)
}

func (h *InstanceHandler) DeleteProcessInstance(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.integrity.DeleteProcessInstance(c.Request.Context(), id, queryBool(c, "force")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *InstanceHandler) Progress(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	pct, err := h.insts.Progress(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ProgressResponse{ProcessInstanceID: id, Progress: pct})
}

func (h *InstanceHandler) CreateTaskInstance(c *gin.Context) {
	var req dto.CreateTaskInstanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ti, err := h.insts.CreateTaskInstance(c.Request.Context(), req.ProcessInstanceID, req.TaskID, req.AssignedTo, req.Notes)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ti)
}

func (h *InstanceHandler) GetTaskInstance(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	ti, err := h.insts.GetTaskInstance(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ti)
}

func (h *InstanceHandler) ListTaskInstances(c *gin.Context) {
	f := ports.TaskInstanceFilter{
		ProcessInstanceID: queryUint(c, "process_instance_id"),
		Status:            domain.TaskInstanceStatus(c.Query("status")),
		AssignedTo:        c.Query("assigned_to"),
	}
	tis, err := h.insts.ListTaskInstances(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tis)
}

func (h *InstanceHandler) UpdateTaskInstance(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.UpdateTaskInstanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ti, err := h.insts.UpdateTaskInstance(c.Request.Context(), id, req.AssignedTo, req.Notes)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ti)
}

func (h *InstanceHandler) TransitionTaskInstance(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ti, err := h.insts.TransitionTaskInstance(c.Request.Context(), id, domain.TaskInstanceStatus(req.Status))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ti)
}

func (h *InstanceHandler) DeleteTaskInstance(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.integrity.DeleteTaskInstance(c.Request.Context(), id, queryBool(c, "force")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
