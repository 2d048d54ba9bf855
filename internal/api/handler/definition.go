package handler

import (
	"net/http"

	"taskman/internal/api/dto"
	"taskman/internal/core/ports"
	"taskman/internal/domain"
	"taskman/internal/service"

	"github.com/gin-gonic/gin"
)

// DefinitionHandler exposes the definition layer over HTTP. Deletions go
// through the integrity service instead of straight to the repository.
type DefinitionHandler struct {
	defs      *service.DefinitionService
	integrity *service.IntegrityService
}

func NewDefinitionHandler(defs *service.DefinitionService, integrity *service.IntegrityService) *DefinitionHandler {
	return &DefinitionHandler{defs: defs, integrity: integrity}
}

func (h *DefinitionHandler) CreateProcess(c *gin.Context) {
	var req dto.CreateProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.defs.CreateProcess(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *DefinitionHandler) GetProcess(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	p, err := h.defs.GetProcess(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *DefinitionHandler) ListProcesses(c *gin.Context) {
	ps, err := h.defs.ListProcesses(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ps)
}

func (h *DefinitionHandler) UpdateProcess(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.UpdateProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	upd := service.ProcessUpdate{
		Name:             req.Name,
		Description:      req.Description,
		IncrementVersion: req.IncrementVersion,
	}
	if req.Status != nil {
		st := domain.ProcessStatus(*req.Status)
		upd.Status = &st
	}

	p, err := h.defs.UpdateProcess(c.Request.Context(), id, upd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *DefinitionHandler) ActivateProcess(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	p, err := h.defs.ActivateProcess(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *DefinitionHandler) DeleteProcess(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.integrity.DeleteProcess(c.Request.Context(), id, queryBool(c, "force")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *DefinitionHandler) CreateTask(c *gin.Context) {
	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t, err := h.defs.CreateTask(c.Request.Context(), req.ProcessID, service.TaskParams{
		Name:              req.Name,
		Description:       req.Description,
		EstimatedDuration: req.EstimatedDuration,
		Priority:          domain.TaskPriority(req.Priority),
		Status:            domain.TaskStatus(req.Status),
		AssignedTo:        req.AssignedTo,
		DueDate:           req.DueDate,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *DefinitionHandler) GetTask(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	t, err := h.defs.GetTask(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *DefinitionHandler) ListTasks(c *gin.Context) {
	f := ports.TaskFilter{
		ProcessID:  queryUint(c, "process_id"),
		Status:     domain.TaskStatus(c.Query("status")),
		Priority:   domain.TaskPriority(c.Query("priority")),
		AssignedTo: c.Query("assigned_to"),
	}
	ts, err := h.defs.ListTasks(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ts)
}

func (h *DefinitionHandler) UpdateTask(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	upd := service.TaskUpdate{
		Name:              req.Name,
		Description:       req.Description,
		EstimatedDuration: req.EstimatedDuration,
		AssignedTo:        req.AssignedTo,
		DueDate:           req.DueDate,
	}
	if req.Priority != nil {
		p := domain.TaskPriority(*req.Priority)
		upd.Priority = &p
	}
	if req.Status != nil {
		s := domain.TaskStatus(*req.Status)
		upd.Status = &s
	}

	t, err := h.defs.UpdateTask(c.Request.Context(), id, upd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *DefinitionHandler) DeleteTask(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.integrity.DeleteTask(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *DefinitionHandler) CreateWorkflowEdge(c *gin.Context) {
	var req dto.CreateWorkflowEdgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	e, err := h.defs.CreateWorkflowEdge(c.Request.Context(), req.ProcessID, service.EdgeParams{
		FromTaskID:          req.FromTaskID,
		ToTaskID:            req.ToTaskID,
		ConditionType:       domain.ConditionType(req.ConditionType),
		ConditionExpression: req.ConditionExpression,
		SequenceNumber:      req.SequenceNumber,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

func (h *DefinitionHandler) ListWorkflowEdges(c *gin.Context) {
	es, err := h.defs.ListWorkflowEdges(c.Request.Context(), queryUint(c, "process_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, es)
}

func (h *DefinitionHandler) UpdateWorkflowEdge(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.UpdateWorkflowEdgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	upd := service.EdgeUpdate{
		FromTaskID:          req.FromTaskID,
		ToTaskID:            req.ToTaskID,
		ConditionExpression: req.ConditionExpression,
		SequenceNumber:      req.SequenceNumber,
	}
	if req.ConditionType != nil {
		ct := domain.ConditionType(*req.ConditionType)
		upd.ConditionType = &ct
	}

	e, err := h.defs.UpdateWorkflowEdge(c.Request.Context(), id, upd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h *DefinitionHandler) DeleteWorkflowEdge(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.integrity.DeleteWorkflowEdge(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *DefinitionHandler) CreateTaskStep(c *gin.Context) {
	var req dto.CreateTaskStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	step, err := h.defs.CreateTaskStep(c.Request.Context(), req.TaskID, req.StepNumber, req.Name, service.StepParams{
		Description:        req.Description,
		ExpectedDuration:   req.ExpectedDuration,
		RequiredResources:  req.RequiredResources,
		VerificationMethod: req.VerificationMethod,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, step)
}

func (h *DefinitionHandler) ListTaskSteps(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	steps, err := h.defs.ListTaskSteps(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, steps)
}

func (h *DefinitionHandler) UpdateTaskStep(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.UpdateTaskStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	step, err := h.defs.UpdateTaskStep(c.Request.Context(), id, service.StepUpdate{
		Name:               req.Name,
		Description:        req.Description,
		ExpectedDuration:   req.ExpectedDuration,
		RequiredResources:  req.RequiredResources,
		VerificationMethod: req.VerificationMethod,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, step)
}

func (h *DefinitionHandler) ReorderTaskSteps(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.ReorderTaskStepsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.defs.ReorderTaskSteps(c.Request.Context(), id, req.StepIDs); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *DefinitionHandler) DeleteTaskStep(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.integrity.DeleteTaskStep(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *DefinitionHandler) CreateObjective(c *gin.Context) {
	var req dto.CreateObjectiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	o, err := h.defs.CreateObjective(c.Request.Context(), req.Title, req.Description, service.ObjectiveParams{
		Measure:      req.Measure,
		TargetValue:  req.TargetValue,
		CurrentValue: req.CurrentValue,
		TimeFrame:    req.TimeFrame,
		ParentID:     req.ParentID,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

func (h *DefinitionHandler) GetObjective(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	o, err := h.defs.GetObjective(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *DefinitionHandler) ListObjectives(c *gin.Context) {
	os, err := h.defs.ListObjectives(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, os)
}

func (h *DefinitionHandler) UpdateObjective(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.UpdateObjectiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	upd := service.ObjectiveUpdate{
		Title:        req.Title,
		Description:  req.Description,
		Measure:      req.Measure,
		TargetValue:  req.TargetValue,
		CurrentValue: req.CurrentValue,
		TimeFrame:    req.TimeFrame,
	}
	if req.Status != nil {
		st := domain.ObjectiveStatus(*req.Status)
		upd.Status = &st
	}

	o, err := h.defs.UpdateObjective(c.Request.Context(), id, upd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *DefinitionHandler) LinkObjectiveProcess(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.LinkObjectiveProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.defs.LinkObjectiveProcess(c.Request.Context(), id, req.ProcessID, req.ContributionWeight); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *DefinitionHandler) ListObjectiveProcesses(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	links, err := h.defs.ListObjectiveLinks(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, links)
}

func (h *DefinitionHandler) DeleteObjective(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.integrity.DeleteObjective(c.Request.Context(), id, queryBool(c, "force")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
