package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"taskman/internal/core/ports"
	"taskman/internal/domain"
	"taskman/internal/graph"
	applog "taskman/internal/log"

	"gorm.io/datatypes"
)

// ProcessUpdate carries the optional fields of a process edit. Nil means
// "leave unchanged". IncrementVersion bumps the version by exactly 1 and is
// independent of the other edits.
type ProcessUpdate struct {
	Name             *string
	Description      *string
	Status           *domain.ProcessStatus
	IncrementVersion bool
}

// TaskParams are the creation inputs for a task. Empty enum fields fall back
// to the template defaults.
type TaskParams struct {
	Name              string
	Description       string
	EstimatedDuration *int
	Priority          domain.TaskPriority
	Status            domain.TaskStatus
	AssignedTo        string
	DueDate           *time.Time
}

type TaskUpdate struct {
	Name              *string
	Description       *string
	EstimatedDuration *int
	Priority          *domain.TaskPriority
	Status            *domain.TaskStatus
	AssignedTo        *string
	DueDate           *time.Time
}

type EdgeParams struct {
	FromTaskID          *uint
	ToTaskID            *uint
	ConditionType       domain.ConditionType
	ConditionExpression string
	SequenceNumber      *int
}

// EdgeUpdate distinguishes "no change" (nil) from "clear to entry/exit point"
// (the 0 sentinel on an endpoint field).
type EdgeUpdate struct {
	FromTaskID          *uint
	ToTaskID            *uint
	ConditionType       *domain.ConditionType
	ConditionExpression *string
	SequenceNumber      *int
}

type StepParams struct {
	Description        string
	ExpectedDuration   *int
	RequiredResources  []string
	VerificationMethod string
}

type StepUpdate struct {
	Name               *string
	Description        *string
	ExpectedDuration   *int
	RequiredResources  []string
	VerificationMethod *string
}

type ObjectiveParams struct {
	Measure      string
	TargetValue  *float64
	CurrentValue *float64
	TimeFrame    string
	ParentID     *uint
}

type ObjectiveUpdate struct {
	Title        *string
	Description  *string
	Measure      *string
	TargetValue  *float64
	CurrentValue *float64
	TimeFrame    *string
	Status       *domain.ObjectiveStatus
}

// DefinitionService owns the definition layer: processes, their tasks and
// workflow edges, task steps, and objectives.
type DefinitionService struct {
	repo ports.DefinitionRepository
	log  *slog.Logger
}

func NewDefinitionService(repo ports.DefinitionRepository) *DefinitionService {
	return &DefinitionService{
		repo: repo,
		log:  applog.WithModule("definition"),
	}
}

func (s *DefinitionService) CreateProcess(ctx context.Context, name, description string) (*domain.Process, error) {
	if strings.TrimSpace(name) == "" {
		return nil, &domain.ValidationError{Field: "name", Reason: "must not be empty"}
	}

	p := domain.NewProcess(name, description)
	if err := s.repo.CreateProcess(ctx, p); err != nil {
		return nil, err
	}

	s.log.Info("process created", "process_id", p.ID, "name", p.Name)
	return p, nil
}

func (s *DefinitionService) UpdateProcess(ctx context.Context, id uint, upd ProcessUpdate) (*domain.Process, error) {
	p, err := s.repo.GetProcess(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Status != nil && !upd.Status.Valid() {
		return nil, &domain.ValidationError{Field: "status", Reason: "must be one of draft, active, inactive"}
	}
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		return nil, &domain.ValidationError{Field: "name", Reason: "must not be empty"}
	}

	// Setting status to active is an activation: the graph check applies the
	// same way as through ActivateProcess.
	if upd.Status != nil && *upd.Status == domain.ProcessActive && p.Status != domain.ProcessActive {
		if err := s.validateGraph(ctx, p.ID); err != nil {
			return nil, err
		}
	}

	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Description != nil {
		p.Description = *upd.Description
	}
	if upd.Status != nil {
		p.Status = *upd.Status
	}
	if upd.IncrementVersion {
		p.Version++
	}

	if err := s.repo.SaveProcess(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ActivateProcess moves a draft or inactive process to active, after the
// graph validator clears its task graph.
func (s *DefinitionService) ActivateProcess(ctx context.Context, id uint) (*domain.Process, error) {
	p, err := s.repo.GetProcess(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.CanActivate() {
		return nil, &domain.PreconditionError{
			Entity: "process", ID: id,
			Reason: "only a draft or inactive process can be activated",
		}
	}

	if err := s.validateGraph(ctx, id); err != nil {
		return nil, err
	}

	p.Status = domain.ProcessActive
	if err := s.repo.SaveProcess(ctx, p); err != nil {
		return nil, err
	}

	s.log.Info("process activated", "process_id", id, "version", p.Version)
	return p, nil
}

// validateGraph re-checks edge endpoint membership. Edge creation already
// enforces it, so a failure here means tasks were deleted out of band.
func (s *DefinitionService) validateGraph(ctx context.Context, processID uint) error {
	tasks, err := s.repo.ListTasks(ctx, ports.TaskFilter{ProcessID: processID})
	if err != nil {
		return err
	}
	edges, err := s.repo.ListEdges(ctx, processID)
	if err != nil {
		return err
	}
	return graph.Validate(processID, tasks, edges)
}

func (s *DefinitionService) GetProcess(ctx context.Context, id uint) (*domain.Process, error) {
	return s.repo.GetProcess(ctx, id)
}

func (s *DefinitionService) ListProcesses(ctx context.Context) ([]domain.Process, error) {
	return s.repo.ListProcesses(ctx)
}

func (s *DefinitionService) CreateTask(ctx context.Context, processID uint, params TaskParams) (*domain.Task, error) {
	if _, err := s.repo.GetProcess(ctx, processID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(params.Name) == "" {
		return nil, &domain.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if params.Priority != "" && !params.Priority.Valid() {
		return nil, &domain.ValidationError{Field: "priority", Reason: "must be one of low, medium, high, urgent"}
	}
	if params.Status != "" && !params.Status.Valid() {
		return nil, &domain.ValidationError{Field: "status", Reason: "must be one of not_started, in_progress, done, on_hold"}
	}
	if params.EstimatedDuration != nil && *params.EstimatedDuration < 0 {
		return nil, &domain.ValidationError{Field: "estimated_duration", Reason: "must not be negative"}
	}

	t := domain.NewTask(processID, params.Name)
	t.Description = params.Description
	t.EstimatedDuration = params.EstimatedDuration
	t.AssignedTo = params.AssignedTo
	t.DueDate = params.DueDate
	if params.Priority != "" {
		t.Priority = params.Priority
	}
	if params.Status != "" {
		t.Status = params.Status
	}

	if err := s.repo.CreateTask(ctx, t); err != nil {
		return nil, err
	}

	s.log.Info("task created", "task_id", t.ID, "process_id", processID, "name", t.Name)
	return t, nil
}

func (s *DefinitionService) UpdateTask(ctx context.Context, id uint, upd TaskUpdate) (*domain.Task, error) {
	t, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		return nil, &domain.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if upd.Priority != nil && !upd.Priority.Valid() {
		return nil, &domain.ValidationError{Field: "priority", Reason: "must be one of low, medium, high, urgent"}
	}
	if upd.Status != nil && !upd.Status.Valid() {
		return nil, &domain.ValidationError{Field: "status", Reason: "must be one of not_started, in_progress, done, on_hold"}
	}
	if upd.EstimatedDuration != nil && *upd.EstimatedDuration < 0 {
		return nil, &domain.ValidationError{Field: "estimated_duration", Reason: "must not be negative"}
	}

	if upd.Name != nil {
		t.Name = *upd.Name
	}
	if upd.Description != nil {
		t.Description = *upd.Description
	}
	if upd.EstimatedDuration != nil {
		t.EstimatedDuration = upd.EstimatedDuration
	}
	if upd.Priority != nil {
		t.Priority = *upd.Priority
	}
	if upd.Status != nil {
		t.Status = *upd.Status
	}
	if upd.AssignedTo != nil {
		t.AssignedTo = *upd.AssignedTo
	}
	if upd.DueDate != nil {
		t.DueDate = upd.DueDate
	}

	if err := s.repo.SaveTask(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *DefinitionService) GetTask(ctx context.Context, id uint) (*domain.Task, error) {
	return s.repo.GetTask(ctx, id)
}

func (s *DefinitionService) ListTasks(ctx context.Context, f ports.TaskFilter) ([]domain.Task, error) {
	return s.repo.ListTasks(ctx, f)
}

// checkEdgeEndpoint verifies that a referenced edge endpoint exists and
// belongs to the edge's process.
func (s *DefinitionService) checkEdgeEndpoint(ctx context.Context, field string, taskID, processID uint) error {
	t, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		var nf *domain.NotFoundError
		if errors.As(err, &nf) {
			return &domain.ValidationError{Field: field, Reason: nf.Error()}
		}
		return err
	}
	if t.ProcessID != processID {
		return &domain.CrossProcessError{
			Entity: "task", ID: taskID,
			ProcessID: t.ProcessID, WantProcessID: processID,
		}
	}
	return nil
}

func (s *DefinitionService) CreateWorkflowEdge(ctx context.Context, processID uint, params EdgeParams) (*domain.WorkflowEdge, error) {
	if _, err := s.repo.GetProcess(ctx, processID); err != nil {
		return nil, err
	}
	if params.ConditionType != "" && !params.ConditionType.Valid() {
		return nil, &domain.ValidationError{Field: "condition_type", Reason: "must be one of always, conditional, parallel"}
	}
	if params.ConditionType == domain.ConditionConditional && strings.TrimSpace(params.ConditionExpression) == "" {
		return nil, &domain.ValidationError{Field: "condition_expression", Reason: "required for conditional edges"}
	}
	if params.FromTaskID != nil {
		if err := s.checkEdgeEndpoint(ctx, "from_task_id", *params.FromTaskID, processID); err != nil {
			return nil, err
		}
	}
	if params.ToTaskID != nil {
		if err := s.checkEdgeEndpoint(ctx, "to_task_id", *params.ToTaskID, processID); err != nil {
			return nil, err
		}
	}

	e := domain.NewWorkflowEdge(processID, params.FromTaskID, params.ToTaskID)
	if params.ConditionType != "" {
		e.ConditionType = params.ConditionType
	}
	e.ConditionExpression = params.ConditionExpression
	e.SequenceNumber = params.SequenceNumber

	if err := s.repo.CreateEdge(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *DefinitionService) UpdateWorkflowEdge(ctx context.Context, id uint, upd EdgeUpdate) (*domain.WorkflowEdge, error) {
	e, err := s.repo.GetEdge(ctx, id)
	if err != nil {
		return nil, err
	}

	// Endpoint value 0 clears the endpoint to the process entry/exit point;
	// an omitted field leaves it unchanged.
	if upd.FromTaskID != nil {
		if *upd.FromTaskID == 0 {
			e.FromTaskID = nil
		} else {
			if err := s.checkEdgeEndpoint(ctx, "from_task_id", *upd.FromTaskID, e.ProcessID); err != nil {
				return nil, err
			}
			e.FromTaskID = upd.FromTaskID
		}
	}
	if upd.ToTaskID != nil {
		if *upd.ToTaskID == 0 {
			e.ToTaskID = nil
		} else {
			if err := s.checkEdgeEndpoint(ctx, "to_task_id", *upd.ToTaskID, e.ProcessID); err != nil {
				return nil, err
			}
			e.ToTaskID = upd.ToTaskID
		}
	}

	if upd.ConditionType != nil {
		if !upd.ConditionType.Valid() {
			return nil, &domain.ValidationError{Field: "condition_type", Reason: "must be one of always, conditional, parallel"}
		}
		e.ConditionType = *upd.ConditionType
	}
	if upd.ConditionExpression != nil {
		e.ConditionExpression = *upd.ConditionExpression
	}
	if upd.SequenceNumber != nil {
		e.SequenceNumber = upd.SequenceNumber
	}

	// Re-check the invariant after all edits are applied.
	if e.ConditionType == domain.ConditionConditional && strings.TrimSpace(e.ConditionExpression) == "" {
		return nil, &domain.ValidationError{Field: "condition_expression", Reason: "required for conditional edges"}
	}

	if err := s.repo.SaveEdge(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *DefinitionService) GetWorkflowEdge(ctx context.Context, id uint) (*domain.WorkflowEdge, error) {
	return s.repo.GetEdge(ctx, id)
}

func (s *DefinitionService) ListWorkflowEdges(ctx context.Context, processID uint) ([]domain.WorkflowEdge, error) {
	return s.repo.ListEdges(ctx, processID)
}

func (s *DefinitionService) CreateTaskStep(ctx context.Context, taskID uint, stepNumber int, name string, params StepParams) (*domain.TaskStep, error) {
	if _, err := s.repo.GetTask(ctx, taskID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, &domain.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if stepNumber < 1 {
		return nil, &domain.ValidationError{Field: "step_number", Reason: "must be positive"}
	}
	if params.ExpectedDuration != nil && *params.ExpectedDuration < 0 {
		return nil, &domain.ValidationError{Field: "expected_duration", Reason: "must not be negative"}
	}

	step := domain.NewTaskStep(taskID, stepNumber, name)
	step.Description = params.Description
	step.ExpectedDuration = params.ExpectedDuration
	step.VerificationMethod = params.VerificationMethod
	if len(params.RequiredResources) > 0 {
		raw, err := json.Marshal(params.RequiredResources)
		if err != nil {
			return nil, err
		}
		step.RequiredResources = datatypes.JSON(raw)
	}

	if err := s.repo.CreateStep(ctx, step); err != nil {
		return nil, err
	}
	return step, nil
}

func (s *DefinitionService) UpdateTaskStep(ctx context.Context, id uint, upd StepUpdate) (*domain.TaskStep, error) {
	step, err := s.repo.GetStep(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		if strings.TrimSpace(*upd.Name) == "" {
			return nil, &domain.ValidationError{Field: "name", Reason: "must not be empty"}
		}
		step.Name = *upd.Name
	}
	if upd.Description != nil {
		step.Description = *upd.Description
	}
	if upd.ExpectedDuration != nil {
		if *upd.ExpectedDuration < 0 {
			return nil, &domain.ValidationError{Field: "expected_duration", Reason: "must not be negative"}
		}
		step.ExpectedDuration = upd.ExpectedDuration
	}
	if upd.RequiredResources != nil {
		raw, err := json.Marshal(upd.RequiredResources)
		if err != nil {
			return nil, err
		}
		step.RequiredResources = datatypes.JSON(raw)
	}
	if upd.VerificationMethod != nil {
		step.VerificationMethod = *upd.VerificationMethod
	}

	if err := s.repo.SaveStep(ctx, step); err != nil {
		return nil, err
	}
	return step, nil
}

// ReorderTaskSteps renumbers a task's steps to follow orderedIDs. Every
// existing step of the task must appear exactly once.
func (s *DefinitionService) ReorderTaskSteps(ctx context.Context, taskID uint, orderedIDs []uint) error {
	if _, err := s.repo.GetTask(ctx, taskID); err != nil {
		return err
	}
	steps, err := s.repo.ListSteps(ctx, taskID)
	if err != nil {
		return err
	}
	if len(orderedIDs) != len(steps) {
		return &domain.ValidationError{Field: "step_ids", Reason: "must list every step of the task exactly once"}
	}

	// Length alone does not rule out duplicates or foreign ids; either would
	// renumber the same row twice and leave another step untouched.
	members := make(map[uint]bool, len(steps))
	for _, step := range steps {
		members[step.ID] = true
	}
	seen := make(map[uint]bool, len(orderedIDs))
	for _, stepID := range orderedIDs {
		if !members[stepID] {
			return &domain.ValidationError{
				Field:  "step_ids",
				Reason: fmt.Sprintf("step %d does not belong to task %d", stepID, taskID),
			}
		}
		if seen[stepID] {
			return &domain.ValidationError{
				Field:  "step_ids",
				Reason: fmt.Sprintf("step %d listed more than once", stepID),
			}
		}
		seen[stepID] = true
	}

	return s.repo.ReorderSteps(ctx, taskID, orderedIDs)
}

func (s *DefinitionService) ListTaskSteps(ctx context.Context, taskID uint) ([]domain.TaskStep, error) {
	return s.repo.ListSteps(ctx, taskID)
}

func (s *DefinitionService) CreateObjective(ctx context.Context, title, description string, params ObjectiveParams) (*domain.Objective, error) {
	if strings.TrimSpace(title) == "" {
		return nil, &domain.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if params.ParentID != nil {
		if _, err := s.repo.GetObjective(ctx, *params.ParentID); err != nil {
			return nil, err
		}
	}

	o := domain.NewObjective(title, description)
	o.Measure = params.Measure
	o.TargetValue = params.TargetValue
	o.CurrentValue = params.CurrentValue
	o.TimeFrame = params.TimeFrame
	o.ParentID = params.ParentID

	if err := s.repo.CreateObjective(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *DefinitionService) UpdateObjective(ctx context.Context, id uint, upd ObjectiveUpdate) (*domain.Objective, error) {
	o, err := s.repo.GetObjective(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Status != nil && !upd.Status.Valid() {
		return nil, &domain.ValidationError{Field: "status", Reason: "must be one of in_progress, achieved, not_achieved, cancelled"}
	}
	if upd.Title != nil {
		if strings.TrimSpace(*upd.Title) == "" {
			return nil, &domain.ValidationError{Field: "title", Reason: "must not be empty"}
		}
		o.Title = *upd.Title
	}
	if upd.Description != nil {
		o.Description = *upd.Description
	}
	if upd.Measure != nil {
		o.Measure = *upd.Measure
	}
	if upd.TargetValue != nil {
		o.TargetValue = upd.TargetValue
	}
	if upd.CurrentValue != nil {
		o.CurrentValue = upd.CurrentValue
	}
	if upd.TimeFrame != nil {
		o.TimeFrame = *upd.TimeFrame
	}
	if upd.Status != nil {
		o.Status = *upd.Status
	}

	if err := s.repo.SaveObjective(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// LinkObjectiveProcess records that a process contributes to an objective.
func (s *DefinitionService) LinkObjectiveProcess(ctx context.Context, objectiveID, processID uint, weight *float64) error {
	if _, err := s.repo.GetObjective(ctx, objectiveID); err != nil {
		return err
	}
	if _, err := s.repo.GetProcess(ctx, processID); err != nil {
		return err
	}
	return s.repo.LinkObjectiveProcess(ctx, &domain.ObjectiveProcess{
		ObjectiveID:        objectiveID,
		ProcessID:          processID,
		ContributionWeight: weight,
	})
}

func (s *DefinitionService) ListObjectiveLinks(ctx context.Context, objectiveID uint) ([]domain.ObjectiveProcess, error) {
	if _, err := s.repo.GetObjective(ctx, objectiveID); err != nil {
		return nil, err
	}
	return s.repo.ListObjectiveLinks(ctx, objectiveID)
}

func (s *DefinitionService) GetObjective(ctx context.Context, id uint) (*domain.Objective, error) {
	return s.repo.GetObjective(ctx, id)
}

func (s *DefinitionService) ListObjectives(ctx context.Context) ([]domain.Objective, error) {
	return s.repo.ListObjectives(ctx)
}
