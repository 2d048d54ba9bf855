package dto

import "time"

// Request bodies. Pointer fields distinguish "omitted" from the zero value on
// partial updates; endpoint ids use 0 as the explicit "clear to entry/exit
// point" sentinel.

type CreateProcessRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type UpdateProcessRequest struct {
	Name             *string `json:"name"`
	Description      *string `json:"description"`
	Status           *string `json:"status"`
	IncrementVersion bool    `json:"increment_version"`
}

type CreateTaskRequest struct {
	ProcessID         uint       `json:"process_id" binding:"required"`
	Name              string     `json:"name" binding:"required"`
	Description       string     `json:"description"`
	EstimatedDuration *int       `json:"estimated_duration"`
	Priority          string     `json:"priority"`
	Status            string     `json:"status"`
	AssignedTo        string     `json:"assigned_to"`
	DueDate           *time.Time `json:"due_date"`
}

type UpdateTaskRequest struct {
	Name              *string    `json:"name"`
	Description       *string    `json:"description"`
	EstimatedDuration *int       `json:"estimated_duration"`
	Priority          *string    `json:"priority"`
	Status            *string    `json:"status"`
	AssignedTo        *string    `json:"assigned_to"`
	DueDate           *time.Time `json:"due_date"`
}

type CreateWorkflowEdgeRequest struct {
	ProcessID           uint   `json:"process_id" binding:"required"`
	FromTaskID          *uint  `json:"from_task_id"`
	ToTaskID            *uint  `json:"to_task_id"`
	ConditionType       string `json:"condition_type"`
	ConditionExpression string `json:"condition_expression"`
	SequenceNumber      *int   `json:"sequence_number"`
}

type UpdateWorkflowEdgeRequest struct {
	FromTaskID          *uint   `json:"from_task_id"`
	ToTaskID            *uint   `json:"to_task_id"`
	ConditionType       *string `json:"condition_type"`
	ConditionExpression *string `json:"condition_expression"`
	SequenceNumber      *int    `json:"sequence_number"`
}

type CreateTaskStepRequest struct {
	TaskID             uint     `json:"task_id" binding:"required"`
	StepNumber         int      `json:"step_number" binding:"required,min=1"`
	Name               string   `json:"name" binding:"required"`
	Description        string   `json:"description"`
	ExpectedDuration   *int     `json:"expected_duration"`
	RequiredResources  []string `json:"required_resources"`
	VerificationMethod string   `json:"verification_method"`
}

type UpdateTaskStepRequest struct {
	Name               *string  `json:"name"`
	Description        *string  `json:"description"`
	ExpectedDuration   *int     `json:"expected_duration"`
	RequiredResources  []string `json:"required_resources"`
	VerificationMethod *string  `json:"verification_method"`
}

type ReorderTaskStepsRequest struct {
	StepIDs []uint `json:"step_ids" binding:"required,min=1"`
}

type CreateObjectiveRequest struct {
	Title        string   `json:"title" binding:"required"`
	Description  string   `json:"description"`
	Measure      string   `json:"measure"`
	TargetValue  *float64 `json:"target_value"`
	CurrentValue *float64 `json:"current_value"`
	TimeFrame    string   `json:"time_frame"`
	ParentID     *uint    `json:"parent_id"`
}

type UpdateObjectiveRequest struct {
	Title        *string  `json:"title"`
	Description  *string  `json:"description"`
	Measure      *string  `json:"measure"`
	TargetValue  *float64 `json:"target_value"`
	CurrentValue *float64 `json:"current_value"`
	TimeFrame    *string  `json:"time_frame"`
	Status       *string  `json:"status"`
}

type LinkObjectiveProcessRequest struct {
	ProcessID          uint     `json:"process_id" binding:"required"`
	ContributionWeight *float64 `json:"contribution_weight"`
}

type CreateProcessInstanceRequest struct {
	ProcessID uint   `json:"process_id" binding:"required"`
	CreatedBy string `json:"created_by"`
}

type CreateTaskInstanceRequest struct {
	ProcessInstanceID uint   `json:"process_instance_id" binding:"required"`
	TaskID            uint   `json:"task_id" binding:"required"`
	AssignedTo        string `json:"assigned_to"`
	Notes             string `json:"notes"`
}

type UpdateTaskInstanceRequest struct {
	AssignedTo *string `json:"assigned_to"`
	Notes      *string `json:"notes"`
}

type TransitionRequest struct {
	Status string `json:"status" binding:"required"`
}

type ProgressResponse struct {
	ProcessInstanceID uint `json:"process_instance_id"`
	Progress          int  `json:"progress"`
}
