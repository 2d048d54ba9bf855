package domain

import "time"

// Read-model types for the monitor. All of these are computed at read time
// from the instance tables; nothing here is ever stored.

type DashboardSummary struct {
	RunningInstances   int64          `json:"running_instances"`
	CompletedInstances int64          `json:"completed_instances"`
	OverdueTasks       int64          `json:"overdue_tasks"`
	DueTodayTasks      int64          `json:"due_today_tasks"`
	ProcessTallies     []ProcessTally `json:"process_tallies"`
}

// ProcessTally is the per-process-definition instance breakdown.
type ProcessTally struct {
	ProcessID      uint   `json:"process_id"`
	ProcessName    string `json:"process_name"`
	ActiveCount    int64  `json:"active_count"`
	CompletedCount int64  `json:"completed_count"`
}

// InstanceProgress is a running instance with its derived progress percent.
type InstanceProgress struct {
	InstanceID     uint           `json:"instance_id"`
	ProcessID      uint           `json:"process_id"`
	ProcessName    string         `json:"process_name"`
	Status         InstanceStatus `json:"status"`
	TotalTasks     int64          `json:"total_tasks"`
	CompletedTasks int64          `json:"completed_tasks"`
	Progress       int            `json:"progress"`
	StartedAt      time.Time      `json:"started_at"`
	CreatedBy      string         `json:"created_by,omitempty"`
}

// WorkflowStepView is a workflow edge enriched with task names through
// explicit lookups. Nil endpoints render as the process entry/exit point.
type WorkflowStepView struct {
	EdgeID         uint          `json:"edge_id"`
	FromTaskID     *uint         `json:"from_task_id"`
	FromTaskName   string        `json:"from_task_name"`
	ToTaskID       *uint         `json:"to_task_id"`
	ToTaskName     string        `json:"to_task_name"`
	ConditionType  ConditionType `json:"condition_type"`
	SequenceNumber *int          `json:"sequence_number,omitempty"`
}

// ActivityEntry is one row of the recent-activity feed: the latest status
// changes across all task instances, newest first.
type ActivityEntry struct {
	TaskInstanceID uint               `json:"task_instance_id"`
	TaskName       string             `json:"task_name"`
	Status         TaskInstanceStatus `json:"status"`
	ChangedAt      time.Time          `json:"changed_at"`
}
