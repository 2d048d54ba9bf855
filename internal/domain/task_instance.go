package domain

import "time"

type TaskInstanceStatus string

const (
	TaskInstanceNotStarted TaskInstanceStatus = "not_started"
	TaskInstanceRunning    TaskInstanceStatus = "running"
	TaskInstanceCompleted  TaskInstanceStatus = "completed"
	TaskInstanceSuspended  TaskInstanceStatus = "suspended"
	TaskInstanceFailed     TaskInstanceStatus = "failed"
)

func (s TaskInstanceStatus) Valid() bool {
	switch s {
	case TaskInstanceNotStarted, TaskInstanceRunning, TaskInstanceCompleted,
		TaskInstanceSuspended, TaskInstanceFailed:
		return true
	}
	return false
}

func (s TaskInstanceStatus) IsTerminal() bool {
	return s == TaskInstanceCompleted || s == TaskInstanceSuspended || s == TaskInstanceFailed
}

// TaskInstance is one runtime execution of a Task within a ProcessInstance.
// StartedAt and CompletedAt are set-once fields: the status machine allows
// arbitrary transitions within the enum, only the timestamps are irreversible.
type TaskInstance struct {
	ID                uint               `gorm:"primaryKey"`
	ProcessInstanceID uint               `gorm:"index;not null"`
	TaskID            uint               `gorm:"index;not null"`
	Status            TaskInstanceStatus `gorm:"type:varchar(20);index;default:'not_started'"`
	AssignedTo        string             `gorm:"type:varchar(100)"`
	StartedAt         *time.Time         // first departure from not_started
	CompletedAt       *time.Time         // first terminal transition
	Notes             string             `gorm:"type:text"`
	Version           int                `gorm:"default:1"` // optimistic concurrency token

	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewTaskInstance(processInstanceID, taskID uint) *TaskInstance {
	return &TaskInstance{
		ProcessInstanceID: processInstanceID,
		TaskID:            taskID,
		Status:            TaskInstanceNotStarted,
		Version:           1,
	}
}
