package domain

import "time"

type TaskStatus string

const (
	TaskNotStarted TaskStatus = "not_started"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
	TaskOnHold     TaskStatus = "on_hold"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskNotStarted, TaskInProgress, TaskDone, TaskOnHold:
		return true
	}
	return false
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Task is a definition-level unit of work owned by exactly one Process.
// Status here is the template default, not the live state of any run;
// that lives on TaskInstance.
type Task struct {
	ID                uint         `gorm:"primaryKey"`
	ProcessID         uint         `gorm:"index;not null"`
	Name              string       `gorm:"type:varchar(100);not null"`
	Description       string       `gorm:"type:text"`
	EstimatedDuration *int         // in minutes
	Status            TaskStatus   `gorm:"type:varchar(20);default:'not_started'"`
	Priority          TaskPriority `gorm:"type:varchar(20);default:'medium'"`
	AssignedTo        string       `gorm:"type:varchar(100)"`
	DueDate           *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewTask(processID uint, name string) *Task {
	return &Task{
		ProcessID: processID,
		Name:      name,
		Status:    TaskNotStarted,
		Priority:  PriorityMedium,
	}
}
