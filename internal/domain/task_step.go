package domain

import (
	"time"

	"gorm.io/datatypes"
)

// TaskStep is an ordered sub-step within a Task definition. Steps are
// documentation for the people executing a task; the engine tracks no
// runtime state for them.
type TaskStep struct {
	ID                 uint   `gorm:"primaryKey"`
	TaskID             uint   `gorm:"index;not null"`
	StepNumber         int    `gorm:"not null"`
	Name               string `gorm:"type:varchar(100);not null"`
	Description        string `gorm:"type:text"`
	ExpectedDuration   *int   // in minutes
	RequiredResources  datatypes.JSON
	VerificationMethod string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewTaskStep(taskID uint, stepNumber int, name string) *TaskStep {
	return &TaskStep{
		TaskID:     taskID,
		StepNumber: stepNumber,
		Name:       name,
	}
}
