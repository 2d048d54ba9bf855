package domain

import "time"

type ConditionType string

const (
	ConditionAlways      ConditionType = "always"
	ConditionConditional ConditionType = "conditional"
	ConditionParallel    ConditionType = "parallel"
)

func (c ConditionType) Valid() bool {
	switch c {
	case ConditionAlways, ConditionConditional, ConditionParallel:
		return true
	}
	return false
}

// WorkflowEdge is a directed transition between two Tasks of the same Process.
// A nil FromTaskID marks the process entry point, a nil ToTaskID the exit point.
// Conditional and parallel edges are recorded as metadata only; the engine never
// evaluates ConditionExpression and never auto-advances along edges.
type WorkflowEdge struct {
	ID                  uint          `gorm:"primaryKey"`
	ProcessID           uint          `gorm:"index;not null"`
	FromTaskID          *uint         `gorm:"index"`
	ToTaskID            *uint         `gorm:"index"`
	ConditionType       ConditionType `gorm:"type:varchar(20);default:'always'"`
	ConditionExpression string        `gorm:"type:text"`
	SequenceNumber      *int          // orders parallel branches

	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewWorkflowEdge(processID uint, fromTaskID, toTaskID *uint) *WorkflowEdge {
	return &WorkflowEdge{
		ProcessID:     processID,
		FromTaskID:    fromTaskID,
		ToTaskID:      toTaskID,
		ConditionType: ConditionAlways,
	}
}
