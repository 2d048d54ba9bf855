package domain

import "time"

type InstanceStatus string

const (
	InstanceRunning   InstanceStatus = "running"
	InstanceCompleted InstanceStatus = "completed"
	InstanceSuspended InstanceStatus = "suspended"
	InstanceFailed    InstanceStatus = "failed"
)

func (s InstanceStatus) Valid() bool {
	switch s {
	case InstanceRunning, InstanceCompleted, InstanceSuspended, InstanceFailed:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is expected from s.
func (s InstanceStatus) IsTerminal() bool {
	return s == InstanceCompleted || s == InstanceSuspended || s == InstanceFailed
}

// ProcessInstance is one runtime execution of a Process. It keeps the
// process_id it was created against even if the definition evolves later.
type ProcessInstance struct {
	ID          uint           `gorm:"primaryKey"`
	ProcessID   uint           `gorm:"index;not null"`
	Status      InstanceStatus `gorm:"type:varchar(20);index;default:'running'"`
	StartedAt   time.Time
	CompletedAt *time.Time // set once, on the first terminal transition
	CreatedBy   string     `gorm:"type:varchar(100)"`
	Version     int        `gorm:"default:1"` // optimistic concurrency token

	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewProcessInstance(processID uint, createdBy string) *ProcessInstance {
	return &ProcessInstance{
		ProcessID: processID,
		Status:    InstanceRunning,
		StartedAt: time.Now(),
		CreatedBy: createdBy,
		Version:   1,
	}
}
