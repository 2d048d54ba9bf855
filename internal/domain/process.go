package domain

import "time"

type ProcessStatus string

const (
	ProcessDraft    ProcessStatus = "draft"
	ProcessActive   ProcessStatus = "active"
	ProcessInactive ProcessStatus = "inactive"
)

func (s ProcessStatus) Valid() bool {
	switch s {
	case ProcessDraft, ProcessActive, ProcessInactive:
		return true
	}
	return false
}

// Process is a reusable workflow definition made of Tasks and WorkflowEdges.
// Instances reference it by id only; editing a Process never retargets them.
type Process struct {
	ID          uint          `gorm:"primaryKey"`
	Name        string        `gorm:"type:varchar(100);not null"`
	Description string        `gorm:"type:text"`
	Version     int           `gorm:"default:1"`
	Status      ProcessStatus `gorm:"type:varchar(20);index;default:'draft'"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// --- FACTORY ---
func NewProcess(name, description string) *Process {
	return &Process{
		Name:        name,
		Description: description,
		Version:     1,
		Status:      ProcessDraft,
	}
}

// --- METHODS ---
// CanActivate reports whether the process may transition to Active.
func (p *Process) CanActivate() bool {
	return p.Status == ProcessDraft || p.Status == ProcessInactive
}
