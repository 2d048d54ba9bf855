package domain

import "time"

type ObjectiveStatus string

const (
	ObjectiveInProgress  ObjectiveStatus = "in_progress"
	ObjectiveAchieved    ObjectiveStatus = "achieved"
	ObjectiveNotAchieved ObjectiveStatus = "not_achieved"
	ObjectiveCancelled   ObjectiveStatus = "cancelled"
)

func (s ObjectiveStatus) Valid() bool {
	switch s {
	case ObjectiveInProgress, ObjectiveAchieved, ObjectiveNotAchieved, ObjectiveCancelled:
		return true
	}
	return false
}

// Objective is a measurable goal. Objectives form a tree through ParentID and
// link to the Processes that contribute to them.
type Objective struct {
	ID           uint            `gorm:"primaryKey"`
	Title        string          `gorm:"type:varchar(200);not null"`
	Description  string          `gorm:"type:text"`
	Measure      string          `gorm:"type:varchar(100)"`
	TargetValue  *float64
	CurrentValue *float64
	TimeFrame    string          `gorm:"type:varchar(50)"`
	Status       ObjectiveStatus `gorm:"type:varchar(20);default:'in_progress'"`
	ParentID     *uint           `gorm:"index"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewObjective(title, description string) *Objective {
	return &Objective{
		Title:       title,
		Description: description,
		Status:      ObjectiveInProgress,
	}
}

// ObjectiveProcess links an Objective to a Process that contributes to it.
type ObjectiveProcess struct {
	ObjectiveID        uint `gorm:"primaryKey;autoIncrement:false"`
	ProcessID          uint `gorm:"primaryKey;autoIncrement:false"`
	ContributionWeight *float64
}
