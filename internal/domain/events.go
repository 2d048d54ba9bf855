package domain

import (
	"time"

	"github.com/google/uuid"
)

type EntityKind string

const (
	EntityProcessInstance EntityKind = "process_instance"
	EntityTaskInstance    EntityKind = "task_instance"
)

// StatusChangedEvent is published to Redis Pub/Sub after a status transition
// commits. Consumers (the monitor, dashboards) use it to refresh their views;
// the engine itself never reacts to events.
type StatusChangedEvent struct {
	EventID   uuid.UUID  `json:"event_id"`
	Entity    EntityKind `json:"entity"`
	EntityID  uint       `json:"entity_id"`
	ProcessID uint       `json:"process_id"`
	OldStatus string     `json:"old_status"`
	NewStatus string     `json:"new_status"`
	At        time.Time  `json:"at"`
}

func NewStatusChangedEvent(entity EntityKind, entityID, processID uint, oldStatus, newStatus string) StatusChangedEvent {
	return StatusChangedEvent{
		EventID:   uuid.New(),
		Entity:    entity,
		EntityID:  entityID,
		ProcessID: processID,
		OldStatus: oldStatus,
		NewStatus: newStatus,
		At:        time.Now(),
	}
}
