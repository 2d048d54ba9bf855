package service

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"time"

	"taskman/internal/core/ports"
	"taskman/internal/domain"
	applog "taskman/internal/log"
	"taskman/internal/metrics"
)

// InstanceService is the execution engine: it spawns instances from active
// processes, drives the two status machines, and computes progress at read
// time. Nothing here advances on its own; every transition is an explicit
// caller action.
type InstanceService struct {
	defs  ports.DefinitionRepository
	insts ports.InstanceRepository
	bus   ports.EventBus
	log   *slog.Logger
}

func NewInstanceService(defs ports.DefinitionRepository, insts ports.InstanceRepository, bus ports.EventBus) *InstanceService {
	return &InstanceService{
		defs:  defs,
		insts: insts,
		bus:   bus,
		log:   applog.WithModule("instance"),
	}
}

// publish broadcasts a committed transition. Best effort: the transition has
// already committed, so a bus failure is logged and swallowed.
func (s *InstanceService) publish(ctx context.Context, event domain.StatusChangedEvent) {
	if s.bus == nil {
		return
	}
	if err := s.bus.PublishStatusChanged(ctx, event); err != nil {
		s.log.Warn("event publish failed", "entity", event.Entity, "entity_id", event.EntityID, "error", err)
	}
}

// CreateProcessInstance spawns a run of an active process.
func (s *InstanceService) CreateProcessInstance(ctx context.Context, processID uint, createdBy string) (*domain.ProcessInstance, error) {
	p, err := s.defs.GetProcess(ctx, processID)
	if err != nil {
		return nil, err
	}
	if p.Status != domain.ProcessActive {
		return nil, &domain.PreconditionError{
			Entity: "process", ID: processID,
			Reason: "only an active process can be instantiated",
		}
	}

	pi := domain.NewProcessInstance(processID, createdBy)
	if err := s.insts.CreateInstance(ctx, pi); err != nil {
		return nil, err
	}

	metrics.InstancesCreatedTotal.WithLabelValues(strconv.FormatUint(uint64(processID), 10)).Inc()
	s.log.Info("process instance created", "instance_id", pi.ID, "process_id", processID, "created_by", createdBy)
	return pi, nil
}

// TransitionProcessInstance moves an instance to newStatus. The first
// transition into a terminal status stamps CompletedAt; repeating a terminal
// transition leaves the stamp untouched.
func (s *InstanceService) TransitionProcessInstance(ctx context.Context, id uint, newStatus domain.InstanceStatus) (*domain.ProcessInstance, error) {
	if !newStatus.Valid() {
		return nil, &domain.InvalidTransitionError{Entity: "process instance", Status: string(newStatus)}
	}

	var oldStatus domain.InstanceStatus
	pi, err := s.insts.TransitionInstance(ctx, id, func(pi *domain.ProcessInstance) error {
		oldStatus = pi.Status
		pi.Status = newStatus
		if newStatus.IsTerminal() && pi.CompletedAt == nil {
			now := time.Now()
			pi.CompletedAt = &now
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.TransitionsTotal.WithLabelValues(string(domain.EntityProcessInstance), string(newStatus)).Inc()
	s.publish(ctx, domain.NewStatusChangedEvent(
		domain.EntityProcessInstance, pi.ID, pi.ProcessID, string(oldStatus), string(newStatus)))
	return pi, nil
}

func (s *InstanceService) GetProcessInstance(ctx context.Context, id uint) (*domain.ProcessInstance, error) {
	return s.insts.GetInstance(ctx, id)
}

func (s *InstanceService) ListProcessInstances(ctx context.Context, f ports.ProcessInstanceFilter) ([]domain.ProcessInstance, error) {
	return s.insts.ListInstances(ctx, f)
}

// CreateTaskInstance attaches a run of a task to a process instance. The task
// must belong to the same process the instance was created from.
func (s *InstanceService) CreateTaskInstance(ctx context.Context, processInstanceID, taskID uint, assignedTo, notes string) (*domain.TaskInstance, error) {
	pi, err := s.insts.GetInstance(ctx, processInstanceID)
	if err != nil {
		return nil, err
	}
	t, err := s.defs.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if t.ProcessID != pi.ProcessID {
		return nil, &domain.CrossProcessError{
			Entity: "task", ID: taskID,
			ProcessID: t.ProcessID, WantProcessID: pi.ProcessID,
		}
	}

	ti := domain.NewTaskInstance(processInstanceID, taskID)
	ti.AssignedTo = assignedTo
	ti.Notes = notes
	if err := s.insts.CreateTaskInstance(ctx, ti); err != nil {
		return nil, err
	}

	s.log.Info("task instance created", "task_instance_id", ti.ID, "instance_id", processInstanceID, "task_id", taskID)
	return ti, nil
}

// UpdateTaskInstance edits the bookkeeping fields. Status changes go through
// TransitionTaskInstance only.
func (s *InstanceService) UpdateTaskInstance(ctx context.Context, id uint, assignedTo, notes *string) (*domain.TaskInstance, error) {
	ti, err := s.insts.GetTaskInstance(ctx, id)
	if err != nil {
		return nil, err
	}
	if assignedTo != nil {
		ti.AssignedTo = *assignedTo
	}
	if notes != nil {
		ti.Notes = *notes
	}
	if err := s.insts.SaveTaskInstance(ctx, ti); err != nil {
		return nil, err
	}
	return ti, nil
}

// TransitionTaskInstance moves a task instance to newStatus. StartedAt is
// stamped on the first departure from not_started, even when the transition
// goes straight to a terminal status; CompletedAt on the first terminal
// transition. Both stamps are set-once.
func (s *InstanceService) TransitionTaskInstance(ctx context.Context, id uint, newStatus domain.TaskInstanceStatus) (*domain.TaskInstance, error) {
	if !newStatus.Valid() {
		return nil, &domain.InvalidTransitionError{Entity: "task instance", Status: string(newStatus)}
	}

	var oldStatus domain.TaskInstanceStatus
	ti, err := s.insts.TransitionTaskInstance(ctx, id, func(ti *domain.TaskInstance) error {
		oldStatus = ti.Status
		now := time.Now()
		if ti.Status == domain.TaskInstanceNotStarted && newStatus != domain.TaskInstanceNotStarted && ti.StartedAt == nil {
			ti.StartedAt = &now
		}
		if newStatus.IsTerminal() && ti.CompletedAt == nil {
			ti.CompletedAt = &now
		}
		ti.Status = newStatus
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.TransitionsTotal.WithLabelValues(string(domain.EntityTaskInstance), string(newStatus)).Inc()

	processID := uint(0)
	if pi, err := s.insts.GetInstance(ctx, ti.ProcessInstanceID); err == nil {
		processID = pi.ProcessID
	} else {
		s.log.Warn("process lookup for event failed",
			"task_instance_id", ti.ID, "instance_id", ti.ProcessInstanceID, "error", err)
	}
	s.publish(ctx, domain.NewStatusChangedEvent(
		domain.EntityTaskInstance, ti.ID, processID, string(oldStatus), string(newStatus)))
	return ti, nil
}

func (s *InstanceService) GetTaskInstance(ctx context.Context, id uint) (*domain.TaskInstance, error) {
	return s.insts.GetTaskInstance(ctx, id)
}

func (s *InstanceService) ListTaskInstances(ctx context.Context, f ports.TaskInstanceFilter) ([]domain.TaskInstance, error) {
	return s.insts.ListTaskInstances(ctx, f)
}

// Progress returns the percentage of completed task instances, rounded
// half-up, and 0 for an instance with no task instances. Derived on read,
// never stored.
func (s *InstanceService) Progress(ctx context.Context, processInstanceID uint) (int, error) {
	if _, err := s.insts.GetInstance(ctx, processInstanceID); err != nil {
		return 0, err
	}
	total, completed, err := s.insts.CountTaskInstances(ctx, processInstanceID)
	if err != nil {
		return 0, err
	}
	return progressPercent(completed, total), nil
}

func progressPercent(completed, total int64) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(completed) / float64(total)))
}
