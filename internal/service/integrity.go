package service

import (
	"context"
	"log/slog"

	"taskman/internal/core/ports"
	"taskman/internal/domain"
	applog "taskman/internal/log"
	"taskman/internal/metrics"
)

// IntegrityService routes every deletion through one policy: a delete with
// dependents is rejected before any row is touched, unless the caller passes
// the force flag, and even force never reaches across live task instances.
type IntegrityService struct {
	defs  ports.DefinitionRepository
	insts ports.InstanceRepository
	log   *slog.Logger
}

func NewIntegrityService(defs ports.DefinitionRepository, insts ports.InstanceRepository) *IntegrityService {
	return &IntegrityService{
		defs:  defs,
		insts: insts,
		log:   applog.WithModule("integrity"),
	}
}

func (s *IntegrityService) blocked(entity string) {
	metrics.DeletionsTotal.WithLabelValues(entity, "blocked").Inc()
}

func (s *IntegrityService) deleted(entity string, id uint) {
	metrics.DeletionsTotal.WithLabelValues(entity, "deleted").Inc()
	s.log.Info("deleted", "entity", entity, "id", id)
}

// DeleteProcess removes a process definition. Without force, any owned task
// or instance blocks it. With force, the cascade still stops if task
// instances reference the process's tasks: those live runs keep their task
// rows pinned.
func (s *IntegrityService) DeleteProcess(ctx context.Context, id uint, force bool) error {
	if _, err := s.defs.GetProcess(ctx, id); err != nil {
		return err
	}

	taskCount, err := s.defs.CountTasks(ctx, id)
	if err != nil {
		return err
	}
	instanceCount, err := s.defs.CountProcessInstances(ctx, id)
	if err != nil {
		return err
	}

	if !force && (taskCount > 0 || instanceCount > 0) {
		var deps []domain.Dependent
		if taskCount > 0 {
			deps = append(deps, domain.Dependent{Kind: "tasks", Count: taskCount})
		}
		if instanceCount > 0 {
			deps = append(deps, domain.Dependent{Kind: "process instances", Count: instanceCount})
		}
		s.blocked("process")
		return &domain.DependencyError{Entity: "process", ID: id, Dependents: deps}
	}

	refs, err := s.insts.CountTaskInstancesByProcess(ctx, id)
	if err != nil {
		return err
	}
	if refs > 0 {
		s.blocked("process")
		return &domain.DependencyError{
			Entity: "process", ID: id,
			Dependents: []domain.Dependent{{Kind: "task instances", Count: refs}},
		}
	}

	if err := s.defs.DeleteProcessCascade(ctx, id); err != nil {
		return err
	}
	s.deleted("process", id)
	return nil
}

// DeleteTask removes a task definition together with its steps and the edges
// touching it. Referencing task instances always block; force does not reach
// across them.
func (s *IntegrityService) DeleteTask(ctx context.Context, id uint) error {
	if _, err := s.defs.GetTask(ctx, id); err != nil {
		return err
	}

	refs, err := s.insts.CountTaskInstancesByTask(ctx, id)
	if err != nil {
		return err
	}
	if refs > 0 {
		s.blocked("task")
		return &domain.DependencyError{
			Entity: "task", ID: id,
			Dependents: []domain.Dependent{{Kind: "task instances", Count: refs}},
		}
	}

	if err := s.defs.DeleteTaskCascade(ctx, id); err != nil {
		return err
	}
	s.deleted("task", id)
	return nil
}

func (s *IntegrityService) DeleteWorkflowEdge(ctx context.Context, id uint) error {
	if _, err := s.defs.GetEdge(ctx, id); err != nil {
		return err
	}
	if err := s.defs.DeleteEdge(ctx, id); err != nil {
		return err
	}
	s.deleted("workflow edge", id)
	return nil
}

// DeleteProcessInstance removes an instance. Owned task instances block it
// unless force is set, in which case they are deleted first, in the same
// transaction.
func (s *IntegrityService) DeleteProcessInstance(ctx context.Context, id uint, force bool) error {
	if _, err := s.insts.GetInstance(ctx, id); err != nil {
		return err
	}

	total, _, err := s.insts.CountTaskInstances(ctx, id)
	if err != nil {
		return err
	}
	if total > 0 && !force {
		s.blocked("process instance")
		return &domain.DependencyError{
			Entity: "process instance", ID: id,
			Dependents: []domain.Dependent{{Kind: "task instances", Count: total}},
		}
	}

	if err := s.insts.DeleteInstanceCascade(ctx, id); err != nil {
		return err
	}
	s.deleted("process instance", id)
	return nil
}

// DeleteTaskInstance refuses to remove a running task instance unless forced.
func (s *IntegrityService) DeleteTaskInstance(ctx context.Context, id uint, force bool) error {
	ti, err := s.insts.GetTaskInstance(ctx, id)
	if err != nil {
		return err
	}

	if ti.Status == domain.TaskInstanceRunning && !force {
		s.blocked("task instance")
		return &domain.StatePreventsDeletionError{
			Entity: "task instance", ID: id, Status: string(ti.Status),
		}
	}

	if err := s.insts.DeleteTaskInstance(ctx, id); err != nil {
		return err
	}
	s.deleted("task instance", id)
	return nil
}

// DeleteObjective blocks on sub-objectives unless forced; force cascades the
// direct children and every process link.
func (s *IntegrityService) DeleteObjective(ctx context.Context, id uint, force bool) error {
	if _, err := s.defs.GetObjective(ctx, id); err != nil {
		return err
	}

	children, err := s.defs.CountChildObjectives(ctx, id)
	if err != nil {
		return err
	}
	if children > 0 && !force {
		s.blocked("objective")
		return &domain.DependencyError{
			Entity: "objective", ID: id,
			Dependents: []domain.Dependent{{Kind: "sub-objectives", Count: children}},
		}
	}

	if err := s.defs.DeleteObjectiveCascade(ctx, id); err != nil {
		return err
	}
	s.deleted("objective", id)
	return nil
}

func (s *IntegrityService) DeleteTaskStep(ctx context.Context, id uint) error {
	if _, err := s.defs.GetStep(ctx, id); err != nil {
		return err
	}
	if err := s.defs.DeleteStep(ctx, id); err != nil {
		return err
	}
	s.deleted("task step", id)
	return nil
}
