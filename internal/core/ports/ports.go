package ports

import (
	"context"
	"time"

	"taskman/internal/domain"
)

// TaskFilter narrows task listings. Zero values mean "no constraint".
type TaskFilter struct {
	ProcessID  uint
	Status     domain.TaskStatus
	Priority   domain.TaskPriority
	AssignedTo string
}

// ProcessInstanceFilter narrows process instance listings.
type ProcessInstanceFilter struct {
	ProcessID uint
	Status    domain.InstanceStatus
	CreatedBy string
}

// TaskInstanceFilter narrows task instance listings.
type TaskInstanceFilter struct {
	ProcessInstanceID uint
	Status            domain.TaskInstanceStatus
	AssignedTo        string
}

// DefinitionRepository persists the definition layer: processes, tasks,
// workflow edges, task steps, and objectives. Cascade methods run all their
// deletions in a single transaction.
type DefinitionRepository interface {
	CreateProcess(ctx context.Context, p *domain.Process) error
	GetProcess(ctx context.Context, id uint) (*domain.Process, error)
	ListProcesses(ctx context.Context) ([]domain.Process, error)
	SaveProcess(ctx context.Context, p *domain.Process) error
	CountTasks(ctx context.Context, processID uint) (int64, error)
	CountProcessInstances(ctx context.Context, processID uint) (int64, error)
	// DeleteProcessCascade removes edges, steps, tasks, process instances and
	// finally the process itself. Callers must have cleared the deletion with
	// the integrity policy first.
	DeleteProcessCascade(ctx context.Context, id uint) error

	CreateTask(ctx context.Context, t *domain.Task) error
	GetTask(ctx context.Context, id uint) (*domain.Task, error)
	ListTasks(ctx context.Context, f TaskFilter) ([]domain.Task, error)
	SaveTask(ctx context.Context, t *domain.Task) error
	// DeleteTaskCascade removes the task's steps and every edge touching it,
	// then the task.
	DeleteTaskCascade(ctx context.Context, id uint) error

	CreateEdge(ctx context.Context, e *domain.WorkflowEdge) error
	GetEdge(ctx context.Context, id uint) (*domain.WorkflowEdge, error)
	ListEdges(ctx context.Context, processID uint) ([]domain.WorkflowEdge, error)
	SaveEdge(ctx context.Context, e *domain.WorkflowEdge) error
	DeleteEdge(ctx context.Context, id uint) error

	CreateStep(ctx context.Context, s *domain.TaskStep) error
	GetStep(ctx context.Context, id uint) (*domain.TaskStep, error)
	ListSteps(ctx context.Context, taskID uint) ([]domain.TaskStep, error)
	SaveStep(ctx context.Context, s *domain.TaskStep) error
	DeleteStep(ctx context.Context, id uint) error
	// ReorderSteps renumbers a task's steps to match the given step ids, in
	// one transaction.
	ReorderSteps(ctx context.Context, taskID uint, orderedIDs []uint) error

	CreateObjective(ctx context.Context, o *domain.Objective) error
	GetObjective(ctx context.Context, id uint) (*domain.Objective, error)
	ListObjectives(ctx context.Context) ([]domain.Objective, error)
	SaveObjective(ctx context.Context, o *domain.Objective) error
	CountChildObjectives(ctx context.Context, id uint) (int64, error)
	// DeleteObjectiveCascade removes direct children, process links, then the
	// objective.
	DeleteObjectiveCascade(ctx context.Context, id uint) error
	LinkObjectiveProcess(ctx context.Context, link *domain.ObjectiveProcess) error
	ListObjectiveLinks(ctx context.Context, objectiveID uint) ([]domain.ObjectiveProcess, error)
}

// InstanceRepository persists the runtime layer. Transition methods serialize
// concurrent writers on the same row with an optimistic version check.
type InstanceRepository interface {
	CreateInstance(ctx context.Context, pi *domain.ProcessInstance) error
	GetInstance(ctx context.Context, id uint) (*domain.ProcessInstance, error)
	ListInstances(ctx context.Context, f ProcessInstanceFilter) ([]domain.ProcessInstance, error)
	// TransitionInstance fetches the row, applies the mutation, and writes it
	// back guarded by the version column, retrying on conflict.
	TransitionInstance(ctx context.Context, id uint, apply func(*domain.ProcessInstance) error) (*domain.ProcessInstance, error)
	DeleteInstanceCascade(ctx context.Context, id uint) error

	CreateTaskInstance(ctx context.Context, ti *domain.TaskInstance) error
	GetTaskInstance(ctx context.Context, id uint) (*domain.TaskInstance, error)
	ListTaskInstances(ctx context.Context, f TaskInstanceFilter) ([]domain.TaskInstance, error)
	SaveTaskInstance(ctx context.Context, ti *domain.TaskInstance) error
	TransitionTaskInstance(ctx context.Context, id uint, apply func(*domain.TaskInstance) error) (*domain.TaskInstance, error)
	DeleteTaskInstance(ctx context.Context, id uint) error

	// CountTaskInstances returns total and completed counts for one process
	// instance, for the progress computation.
	CountTaskInstances(ctx context.Context, processInstanceID uint) (total, completed int64, err error)
	CountTaskInstancesByTask(ctx context.Context, taskID uint) (int64, error)
	// CountTaskInstancesByProcess counts task instances referencing any task
	// of the given process, the force-delete blocker.
	CountTaskInstancesByProcess(ctx context.Context, processID uint) (int64, error)
}

// DashboardRepository serves the monitor's read-side aggregations. Time
// boundaries are computed by the caller so "today" stays testable.
type DashboardRepository interface {
	CountInstancesByStatus(ctx context.Context, status domain.InstanceStatus) (int64, error)
	CountPendingTaskInstancesBefore(ctx context.Context, cutoff time.Time) (int64, error)
	CountPendingTaskInstancesBetween(ctx context.Context, from, to time.Time) (int64, error)
	ProcessTallies(ctx context.Context) ([]domain.ProcessTally, error)
	RunningInstanceCounts(ctx context.Context) ([]domain.InstanceProgress, error)
	WorkflowSteps(ctx context.Context, processID uint) ([]domain.WorkflowStepView, error)
	RecentActivity(ctx context.Context, limit int) ([]domain.ActivityEntry, error)
}

// EventBus broadcasts committed status transitions to external consumers.
type EventBus interface {
	PublishStatusChanged(ctx context.Context, event domain.StatusChangedEvent) error

	// SubscribeStatusChanges is used by the monitor process.
	SubscribeStatusChanges(ctx context.Context) (<-chan domain.StatusChangedEvent, error)
}
