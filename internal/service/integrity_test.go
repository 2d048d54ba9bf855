package service

import (
	"context"
	"testing"

	"taskman/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteProcessBlockedByDependents(t *testing.T) {
	f := newFixture(t)
	svc := NewIntegrityService(f.defs, f.insts)

	p := f.createProcess(t, "Monthly Report", domain.ProcessActive)
	f.createTask(t, p.ID, "Collect data")
	f.createTask(t, p.ID, "Draft report")
	f.createInstance(t, p.ID, "ann")

	err := svc.DeleteProcess(context.Background(), p.ID, false)
	var derr *domain.DependencyError
	require.ErrorAs(t, err, &derr)
	require.Len(t, derr.Dependents, 2)
	assert.Equal(t, "tasks", derr.Dependents[0].Kind)
	assert.Equal(t, int64(2), derr.Dependents[0].Count)
	assert.Equal(t, "process instances", derr.Dependents[1].Kind)
	assert.Equal(t, int64(1), derr.Dependents[1].Count)

	// Nothing was removed.
	_, err = f.defs.GetProcess(context.Background(), p.ID)
	require.NoError(t, err)
}

func TestDeleteProcessForceCascades(t *testing.T) {
	f := newFixture(t)
	svc := NewIntegrityService(f.defs, f.insts)

	p := f.createProcess(t, "Monthly Report", domain.ProcessActive)
	task := f.createTask(t, p.ID, "Collect data")
	require.NoError(t, f.defs.CreateEdge(context.Background(), domain.NewWorkflowEdge(p.ID, nil, &task.ID)))
	require.NoError(t, f.defs.CreateStep(context.Background(), domain.NewTaskStep(task.ID, 1, "Export CSV")))
	pi := f.createInstance(t, p.ID, "ann")

	require.NoError(t, svc.DeleteProcess(context.Background(), p.ID, true))

	var nf *domain.NotFoundError
	_, err := f.defs.GetProcess(context.Background(), p.ID)
	require.ErrorAs(t, err, &nf)
	_, err = f.defs.GetTask(context.Background(), task.ID)
	require.ErrorAs(t, err, &nf)
	_, err = f.insts.GetInstance(context.Background(), pi.ID)
	require.ErrorAs(t, err, &nf)

	edges, err := f.defs.ListEdges(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Empty(t, edges)
	steps, err := f.defs.ListSteps(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Empty(t, steps)
}

func TestDeleteProcessForceStopsAtTaskInstances(t *testing.T) {
	f := newFixture(t)
	svc := NewIntegrityService(f.defs, f.insts)

	p := f.createProcess(t, "Monthly Report", domain.ProcessActive)
	task := f.createTask(t, p.ID, "Collect data")
	pi := f.createInstance(t, p.ID, "ann")
	f.createTaskInstance(t, pi.ID, task.ID)

	err := svc.DeleteProcess(context.Background(), p.ID, true)
	var derr *domain.DependencyError
	require.ErrorAs(t, err, &derr)
	require.Len(t, derr.Dependents, 1)
	assert.Equal(t, "task instances", derr.Dependents[0].Kind)

	_, err = f.defs.GetProcess(context.Background(), p.ID)
	require.NoError(t, err)
}

func TestDeleteTaskBlockedByTaskInstances(t *testing.T) {
	f := newFixture(t)
	svc := NewIntegrityService(f.defs, f.insts)

	p := f.createProcess(t, "Monthly Report", domain.ProcessActive)
	task := f.createTask(t, p.ID, "Collect data")
	pi := f.createInstance(t, p.ID, "ann")
	f.createTaskInstance(t, pi.ID, task.ID)

	err := svc.DeleteTask(context.Background(), task.ID)
	var derr *domain.DependencyError
	require.ErrorAs(t, err, &derr)
}

func TestDeleteTaskCascadesStepsAndEdges(t *testing.T) {
	f := newFixture(t)
	svc := NewIntegrityService(f.defs, f.insts)

	p := f.createProcess(t, "Monthly Report", domain.ProcessActive)
	task := f.createTask(t, p.ID, "Collect data")
	keep := f.createTask(t, p.ID, "Draft report")
	require.NoError(t, f.defs.CreateEdge(context.Background(), domain.NewWorkflowEdge(p.ID, &task.ID, &keep.ID)))
	require.NoError(t, f.defs.CreateEdge(context.Background(), domain.NewWorkflowEdge(p.ID, nil, &keep.ID)))
	require.NoError(t, f.defs.CreateStep(context.Background(), domain.NewTaskStep(task.ID, 1, "Export CSV")))

	require.NoError(t, svc.DeleteTask(context.Background(), task.ID))

	edges, err := f.defs.ListEdges(context.Background(), p.ID)
	require.NoError(t, err)
	// Only the edge not touching the deleted task survives.
	require.Len(t, edges, 1)
	assert.Nil(t, edges[0].FromTaskID)

	steps, err := f.defs.ListSteps(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Empty(t, steps)

	_, err = f.defs.GetTask(context.Background(), keep.ID)
	require.NoError(t, err)
}

func TestDeleteProcessInstance(t *testing.T) {
	f := newFixture(t)
	svc := NewIntegrityService(f.defs, f.insts)

	p := f.createProcess(t, "Monthly Report", domain.ProcessActive)
	task := f.createTask(t, p.ID, "Collect data")
	pi := f.createInstance(t, p.ID, "ann")
	ti := f.createTaskInstance(t, pi.ID, task.ID)

	err := svc.DeleteProcessInstance(context.Background(), pi.ID, false)
	var derr *domain.DependencyError
	require.ErrorAs(t, err, &derr)

	require.NoError(t, svc.DeleteProcessInstance(context.Background(), pi.ID, true))

	var nf *domain.NotFoundError
	_, err = f.insts.GetInstance(context.Background(), pi.ID)
	require.ErrorAs(t, err, &nf)
	_, err = f.insts.GetTaskInstance(context.Background(), ti.ID)
	require.ErrorAs(t, err, &nf)
}

func TestDeleteTaskInstanceRunningGuard(t *testing.T) {
	f := newFixture(t)
	instSvc := NewInstanceService(f.defs, f.insts, f.bus)
	svc := NewIntegrityService(f.defs, f.insts)

	p := f.createProcess(t, "Monthly Report", domain.ProcessActive)
	task := f.createTask(t, p.ID, "Collect data")
	pi := f.createInstance(t, p.ID, "ann")
	ti := f.createTaskInstance(t, pi.ID, task.ID)

	_, err := instSvc.TransitionTaskInstance(context.Background(), ti.ID, domain.TaskInstanceRunning)
	require.NoError(t, err)

	err = svc.DeleteTaskInstance(context.Background(), ti.ID, false)
	var serr *domain.StatePreventsDeletionError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "running", serr.Status)

	require.NoError(t, svc.DeleteTaskInstance(context.Background(), ti.ID, true))
}

func TestDeleteCompletedTaskInstanceWithoutForce(t *testing.T) {
	f := newFixture(t)
	instSvc := NewInstanceService(f.defs, f.insts, f.bus)
	svc := NewIntegrityService(f.defs, f.insts)

	p := f.createProcess(t, "Monthly Report", domain.ProcessActive)
	task := f.createTask(t, p.ID, "Collect data")
	pi := f.createInstance(t, p.ID, "ann")
	ti := f.createTaskInstance(t, pi.ID, task.ID)

	_, err := instSvc.TransitionTaskInstance(context.Background(), ti.ID, domain.TaskInstanceCompleted)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTaskInstance(context.Background(), ti.ID, false))
}

func TestDeleteObjective(t *testing.T) {
	f := newFixture(t)
	defSvc := NewDefinitionService(f.defs)
	svc := NewIntegrityService(f.defs, f.insts)

	parent, err := defSvc.CreateObjective(context.Background(), "Close books faster", "", ObjectiveParams{})
	require.NoError(t, err)
	child, err := defSvc.CreateObjective(context.Background(), "Automate data collection", "", ObjectiveParams{ParentID: &parent.ID})
	require.NoError(t, err)

	err = svc.DeleteObjective(context.Background(), parent.ID, false)
	var derr *domain.DependencyError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "sub-objectives", derr.Dependents[0].Kind)

	require.NoError(t, svc.DeleteObjective(context.Background(), parent.ID, true))

	var nf *domain.NotFoundError
	_, err = f.defs.GetObjective(context.Background(), parent.ID)
	require.ErrorAs(t, err, &nf)
	_, err = f.defs.GetObjective(context.Background(), child.ID)
	require.ErrorAs(t, err, &nf)
}

func TestDeleteNotFoundSurfacesBeforePolicy(t *testing.T) {
	f := newFixture(t)
	svc := NewIntegrityService(f.defs, f.insts)

	var nf *domain.NotFoundError
	require.ErrorAs(t, svc.DeleteProcess(context.Background(), 9999, false), &nf)
	require.ErrorAs(t, svc.DeleteTask(context.Background(), 9999), &nf)
	require.ErrorAs(t, svc.DeleteWorkflowEdge(context.Background(), 9999), &nf)
	require.ErrorAs(t, svc.DeleteProcessInstance(context.Background(), 9999, false), &nf)
	require.ErrorAs(t, svc.DeleteTaskInstance(context.Background(), 9999, false), &nf)
	require.ErrorAs(t, svc.DeleteObjective(context.Background(), 9999, false), &nf)
	require.ErrorAs(t, svc.DeleteTaskStep(context.Background(), 9999), &nf)
}
