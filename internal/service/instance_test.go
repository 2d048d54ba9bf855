package service

import (
	"context"
	"testing"

	"taskman/internal/core/ports"
	"taskman/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProcessInstanceRequiresActiveProcess(t *testing.T) {
	f := newFixture(t)
	svc := NewInstanceService(f.defs, f.insts, f.bus)

	draft := f.createProcess(t, "Monthly Report", domain.ProcessDraft)
	_, err := svc.CreateProcessInstance(context.Background(), draft.ID, "ann")
	var perr *domain.PreconditionError
	require.ErrorAs(t, err, &perr)

	active := f.createProcess(t, "Onboarding", domain.ProcessActive)
	pi, err := svc.CreateProcessInstance(context.Background(), active.ID, "ann")
	require.NoError(t, err)
	assert.Equal(t, domain.InstanceRunning, pi.Status)
	assert.Equal(t, "ann", pi.CreatedBy)
	assert.False(t, pi.StartedAt.IsZero())
	assert.Nil(t, pi.CompletedAt)
}

func TestDeactivatingProcessKeepsInstancesRunning(t *testing.T) {
	f := newFixture(t)
	defSvc := NewDefinitionService(f.defs)
	instSvc := NewInstanceService(f.defs, f.insts, f.bus)

	p := f.createProcess(t, "Monthly Report", domain.ProcessActive)
	pi, err := instSvc.CreateProcessInstance(context.Background(), p.ID, "ann")
	require.NoError(t, err)

	inactive := domain.ProcessInactive
	_, err = defSvc.UpdateProcess(context.Background(), p.ID, ProcessUpdate{Status: &inactive})
	require.NoError(t, err)

	// The live run is untouched; only new instantiation is blocked.
	got, err := instSvc.GetProcessInstance(context.Background(), pi.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InstanceRunning, got.Status)

	_, err = instSvc.CreateProcessInstance(context.Background(), p.ID, "bob")
	var perr *domain.PreconditionError
	require.ErrorAs(t, err, &perr)
}

func TestTransitionProcessInstance(t *testing.T) {
	f := newFixture(t)
	svc := NewInstanceService(f.defs, f.insts, f.bus)
	p := f.createProcess(t, "Monthly Report", domain.ProcessActive)
	pi, err := svc.CreateProcessInstance(context.Background(), p.ID, "ann")
	require.NoError(t, err)

	_, err = svc.TransitionProcessInstance(context.Background(), pi.ID, "paused")
	var terr *domain.InvalidTransitionError
	require.ErrorAs(t, err, &terr)

	pi, err = svc.TransitionProcessInstance(context.Background(), pi.ID, domain.InstanceCompleted)
	require.NoError(t, err)
	require.NotNil(t, pi.CompletedAt)
	firstStamp := *pi.CompletedAt

	// Reviving and completing again keeps the original stamp.
	pi, err = svc.TransitionProcessInstance(context.Background(), pi.ID, domain.InstanceRunning)
	require.NoError(t, err)
	pi, err = svc.TransitionProcessInstance(context.Background(), pi.ID, domain.InstanceFailed)
	require.NoError(t, err)
	require.NotNil(t, pi.CompletedAt)
	assert.Equal(t, firstStamp.Unix(), pi.CompletedAt.Unix())

	events := f.bus.published()
	require.Len(t, events, 3)
	assert.Equal(t, domain.EntityProcessInstance, events[0].Entity)
	assert.Equal(t, string(domain.InstanceRunning), events[0].OldStatus)
	assert.Equal(t, string(domain.InstanceCompleted), events[0].NewStatus)
}

func TestCreateTaskInstanceCrossProcess(t *testing.T) {
	f := newFixture(t)
	svc := NewInstanceService(f.defs, f.insts, f.bus)

	p := f.createProcess(t, "Monthly Report", domain.ProcessActive)
	other := f.createProcess(t, "Onboarding", domain.ProcessActive)
	mine := f.createTask(t, p.ID, "Collect data")
	alien := f.createTask(t, other.ID, "Provision laptop")

	pi, err := svc.CreateProcessInstance(context.Background(), p.ID, "ann")
	require.NoError(t, err)

	_, err = svc.CreateTaskInstance(context.Background(), pi.ID, alien.ID, "", "")
	var cerr *domain.CrossProcessError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, other.ID, cerr.ProcessID)
	assert.Equal(t, p.ID, cerr.WantProcessID)

	ti, err := svc.CreateTaskInstance(context.Background(), pi.ID, mine.ID, "ann", "first pass")
	require.NoError(t, err)
	assert.Equal(t, domain.TaskInstanceNotStarted, ti.Status)
	assert.Nil(t, ti.StartedAt)
	assert.Nil(t, ti.CompletedAt)
}

func TestTransitionTaskInstanceTimestamps(t *testing.T) {
	f := newFixture(t)
	svc := NewInstanceService(f.defs, f.insts, f.bus)
	p := f.createProcess(t, "Monthly Report", domain.ProcessActive)
	task := f.createTask(t, p.ID, "Collect data")
	pi, err := svc.CreateProcessInstance(context.Background(), p.ID, "ann")
	require.NoError(t, err)
	ti, err := svc.CreateTaskInstance(context.Background(), pi.ID, task.ID, "", "")
	require.NoError(t, err)

	ti, err = svc.TransitionTaskInstance(context.Background(), ti.ID, domain.TaskInstanceRunning)
	require.NoError(t, err)
	require.NotNil(t, ti.StartedAt)
	assert.Nil(t, ti.CompletedAt)
	started := *ti.StartedAt

	// Back to not_started and out again: StartedAt is set-once.
	ti, err = svc.TransitionTaskInstance(context.Background(), ti.ID, domain.TaskInstanceNotStarted)
	require.NoError(t, err)
	ti, err = svc.TransitionTaskInstance(context.Background(), ti.ID, domain.TaskInstanceCompleted)
	require.NoError(t, err)
	require.NotNil(t, ti.StartedAt)
	assert.Equal(t, started.Unix(), ti.StartedAt.Unix())
	require.NotNil(t, ti.CompletedAt)
}

func TestTransitionTaskInstanceStraightToTerminal(t *testing.T) {
	f := newFixture(t)
	svc := NewInstanceService(f.defs, f.insts, f.bus)
	p := f.createProcess(t, "Monthly Report", domain.ProcessActive)
	task := f.createTask(t, p.ID, "Collect data")
	pi, err := svc.CreateProcessInstance(context.Background(), p.ID, "ann")
	require.NoError(t, err)
	ti, err := svc.CreateTaskInstance(context.Background(), pi.ID, task.ID, "", "")
	require.NoError(t, err)

	// not_started -> failed stamps both timestamps with the same instant.
	ti, err = svc.TransitionTaskInstance(context.Background(), ti.ID, domain.TaskInstanceFailed)
	require.NoError(t, err)
	require.NotNil(t, ti.StartedAt)
	require.NotNil(t, ti.CompletedAt)
	assert.Equal(t, ti.StartedAt.Unix(), ti.CompletedAt.Unix())
}

func TestTransitionTaskInstanceOrphanedParent(t *testing.T) {
	f := newFixture(t)
	svc := NewInstanceService(f.defs, f.insts, f.bus)
	p := f.createProcess(t, "Monthly Report", domain.ProcessActive)
	task := f.createTask(t, p.ID, "Collect data")
	pi, err := svc.CreateProcessInstance(context.Background(), p.ID, "ann")
	require.NoError(t, err)
	ti, err := svc.CreateTaskInstance(context.Background(), pi.ID, task.ID, "", "")
	require.NoError(t, err)

	// Parent row removed out of band, the task instance left behind.
	require.NoError(t, f.db.Delete(&domain.ProcessInstance{}, pi.ID).Error)

	// The transition still commits; the event goes out unattributed.
	ti, err = svc.TransitionTaskInstance(context.Background(), ti.ID, domain.TaskInstanceRunning)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskInstanceRunning, ti.Status)

	events := f.bus.published()
	require.Len(t, events, 1)
	assert.Equal(t, domain.EntityTaskInstance, events[0].Entity)
	assert.Equal(t, ti.ID, events[0].EntityID)
	assert.Equal(t, uint(0), events[0].ProcessID)
}

func TestUpdateTaskInstanceFields(t *testing.T) {
	f := newFixture(t)
	svc := NewInstanceService(f.defs, f.insts, f.bus)
	p := f.createProcess(t, "Monthly Report", domain.ProcessActive)
	task := f.createTask(t, p.ID, "Collect data")
	pi, err := svc.CreateProcessInstance(context.Background(), p.ID, "ann")
	require.NoError(t, err)
	ti, err := svc.CreateTaskInstance(context.Background(), pi.ID, task.ID, "ann", "")
	require.NoError(t, err)

	ti, err = svc.UpdateTaskInstance(context.Background(), ti.ID, nil, ptr("handed over"))
	require.NoError(t, err)
	assert.Equal(t, "ann", ti.AssignedTo)
	assert.Equal(t, "handed over", ti.Notes)
	assert.Equal(t, domain.TaskInstanceNotStarted, ti.Status)
}

func TestProgress(t *testing.T) {
	f := newFixture(t)
	svc := NewInstanceService(f.defs, f.insts, f.bus)
	p := f.createProcess(t, "Monthly Report", domain.ProcessActive)
	pi, err := svc.CreateProcessInstance(context.Background(), p.ID, "ann")
	require.NoError(t, err)

	// No task instances yet.
	pct, err := svc.Progress(context.Background(), pi.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, pct)

	var instances []*domain.TaskInstance
	for _, name := range []string{"Collect data", "Draft report", "Review", "Publish"} {
		task := f.createTask(t, p.ID, name)
		ti, err := svc.CreateTaskInstance(context.Background(), pi.ID, task.ID, "", "")
		require.NoError(t, err)
		instances = append(instances, ti)
	}

	// 2 of 4 completed. A failed run is not completed.
	_, err = svc.TransitionTaskInstance(context.Background(), instances[0].ID, domain.TaskInstanceCompleted)
	require.NoError(t, err)
	_, err = svc.TransitionTaskInstance(context.Background(), instances[1].ID, domain.TaskInstanceCompleted)
	require.NoError(t, err)
	_, err = svc.TransitionTaskInstance(context.Background(), instances[2].ID, domain.TaskInstanceFailed)
	require.NoError(t, err)

	pct, err = svc.Progress(context.Background(), pi.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, pct)

	_, err = svc.Progress(context.Background(), 9999)
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestProgressPercentRounding(t *testing.T) {
	assert.Equal(t, 0, progressPercent(0, 0))
	assert.Equal(t, 0, progressPercent(0, 3))
	assert.Equal(t, 33, progressPercent(1, 3))
	assert.Equal(t, 67, progressPercent(2, 3))
	assert.Equal(t, 17, progressPercent(1, 6))
	assert.Equal(t, 50, progressPercent(1, 2))
	assert.Equal(t, 100, progressPercent(7, 7))
}

func TestListTaskInstancesFiltered(t *testing.T) {
	f := newFixture(t)
	svc := NewInstanceService(f.defs, f.insts, f.bus)
	p := f.createProcess(t, "Monthly Report", domain.ProcessActive)
	task := f.createTask(t, p.ID, "Collect data")
	pi1, err := svc.CreateProcessInstance(context.Background(), p.ID, "ann")
	require.NoError(t, err)
	pi2, err := svc.CreateProcessInstance(context.Background(), p.ID, "bob")
	require.NoError(t, err)

	_, err = svc.CreateTaskInstance(context.Background(), pi1.ID, task.ID, "ann", "")
	require.NoError(t, err)
	_, err = svc.CreateTaskInstance(context.Background(), pi2.ID, task.ID, "ann", "")
	require.NoError(t, err)

	tis, err := svc.ListTaskInstances(context.Background(), ports.TaskInstanceFilter{ProcessInstanceID: pi1.ID})
	require.NoError(t, err)
	assert.Len(t, tis, 1)

	pis, err := svc.ListProcessInstances(context.Background(), ports.ProcessInstanceFilter{CreatedBy: "bob"})
	require.NoError(t, err)
	require.Len(t, pis, 1)
	assert.Equal(t, pi2.ID, pis[0].ID)
}
