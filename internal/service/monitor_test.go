package service

import (
	"context"
	"testing"
	"time"

	"taskman/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) backdateTaskInstance(t *testing.T, id uint, createdAt time.Time) {
	t.Helper()
	require.NoError(t, f.db.Model(&domain.TaskInstance{}).
		Where("id = ?", id).
		Update("created_at", createdAt).Error)
}

func TestSummaryCounts(t *testing.T) {
	f := newFixture(t)
	svc := NewMonitorService(f.defs, f.dash)
	frozen := time.Date(2026, 8, 15, 10, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return frozen }

	p := f.createProcess(t, "Monthly Report", domain.ProcessActive)
	task := f.createTask(t, p.ID, "Collect data")

	running := f.createInstance(t, p.ID, "ann")
	done := f.createInstance(t, p.ID, "bob")
	_, err := f.insts.TransitionInstance(context.Background(), done.ID, func(pi *domain.ProcessInstance) error {
		pi.Status = domain.InstanceCompleted
		return nil
	})
	require.NoError(t, err)

	// One overdue (created before today), one due today, one terminal that
	// counts for neither.
	overdue := f.createTaskInstance(t, running.ID, task.ID)
	f.backdateTaskInstance(t, overdue.ID, frozen.AddDate(0, 0, -2))

	dueToday := f.createTaskInstance(t, running.ID, task.ID)
	f.backdateTaskInstance(t, dueToday.ID, frozen.Add(-time.Hour))

	finished := f.createTaskInstance(t, running.ID, task.ID)
	f.backdateTaskInstance(t, finished.ID, frozen.AddDate(0, 0, -2))
	_, err = f.insts.TransitionTaskInstance(context.Background(), finished.ID, func(ti *domain.TaskInstance) error {
		ti.Status = domain.TaskInstanceCompleted
		return nil
	})
	require.NoError(t, err)

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1), summary.RunningInstances)
	assert.Equal(t, int64(1), summary.CompletedInstances)
	assert.Equal(t, int64(1), summary.OverdueTasks)
	assert.Equal(t, int64(1), summary.DueTodayTasks)

	require.Len(t, summary.ProcessTallies, 1)
	tally := summary.ProcessTallies[0]
	assert.Equal(t, p.ID, tally.ProcessID)
	assert.Equal(t, "Monthly Report", tally.ProcessName)
	assert.Equal(t, int64(1), tally.ActiveCount)
	assert.Equal(t, int64(1), tally.CompletedCount)
}

func TestRunningInstancesProgress(t *testing.T) {
	f := newFixture(t)
	svc := NewMonitorService(f.defs, f.dash)

	p := f.createProcess(t, "Monthly Report", domain.ProcessActive)
	task := f.createTask(t, p.ID, "Collect data")
	pi := f.createInstance(t, p.ID, "ann")

	for i := 0; i < 2; i++ {
		f.createTaskInstance(t, pi.ID, task.ID)
	}
	done := f.createTaskInstance(t, pi.ID, task.ID)
	_, err := f.insts.TransitionTaskInstance(context.Background(), done.ID, func(ti *domain.TaskInstance) error {
		ti.Status = domain.TaskInstanceCompleted
		return nil
	})
	require.NoError(t, err)

	// Completed instances are excluded from the board.
	finished := f.createInstance(t, p.ID, "bob")
	_, err = f.insts.TransitionInstance(context.Background(), finished.ID, func(in *domain.ProcessInstance) error {
		in.Status = domain.InstanceCompleted
		return nil
	})
	require.NoError(t, err)

	rows, err := svc.RunningInstances(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, pi.ID, row.InstanceID)
	assert.Equal(t, "Monthly Report", row.ProcessName)
	assert.Equal(t, int64(3), row.TotalTasks)
	assert.Equal(t, int64(1), row.CompletedTasks)
	assert.Equal(t, 33, row.Progress)
}

func TestWorkflowStepsEnrichment(t *testing.T) {
	f := newFixture(t)
	svc := NewMonitorService(f.defs, f.dash)

	p := f.createProcess(t, "Monthly Report", domain.ProcessActive)
	a := f.createTask(t, p.ID, "Collect data")
	b := f.createTask(t, p.ID, "Draft report")

	entry := domain.NewWorkflowEdge(p.ID, nil, &a.ID)
	entry.SequenceNumber = ptr(1)
	require.NoError(t, f.defs.CreateEdge(context.Background(), entry))

	mid := domain.NewWorkflowEdge(p.ID, &a.ID, &b.ID)
	mid.SequenceNumber = ptr(2)
	require.NoError(t, f.defs.CreateEdge(context.Background(), mid))

	exit := domain.NewWorkflowEdge(p.ID, &b.ID, nil)
	exit.SequenceNumber = ptr(3)
	require.NoError(t, f.defs.CreateEdge(context.Background(), exit))

	steps, err := svc.WorkflowSteps(context.Background(), p.ID)
	require.NoError(t, err)
	require.Len(t, steps, 3)

	assert.Equal(t, "entry point", steps[0].FromTaskName)
	assert.Equal(t, "Collect data", steps[0].ToTaskName)
	assert.Equal(t, "Collect data", steps[1].FromTaskName)
	assert.Equal(t, "Draft report", steps[1].ToTaskName)
	assert.Equal(t, "Draft report", steps[2].FromTaskName)
	assert.Equal(t, "exit point", steps[2].ToTaskName)

	_, err = svc.WorkflowSteps(context.Background(), 9999)
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestRecentActivity(t *testing.T) {
	f := newFixture(t)
	svc := NewMonitorService(f.defs, f.dash)

	p := f.createProcess(t, "Monthly Report", domain.ProcessActive)
	task := f.createTask(t, p.ID, "Collect data")
	pi := f.createInstance(t, p.ID, "ann")

	for i := 0; i < 12; i++ {
		f.createTaskInstance(t, pi.ID, task.ID)
	}

	// Default limit.
	entries, err := svc.RecentActivity(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, entries, 10)

	entries, err = svc.RecentActivity(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "Collect data", entries[0].TaskName)
	assert.Equal(t, domain.TaskInstanceNotStarted, entries[0].Status)
}
