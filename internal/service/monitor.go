package service

import (
	"context"
	"log/slog"
	"time"

	"taskman/internal/core/ports"
	"taskman/internal/domain"
	applog "taskman/internal/log"
)

const defaultActivityLimit = 10

// MonitorService serves the dashboard read model. It holds its own clock so
// "today" is stable in tests.
type MonitorService struct {
	defs ports.DefinitionRepository
	dash ports.DashboardRepository
	log  *slog.Logger
	now  func() time.Time
}

func NewMonitorService(defs ports.DefinitionRepository, dash ports.DashboardRepository) *MonitorService {
	return &MonitorService{
		defs: defs,
		dash: dash,
		log:  applog.WithModule("monitor"),
		now:  time.Now,
	}
}

// Summary aggregates the headline counts. A task instance is overdue when it
// is not terminal and was created before the start of today; due today when it
// was created within today's bounds.
func (s *MonitorService) Summary(ctx context.Context) (*domain.DashboardSummary, error) {
	running, err := s.dash.CountInstancesByStatus(ctx, domain.InstanceRunning)
	if err != nil {
		return nil, err
	}
	completed, err := s.dash.CountInstancesByStatus(ctx, domain.InstanceCompleted)
	if err != nil {
		return nil, err
	}

	now := s.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	overdue, err := s.dash.CountPendingTaskInstancesBefore(ctx, dayStart)
	if err != nil {
		return nil, err
	}
	dueToday, err := s.dash.CountPendingTaskInstancesBetween(ctx, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}

	tallies, err := s.dash.ProcessTallies(ctx)
	if err != nil {
		return nil, err
	}

	return &domain.DashboardSummary{
		RunningInstances:   running,
		CompletedInstances: completed,
		OverdueTasks:       overdue,
		DueTodayTasks:      dueToday,
		ProcessTallies:     tallies,
	}, nil
}

// RunningInstances lists every running instance with its progress percent
// filled in from the task instance counts.
func (s *MonitorService) RunningInstances(ctx context.Context) ([]domain.InstanceProgress, error) {
	rows, err := s.dash.RunningInstanceCounts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Progress = progressPercent(rows[i].CompletedTasks, rows[i].TotalTasks)
	}
	return rows, nil
}

// WorkflowSteps returns the process's edges enriched with task names, ordered
// for display.
func (s *MonitorService) WorkflowSteps(ctx context.Context, processID uint) ([]domain.WorkflowStepView, error) {
	if _, err := s.defs.GetProcess(ctx, processID); err != nil {
		return nil, err
	}
	return s.dash.WorkflowSteps(ctx, processID)
}

// RecentActivity returns the latest task instance status changes, newest
// first. A non-positive limit falls back to the default.
func (s *MonitorService) RecentActivity(ctx context.Context, limit int) ([]domain.ActivityEntry, error) {
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	return s.dash.RecentActivity(ctx, limit)
}
