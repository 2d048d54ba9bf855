package repository

import (
	"context"
	"time"

	"taskman/internal/core/ports"
	"taskman/internal/domain"

	"gorm.io/gorm"
)

var terminalTaskStatuses = []domain.TaskInstanceStatus{
	domain.TaskInstanceCompleted,
	domain.TaskInstanceSuspended,
	domain.TaskInstanceFailed,
}

type dashboardRepository struct {
	db *gorm.DB
}

// NewDashboardRepository creates the read-side aggregation store for the
// monitor. Everything here is derived on read; no aggregate is ever written.
func NewDashboardRepository(db *gorm.DB) ports.DashboardRepository {
	return &dashboardRepository{db: db}
}

func (r *dashboardRepository) CountInstancesByStatus(ctx context.Context, status domain.InstanceStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.ProcessInstance{}).
		Where("status = ?", status).Count(&count).Error
	return count, err
}

func (r *dashboardRepository) CountPendingTaskInstancesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.TaskInstance{}).
		Where("status NOT IN ? AND created_at < ?", terminalTaskStatuses, cutoff).
		Count(&count).Error
	return count, err
}

func (r *dashboardRepository) CountPendingTaskInstancesBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.TaskInstance{}).
		Where("status NOT IN ? AND created_at >= ? AND created_at < ?", terminalTaskStatuses, from, to).
		Count(&count).Error
	return count, err
}

func (r *dashboardRepository) ProcessTallies(ctx context.Context) ([]domain.ProcessTally, error) {
	query := `
		SELECT p.id AS process_id,
		       p.name AS process_name,
		       COUNT(CASE WHEN pi.status <> 'completed' THEN 1 END) AS active_count,
		       COUNT(CASE WHEN pi.status = 'completed' THEN 1 END) AS completed_count
		FROM processes p
		JOIN process_instances pi ON pi.process_id = p.id
		GROUP BY p.id, p.name
		ORDER BY p.id
	`
	var tallies []domain.ProcessTally
	err := r.db.WithContext(ctx).Raw(query).Scan(&tallies).Error
	return tallies, err
}

func (r *dashboardRepository) RunningInstanceCounts(ctx context.Context) ([]domain.InstanceProgress, error) {
	query := `
		SELECT pi.id AS instance_id,
		       pi.process_id AS process_id,
		       p.name AS process_name,
		       pi.status AS status,
		       pi.started_at AS started_at,
		       pi.created_by AS created_by,
		       (SELECT COUNT(*) FROM task_instances ti
		        WHERE ti.process_instance_id = pi.id) AS total_tasks,
		       (SELECT COUNT(*) FROM task_instances ti
		        WHERE ti.process_instance_id = pi.id AND ti.status = 'completed') AS completed_tasks
		FROM process_instances pi
		JOIN processes p ON p.id = pi.process_id
		WHERE pi.status = 'running'
		ORDER BY pi.started_at DESC, pi.id DESC
	`
	var rows []domain.InstanceProgress
	err := r.db.WithContext(ctx).Raw(query).Scan(&rows).Error
	return rows, err
}

// WorkflowSteps enriches a process's edges with task names. The lookups are
// explicit: one query for edges, one for the referenced task names.
func (r *dashboardRepository) WorkflowSteps(ctx context.Context, processID uint) ([]domain.WorkflowStepView, error) {
	var edges []domain.WorkflowEdge
	if err := r.db.WithContext(ctx).
		Where("process_id = ?", processID).
		Order("sequence_number, id").
		Find(&edges).Error; err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(edges)*2)
	for _, e := range edges {
		if e.FromTaskID != nil {
			ids = append(ids, *e.FromTaskID)
		}
		if e.ToTaskID != nil {
			ids = append(ids, *e.ToTaskID)
		}
	}

	names := make(map[uint]string, len(ids))
	if len(ids) > 0 {
		var tasks []domain.Task
		if err := r.db.WithContext(ctx).
			Select("id", "name").
			Where("id IN ?", ids).
			Find(&tasks).Error; err != nil {
			return nil, err
		}
		for _, t := range tasks {
			names[t.ID] = t.Name
		}
	}

	views := make([]domain.WorkflowStepView, 0, len(edges))
	for _, e := range edges {
		v := domain.WorkflowStepView{
			EdgeID:         e.ID,
			FromTaskID:     e.FromTaskID,
			FromTaskName:   "entry point",
			ToTaskID:       e.ToTaskID,
			ToTaskName:     "exit point",
			ConditionType:  e.ConditionType,
			SequenceNumber: e.SequenceNumber,
		}
		if e.FromTaskID != nil {
			v.FromTaskName = names[*e.FromTaskID]
		}
		if e.ToTaskID != nil {
			v.ToTaskName = names[*e.ToTaskID]
		}
		views = append(views, v)
	}
	return views, nil
}

func (r *dashboardRepository) RecentActivity(ctx context.Context, limit int) ([]domain.ActivityEntry, error) {
	query := `
		SELECT ti.id AS task_instance_id,
		       t.name AS task_name,
		       ti.status AS status,
		       ti.updated_at AS changed_at
		FROM task_instances ti
		LEFT JOIN tasks t ON t.id = ti.task_id
		ORDER BY ti.updated_at DESC, ti.id DESC
		LIMIT ?
	`
	var entries []domain.ActivityEntry
	err := r.db.WithContext(ctx).Raw(query, limit).Scan(&entries).Error
	return entries, err
}
