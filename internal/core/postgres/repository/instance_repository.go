package repository

import (
	"context"
	"fmt"

	"taskman/internal/core/ports"
	"taskman/internal/domain"

	"gorm.io/gorm"
)

// transitionRetries bounds the optimistic-lock retry loop. Conflicts on a
// single instance row are rare; three attempts is plenty.
const transitionRetries = 3

type instanceRepository struct {
	db *gorm.DB
}

// NewInstanceRepository creates the gorm-backed instance store.
func NewInstanceRepository(db *gorm.DB) ports.InstanceRepository {
	return &instanceRepository{db: db}
}

func (r *instanceRepository) CreateInstance(ctx context.Context, pi *domain.ProcessInstance) error {
	return r.db.WithContext(ctx).Create(pi).Error
}

func (r *instanceRepository) GetInstance(ctx context.Context, id uint) (*domain.ProcessInstance, error) {
	var pi domain.ProcessInstance
	if err := r.db.WithContext(ctx).First(&pi, id).Error; err != nil {
		return nil, notFound(err, "process instance", id)
	}
	return &pi, nil
}

func (r *instanceRepository) ListInstances(ctx context.Context, f ports.ProcessInstanceFilter) ([]domain.ProcessInstance, error) {
	q := r.db.WithContext(ctx).Model(&domain.ProcessInstance{})
	if f.ProcessID != 0 {
		q = q.Where("process_id = ?", f.ProcessID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.CreatedBy != "" {
		q = q.Where("created_by = ?", f.CreatedBy)
	}
	var instances []domain.ProcessInstance
	err := q.Order("id").Find(&instances).Error
	return instances, err
}

// TransitionInstance runs a read-modify-write guarded by the version column.
// RowsAffected == 0 means another caller won the race; reload and retry.
func (r *instanceRepository) TransitionInstance(ctx context.Context, id uint, apply func(*domain.ProcessInstance) error) (*domain.ProcessInstance, error) {
	for attempt := 0; attempt < transitionRetries; attempt++ {
		var pi domain.ProcessInstance
		if err := r.db.WithContext(ctx).First(&pi, id).Error; err != nil {
			return nil, notFound(err, "process instance", id)
		}

		current := pi.Version
		if err := apply(&pi); err != nil {
			return nil, err
		}
		pi.Version = current + 1

		res := r.db.WithContext(ctx).Model(&domain.ProcessInstance{}).
			Where("id = ? AND version = ?", id, current).
			Updates(map[string]interface{}{
				"status":       pi.Status,
				"completed_at": pi.CompletedAt,
				"version":      pi.Version,
			})
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 1 {
			return &pi, nil
		}
	}
	return nil, fmt.Errorf("process instance %d: transition conflict, retries exhausted", id)
}

func (r *instanceRepository) DeleteInstanceCascade(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("process_instance_id = ?", id).
			Delete(&domain.TaskInstance{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.ProcessInstance{}, id).Error
	})
}

func (r *instanceRepository) CreateTaskInstance(ctx context.Context, ti *domain.TaskInstance) error {
	return r.db.WithContext(ctx).Create(ti).Error
}

func (r *instanceRepository) GetTaskInstance(ctx context.Context, id uint) (*domain.TaskInstance, error) {
	var ti domain.TaskInstance
	if err := r.db.WithContext(ctx).First(&ti, id).Error; err != nil {
		return nil, notFound(err, "task instance", id)
	}
	return &ti, nil
}

func (r *instanceRepository) ListTaskInstances(ctx context.Context, f ports.TaskInstanceFilter) ([]domain.TaskInstance, error) {
	q := r.db.WithContext(ctx).Model(&domain.TaskInstance{})
	if f.ProcessInstanceID != 0 {
		q = q.Where("process_instance_id = ?", f.ProcessInstanceID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.AssignedTo != "" {
		q = q.Where("assigned_to = ?", f.AssignedTo)
	}
	var instances []domain.TaskInstance
	err := q.Order("id").Find(&instances).Error
	return instances, err
}

func (r *instanceRepository) SaveTaskInstance(ctx context.Context, ti *domain.TaskInstance) error {
	return r.db.WithContext(ctx).Save(ti).Error
}

func (r *instanceRepository) TransitionTaskInstance(ctx context.Context, id uint, apply func(*domain.TaskInstance) error) (*domain.TaskInstance, error) {
	for attempt := 0; attempt < transitionRetries; attempt++ {
		var ti domain.TaskInstance
		if err := r.db.WithContext(ctx).First(&ti, id).Error; err != nil {
			return nil, notFound(err, "task instance", id)
		}

		current := ti.Version
		if err := apply(&ti); err != nil {
			return nil, err
		}
		ti.Version = current + 1

		res := r.db.WithContext(ctx).Model(&domain.TaskInstance{}).
			Where("id = ? AND version = ?", id, current).
			Updates(map[string]interface{}{
				"status":       ti.Status,
				"started_at":   ti.StartedAt,
				"completed_at": ti.CompletedAt,
				"version":      ti.Version,
			})
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 1 {
			return &ti, nil
		}
	}
	return nil, fmt.Errorf("task instance %d: transition conflict, retries exhausted", id)
}

func (r *instanceRepository) DeleteTaskInstance(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&domain.TaskInstance{}, id).Error
}

func (r *instanceRepository) CountTaskInstances(ctx context.Context, processInstanceID uint) (int64, int64, error) {
	var total, completed int64
	if err := r.db.WithContext(ctx).Model(&domain.TaskInstance{}).
		Where("process_instance_id = ?", processInstanceID).
		Count(&total).Error; err != nil {
		return 0, 0, err
	}
	if err := r.db.WithContext(ctx).Model(&domain.TaskInstance{}).
		Where("process_instance_id = ? AND status = ?", processInstanceID, domain.TaskInstanceCompleted).
		Count(&completed).Error; err != nil {
		return 0, 0, err
	}
	return total, completed, nil
}

func (r *instanceRepository) CountTaskInstancesByTask(ctx context.Context, taskID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.TaskInstance{}).
		Where("task_id = ?", taskID).Count(&count).Error
	return count, err
}

func (r *instanceRepository) CountTaskInstancesByProcess(ctx context.Context, processID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.TaskInstance{}).
		Where("task_id IN (?)", r.db.Model(&domain.Task{}).Select("id").Where("process_id = ?", processID)).
		Count(&count).Error
	return count, err
}
