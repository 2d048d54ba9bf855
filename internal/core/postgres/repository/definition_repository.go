package repository

import (
	"context"
	"errors"

	"taskman/internal/core/ports"
	"taskman/internal/domain"

	"gorm.io/gorm"
)

// notFound translates gorm's record-not-found into the domain error so the
// services never see driver sentinels.
func notFound(err error, entity string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &domain.NotFoundError{Entity: entity, ID: id}
	}
	return err
}

type definitionRepository struct {
	db *gorm.DB
}

// NewDefinitionRepository creates the gorm-backed definition store.
func NewDefinitionRepository(db *gorm.DB) ports.DefinitionRepository {
	return &definitionRepository{db: db}
}

func (r *definitionRepository) CreateProcess(ctx context.Context, p *domain.Process) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *definitionRepository) GetProcess(ctx context.Context, id uint) (*domain.Process, error) {
	var p domain.Process
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, notFound(err, "process", id)
	}
	return &p, nil
}

func (r *definitionRepository) ListProcesses(ctx context.Context) ([]domain.Process, error) {
	var processes []domain.Process
	err := r.db.WithContext(ctx).Order("id").Find(&processes).Error
	return processes, err
}

func (r *definitionRepository) SaveProcess(ctx context.Context, p *domain.Process) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *definitionRepository) CountTasks(ctx context.Context, processID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Task{}).
		Where("process_id = ?", processID).Count(&count).Error
	return count, err
}

func (r *definitionRepository) CountProcessInstances(ctx context.Context, processID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.ProcessInstance{}).
		Where("process_id = ?", processID).Count(&count).Error
	return count, err
}

func (r *definitionRepository) DeleteProcessCascade(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taskIDs []uint
		if err := tx.Model(&domain.Task{}).Where("process_id = ?", id).
			Pluck("id", &taskIDs).Error; err != nil {
			return err
		}

		if err := tx.Where("process_id = ?", id).Delete(&domain.WorkflowEdge{}).Error; err != nil {
			return err
		}
		if len(taskIDs) > 0 {
			if err := tx.Where("task_id IN ?", taskIDs).Delete(&domain.TaskStep{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("process_id = ?", id).Delete(&domain.Task{}).Error; err != nil {
			return err
		}
		if err := tx.Where("process_id = ?", id).Delete(&domain.ProcessInstance{}).Error; err != nil {
			return err
		}
		if err := tx.Where("process_id = ?", id).Delete(&domain.ObjectiveProcess{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Process{}, id).Error
	})
}

func (r *definitionRepository) CreateTask(ctx context.Context, t *domain.Task) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *definitionRepository) GetTask(ctx context.Context, id uint) (*domain.Task, error) {
	var t domain.Task
	if err := r.db.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, notFound(err, "task", id)
	}
	return &t, nil
}

func (r *definitionRepository) ListTasks(ctx context.Context, f ports.TaskFilter) ([]domain.Task, error) {
	q := r.db.WithContext(ctx).Model(&domain.Task{})
	if f.ProcessID != 0 {
		q = q.Where("process_id = ?", f.ProcessID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Priority != "" {
		q = q.Where("priority = ?", f.Priority)
	}
	if f.AssignedTo != "" {
		q = q.Where("assigned_to = ?", f.AssignedTo)
	}
	var tasks []domain.Task
	err := q.Order("id").Find(&tasks).Error
	return tasks, err
}

func (r *definitionRepository) SaveTask(ctx context.Context, t *domain.Task) error {
	return r.db.WithContext(ctx).Save(t).Error
}

func (r *definitionRepository) DeleteTaskCascade(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&domain.TaskStep{}).Error; err != nil {
			return err
		}
		if err := tx.Where("from_task_id = ? OR to_task_id = ?", id, id).
			Delete(&domain.WorkflowEdge{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Task{}, id).Error
	})
}

func (r *definitionRepository) CreateEdge(ctx context.Context, e *domain.WorkflowEdge) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *definitionRepository) GetEdge(ctx context.Context, id uint) (*domain.WorkflowEdge, error) {
	var e domain.WorkflowEdge
	if err := r.db.WithContext(ctx).First(&e, id).Error; err != nil {
		return nil, notFound(err, "workflow edge", id)
	}
	return &e, nil
}

func (r *definitionRepository) ListEdges(ctx context.Context, processID uint) ([]domain.WorkflowEdge, error) {
	var edges []domain.WorkflowEdge
	err := r.db.WithContext(ctx).
		Where("process_id = ?", processID).
		Order("sequence_number, id").
		Find(&edges).Error
	return edges, err
}

func (r *definitionRepository) SaveEdge(ctx context.Context, e *domain.WorkflowEdge) error {
	return r.db.WithContext(ctx).Save(e).Error
}

func (r *definitionRepository) DeleteEdge(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&domain.WorkflowEdge{}, id).Error
}

func (r *definitionRepository) CreateStep(ctx context.Context, s *domain.TaskStep) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *definitionRepository) GetStep(ctx context.Context, id uint) (*domain.TaskStep, error) {
	var s domain.TaskStep
	if err := r.db.WithContext(ctx).First(&s, id).Error; err != nil {
		return nil, notFound(err, "task step", id)
	}
	return &s, nil
}

func (r *definitionRepository) ListSteps(ctx context.Context, taskID uint) ([]domain.TaskStep, error) {
	var steps []domain.TaskStep
	err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("step_number, id").
		Find(&steps).Error
	return steps, err
}

func (r *definitionRepository) SaveStep(ctx context.Context, s *domain.TaskStep) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *definitionRepository) DeleteStep(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&domain.TaskStep{}, id).Error
}

func (r *definitionRepository) ReorderSteps(ctx context.Context, taskID uint, orderedIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, stepID := range orderedIDs {
			res := tx.Model(&domain.TaskStep{}).
				Where("id = ? AND task_id = ?", stepID, taskID).
				Update("step_number", i+1)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return &domain.NotFoundError{Entity: "task step", ID: stepID}
			}
		}
		return nil
	})
}

func (r *definitionRepository) CreateObjective(ctx context.Context, o *domain.Objective) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *definitionRepository) GetObjective(ctx context.Context, id uint) (*domain.Objective, error) {
	var o domain.Objective
	if err := r.db.WithContext(ctx).First(&o, id).Error; err != nil {
		return nil, notFound(err, "objective", id)
	}
	return &o, nil
}

func (r *definitionRepository) ListObjectives(ctx context.Context) ([]domain.Objective, error) {
	var objectives []domain.Objective
	err := r.db.WithContext(ctx).Order("id").Find(&objectives).Error
	return objectives, err
}

func (r *definitionRepository) SaveObjective(ctx context.Context, o *domain.Objective) error {
	return r.db.WithContext(ctx).Save(o).Error
}

func (r *definitionRepository) CountChildObjectives(ctx context.Context, id uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Objective{}).
		Where("parent_id = ?", id).Count(&count).Error
	return count, err
}

func (r *definitionRepository) DeleteObjectiveCascade(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var childIDs []uint
		if err := tx.Model(&domain.Objective{}).Where("parent_id = ?", id).
			Pluck("id", &childIDs).Error; err != nil {
			return err
		}
		if len(childIDs) > 0 {
			if err := tx.Where("objective_id IN ?", childIDs).
				Delete(&domain.ObjectiveProcess{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&domain.Objective{}, childIDs).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("objective_id = ?", id).Delete(&domain.ObjectiveProcess{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Objective{}, id).Error
	})
}

func (r *definitionRepository) LinkObjectiveProcess(ctx context.Context, link *domain.ObjectiveProcess) error {
	return r.db.WithContext(ctx).Create(link).Error
}

func (r *definitionRepository) ListObjectiveLinks(ctx context.Context, objectiveID uint) ([]domain.ObjectiveProcess, error) {
	var links []domain.ObjectiveProcess
	err := r.db.WithContext(ctx).
		Where("objective_id = ?", objectiveID).
		Find(&links).Error
	return links, err
}
