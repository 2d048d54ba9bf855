package service

import (
	"context"
	"sync"
	"testing"

	"taskman/internal/core/postgres/repository"
	"taskman/internal/core/ports"
	"taskman/internal/domain"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps every query on the same in-memory database.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&domain.Process{},
		&domain.Task{},
		&domain.WorkflowEdge{},
		&domain.TaskStep{},
		&domain.Objective{},
		&domain.ObjectiveProcess{},
		&domain.ProcessInstance{},
		&domain.TaskInstance{},
	))
	return db
}

type fixture struct {
	db    *gorm.DB
	defs  ports.DefinitionRepository
	insts ports.InstanceRepository
	dash  ports.DashboardRepository
	bus   *memoryBus
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	return &fixture{
		db:    db,
		defs:  repository.NewDefinitionRepository(db),
		insts: repository.NewInstanceRepository(db),
		dash:  repository.NewDashboardRepository(db),
		bus:   &memoryBus{},
	}
}

// memoryBus records published events instead of hitting Redis.
type memoryBus struct {
	mu     sync.Mutex
	events []domain.StatusChangedEvent
}

func (b *memoryBus) PublishStatusChanged(_ context.Context, event domain.StatusChangedEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
	return nil
}

func (b *memoryBus) SubscribeStatusChanges(context.Context) (<-chan domain.StatusChangedEvent, error) {
	ch := make(chan domain.StatusChangedEvent)
	close(ch)
	return ch, nil
}

func (b *memoryBus) published() []domain.StatusChangedEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.StatusChangedEvent(nil), b.events...)
}

func (f *fixture) createProcess(t *testing.T, name string, status domain.ProcessStatus) *domain.Process {
	t.Helper()
	p := domain.NewProcess(name, "")
	p.Status = status
	require.NoError(t, f.defs.CreateProcess(context.Background(), p))
	return p
}

func (f *fixture) createTask(t *testing.T, processID uint, name string) *domain.Task {
	t.Helper()
	task := domain.NewTask(processID, name)
	require.NoError(t, f.defs.CreateTask(context.Background(), task))
	return task
}

func (f *fixture) createInstance(t *testing.T, processID uint, createdBy string) *domain.ProcessInstance {
	t.Helper()
	pi := domain.NewProcessInstance(processID, createdBy)
	require.NoError(t, f.insts.CreateInstance(context.Background(), pi))
	return pi
}

func (f *fixture) createTaskInstance(t *testing.T, processInstanceID, taskID uint) *domain.TaskInstance {
	t.Helper()
	ti := domain.NewTaskInstance(processInstanceID, taskID)
	require.NoError(t, f.insts.CreateTaskInstance(context.Background(), ti))
	return ti
}
