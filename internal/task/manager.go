package task

import (
	"Tracks_Transfer/internal/models"
	"Tracks_Transfer/pkg/database"
	"Tracks_Transfer/pkg/transfer"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TaskStatus 定义了任务可能的状态。
type TaskStatus string

const (
	StatusPending   TaskStatus = "pending"
	StatusRunning   TaskStatus = "running"
	StatusCompleted TaskStatus = "completed"
	StatusFailed    TaskStatus = "failed"
)

// ErrTaskRunning 表示已有迁移任务在执行，同一时间只允许一个。
var ErrTaskRunning = errors.New("另一个迁移任务正在进行中")

// ErrTaskNotFound 表示任务ID不存在。
var ErrTaskNotFound = errors.New("找不到任务")

// Task 结构体代表一个后台迁移任务。
type Task struct {
	ID        string           `json:"id"`
	Status    TaskStatus       `json:"status"`
	Progress  float64          `json:"progress"`
	Error     string           `json:"error,omitempty"`
	StartTime time.Time        `json:"startTime"`
	EndTime   *time.Time       `json:"endTime,omitempty"`
	SourceDir string           `json:"sourceDir"`
	TargetDir string           `json:"targetDir"`
	DryRun    bool             `json:"dryRun"`
	Result    *transfer.Result `json:"result,omitempty"`

	done chan struct{}
}

// Manager 在后台执行迁移，把同步的 Transferer 包装成可以轮询或等待的任务。
type Manager struct {
	tasks map[string]*Task
	mu    sync.RWMutex

	transferer *transfer.Transferer
	store      database.Store
	logger     *slog.Logger
}

// NewManager 创建并返回一个新的任务管理器实例。store 为 nil 时不记录历史。
func NewManager(t *transfer.Transferer, store database.Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		tasks:      make(map[string]*Task),
		transferer: t,
		store:      store,
		logger:     logger,
	}
}

// StartTransferTask 创建一个新的迁移任务，并立即在后台启动它。
// 参数为空时直接返回 transfer.InputValidationError，不会创建任务。
func (m *Manager) StartTransferTask(sourceDir, targetDir string, dryRun bool) (string, error) {
	if err := transfer.ValidateDirs(sourceDir, targetDir); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, task := range m.tasks {
		if task.Status == StatusRunning || task.Status == StatusPending {
			return "", fmt.Errorf("%w (ID: %s)，请等待其完成后再试", ErrTaskRunning, task.ID)
		}
	}

	taskID := uuid.New().String()
	newTask := &Task{
		ID:        taskID,
		Status:    StatusPending,
		Progress:  0,
		StartTime: time.Now(),
		SourceDir: sourceDir,
		TargetDir: targetDir,
		DryRun:    dryRun,
		done:      make(chan struct{}),
	}
	m.tasks[taskID] = newTask

	go m.runTransfer(newTask)

	return taskID, nil
}

// GetTaskStatus 返回任务当前状态的一份快照。
func (m *Manager) GetTaskStatus(taskID string) (*Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	task, exists := m.tasks[taskID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	snapshot := *task
	return &snapshot, nil
}

// Wait 阻塞直到任务结束或 ctx 被取消，返回任务最终状态。
func (m *Manager) Wait(ctx context.Context, taskID string) (*Task, error) {
	m.mu.RLock()
	task, exists := m.tasks[taskID]
	m.mu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}

	select {
	case <-task.done:
		return m.GetTaskStatus(taskID)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// runTransfer 是执行具体迁移工作的内部函数。
func (m *Manager) runTransfer(task *Task) {
	defer close(task.done)

	m.mu.Lock()
	task.Status = StatusRunning
	task.Progress = 50.0
	m.mu.Unlock()

	m.logger.Info("任务启动", "task", task.ID, "source", task.SourceDir, "target", task.TargetDir, "dryRun", task.DryRun)

	var (
		res *transfer.Result
		err error
	)
	if task.DryRun {
		res, err = m.transferer.Plan(task.SourceDir, task.TargetDir)
	} else {
		res, err = m.transferer.Run(task.SourceDir, task.TargetDir)
	}

	m.mu.Lock()
	endTime := time.Now()
	task.EndTime = &endTime
	task.Result = res
	task.Progress = 100
	if err != nil {
		task.Status = StatusFailed
		task.Error = err.Error()
	} else {
		task.Status = StatusCompleted
	}
	m.mu.Unlock()

	if err != nil {
		m.logger.Error("任务失败", "task", task.ID, "error", err)
	} else {
		m.logger.Info("任务完成", "task", task.ID)
	}
	m.record(task.ID, task.SourceDir, task.TargetDir, task.DryRun, res, err)
}

func (m *Manager) record(taskID, sourceDir, targetDir string, dryRun bool, res *transfer.Result, runErr error) {
	if m.store == nil {
		return
	}
	rec := NewRecord(taskID, sourceDir, targetDir, dryRun, res, runErr)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := m.store.Transfers().Create(ctx, rec); err != nil {
		m.logger.Error("写入迁移历史失败", "task", taskID, "error", err)
	}
}

// NewRecord 把一次迁移的结果转换为历史记录。
func NewRecord(taskID, sourceDir, targetDir string, dryRun bool, res *transfer.Result, runErr error) *models.TransferRecord {
	rec := &models.TransferRecord{
		TaskID:    taskID,
		SourceDir: sourceDir,
		TargetDir: targetDir,
	}
	if res != nil {
		rec.Missing = res.Missing
		rec.Extra = res.Extra
		rec.Applied = res.Applied
		for _, r := range res.Renames {
			rec.Renames = append(rec.Renames, models.RenameEntry{From: r.From, To: r.To, Unchanged: r.Unchanged})
		}
	}
	switch {
	case runErr != nil:
		rec.Status = models.TransferFailed
		rec.Error = runErr.Error()
	case res != nil && res.Mismatch:
		rec.Status = models.TransferSkipped
	case dryRun || (res != nil && res.DryRun):
		rec.Status = models.TransferPreview
	default:
		rec.Status = models.TransferCompleted
	}
	return rec
}
