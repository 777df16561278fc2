package memory

import (
	"Tracks_Transfer/internal/models"
	"Tracks_Transfer/pkg/database"
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store 把迁移历史保存在进程内存里，未配置 database.uri 时使用，进程退出即丢失。
type Store struct {
	transfers *transferStore
}

var _ database.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{transfers: &transferStore{}}
}

func (s *Store) Transfers() database.TransferStore { return s.transfers }

func (s *Store) EnsureIndexes(ctx context.Context) error { return nil }

func (s *Store) Close(ctx context.Context) error { return nil }

type transferStore struct {
	mu      sync.RWMutex
	records []models.TransferRecord // 按插入顺序
}

func (t *transferStore) Create(ctx context.Context, record *models.TransferRecord) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, r := range t.records {
		if r.TaskID == record.TaskID {
			return fmt.Errorf("任务 %s 的历史记录已存在", record.TaskID)
		}
	}
	now := time.Now()
	record.ID = primitive.NewObjectID()
	record.CreatedAt = now
	record.UpdatedAt = now
	t.records = append(t.records, *record)
	return nil
}

func (t *transferStore) GetByTaskID(ctx context.Context, taskID string) (*models.TransferRecord, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, r := range t.records {
		if r.TaskID == taskID {
			found := r
			return &found, nil
		}
	}
	return nil, nil
}

func (t *transferStore) List(ctx context.Context, page, limit int) ([]models.TransferRecord, int64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	total := int64(len(t.records))
	skip, ok := database.PageSkip(page, limit)
	if !ok || skip >= total {
		return []models.TransferRecord{}, total, nil
	}
	out := make([]models.TransferRecord, 0, limit)
	// 倒序遍历即最新的在前
	for i := len(t.records) - 1 - int(skip); i >= 0 && len(out) < limit; i-- {
		out = append(out, t.records[i])
	}
	return out, total, nil
}
