package database

import (
	"Tracks_Transfer/internal/models"
	"context"
	"math"
)

// Store 是一个顶层接口，组合了所有特定数据模型的存储接口。
type Store interface {
	Transfers() TransferStore
	EnsureIndexes(ctx context.Context) error
	Close(ctx context.Context) error
}

// TransferStore 定义了迁移历史的读写操作。
type TransferStore interface {
	Create(ctx context.Context, record *models.TransferRecord) error
	// GetByTaskID 找不到时返回 (nil, nil)。
	GetByTaskID(ctx context.Context, taskID string) (*models.TransferRecord, error)
	// List 按创建时间倒序分页，page 从 1 开始。
	List(ctx context.Context, page, limit int) ([]models.TransferRecord, int64, error)
}

// PageSkip 把 page/limit 换算成要跳过的记录数。page 小于 1 按第 1 页处理；
// limit 非正或 (page-1)*limit 溢出时 ok 为 false，调用方应返回空页。
func PageSkip(page, limit int) (skip int64, ok bool) {
	if limit <= 0 {
		return 0, false
	}
	if page < 1 {
		page = 1
	}
	if int64(page-1) > math.MaxInt64/int64(limit) {
		return 0, false
	}
	return int64(page-1) * int64(limit), true
}
