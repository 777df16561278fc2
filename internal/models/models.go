package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Timestamps 嵌入到其他模型中，用于追踪创建和更新时间。
type Timestamps struct {
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// TransferStatus 是一次迁移最终的结果。
type TransferStatus string

const (
	TransferCompleted TransferStatus = "completed"
	TransferSkipped   TransferStatus = "skipped" // 编号集合不一致，未做任何重命名
	TransferPreview   TransferStatus = "preview"
	TransferFailed    TransferStatus = "failed"
)

// RenameEntry 记录一个文件从哪个名字改成了哪个名字。
type RenameEntry struct {
	From      string `bson:"from" json:"from"`
	To        string `bson:"to" json:"to"`
	Unchanged bool   `bson:"unchanged" json:"unchanged"`
}

// TransferRecord 是迁移历史中的一条记录，对应 MongoDB 的 transfers 集合中的一个文档。
// 历史只用于查看，不支持撤销。
type TransferRecord struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id"`

	// TaskID 是 task.Manager 生成的 uuid，建有唯一索引。
	TaskID string `bson:"taskId" json:"taskId"`

	SourceDir string         `bson:"sourceDir" json:"sourceDir"`
	TargetDir string         `bson:"targetDir" json:"targetDir"`
	Status    TransferStatus `bson:"status" json:"status"`

	Missing []string      `bson:"missing,omitempty" json:"missing,omitempty"`
	Extra   []string      `bson:"extra,omitempty" json:"extra,omitempty"`
	Renames []RenameEntry `bson:"renames" json:"renames"`

	// Applied 是实际完成的重命名数量，失败时可能小于 len(Renames)。
	Applied int    `bson:"applied" json:"applied"`
	Error   string `bson:"error,omitempty" json:"error,omitempty"`

	Timestamps `bson:",inline"`
}
