package mongo

import (
	"Tracks_Transfer/config"
	"Tracks_Transfer/internal/models"
	"Tracks_Transfer/pkg/database"
	"context"
	"errors"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store 是 database.Store 接口的MongoDB实现。
type Store struct {
	client    *mongo.Client
	db        *mongo.Database
	transfers *transferStore
}

// 确保 Store 实现了 database.Store 接口 (编译时检查)
var _ database.Store = (*Store)(nil)

// transferStore 封装了与 "transfers" 集合相关的所有操作。
type transferStore struct {
	coll *mongo.Collection
}

// NewStore 创建并返回一个新的 Store 实例，并建立与MongoDB的连接。
func NewStore(ctx context.Context, cfg *config.Config) (database.Store, error) {
	slog.Info("正在连接到 MongoDB...", "uri", cfg.Database.URI)
	clientCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	clientOpts := options.Client().ApplyURI(cfg.Database.URI)
	client, err := mongo.Connect(clientCtx, clientOpts)
	if err != nil {
		return nil, err
	}

	if err := client.Ping(clientCtx, nil); err != nil {
		return nil, err
	}
	slog.Info("MongoDB 连接成功")

	db := client.Database(cfg.Database.Name)
	return &Store{
		client:    client,
		db:        db,
		transfers: &transferStore{coll: db.Collection("transfers")},
	}, nil
}

func (s *Store) Transfers() database.TransferStore {
	return s.transfers
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	slog.Info("正在确保数据库索引存在...")
	transferIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "taskId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_taskid_unique"),
		},
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("idx_createdat_desc"),
		},
		{
			Keys:    bson.D{{Key: "targetDir", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("idx_targetdir_createdat"),
		},
	}
	if _, err := s.transfers.coll.Indexes().CreateMany(ctx, transferIndexes); err != nil {
		slog.Error("为 transfers 集合创建索引失败", "error", err)
		return err
	}
	slog.Info("Transfers 集合索引已验证/创建。")
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// --- transferStore 方法实现 ---

func (t *transferStore) Create(ctx context.Context, record *models.TransferRecord) error {
	now := time.Now()
	record.CreatedAt = now
	record.UpdatedAt = now
	res, err := t.coll.InsertOne(ctx, record)
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		record.ID = id
	}
	return nil
}

func (t *transferStore) GetByTaskID(ctx context.Context, taskID string) (*models.TransferRecord, error) {
	var record models.TransferRecord
	err := t.coll.FindOne(ctx, bson.M{"taskId": taskID}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (t *transferStore) List(ctx context.Context, page, limit int) ([]models.TransferRecord, int64, error) {
	var records []models.TransferRecord
	skip, ok := database.PageSkip(page, limit)
	if !ok {
		total, err := t.coll.CountDocuments(ctx, bson.D{})
		return []models.TransferRecord{}, total, err
	}

	findOpts := options.Find().
		SetSkip(skip).
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := t.coll.Find(ctx, bson.D{}, findOpts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)
	if err = cursor.All(ctx, &records); err != nil {
		return nil, 0, err
	}

	total, err := t.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}
