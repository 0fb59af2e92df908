package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/user/cineexplorer/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// InitMongo 初始化 MongoDB 连接
func InitMongo(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("无法连接 MongoDB: %w", err)
	}

	// 测试连接
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("MongoDB ping 失败: %w", err)
	}

	return client, nil
}

// CollectionStats 目标集合的存储统计
type CollectionStats struct {
	Count      int64 `bson:"count" json:"count"`
	Size       int64 `bson:"size" json:"size"`
	AvgObjSize int64 `bson:"avgObjSize" json:"avg_obj_size"`
}

// DocumentRepository 目标文档集合仓库
type DocumentRepository struct {
	db   *mongo.Database
	coll *mongo.Collection
}

// NewDocumentRepository 创建文档仓库
func NewDocumentRepository(client *mongo.Client, dbName, collName string) *DocumentRepository {
	db := client.Database(dbName)
	return &DocumentRepository{
		db:   db,
		coll: db.Collection(collName),
	}
}

// Name 返回集合名
func (r *DocumentRepository) Name() string {
	return r.coll.Name()
}

// Drop 无条件清空目标集合。
// 重建不是原子的：drop 之后、写入完成之前崩溃会让集合留在
// 空或半满状态，这是设计上接受的（不做双缓冲）
func (r *DocumentRepository) Drop(ctx context.Context) error {
	if err := r.coll.Drop(ctx); err != nil {
		return fmt.Errorf("删除集合 %s 失败: %w", r.coll.Name(), err)
	}
	return nil
}

// InsertBatch 批量写入一批文档
func (r *DocumentRepository) InsertBatch(ctx context.Context, docs []model.MovieDocument) error {
	if len(docs) == 0 {
		return nil
	}
	batch := make([]interface{}, len(docs))
	for i := range docs {
		batch[i] = docs[i]
	}
	if _, err := r.coll.InsertMany(ctx, batch); err != nil {
		return fmt.Errorf("批量写入失败: %w", err)
	}
	return nil
}

// EnsureIndexes 在读侧常用字段上创建二级索引。
// 重复创建已存在的索引是 no-op，不报错
func (r *DocumentRepository) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "title", Value: 1}}},
		{Keys: bson.D{{Key: "year", Value: 1}}},
		{Keys: bson.D{{Key: "genres", Value: 1}}}, // 数组字段，多键索引
		{Keys: bson.D{{Key: "rating.average", Value: -1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("创建索引失败: %w", err)
	}
	return nil
}

// Count 返回集合中的文档数
func (r *DocumentRepository) Count(ctx context.Context) (int64, error) {
	count, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("统计文档数失败: %w", err)
	}
	return count, nil
}

// FindByID 按 movie_id 查找单个文档，未命中返回 nil
func (r *DocumentRepository) FindByID(ctx context.Context, movieID string) (*model.MovieDocument, error) {
	var doc model.MovieDocument
	err := r.coll.FindOne(ctx, bson.M{"_id": movieID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &doc, nil
}

// FindByTitle 按标题精确查找单个文档，未命中返回 nil
func (r *DocumentRepository) FindByTitle(ctx context.Context, title string) (*model.MovieDocument, error) {
	var doc model.MovieDocument
	err := r.coll.FindOne(ctx, bson.M{"title": title}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &doc, nil
}

// SearchByTitle 标题前缀搜索（不区分大小写），走 title 索引
func (r *DocumentRepository) SearchByTitle(ctx context.Context, prefix string, limit int64) ([]model.MovieDocument, error) {
	filter := bson.M{"title": bson.M{
		"$regex":   "^" + regexp.QuoteMeta(prefix),
		"$options": "i",
	}}
	opts := options.Find().SetLimit(limit).SetSort(bson.D{{Key: "title", Value: 1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []model.MovieDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// TopRated 某类型、某年份区间内按评分排序的前 N 部电影，
// 走 genres 多键索引和 rating.average 索引
func (r *DocumentRepository) TopRated(ctx context.Context, genre string, yearStart, yearEnd int, n int64) ([]model.MovieDocument, error) {
	filter := bson.M{
		"genres":       genre,
		"year":         bson.M{"$gte": yearStart, "$lte": yearEnd},
		"rating.votes": bson.M{"$gt": 0},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "rating.average", Value: -1}}).
		SetLimit(n)
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []model.MovieDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// Stats 返回集合的 collStats 存储统计
func (r *DocumentRepository) Stats(ctx context.Context) (*CollectionStats, error) {
	var stats CollectionStats
	res := r.db.RunCommand(ctx, bson.D{{Key: "collStats", Value: r.coll.Name()}})
	if err := res.Err(); err != nil {
		return nil, fmt.Errorf("collStats 失败: %w", err)
	}
	if err := res.Decode(&stats); err != nil {
		return nil, fmt.Errorf("解析 collStats 失败: %w", err)
	}
	return &stats, nil
}
