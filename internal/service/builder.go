package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/user/cineexplorer/internal/index"
	"github.com/user/cineexplorer/internal/model"
)

// RelationSource 规范化源库的关系读取接口
type RelationSource interface {
	EachMovie(ctx context.Context, fn func(model.Movie) error) error
	EachRating(ctx context.Context, fn func(model.Rating) error) error
	EachGenre(ctx context.Context, fn func(model.GenreRow) error) error
	EachPerson(ctx context.Context, fn func(model.Person) error) error
	EachDirector(ctx context.Context, fn func(model.CreditRow) error) error
	EachWriter(ctx context.Context, fn func(model.CreditRow) error) error
	EachPrincipal(ctx context.Context, fn func(model.CreditRow) error) error
	EachCharacter(ctx context.Context, fn func(model.CharacterRow) error) error
	CountMovies(ctx context.Context) (int64, error)
}

// DocumentSink 目标文档集合的写入接口
type DocumentSink interface {
	Name() string
	Drop(ctx context.Context) error
	InsertBatch(ctx context.Context, docs []model.MovieDocument) error
	EnsureIndexes(ctx context.Context) error
}

// Builder 反规范化构建器：把规范化的电影关系汇总成
// 每部电影一个的完整文档，批量写入目标集合并建立二级索引。
// 各阶段严格串行，每个索引灌满之后只读。
type Builder struct {
	source    RelationSource
	dest      DocumentSink
	batchSize int
}

// NewBuilder 创建构建器
func NewBuilder(source RelationSource, dest DocumentSink, batchSize int) *Builder {
	if batchSize <= 0 {
		batchSize = 1000
	}
	return &Builder{
		source:    source,
		dest:      dest,
		batchSize: batchSize,
	}
}

// BuildSummary 一次构建的汇总信息
type BuildSummary struct {
	Movies     int
	Ratings    int
	Genres     int // 有类型记录的电影数
	Persons    int
	Directors  int // 有导演记录的电影数
	Writers    int // 有编剧记录的电影数
	CastMovies int // 有演员记录的电影数
	Characters int // 角色行总数
	Documents  int
	Batches    int
	Elapsed    time.Duration
	Example    *model.MovieDocument // 第一个装配出的文档
}

// buildIndices 装配阶段用到的全部只读索引
type buildIndices struct {
	ratings   *index.Table[string, model.RatingInfo]
	genres    *index.Lookup[string, string]
	directors *index.Lookup[string, model.CreditedPerson]
	writers   *index.Lookup[string, model.CreditedPerson]
	cast      *index.CastIndex
}

// assembleDocument 由各索引装配出一部电影的完整文档。
// 纯函数，缺失的关联降级为默认值，不产生缺字段
func assembleDocument(m model.Movie, idx *buildIndices) model.MovieDocument {
	rating, ok := idx.ratings.Get(m.MovieID)
	if !ok {
		rating = model.RatingInfo{Average: nil, Votes: 0}
	}

	genres := idx.genres.Get(m.MovieID)
	if genres == nil {
		genres = []string{}
	}
	directors := idx.directors.Get(m.MovieID)
	if directors == nil {
		directors = []model.CreditedPerson{}
	}
	writers := idx.writers.Get(m.MovieID)
	if writers == nil {
		writers = []model.CreditedPerson{}
	}

	return model.MovieDocument{
		ID:        m.MovieID,
		Title:     m.PrimaryTitle,
		Year:      m.StartYear,
		Runtime:   m.RuntimeMinutes,
		Rating:    rating,
		Genres:    genres,
		Directors: directors,
		Cast:      idx.cast.Get(m.MovieID),
		Writers:   writers,
	}
}

// Run 执行一次完整构建。
// 源关系在构建期间视为只读；目标集合被无条件清空重建。
// 任一必需关系不可读或批量写入失败都会中止本次构建，
// 已提交的批次不回滚。
func (b *Builder) Run(ctx context.Context) (*BuildSummary, error) {
	start := time.Now()
	summary := &BuildSummary{}
	idx := &buildIndices{}

	// 阶段 1: 评分索引（单值，每部电影至多一条）
	log.Println("[Builder] 加载 ratings...")
	idx.ratings = index.NewTable[string, model.RatingInfo]()
	err := b.source.EachRating(ctx, func(r model.Rating) error {
		avg := r.AverageRating
		idx.ratings.Set(r.MovieID, model.RatingInfo{Average: &avg, Votes: r.NumVotes})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("加载 ratings 索引失败: %w", err)
	}
	summary.Ratings = idx.ratings.Len()
	log.Printf("[Builder] ratings: %d 条", summary.Ratings)

	// 阶段 2: 类型索引
	log.Println("[Builder] 加载 genres...")
	idx.genres = index.NewLookup[string, string]()
	err = b.source.EachGenre(ctx, func(g model.GenreRow) error {
		idx.genres.Add(g.MovieID, g.Genre)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("加载 genres 索引失败: %w", err)
	}
	summary.Genres = idx.genres.Len()
	log.Printf("[Builder] genres: %d 部电影", summary.Genres)

	// 阶段 3: 人物解析器，之后各阶段共享只读
	log.Println("[Builder] 加载 persons...")
	resolver := index.NewPersonResolver()
	err = b.source.EachPerson(ctx, func(p model.Person) error {
		resolver.Put(p.PersonID, p.Name)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("加载 persons 失败: %w", err)
	}
	summary.Persons = resolver.Len()
	log.Printf("[Builder] persons: %d 人", summary.Persons)

	// 阶段 4: 导演索引（灌入时就地解析人名）
	log.Println("[Builder] 加载 directors...")
	idx.directors = index.NewLookup[string, model.CreditedPerson]()
	err = b.source.EachDirector(ctx, func(c model.CreditRow) error {
		idx.directors.Add(c.MovieID, model.CreditedPerson{
			PersonID: c.PersonID,
			Name:     resolver.Resolve(c.PersonID),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("加载 directors 索引失败: %w", err)
	}
	summary.Directors = idx.directors.Len()
	log.Printf("[Builder] directors: %d 部电影", summary.Directors)

	// 阶段 5: 编剧索引
	log.Println("[Builder] 加载 writers...")
	idx.writers = index.NewLookup[string, model.CreditedPerson]()
	err = b.source.EachWriter(ctx, func(c model.CreditRow) error {
		idx.writers.Add(c.MovieID, model.CreditedPerson{
			PersonID: c.PersonID,
			Name:     resolver.Resolve(c.PersonID),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("加载 writers 索引失败: %w", err)
	}
	summary.Writers = idx.writers.Len()
	log.Printf("[Builder] writers: %d 部电影", summary.Writers)

	// 阶段 6: 演员索引，两遍构建
	// 第一遍 principals 确定成员，第二遍 characters 挂角色名
	log.Println("[Builder] 加载 principals...")
	idx.cast = index.NewCastIndex(resolver)
	err = b.source.EachPrincipal(ctx, func(c model.CreditRow) error {
		idx.cast.AddPrincipal(c.MovieID, c.PersonID)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("加载 principals 索引失败: %w", err)
	}
	summary.CastMovies = idx.cast.Len()
	log.Printf("[Builder] principals: %d 部电影", summary.CastMovies)

	log.Println("[Builder] 加载 characters...")
	err = b.source.EachCharacter(ctx, func(c model.CharacterRow) error {
		idx.cast.AddCharacter(c.MovieID, c.PersonID, c.Name)
		summary.Characters++
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("加载 characters 失败: %w", err)
	}
	log.Printf("[Builder] characters: %d 条", summary.Characters)

	// 阶段 7: 装配 + 批量写入
	// 先统计总数用于进度展示
	total, err := b.source.CountMovies(ctx)
	if err != nil {
		return nil, err
	}
	summary.Movies = int(total)

	log.Printf("[Builder] 清空目标集合 %s...", b.dest.Name())
	if err := b.dest.Drop(ctx); err != nil {
		return nil, err
	}

	log.Printf("[Builder] 装配并写入 %d 个文档（批大小 %d）...", total, b.batchSize)
	batch := make([]model.MovieDocument, 0, b.batchSize)
	written := 0
	err = b.source.EachMovie(ctx, func(m model.Movie) error {
		doc := assembleDocument(m, idx)
		if summary.Example == nil {
			summary.Example = &doc
		}
		batch = append(batch, doc)
		if len(batch) >= b.batchSize {
			if err := b.dest.InsertBatch(ctx, batch); err != nil {
				return err
			}
			written += len(batch)
			summary.Batches++
			batch = batch[:0]
			if summary.Batches%5 == 0 {
				log.Printf("[Builder] 写入进度: %d/%d", written, total)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("装配写入失败: %w", err)
	}
	if len(batch) > 0 {
		if err := b.dest.InsertBatch(ctx, batch); err != nil {
			return nil, fmt.Errorf("装配写入失败: %w", err)
		}
		written += len(batch)
		summary.Batches++
	}
	summary.Documents = written
	log.Printf("[Builder] 写入完成: %d 个文档 / %d 批", written, summary.Batches)

	// 阶段 8: 二级索引
	// 索引失败不影响已写入数据的正确性，只降低查询效率，报告但不中止
	log.Println("[Builder] 创建二级索引 (title, year, genres, rating.average)...")
	if err := b.dest.EnsureIndexes(ctx); err != nil {
		log.Printf("[Builder] 警告: %v", err)
	}

	summary.Elapsed = time.Since(start)
	return summary, nil
}

// LogSummary 打印构建汇总
func (s *BuildSummary) LogSummary() {
	log.Printf("[Builder] 构建完成，耗时 %.2f 秒", s.Elapsed.Seconds())
	log.Printf("[Builder]   电影: %d | 文档: %d | 批次: %d", s.Movies, s.Documents, s.Batches)
	log.Printf("[Builder]   评分: %d | 人物: %d | 角色行: %d", s.Ratings, s.Persons, s.Characters)
	log.Printf("[Builder]   有类型: %d | 有导演: %d | 有演员: %d | 有编剧: %d",
		s.Genres, s.Directors, s.CastMovies, s.Writers)
	if s.Example != nil {
		if data, err := json.Marshal(s.Example); err == nil {
			log.Printf("[Builder]   示例文档: %s", data)
		}
	}
}
