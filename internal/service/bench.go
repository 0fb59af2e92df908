package service

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/user/cineexplorer/internal/model"
	"github.com/user/cineexplorer/internal/repository"
	"gorm.io/gorm"
)

// Bench 对同一次完整电影查找做两种路径的计时对比：
// 规范化路径走 Postgres 多表连接，反规范化路径走目标集合单次查找
type Bench struct {
	db   *gorm.DB
	dest *repository.DocumentRepository
}

// NewBench 创建基准对比器
func NewBench(db *gorm.DB, dest *repository.DocumentRepository) *Bench {
	return &Bench{db: db, dest: dest}
}

// BenchResult 一轮对比的结果
type BenchResult struct {
	Title         string
	Iterations    int
	RelationalAvg time.Duration
	RelationalMin time.Duration
	DocumentAvg   time.Duration
	DocumentMin   time.Duration
	Speedup       float64 // 关系路径平均耗时 / 文档路径平均耗时
}

// Run 对一个电影标题做 N 次两种路径的查找并计时。
// 两边各先跑一次热身，不计入结果
func (b *Bench) Run(ctx context.Context, title string, iterations int) (*BenchResult, error) {
	if iterations <= 0 {
		iterations = 10
	}

	// 热身 + 确认目标存在
	doc, err := b.lookupRelational(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("关系路径查找失败: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("电影 %q 在源库中不存在", title)
	}
	if _, err := b.dest.FindByTitle(ctx, title); err != nil {
		return nil, fmt.Errorf("文档路径查找失败: %w", err)
	}

	res := &BenchResult{Title: title, Iterations: iterations}

	var relTotal time.Duration
	for i := 0; i < iterations; i++ {
		start := time.Now()
		if _, err := b.lookupRelational(ctx, title); err != nil {
			return nil, fmt.Errorf("关系路径查找失败: %w", err)
		}
		elapsed := time.Since(start)
		relTotal += elapsed
		if res.RelationalMin == 0 || elapsed < res.RelationalMin {
			res.RelationalMin = elapsed
		}
	}
	res.RelationalAvg = relTotal / time.Duration(iterations)

	var docTotal time.Duration
	for i := 0; i < iterations; i++ {
		start := time.Now()
		if _, err := b.dest.FindByTitle(ctx, title); err != nil {
			return nil, fmt.Errorf("文档路径查找失败: %w", err)
		}
		elapsed := time.Since(start)
		docTotal += elapsed
		if res.DocumentMin == 0 || elapsed < res.DocumentMin {
			res.DocumentMin = elapsed
		}
	}
	res.DocumentAvg = docTotal / time.Duration(iterations)

	if res.DocumentAvg > 0 {
		res.Speedup = float64(res.RelationalAvg) / float64(res.DocumentAvg)
	}
	return res, nil
}

// lookupRelational 用规范化表现场拼出一部电影的完整记录，
// 与原始建模保持一致：主表之后逐个关联表查询再内存组装
func (b *Bench) lookupRelational(ctx context.Context, title string) (*model.MovieDocument, error) {
	var (
		doc     model.MovieDocument
		runtime sql.NullInt64
	)
	row := b.db.WithContext(ctx).Raw(
		`SELECT movie_id, primary_title, start_year, runtime_minutes
		 FROM movies WHERE primary_title = $1 LIMIT 1`, title).Row()
	if err := row.Scan(&doc.ID, &doc.Title, &doc.Year, &runtime); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if runtime.Valid {
		v := int(runtime.Int64)
		doc.Runtime = &v
	}

	// 评分
	doc.Rating = model.RatingInfo{Average: nil, Votes: 0}
	var avg float64
	var votes int
	row = b.db.WithContext(ctx).Raw(
		`SELECT average_rating, num_votes FROM ratings WHERE movie_id = $1`, doc.ID).Row()
	if err := row.Scan(&avg, &votes); err == nil {
		doc.Rating = model.RatingInfo{Average: &avg, Votes: votes}
	} else if err != sql.ErrNoRows {
		return nil, err
	}

	// 类型
	doc.Genres = []string{}
	rows, err := b.db.WithContext(ctx).Raw(
		`SELECT genre FROM genres WHERE movie_id = $1`, doc.ID).Rows()
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			rows.Close()
			return nil, err
		}
		doc.Genres = append(doc.Genres, g)
	}
	rows.Close()

	// 导演 / 编剧
	if doc.Directors, err = b.credits(ctx, "directors", doc.ID); err != nil {
		return nil, err
	}
	if doc.Writers, err = b.credits(ctx, "writers", doc.ID); err != nil {
		return nil, err
	}

	// 演员 + 角色
	doc.Cast = []model.CastMember{}
	rows, err = b.db.WithContext(ctx).Raw(
		`SELECT DISTINCT p.person_id, COALESCE(pe.name, 'Unknown')
		 FROM principals p
		 LEFT JOIN persons pe ON p.person_id = pe.person_id
		 WHERE p.movie_id = $1`, doc.ID).Rows()
	if err != nil {
		return nil, err
	}
	memberIdx := make(map[string]int)
	for rows.Next() {
		var m model.CastMember
		if err := rows.Scan(&m.PersonID, &m.Name); err != nil {
			rows.Close()
			return nil, err
		}
		m.Characters = []string{}
		memberIdx[m.PersonID] = len(doc.Cast)
		doc.Cast = append(doc.Cast, m)
	}
	rows.Close()

	rows, err = b.db.WithContext(ctx).Raw(
		`SELECT person_id, name FROM characters WHERE movie_id = $1`, doc.ID).Rows()
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var personID, name string
		if err := rows.Scan(&personID, &name); err != nil {
			rows.Close()
			return nil, err
		}
		if i, ok := memberIdx[personID]; ok {
			doc.Cast[i].Characters = append(doc.Cast[i].Characters, name)
		}
	}
	rows.Close()

	return &doc, nil
}

// credits 查询导演或编剧列表并带出人名
func (b *Bench) credits(ctx context.Context, relation, movieID string) ([]model.CreditedPerson, error) {
	list := []model.CreditedPerson{}
	rows, err := b.db.WithContext(ctx).Raw(fmt.Sprintf(
		`SELECT c.person_id, COALESCE(pe.name, 'Unknown')
		 FROM %s c
		 LEFT JOIN persons pe ON c.person_id = pe.person_id
		 WHERE c.movie_id = $1`, relation), movieID).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var p model.CreditedPerson
		if err := rows.Scan(&p.PersonID, &p.Name); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// RelationSize 单张源表的存储占用
type RelationSize struct {
	Name  string `json:"name"`
	Rows  int64  `json:"rows"`
	Bytes int64  `json:"bytes"`
}

// StorageReport 两侧存储占用对比
type StorageReport struct {
	Collection *repository.CollectionStats `json:"collection"`
	Relations  []RelationSize              `json:"relations"`
	TotalBytes int64                       `json:"relations_total_bytes"`
}

// Storage 收集两侧的存储统计
func (b *Bench) Storage(ctx context.Context) (*StorageReport, error) {
	report := &StorageReport{}

	stats, err := b.dest.Stats(ctx)
	if err != nil {
		return nil, err
	}
	report.Collection = stats

	for _, spec := range importTables {
		var rs RelationSize
		rs.Name = spec.Name
		row := b.db.WithContext(ctx).Raw(fmt.Sprintf(
			`SELECT COUNT(*), pg_total_relation_size('%s') FROM %s`, spec.Name, spec.Name)).Row()
		if err := row.Scan(&rs.Rows, &rs.Bytes); err != nil {
			return nil, fmt.Errorf("统计 %s 失败: %w", spec.Name, err)
		}
		report.Relations = append(report.Relations, rs)
		report.TotalBytes += rs.Bytes
	}
	return report, nil
}

// LogResult 打印对比结果
func (r *BenchResult) LogResult() {
	log.Printf("[Bench] %q x%d 次", r.Title, r.Iterations)
	log.Printf("[Bench]   关系路径: 平均 %v / 最快 %v", r.RelationalAvg, r.RelationalMin)
	log.Printf("[Bench]   文档路径: 平均 %v / 最快 %v", r.DocumentAvg, r.DocumentMin)
	log.Printf("[Bench]   加速比: %.1fx", r.Speedup)
}
