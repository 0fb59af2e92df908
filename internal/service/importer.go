package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/gorm"
)

// 规范化源库建表语句，只建管道实际消费的八张表
var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS persons (
		person_id TEXT PRIMARY KEY,
		name      TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS movies (
		movie_id        TEXT PRIMARY KEY,
		primary_title   TEXT    NOT NULL,
		start_year      INTEGER NOT NULL,
		runtime_minutes INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS ratings (
		movie_id       TEXT PRIMARY KEY,
		average_rating REAL    NOT NULL,
		num_votes      INTEGER NOT NULL,
		FOREIGN KEY (movie_id) REFERENCES movies (movie_id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS genres (
		movie_id TEXT NOT NULL,
		genre    TEXT NOT NULL,
		PRIMARY KEY (movie_id, genre),
		FOREIGN KEY (movie_id) REFERENCES movies (movie_id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS principals (
		movie_id  TEXT    NOT NULL,
		ordering  INTEGER NOT NULL,
		person_id TEXT    NOT NULL,
		category  TEXT    NOT NULL,
		PRIMARY KEY (movie_id, ordering, person_id),
		FOREIGN KEY (movie_id) REFERENCES movies (movie_id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS directors (
		movie_id  TEXT NOT NULL,
		person_id TEXT NOT NULL,
		PRIMARY KEY (movie_id, person_id),
		FOREIGN KEY (movie_id) REFERENCES movies (movie_id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS writers (
		movie_id  TEXT NOT NULL,
		person_id TEXT NOT NULL,
		PRIMARY KEY (movie_id, person_id),
		FOREIGN KEY (movie_id) REFERENCES movies (movie_id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS characters (
		movie_id  TEXT NOT NULL,
		person_id TEXT NOT NULL,
		name      TEXT NOT NULL,
		PRIMARY KEY (movie_id, person_id, name),
		FOREIGN KEY (movie_id) REFERENCES movies (movie_id) ON DELETE CASCADE
	)`,
}

// tableSpec 一张表的导入描述
type tableSpec struct {
	Name    string
	File    string
	Columns []string
}

// 导入顺序满足外键依赖：先 persons / movies，再各关联表
var importTables = []tableSpec{
	{"persons", "persons.csv", []string{"person_id", "name"}},
	{"movies", "movies.csv", []string{"movie_id", "primary_title", "start_year", "runtime_minutes"}},
	{"ratings", "ratings.csv", []string{"movie_id", "average_rating", "num_votes"}},
	{"genres", "genres.csv", []string{"movie_id", "genre"}},
	{"principals", "principals.csv", []string{"movie_id", "ordering", "person_id", "category"}},
	{"directors", "directors.csv", []string{"movie_id", "person_id"}},
	{"writers", "writers.csv", []string{"movie_id", "person_id"}},
	{"characters", "characters.csv", []string{"movie_id", "person_id", "name"}},
}

const importBatchSize = 1000

// Importer 把 IMDB CSV 数据导入规范化源库
type Importer struct {
	db     *gorm.DB
	csvDir string
}

// NewImporter 创建导入器
func NewImporter(db *gorm.DB, csvDir string) *Importer {
	return &Importer{db: db, csvDir: csvDir}
}

// CreateSchema 创建规范化表结构，已存在的表跳过
func (im *Importer) CreateSchema(ctx context.Context) error {
	for _, ddl := range schemaDDL {
		if err := im.db.WithContext(ctx).Exec(ddl).Error; err != nil {
			return fmt.Errorf("建表失败: %w", err)
		}
	}
	log.Printf("[Importer] 表结构就绪（%d 张表）", len(schemaDDL))
	return nil
}

// ImportAll 依次导入全部 CSV 文件。
// 缺失的文件跳过并警告，单行解析失败中止该表的导入
func (im *Importer) ImportAll(ctx context.Context) error {
	for _, spec := range importTables {
		path := filepath.Join(im.csvDir, spec.File)
		if _, err := os.Stat(path); err != nil {
			log.Printf("[Importer] 警告: %s 不存在，跳过 %s", spec.File, spec.Name)
			continue
		}
		count, err := im.importTable(ctx, spec, path)
		if err != nil {
			return fmt.Errorf("导入 %s 失败: %w", spec.Name, err)
		}
		log.Printf("[Importer] %s: %d 行", spec.Name, count)
	}
	return nil
}

// importTable 流式读取单个 CSV 并分批写入
func (im *Importer) importTable(ctx context.Context, spec tableSpec, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("读取表头失败: %w", err)
	}
	colIdx, err := mapColumns(header, spec.Columns)
	if err != nil {
		return 0, err
	}

	total := 0
	batch := make([][]interface{}, 0, importBatchSize)
	for {
		select {
		case <-ctx.Done():
			return total, ctx.Err()
		default:
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return total, fmt.Errorf("第 %d 行解析失败: %w", total+2, err)
		}

		row := make([]interface{}, len(spec.Columns))
		for i, idx := range colIdx {
			row[i] = cleanValue(record[idx])
		}
		batch = append(batch, row)

		if len(batch) >= importBatchSize {
			if err := im.insertBatch(ctx, spec, batch); err != nil {
				return total, err
			}
			total += len(batch)
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := im.insertBatch(ctx, spec, batch); err != nil {
			return total, err
		}
		total += len(batch)
	}
	return total, nil
}

// insertBatch 多值 INSERT，一次落一批，主键冲突静默跳过
func (im *Importer) insertBatch(ctx context.Context, spec tableSpec, batch [][]interface{}) error {
	var sb strings.Builder
	args := make([]interface{}, 0, len(batch)*len(spec.Columns))

	sb.WriteString(fmt.Sprintf("INSERT INTO %s (%s) VALUES ",
		spec.Name, strings.Join(spec.Columns, ", ")))
	n := 1
	for i, row := range batch {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		for j := range row {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(fmt.Sprintf("$%d", n))
			n++
		}
		sb.WriteString(")")
		args = append(args, row...)
	}
	sb.WriteString(" ON CONFLICT DO NOTHING")

	if err := im.db.WithContext(ctx).Exec(sb.String(), args...).Error; err != nil {
		return fmt.Errorf("批量写入失败: %w", err)
	}
	return nil
}

// mapColumns 按表头定位需要的列，缺列报错
func mapColumns(header, wanted []string) ([]int, error) {
	pos := make(map[string]int, len(header))
	for i, name := range header {
		pos[strings.TrimSpace(strings.ToLower(name))] = i
	}
	idx := make([]int, len(wanted))
	for i, name := range wanted {
		p, ok := pos[name]
		if !ok {
			return nil, fmt.Errorf("缺少列 %s", name)
		}
		idx[i] = p
	}
	return idx, nil
}

// cleanValue 空串和 \N 视为 NULL（IMDB 数据集的缺失值标记）
func cleanValue(s string) interface{} {
	s = strings.TrimSpace(s)
	if s == "" || s == `\N` {
		return nil
	}
	return s
}
