package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/user/cineexplorer/internal/model"
	"gorm.io/gorm"
)

// SourceRepository 规范化源库的关系读取器。
// 每个 Each* 方法对一张关系表做一次完整的单遍流式扫描，
// 逐行回调；任何读取错误对整个构建都是致命的。
type SourceRepository struct {
	db *gorm.DB
}

// NewSourceRepository 创建源库读取器
func NewSourceRepository(db *gorm.DB) *SourceRepository {
	return &SourceRepository{db: db}
}

// scan 遍历一个结果集，行间检查取消。
// 行级错误由 each 自行包装，回调返回的错误原样向上传
func scan(ctx context.Context, rows *sql.Rows, relation string, each func(*sql.Rows) error) error {
	defer rows.Close()
	for rows.Next() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := each(rows); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("读取 %s 失败: %w", relation, err)
	}
	return nil
}

// EachMovie 流式读取 movies 表
func (r *SourceRepository) EachMovie(ctx context.Context, fn func(model.Movie) error) error {
	rows, err := r.db.WithContext(ctx).
		Raw(`SELECT movie_id, primary_title, start_year, runtime_minutes FROM movies`).Rows()
	if err != nil {
		return fmt.Errorf("查询 movies 失败: %w", err)
	}
	return scan(ctx, rows, "movies", func(rows *sql.Rows) error {
		var m model.Movie
		var runtime sql.NullInt64
		if err := rows.Scan(&m.MovieID, &m.PrimaryTitle, &m.StartYear, &runtime); err != nil {
			return fmt.Errorf("解析 movies 行失败: %w", err)
		}
		if runtime.Valid {
			v := int(runtime.Int64)
			m.RuntimeMinutes = &v
		}
		return fn(m)
	})
}

// EachRating 流式读取 ratings 表
func (r *SourceRepository) EachRating(ctx context.Context, fn func(model.Rating) error) error {
	rows, err := r.db.WithContext(ctx).
		Raw(`SELECT movie_id, average_rating, num_votes FROM ratings`).Rows()
	if err != nil {
		return fmt.Errorf("查询 ratings 失败: %w", err)
	}
	return scan(ctx, rows, "ratings", func(rows *sql.Rows) error {
		var rt model.Rating
		if err := rows.Scan(&rt.MovieID, &rt.AverageRating, &rt.NumVotes); err != nil {
			return fmt.Errorf("解析 ratings 行失败: %w", err)
		}
		return fn(rt)
	})
}

// EachGenre 流式读取 genres 表
func (r *SourceRepository) EachGenre(ctx context.Context, fn func(model.GenreRow) error) error {
	rows, err := r.db.WithContext(ctx).
		Raw(`SELECT movie_id, genre FROM genres`).Rows()
	if err != nil {
		return fmt.Errorf("查询 genres 失败: %w", err)
	}
	return scan(ctx, rows, "genres", func(rows *sql.Rows) error {
		var g model.GenreRow
		if err := rows.Scan(&g.MovieID, &g.Genre); err != nil {
			return fmt.Errorf("解析 genres 行失败: %w", err)
		}
		return fn(g)
	})
}

// EachPerson 流式读取 persons 表
func (r *SourceRepository) EachPerson(ctx context.Context, fn func(model.Person) error) error {
	rows, err := r.db.WithContext(ctx).
		Raw(`SELECT person_id, name FROM persons`).Rows()
	if err != nil {
		return fmt.Errorf("查询 persons 失败: %w", err)
	}
	return scan(ctx, rows, "persons", func(rows *sql.Rows) error {
		var p model.Person
		if err := rows.Scan(&p.PersonID, &p.Name); err != nil {
			return fmt.Errorf("解析 persons 行失败: %w", err)
		}
		return fn(p)
	})
}

// EachDirector 流式读取 directors 表
func (r *SourceRepository) EachDirector(ctx context.Context, fn func(model.CreditRow) error) error {
	return r.eachCredit(ctx, "directors", fn)
}

// EachWriter 流式读取 writers 表
func (r *SourceRepository) EachWriter(ctx context.Context, fn func(model.CreditRow) error) error {
	return r.eachCredit(ctx, "writers", fn)
}

// EachPrincipal 流式读取 principals 表
func (r *SourceRepository) EachPrincipal(ctx context.Context, fn func(model.CreditRow) error) error {
	return r.eachCredit(ctx, "principals", fn)
}

// eachCredit directors / writers / principals 三张表形状相同，共用一个扫描
func (r *SourceRepository) eachCredit(ctx context.Context, relation string, fn func(model.CreditRow) error) error {
	rows, err := r.db.WithContext(ctx).
		Raw(fmt.Sprintf(`SELECT movie_id, person_id FROM %s`, relation)).Rows()
	if err != nil {
		return fmt.Errorf("查询 %s 失败: %w", relation, err)
	}
	return scan(ctx, rows, relation, func(rows *sql.Rows) error {
		var c model.CreditRow
		if err := rows.Scan(&c.MovieID, &c.PersonID); err != nil {
			return fmt.Errorf("解析 %s 行失败: %w", relation, err)
		}
		return fn(c)
	})
}

// EachCharacter 流式读取 characters 表
func (r *SourceRepository) EachCharacter(ctx context.Context, fn func(model.CharacterRow) error) error {
	rows, err := r.db.WithContext(ctx).
		Raw(`SELECT movie_id, person_id, name FROM characters`).Rows()
	if err != nil {
		return fmt.Errorf("查询 characters 失败: %w", err)
	}
	return scan(ctx, rows, "characters", func(rows *sql.Rows) error {
		var c model.CharacterRow
		if err := rows.Scan(&c.MovieID, &c.PersonID, &c.Name); err != nil {
			return fmt.Errorf("解析 characters 行失败: %w", err)
		}
		return fn(c)
	})
}

// CountMovies 返回 movies 表的行数（基准对比用）
func (r *SourceRepository) CountMovies(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Raw(`SELECT COUNT(*) FROM movies`).Scan(&count).Error
	if err != nil {
		return 0, fmt.Errorf("统计 movies 失败: %w", err)
	}
	return count, nil
}
