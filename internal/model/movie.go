package model

// Movie 电影主表记录（规范化源）
type Movie struct {
	MovieID        string `db:"movie_id"`
	PrimaryTitle   string `db:"primary_title"`
	StartYear      int    `db:"start_year"`
	RuntimeMinutes *int   `db:"runtime_minutes"` // 可能为 NULL
}

// Rating 评分记录，每部电影至多一条
type Rating struct {
	MovieID       string  `db:"movie_id"`
	AverageRating float64 `db:"average_rating"`
	NumVotes      int     `db:"num_votes"`
}

// Person 人物记录
type Person struct {
	PersonID string `db:"person_id"`
	Name     string `db:"name"`
}

// GenreRow 电影-类型关联行
type GenreRow struct {
	MovieID string `db:"movie_id"`
	Genre   string `db:"genre"`
}

// CreditRow 电影-人物关联行（导演 / 编剧 / 出演均为此形状）
type CreditRow struct {
	MovieID  string `db:"movie_id"`
	PersonID string `db:"person_id"`
}

// CharacterRow 角色行，同一 (movie, person) 可以有多个角色名
type CharacterRow struct {
	MovieID  string `db:"movie_id"`
	PersonID string `db:"person_id"`
	Name     string `db:"name"`
}
