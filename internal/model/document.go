package model

// RatingInfo 内嵌评分，无评分时 average 为 null、votes 为 0
type RatingInfo struct {
	Average *float64 `bson:"average" json:"average"`
	Votes   int      `bson:"votes" json:"votes"`
}

// CreditedPerson 内嵌人物（导演 / 编剧）
type CreditedPerson struct {
	PersonID string `bson:"person_id" json:"person_id"`
	Name     string `bson:"name" json:"name"`
}

// CastMember 内嵌演员，characters 按出现顺序收集，不去重
type CastMember struct {
	PersonID   string   `bson:"person_id" json:"person_id"`
	Name       string   `bson:"name" json:"name"`
	Characters []string `bson:"characters" json:"characters"`
}

// MovieDocument 反规范化后的完整电影文档，_id 即 movie_id
// 所有关联字段缺失时降级为空序列或默认值，绝不缺字段
type MovieDocument struct {
	ID        string           `bson:"_id" json:"id"`
	Title     string           `bson:"title" json:"title"`
	Year      int              `bson:"year" json:"year"`
	Runtime   *int             `bson:"runtime" json:"runtime"`
	Rating    RatingInfo       `bson:"rating" json:"rating"`
	Genres    []string         `bson:"genres" json:"genres"`
	Directors []CreditedPerson `bson:"directors" json:"directors"`
	Cast      []CastMember     `bson:"cast" json:"cast"`
	Writers   []CreditedPerson `bson:"writers" json:"writers"`
}
