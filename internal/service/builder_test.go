package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/cineexplorer/internal/model"
)

// fakeSource 内存中的规范化源
type fakeSource struct {
	movies     []model.Movie
	ratings    []model.Rating
	genres     []model.GenreRow
	persons    []model.Person
	directors  []model.CreditRow
	writers    []model.CreditRow
	principals []model.CreditRow
	characters []model.CharacterRow

	ratingsErr error // EachRating 直接返回该错误，模拟关系不可读
}

func (f *fakeSource) EachMovie(_ context.Context, fn func(model.Movie) error) error {
	for _, m := range f.movies {
		if err := fn(m); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeSource) EachRating(_ context.Context, fn func(model.Rating) error) error {
	if f.ratingsErr != nil {
		return f.ratingsErr
	}
	for _, r := range f.ratings {
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeSource) EachGenre(_ context.Context, fn func(model.GenreRow) error) error {
	for _, g := range f.genres {
		if err := fn(g); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeSource) EachPerson(_ context.Context, fn func(model.Person) error) error {
	for _, p := range f.persons {
		if err := fn(p); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeSource) EachDirector(_ context.Context, fn func(model.CreditRow) error) error {
	for _, c := range f.directors {
		if err := fn(c); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeSource) EachWriter(_ context.Context, fn func(model.CreditRow) error) error {
	for _, c := range f.writers {
		if err := fn(c); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeSource) EachPrincipal(_ context.Context, fn func(model.CreditRow) error) error {
	for _, c := range f.principals {
		if err := fn(c); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeSource) EachCharacter(_ context.Context, fn func(model.CharacterRow) error) error {
	for _, c := range f.characters {
		if err := fn(c); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeSource) CountMovies(_ context.Context) (int64, error) {
	return int64(len(f.movies)), nil
}

// fakeSink 内存中的目标集合
type fakeSink struct {
	dropped       bool
	insertsBefore bool // Drop 之前是否出现过写入
	batches       [][]model.MovieDocument
	docs          []model.MovieDocument
	indexed       bool
	failOnInsert  int  // 第 N 次 InsertBatch 返回错误，0 表示从不
	failOnIndexes bool // EnsureIndexes 返回错误
	inserts       int
}

func (f *fakeSink) Name() string { return "movies_complete" }

func (f *fakeSink) Drop(_ context.Context) error {
	f.dropped = true
	f.docs = nil
	f.batches = nil
	return nil
}

func (f *fakeSink) InsertBatch(_ context.Context, docs []model.MovieDocument) error {
	f.inserts++
	if !f.dropped {
		f.insertsBefore = true
	}
	if f.failOnInsert > 0 && f.inserts == f.failOnInsert {
		return errors.New("write failure")
	}
	batch := append([]model.MovieDocument(nil), docs...)
	f.batches = append(f.batches, batch)
	f.docs = append(f.docs, batch...)
	return nil
}

func (f *fakeSink) EnsureIndexes(_ context.Context) error {
	if f.failOnIndexes {
		return errors.New("index build failure")
	}
	f.indexed = true
	return nil
}

func intPtr(v int) *int { return &v }

// 完整场景：一部电影带齐全部关联
func concreteSource() *fakeSource {
	return &fakeSource{
		movies:  []model.Movie{{MovieID: "m1", PrimaryTitle: "Alpha", StartYear: 2000, RuntimeMinutes: intPtr(100)}},
		ratings: []model.Rating{{MovieID: "m1", AverageRating: 8.5, NumVotes: 1000}},
		genres:  []model.GenreRow{{MovieID: "m1", Genre: "Drama"}},
		persons: []model.Person{{PersonID: "p1", Name: "A. Actor"}, {PersonID: "p2", Name: "B. Director"}},
		principals: []model.CreditRow{
			{MovieID: "m1", PersonID: "p1"},
		},
		characters: []model.CharacterRow{
			{MovieID: "m1", PersonID: "p1", Name: "Hero"},
			{MovieID: "m1", PersonID: "p1", Name: "Narrator"},
		},
		directors: []model.CreditRow{{MovieID: "m1", PersonID: "p2"}},
	}
}

func TestBuildConcreteScenario(t *testing.T) {
	sink := &fakeSink{}
	builder := NewBuilder(concreteSource(), sink, 100)

	summary, err := builder.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, sink.docs, 1)

	doc := sink.docs[0]
	assert.Equal(t, "m1", doc.ID)
	assert.Equal(t, "Alpha", doc.Title)
	assert.Equal(t, 2000, doc.Year)
	require.NotNil(t, doc.Runtime)
	assert.Equal(t, 100, *doc.Runtime)
	require.NotNil(t, doc.Rating.Average)
	assert.Equal(t, 8.5, *doc.Rating.Average)
	assert.Equal(t, 1000, doc.Rating.Votes)
	assert.Equal(t, []string{"Drama"}, doc.Genres)
	assert.Equal(t, []model.CreditedPerson{{PersonID: "p2", Name: "B. Director"}}, doc.Directors)
	require.Len(t, doc.Cast, 1)
	assert.Equal(t, "p1", doc.Cast[0].PersonID)
	assert.Equal(t, "A. Actor", doc.Cast[0].Name)
	assert.Equal(t, []string{"Hero", "Narrator"}, doc.Cast[0].Characters)
	assert.Equal(t, []model.CreditedPerson{}, doc.Writers)

	assert.Equal(t, 1, summary.Movies)
	assert.Equal(t, 1, summary.Documents)
	assert.True(t, sink.indexed)
	require.NotNil(t, summary.Example)
	assert.Equal(t, "m1", summary.Example.ID)
}

func TestBuildOrphanPrincipalGetsUnknown(t *testing.T) {
	src := &fakeSource{
		movies:     []model.Movie{{MovieID: "m2", PrimaryTitle: "Beta", StartYear: 2001}},
		principals: []model.CreditRow{{MovieID: "m2", PersonID: "p9"}},
	}
	sink := &fakeSink{}

	_, err := NewBuilder(src, sink, 10).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, sink.docs, 1)

	cast := sink.docs[0].Cast
	require.Len(t, cast, 1)
	assert.Equal(t, "p9", cast[0].PersonID)
	assert.Equal(t, "Unknown", cast[0].Name)
	assert.Equal(t, []string{}, cast[0].Characters)
}

func TestBuildDefaultsForMissingAssociations(t *testing.T) {
	src := &fakeSource{
		movies: []model.Movie{{MovieID: "m3", PrimaryTitle: "Gamma", StartYear: 1999}},
	}
	sink := &fakeSink{}

	_, err := NewBuilder(src, sink, 10).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, sink.docs, 1)

	doc := sink.docs[0]
	// 缺失的关联降级为默认值，绝不缺字段
	assert.Nil(t, doc.Rating.Average)
	assert.Zero(t, doc.Rating.Votes)
	assert.Nil(t, doc.Runtime)
	assert.Equal(t, []string{}, doc.Genres)
	assert.Equal(t, []model.CreditedPerson{}, doc.Directors)
	assert.Equal(t, []model.CastMember{}, doc.Cast)
	assert.Equal(t, []model.CreditedPerson{}, doc.Writers)
}

func TestBuildDocumentCountEqualsMovieCount(t *testing.T) {
	src := &fakeSource{}
	for _, id := range []string{"m1", "m2", "m3", "m4", "m5"} {
		src.movies = append(src.movies, model.Movie{MovieID: id, PrimaryTitle: id, StartYear: 2000})
	}
	sink := &fakeSink{}

	summary, err := NewBuilder(src, sink, 2).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, summary.Documents)
	assert.Len(t, sink.docs, 5)
	// 批大小 2：两满批加一个尾批
	assert.Equal(t, 3, summary.Batches)
	assert.Len(t, sink.batches, 3)
	assert.Len(t, sink.batches[2], 1)
	assert.True(t, sink.dropped)
	assert.False(t, sink.insertsBefore)
}

func TestBuildBatchFailureAborts(t *testing.T) {
	src := &fakeSource{}
	for _, id := range []string{"m1", "m2", "m3", "m4"} {
		src.movies = append(src.movies, model.Movie{MovieID: id, PrimaryTitle: id, StartYear: 2000})
	}
	sink := &fakeSink{failOnInsert: 2}

	_, err := NewBuilder(src, sink, 2).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "装配写入失败")
	// 已提交的批次不回滚
	assert.Len(t, sink.docs, 2)
	// 中止后不再创建索引
	assert.False(t, sink.indexed)
}

func TestBuildIndexFailureIsNonFatal(t *testing.T) {
	sink := &fakeSink{failOnIndexes: true}

	summary, err := NewBuilder(concreteSource(), sink, 10).Run(context.Background())
	// 索引失败只告警，文档已全部写入，构建仍算成功
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, 1, summary.Documents)
	assert.Len(t, sink.docs, 1)
	assert.False(t, sink.indexed)
}

func TestBuildSourceFailureAbortsBeforeWrite(t *testing.T) {
	src := concreteSource()
	src.ratingsErr = errors.New("connection refused")
	sink := &fakeSink{}

	_, err := NewBuilder(src, sink, 10).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "加载 ratings 索引失败")
	// 索引阶段失败时目标集合原封不动
	assert.False(t, sink.dropped)
	assert.Zero(t, sink.inserts)
	assert.False(t, sink.indexed)
}

func TestBuildRebuildIsIdempotent(t *testing.T) {
	src := concreteSource()
	sink := &fakeSink{}
	builder := NewBuilder(src, sink, 10)

	_, err := builder.Run(context.Background())
	require.NoError(t, err)
	first := append([]model.MovieDocument(nil), sink.docs...)

	_, err = builder.Run(context.Background())
	require.NoError(t, err)

	assert.ElementsMatch(t, first, sink.docs)
}

func TestBuildDuplicatePrincipalRowsCollapse(t *testing.T) {
	src := &fakeSource{
		movies:  []model.Movie{{MovieID: "m1", PrimaryTitle: "Alpha", StartYear: 2000}},
		persons: []model.Person{{PersonID: "p1", Name: "A. Actor"}},
		principals: []model.CreditRow{
			{MovieID: "m1", PersonID: "p1"},
			{MovieID: "m1", PersonID: "p1"},
		},
	}
	sink := &fakeSink{}

	_, err := NewBuilder(src, sink, 10).Run(context.Background())
	require.NoError(t, err)
	// 同一 person_id 在 cast 里至多出现一次
	assert.Len(t, sink.docs[0].Cast, 1)
}

func TestBuildRatingLastWriteWins(t *testing.T) {
	src := &fakeSource{
		movies: []model.Movie{{MovieID: "m1", PrimaryTitle: "Alpha", StartYear: 2000}},
		ratings: []model.Rating{
			{MovieID: "m1", AverageRating: 5.0, NumVotes: 10},
			{MovieID: "m1", AverageRating: 9.0, NumVotes: 20},
		},
	}
	sink := &fakeSink{}

	_, err := NewBuilder(src, sink, 10).Run(context.Background())
	require.NoError(t, err)

	// 源表理应保证唯一，不做防御性去重，后写的覆盖先写的
	doc := sink.docs[0]
	require.NotNil(t, doc.Rating.Average)
	assert.Equal(t, 9.0, *doc.Rating.Average)
	assert.Equal(t, 20, doc.Rating.Votes)
}
