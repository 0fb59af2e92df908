package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver() *PersonResolver {
	r := NewPersonResolver()
	r.Put("p1", "A. Actor")
	r.Put("p2", "B. Actor")
	return r
}

func TestCastIndexTwoPass(t *testing.T) {
	c := NewCastIndex(newTestResolver())

	// 第一遍: principals
	c.AddPrincipal("m1", "p1")
	c.AddPrincipal("m1", "p2")

	// 第二遍: characters
	c.AddCharacter("m1", "p1", "Hero")
	c.AddCharacter("m1", "p1", "Narrator")
	c.AddCharacter("m1", "p2", "Villain")

	cast := c.Get("m1")
	require.Len(t, cast, 2)
	assert.Equal(t, "p1", cast[0].PersonID)
	assert.Equal(t, "A. Actor", cast[0].Name)
	assert.Equal(t, []string{"Hero", "Narrator"}, cast[0].Characters)
	assert.Equal(t, []string{"Villain"}, cast[1].Characters)
}

func TestCastIndexDeduplicatesPrincipals(t *testing.T) {
	c := NewCastIndex(newTestResolver())
	c.AddPrincipal("m1", "p1")
	c.AddPrincipal("m1", "p1")
	c.AddPrincipal("m1", "p1")

	assert.Len(t, c.Get("m1"), 1)
}

func TestCastIndexPreservesFirstAppearanceOrder(t *testing.T) {
	c := NewCastIndex(newTestResolver())
	c.AddPrincipal("m1", "p2")
	c.AddPrincipal("m1", "p1")
	c.AddPrincipal("m1", "p2") // 重复，不影响顺序

	cast := c.Get("m1")
	require.Len(t, cast, 2)
	assert.Equal(t, "p2", cast[0].PersonID)
	assert.Equal(t, "p1", cast[1].PersonID)
}

func TestCastIndexDropsOrphanCharacters(t *testing.T) {
	c := NewCastIndex(newTestResolver())
	c.AddPrincipal("m1", "p1")

	// 没有对应出演记录的角色行被静默丢弃
	c.AddCharacter("m1", "p9", "Ghost")
	c.AddCharacter("m9", "p1", "Ghost")

	cast := c.Get("m1")
	require.Len(t, cast, 1)
	assert.Empty(t, cast[0].Characters)
	assert.Len(t, c.Get("m9"), 0)
}

func TestCastIndexCharactersDoNotLeakAcrossMovies(t *testing.T) {
	c := NewCastIndex(newTestResolver())
	c.AddPrincipal("m1", "p1")
	c.AddPrincipal("m2", "p1")
	c.AddCharacter("m1", "p1", "Hero")
	c.AddCharacter("m2", "p1", "Villain")

	assert.Equal(t, []string{"Hero"}, c.Get("m1")[0].Characters)
	assert.Equal(t, []string{"Villain"}, c.Get("m2")[0].Characters)
}

func TestCastIndexUnresolvedPersonGetsSentinel(t *testing.T) {
	c := NewCastIndex(NewPersonResolver())
	c.AddPrincipal("m2", "p9")

	cast := c.Get("m2")
	require.Len(t, cast, 1)
	assert.Equal(t, UnknownName, cast[0].Name)
	assert.Equal(t, []string{}, cast[0].Characters)
}

func TestCastIndexUnknownMovieReturnsEmptySlice(t *testing.T) {
	c := NewCastIndex(newTestResolver())
	cast := c.Get("m404")
	assert.NotNil(t, cast)
	assert.Empty(t, cast)
}

func TestCastIndexCharactersKeepDuplicates(t *testing.T) {
	c := NewCastIndex(newTestResolver())
	c.AddPrincipal("m1", "p1")
	// 角色名不去重，按出现顺序收集
	c.AddCharacter("m1", "p1", "Hero")
	c.AddCharacter("m1", "p1", "Hero")

	assert.Equal(t, []string{"Hero", "Hero"}, c.Get("m1")[0].Characters)
}
