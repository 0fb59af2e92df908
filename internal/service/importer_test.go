package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanValue(t *testing.T) {
	assert.Equal(t, "tt0111161", cleanValue("tt0111161"))
	assert.Equal(t, "142", cleanValue(" 142 "))
	// IMDB 数据集的缺失值标记
	assert.Nil(t, cleanValue(`\N`))
	assert.Nil(t, cleanValue(""))
	assert.Nil(t, cleanValue("   "))
}

func TestMapColumns(t *testing.T) {
	header := []string{"Movie_ID", "primary_title", "start_year", "runtime_minutes", "extra"}
	idx, err := mapColumns(header, []string{"movie_id", "start_year"})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, idx)
}

func TestMapColumnsMissing(t *testing.T) {
	_, err := mapColumns([]string{"movie_id"}, []string{"movie_id", "genre"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "genre")
}
