package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID       int
	Category string
	Rank     int
}

var fixture = []item{
	{ID: 1, Category: "waffle", Rank: 2},
	{ID: 2, Category: "cake", Rank: 1},
	{ID: 3, Category: "waffle", Rank: 1},
	{ID: 4, Category: "cake", Rank: 2},
	{ID: 5, Category: "waffle", Rank: 1},
}

func byCategory(c string) Predicate[item] {
	return func(i item) bool { return i.Category == c }
}

func minRank(r int) Predicate[item] {
	return func(i item) bool { return i.Rank >= r }
}

func ids(items []item) []int {
	out := make([]int, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestRun_FiltersCompose(t *testing.T) {
	result, err := Run(fixture, []Predicate[item]{byCategory("waffle"), minRank(2)}, nil, 1, NoLimit)
	require.NoError(t, err)

	assert.Equal(t, []int{1}, ids(result.Items))
	assert.Equal(t, 1, result.Total)
}

func TestRun_StableSortKeepsTieOrder(t *testing.T) {
	less := func(a, b item) bool { return a.Rank < b.Rank }

	result, err := Run(fixture, nil, less, 1, NoLimit)
	require.NoError(t, err)

	// Rank 1 items keep their original relative order (2, 3, 5), then rank 2.
	assert.Equal(t, []int{2, 3, 5, 1, 4}, ids(result.Items))
}

func TestRun_Pagination(t *testing.T) {
	result, err := Run(fixture, nil, nil, 2, 2)
	require.NoError(t, err)

	assert.Equal(t, []int{3, 4}, ids(result.Items))
	assert.Equal(t, 5, result.Total)
	assert.Equal(t, 2, result.Page)
	assert.Equal(t, 2, result.PageSize)
	assert.Equal(t, 3, result.TotalPages)
}

func TestRun_PageBeyondLastIsEmpty(t *testing.T) {
	result, err := Run(fixture, nil, nil, 9, 2)
	require.NoError(t, err)

	assert.Empty(t, result.Items)
	assert.NotNil(t, result.Items, "items marshals as [] rather than null")
	assert.Equal(t, 5, result.Total)
	assert.Equal(t, 3, result.TotalPages)
}

func TestRun_NoLimitReturnsSinglePage(t *testing.T) {
	result, err := Run(fixture, nil, nil, 1, NoLimit)
	require.NoError(t, err)

	assert.Len(t, result.Items, 5)
	assert.Equal(t, 1, result.Page)
	assert.Equal(t, 5, result.PageSize)
	assert.Equal(t, 1, result.TotalPages)
}

func TestRun_NoLimitEmptyInput(t *testing.T) {
	result, err := Run([]item{}, nil, nil, 1, NoLimit)
	require.NoError(t, err)

	assert.Empty(t, result.Items)
	assert.Equal(t, 0, result.TotalPages)
}

func TestRun_InvalidPage(t *testing.T) {
	_, err := Run(fixture, nil, nil, 0, 10)
	assert.ErrorIs(t, err, ErrInvalidQuery)

	_, err = Run(fixture, nil, nil, -1, 10)
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestRun_InvalidLimit(t *testing.T) {
	_, err := Run(fixture, nil, nil, 1, 0)
	assert.ErrorIs(t, err, ErrInvalidQuery)

	_, err = Run(fixture, nil, nil, 1, -2)
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestRun_DoesNotModifyInput(t *testing.T) {
	input := []item{{ID: 3, Rank: 3}, {ID: 1, Rank: 1}, {ID: 2, Rank: 2}}
	less := func(a, b item) bool { return a.Rank < b.Rank }

	_, err := Run(input, nil, less, 1, NoLimit)
	require.NoError(t, err)

	assert.Equal(t, []int{3, 1, 2}, ids(input))
}
