package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderClauseDefaults(t *testing.T) {
	clause, err := OrderClause("", "")
	require.NoError(t, err)
	assert.Equal(t, "a.created_at ASC, a.article_id ASC", clause)
}

func TestOrderClauseAllowList(t *testing.T) {
	for _, key := range SortKeys() {
		for _, order := range []string{"asc", "DESC", "Desc"} {
			clause, err := OrderClause(key, order)
			require.NoError(t, err, "sort_by=%s order=%s", key, order)
			assert.Contains(t, clause, articleSortColumns[key])
		}
	}
}

func TestOrderClauseRejectsUnknownInput(t *testing.T) {
	_, err := OrderClause("hello", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadSortBy)
	assert.Equal(t, "bad request in sort by query", err.Error())

	_, err = OrderClause("votes; DROP TABLE articles", "ASC")
	assert.ErrorIs(t, err, ErrBadSortBy)

	_, err = OrderClause("votes", "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadOrder)
	assert.Equal(t, "bad request in order query", err.Error())

	_, err = OrderClause("votes", "ASC NULLS FIRST")
	assert.ErrorIs(t, err, ErrBadOrder)
}

func TestPageOffset(t *testing.T) {
	assert.Equal(t, 0, PageOpts{}.Offset())
	assert.Equal(t, 6, PageOpts{Limit: 2, Page: 3}.Offset())
	assert.Equal(t, 50, PageOpts{Page: 5}.Offset())
	assert.Equal(t, DefaultLimit, PageOpts{Limit: -1}.Normalize().Limit)
}

func TestPageValidate(t *testing.T) {
	for _, ok := range []PageOpts{{}, {Limit: MaxLimit}, {Limit: 2, Page: 3}, {Page: MaxOffset / DefaultLimit}} {
		assert.NoError(t, ok.Validate(), "%+v", ok)
	}
	for _, bad := range []PageOpts{
		{Limit: -1},
		{Page: -1},
		{Limit: MaxLimit + 1},
		{Limit: 1 << 62, Page: 2},
		{Limit: MaxLimit, Page: MaxOffset/MaxLimit + 1},
		{Page: MaxOffset/DefaultLimit + 1},
	} {
		err := bad.Validate()
		require.Error(t, err, "%+v", bad)
		assert.Equal(t, "bad request", err.Error())
	}
}

func TestCodeOf(t *testing.T) {
	err := &DBError{Code: CodeNotNullViolation, Err: assert.AnError}
	assert.Equal(t, CodeNotNullViolation, CodeOf(err))
	assert.Equal(t, "", CodeOf(assert.AnError))
	assert.ErrorIs(t, err, assert.AnError)
}
