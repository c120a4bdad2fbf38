package query

import (
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAll(t *testing.T) {
	assert.Nil(t, All())
	assert.Nil(t, All(nil, EqText("a", " "), Goe[int]("b", nil)))

	one := EqText("a", "x")
	assert.Equal(t, one, All(nil, one))

	sql, args, err := All(EqText("a", "x"), Loe("b", ptr(3))).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "(a = ? AND b <= ?)", sql)
	assert.Equal(t, []any{"x", 3}, args)
}

func TestFilter(t *testing.T) {
	b := sq.Select("*").From("t")
	sql, _, err := Filter(b, nil).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM t", sql)

	sql, args, err := Filter(b, Eq("id", ptr(int64(7)))).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM t WHERE id = ?", sql)
	assert.Equal(t, []any{int64(7)}, args)
}

func TestContainsText(t *testing.T) {
	assert.Nil(t, ContainsText("name", ""))
	sql, args, err := ContainsText("name", " 100%_off ").ToSql()
	require.NoError(t, err)
	assert.Equal(t, "name ILIKE ?", sql)
	assert.Equal(t, []any{`%100\%\_off%`}, args)
}

func TestEqText_NeverEmitsNullComparison(t *testing.T) {
	assert.Nil(t, EqText("name", ""))
	assert.Nil(t, Eq[string]("name", nil))
	assert.Nil(t, Loe[int]("age", nil))
}

func ptr[T any](v T) *T { return &v }
