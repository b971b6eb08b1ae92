package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParamsNormalize(t *testing.T) {
	p := Params{Page: 0, Limit: 500, Search: "  essilor "}.Normalize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, MaxLimit, p.Limit)
	assert.Equal(t, "essilor", p.Search)

	assert.Equal(t, DefaultLimit, Params{}.Normalize().Limit)
	assert.Equal(t, 50, Params{Page: 3, Limit: 25}.Offset())
	assert.Equal(t, "%crizal%", Params{Search: " Crizal"}.LikePattern())
}

func TestNewMeta(t *testing.T) {
	meta := NewMeta(Params{Page: 2, Limit: 10}, 31)
	assert.Equal(t, Meta{Page: 2, Limit: 10, Total: 31, TotalPages: 4}, meta)

	empty := NewMeta(Params{}, 0)
	assert.Equal(t, 0, empty.TotalPages)
}

func TestNewResultAndMap(t *testing.T) {
	res := NewResult[int](nil, Params{}, 0)
	assert.NotNil(t, res.Items)
	assert.Empty(t, res.Items)

	mapped := Map(NewResult([]int{1, 2}, Params{Limit: 10}, 2), func(v int) string {
		return string(rune('a' + v))
	})
	assert.Equal(t, []string{"b", "c"}, mapped.Items)
	assert.Equal(t, int64(2), mapped.Pagination.Total)
}
