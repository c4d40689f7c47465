package roomid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForIsSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"userA", "userB"},
		{"zzz", "aaa"},
		{"demo-user-0001", "demo-user-0010"},
		{"a", "a"},
	}
	for _, p := range pairs {
		assert.Equal(t, For(p[0], p[1]), For(p[1], p[0]))
	}
}

func TestForFormat(t *testing.T) {
	assert.Equal(t, "userA_userB", For("userB", "userA"))
	assert.Equal(t, "userA_userB", For("userA", "userB"))
}

func TestSortPair(t *testing.T) {
	a, b := SortPair("beta", "alpha")
	assert.Equal(t, "alpha", a)
	assert.Equal(t, "beta", b)
}

func TestSplit(t *testing.T) {
	a, b, ok := Split("userA_userB")
	assert.True(t, ok)
	assert.Equal(t, "userA", a)
	assert.Equal(t, "userB", b)

	_, _, ok = Split("nounderscore")
	assert.False(t, ok)

	_, _, ok = Split("_trailing")
	assert.False(t, ok)
}
