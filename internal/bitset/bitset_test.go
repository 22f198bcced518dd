package bitset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetClearIsSet(t *testing.T) {
	var s Set
	assert.False(t, s.IsSet(5))
	s.Set(5)
	assert.True(t, s.IsSet(5))
	s.Clear(5)
	assert.False(t, s.IsSet(5))
}

func TestEmpty(t *testing.T) {
	var s Set
	assert.True(t, s.Empty())
	s.Set(63)
	assert.False(t, s.Empty())
}

func TestMinMaxAcrossWordBoundary(t *testing.T) {
	var s Set
	s.Set(63)
	s.Set(64)
	assert.Equal(t, 63, s.Min())
	assert.Equal(t, 64, s.Max())
}

func TestMinMaxEmpty(t *testing.T) {
	var s Set
	assert.Equal(t, -1, s.Min())
	assert.Equal(t, -1, s.Max())
}

func TestUnionAndIntersect(t *testing.T) {
	var a, b, dst Set
	a.Set(3)
	a.Set(10)
	b.Set(10)
	b.Set(20)

	Union(&dst, &a, &b)
	assert.True(t, dst.IsSet(3))
	assert.True(t, dst.IsSet(10))
	assert.True(t, dst.IsSet(20))

	var inter Set
	Intersect(&inter, &a, &b)
	assert.True(t, inter.IsSet(10))
	assert.False(t, inter.IsSet(3))
	assert.False(t, inter.IsSet(20))
}

func TestWordsRoundTrip(t *testing.T) {
	var s Set
	s.Set(1)
	s.Set(500)
	w := s.Words()

	var s2 Set
	s2.SetWords(w)
	assert.True(t, s2.IsSet(1))
	assert.True(t, s2.IsSet(500))
}

func TestInRange(t *testing.T) {
	assert.True(t, InRange(0))
	assert.True(t, InRange(Size-1))
	assert.False(t, InRange(Size))
	assert.False(t, InRange(-1))
}
