package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRing(t *testing.T) {
	r := newRing[int](3)

	for i := 1; i <= 3; i++ {
		_, evicted := r.push(i)
		require.False(t, evicted)
	}
	require.Equal(t, 3, r.len())
	require.Equal(t, []int{3, 2, 1}, r.newest(10))

	old, evicted := r.push(4)
	require.True(t, evicted)
	require.Equal(t, 1, old)

	require.Equal(t, []int{4, 3}, r.newest(2))
	require.Equal(t, []int{3, 4}, r.last(2))
	require.Equal(t, []int{2, 3, 4}, r.last(5))
	require.Empty(t, r.newest(0))
}
