package numeric

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	n, ok := Normalize(uint32(7))
	require.True(t, ok)
	require.Equal(t, int64(7), n)
	n, ok = Normalize(uint64(math.MaxInt64))
	require.True(t, ok)
	require.Equal(t, int64(math.MaxInt64), n)
	_, ok = Normalize("7")
	require.False(t, ok)
}

func TestLargeUnsignedKeepTheirSign(t *testing.T) {
	big := uint64(math.MaxUint64)
	n, ok := Normalize(big)
	require.True(t, ok)
	require.Equal(t, float64(big), n)

	sum, err := Add(big, 1)
	require.Nil(t, err)
	require.Greater(t, sum.(float64), 0.0)

	max, err := Max(big, int64(5))
	require.Nil(t, err)
	require.Equal(t, float64(uint64(math.MaxUint64)), max)
	min, err := Min(big, int64(-1))
	require.Nil(t, err)
	require.Equal(t, int64(-1), min)
}
