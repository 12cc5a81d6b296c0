package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMean(t *testing.T) {
	_, ok := Mean(nil)
	assert.False(t, ok)

	m, ok := Mean([]float64{1, 2, 3, 4})
	require.True(t, ok)
	assert.InDelta(t, 2.5, m, 1e-12)
}

func TestStdDev(t *testing.T) {
	_, ok := StdDev([]float64{5})
	assert.False(t, ok)

	sd, ok := StdDev([]float64{5, 5, 5})
	require.True(t, ok)
	assert.Zero(t, sd)

	// sample stdev of 2,4,4,4,5,5,7,9 = sqrt(32/7)
	sd, ok = StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	require.True(t, ok)
	assert.InDelta(t, 2.138089935, sd, 1e-9)
}

func TestRoundAndClamp(t *testing.T) {
	assert.Equal(t, 12.3, Round(12.34, 1))
	assert.Equal(t, 12.4, Round(12.36, 1))
	assert.Equal(t, -2.0, Round(-1.5, 0))

	assert.Equal(t, 0.0, Clamp(-3, 0, 100))
	assert.Equal(t, 100.0, Clamp(130, 0, 100))
	assert.Equal(t, 42.0, Clamp(42, 0, 100))
}
