package sensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterEmptyWindow(t *testing.T) {
	f := NewFilter(5)
	_, err := f.Current()
	assert.ErrorIs(t, err, ErrEmptyWindow)
	assert.Zero(t, f.Len())
}

func TestFilterMovingAverage(t *testing.T) {
	f := NewFilter(5)

	f.Push(20.0)
	f.Push(22.0)
	f.Push(24.0)
	avg, err := f.Current()
	require.NoError(t, err)
	assert.Equal(t, 22.0, avg)

	f.Push(30.0)
	avg, err = f.Current()
	require.NoError(t, err)
	assert.Equal(t, 24.0, avg)
}

func TestFilterEvictsOldest(t *testing.T) {
	f := NewFilter(5)
	for _, v := range []float64{10, 20, 30, 40, 50} {
		f.Push(v)
	}
	avg, err := f.Current()
	require.NoError(t, err)
	assert.Equal(t, 30.0, avg)
	assert.Equal(t, 5, f.Len())

	f.Push(60)
	avg, err = f.Current()
	require.NoError(t, err)
	assert.Equal(t, 40.0, avg)
	assert.Equal(t, 5, f.Len())

	f.Push(70)
	avg, err = f.Current()
	require.NoError(t, err)
	assert.Equal(t, 50.0, avg)
}

func TestFilterRoundsMean(t *testing.T) {
	f := NewFilter(5)
	f.Push(10.0)
	f.Push(10.1)
	f.Push(10.1)
	avg, err := f.Current()
	require.NoError(t, err)
	assert.Equal(t, 10.07, avg)
}
