package brew

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BrewSense/internal/model"
)

type fakeLevels struct {
	readings []float64
	err      error
	idx      int
}

func (f *fakeLevels) Sample() (model.FilteredReading, error) {
	if f.err != nil {
		return model.FilteredReading{}, f.err
	}
	r := f.readings[f.idx%len(f.readings)]
	f.idx++
	return model.FilteredReading{Timestamp: "2026-08-21T10:00:00Z", Reading: r}, nil
}

type fakeNotifier struct {
	batches []model.Batch
	err     error
}

func (f *fakeNotifier) SendBatch(ctx context.Context, batch model.Batch) error {
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, batch)
	return nil
}

func newTestTracker(levels *fakeLevels, n *fakeNotifier) *Tracker {
	t := NewTracker(levels, n)
	t.now = func() time.Time {
		return time.Date(2026, 8, 21, 10, 0, 0, 0, time.UTC)
	}
	return t
}

func TestStartBatch(t *testing.T) {
	tr := newTestTracker(&fakeLevels{readings: []float64{20}}, &fakeNotifier{})

	batch, err := tr.StartBatch(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, batch.ID)
	assert.Equal(t, "2026-08-21T10:00:00Z", batch.StartTime)
	assert.Empty(t, batch.Ingredients)
	assert.Zero(t, batch.TotalVolume)

	_, ok := tr.Active()
	assert.True(t, ok)
}

func TestStartBatchBaselineFailure(t *testing.T) {
	tr := newTestTracker(&fakeLevels{err: errors.New("sensor down")}, &fakeNotifier{})

	_, err := tr.StartBatch(context.Background())
	assert.ErrorContains(t, err, "baseline level")

	_, ok := tr.Active()
	assert.False(t, ok)
}

func TestStartBatchDiscardsUnfinished(t *testing.T) {
	levels := &fakeLevels{readings: []float64{20, 22, 25}}
	tr := newTestTracker(levels, &fakeNotifier{})

	_, err := tr.StartBatch(context.Background())
	require.NoError(t, err)
	_, err = tr.AddIngredient(context.Background(), "dragon_blood")
	require.NoError(t, err)

	second, err := tr.StartBatch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, second.Ingredients, "new batch starts clean")

	active, ok := tr.Active()
	require.True(t, ok)
	assert.Equal(t, second.ID, active.ID)
}

func TestAddIngredientVolumes(t *testing.T) {
	levels := &fakeLevels{readings: []float64{20, 22.5, 21.5}}
	tr := newTestTracker(levels, &fakeNotifier{})

	_, err := tr.StartBatch(context.Background())
	require.NoError(t, err)

	first, err := tr.AddIngredient(context.Background(), "dragon_blood")
	require.NoError(t, err)
	assert.Equal(t, "dragon_blood", first.Type)
	assert.InDelta(t, 2.5, first.Volume, 1e-9)

	second, err := tr.AddIngredient(context.Background(), "phoenix_tears")
	require.NoError(t, err)
	assert.InDelta(t, -1.0, second.Volume, 1e-9, "level drops record negative volume")

	active, ok := tr.Active()
	require.True(t, ok)
	assert.Len(t, active.Ingredients, 2)
	assert.InDelta(t, 1.5, active.TotalVolume, 1e-9)
}

func TestAddIngredientWithoutBatch(t *testing.T) {
	tr := newTestTracker(&fakeLevels{readings: []float64{20}}, &fakeNotifier{})

	_, err := tr.AddIngredient(context.Background(), "dragon_blood")
	assert.ErrorIs(t, err, ErrNoActiveBatch)
}

func TestCompleteBatch(t *testing.T) {
	levels := &fakeLevels{readings: []float64{20, 23}}
	notifier := &fakeNotifier{}
	tr := newTestTracker(levels, notifier)

	_, err := tr.StartBatch(context.Background())
	require.NoError(t, err)
	_, err = tr.AddIngredient(context.Background(), "unicorn_hair")
	require.NoError(t, err)

	done, err := tr.CompleteBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2026-08-21T10:00:00Z", done.CompletedAt)

	require.Len(t, notifier.batches, 1)
	assert.Equal(t, done.ID, notifier.batches[0].ID)

	_, ok := tr.Active()
	assert.False(t, ok, "completion clears the active batch")
}

func TestCompleteBatchKeepsBatchOnFailure(t *testing.T) {
	levels := &fakeLevels{readings: []float64{20}}
	notifier := &fakeNotifier{err: errors.New("flow unreachable")}
	tr := newTestTracker(levels, notifier)

	started, err := tr.StartBatch(context.Background())
	require.NoError(t, err)

	_, err = tr.CompleteBatch(context.Background())
	assert.ErrorContains(t, err, "publish batch summary")

	active, ok := tr.Active()
	require.True(t, ok, "failed publish keeps the batch for retry")
	assert.Equal(t, started.ID, active.ID)
	assert.Empty(t, active.CompletedAt)

	notifier.err = nil
	done, err := tr.CompleteBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, started.ID, done.ID)
}

func TestCompleteBatchWithoutBatch(t *testing.T) {
	tr := newTestTracker(&fakeLevels{readings: []float64{20}}, &fakeNotifier{})

	_, err := tr.CompleteBatch(context.Background())
	assert.ErrorIs(t, err, ErrNoActiveBatch)
}
