// Package brew tracks potion batches: when one starts, which ingredients go
// in, and the summary sent out on completion. Ingredient volumes come from
// liquid level deltas measured by the sensor pipeline.
package brew

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"BrewSense/internal/model"
)

// ErrNoActiveBatch is returned by operations that need a started batch.
var ErrNoActiveBatch = errors.New("no active batch")

// LevelSource provides the current filtered liquid level.
type LevelSource interface {
	Sample() (model.FilteredReading, error)
}

// Notifier publishes a completed batch summary.
type Notifier interface {
	SendBatch(ctx context.Context, batch model.Batch) error
}

// Tracker manages the lifecycle of one brew batch at a time. It is driven
// sequentially by the monitor loop and is not safe for concurrent use.
type Tracker struct {
	Levels   LevelSource
	Notifier Notifier

	active    *model.Batch
	lastLevel float64
	now       func() time.Time
}

// NewTracker creates a tracker reading levels from src and reporting
// completed batches through n.
func NewTracker(src LevelSource, n Notifier) *Tracker {
	return &Tracker{Levels: src, Notifier: n, now: time.Now}
}

// StartBatch begins a new batch, taking the current level as the baseline
// for ingredient volumes. An unfinished batch in progress is discarded with
// a warning.
func (t *Tracker) StartBatch(ctx context.Context) (model.Batch, error) {
	if err := ctx.Err(); err != nil {
		return model.Batch{}, err
	}
	if t.active != nil {
		slog.Warn("[brew] discarding unfinished batch", "id", t.active.ID,
			"ingredients", len(t.active.Ingredients))
		t.active = nil
	}

	baseline, err := t.Levels.Sample()
	if err != nil {
		return model.Batch{}, fmt.Errorf("baseline level: %w", err)
	}

	t.active = &model.Batch{
		ID:        uuid.NewString(),
		StartTime: t.now().Format(time.RFC3339),
	}
	t.lastLevel = baseline.Reading
	slog.Info("[brew] batch started", "id", t.active.ID, "baseline", baseline.Reading)
	return *t.active, nil
}

// AddIngredient records an ingredient addition. The volume is the signed
// level change since the previous measurement, so a drop in level shows up
// as a negative volume.
func (t *Tracker) AddIngredient(ctx context.Context, kind string) (model.Ingredient, error) {
	if err := ctx.Err(); err != nil {
		return model.Ingredient{}, err
	}
	if t.active == nil {
		return model.Ingredient{}, ErrNoActiveBatch
	}

	current, err := t.Levels.Sample()
	if err != nil {
		return model.Ingredient{}, fmt.Errorf("ingredient level: %w", err)
	}

	ingredient := model.Ingredient{
		Type:      kind,
		Volume:    current.Reading - t.lastLevel,
		Timestamp: t.now().Format(time.RFC3339),
	}
	t.active.Ingredients = append(t.active.Ingredients, ingredient)
	t.active.TotalVolume += ingredient.Volume
	t.lastLevel = current.Reading

	slog.Info("[brew] ingredient added", "batch", t.active.ID,
		"type", kind, "volume", ingredient.Volume)
	return ingredient, nil
}

// CompleteBatch stamps the completion time and publishes the summary. When
// publishing fails the batch stays active so a later attempt can retry.
func (t *Tracker) CompleteBatch(ctx context.Context) (model.Batch, error) {
	if t.active == nil {
		return model.Batch{}, ErrNoActiveBatch
	}

	t.active.CompletedAt = t.now().Format(time.RFC3339)
	if err := t.Notifier.SendBatch(ctx, *t.active); err != nil {
		t.active.CompletedAt = ""
		return model.Batch{}, fmt.Errorf("publish batch summary: %w", err)
	}

	done := *t.active
	t.active = nil
	slog.Info("[brew] batch completed", "id", done.ID,
		"ingredients", len(done.Ingredients), "total_volume", done.TotalVolume)
	return done, nil
}

// Active returns a copy of the batch in progress, if any.
func (t *Tracker) Active() (model.Batch, bool) {
	if t.active == nil {
		return model.Batch{}, false
	}
	return *t.active, true
}
