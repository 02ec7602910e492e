package webhook

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"BrewSense/internal/model"
)

// ErrInvalidReport is returned when a report misses required fields.
var ErrInvalidReport = errors.New("report missing timestamp or status")

// Connector routes the different payload kinds to their endpoints: level
// readings to the sensor flow, commands and batch summaries to the command
// flow. Endpoints left unconfigured are skipped silently, so a partial setup
// still works.
type Connector struct {
	Sensor  *Sender
	Command *Sender

	now func() time.Time
}

// NewConnector builds a connector for the two flow endpoints. Empty URLs
// disable the corresponding deliveries.
func NewConnector(sensorURL, commandURL string) *Connector {
	c := &Connector{now: time.Now}
	if sensorURL != "" {
		c.Sensor = NewSender(sensorURL)
	}
	if commandURL != "" {
		c.Command = NewSender(commandURL)
	}
	return c
}

// SendReading posts one filtered level to the sensor flow.
func (c *Connector) SendReading(ctx context.Context, level float64) error {
	if c == nil || c.Sensor == nil {
		slog.Debug("[webhook] sensor endpoint not configured, skipping")
		return nil
	}
	return c.Sensor.Send(ctx, model.LevelPayload{LiquidLevel: level})
}

// SendCommand posts recognized command tags to the command flow.
func (c *Connector) SendCommand(ctx context.Context, commands []string) error {
	if c == nil || c.Command == nil {
		slog.Debug("[webhook] command endpoint not configured, skipping")
		return nil
	}
	return c.Command.Send(ctx, model.CommandPayload{VoiceCommand: commands})
}

// SendBatch posts a completed batch summary to the command flow. The
// completion time defaults to now when the batch does not carry one.
func (c *Connector) SendBatch(ctx context.Context, batch model.Batch) error {
	if c == nil || c.Command == nil {
		slog.Debug("[webhook] command endpoint not configured, skipping")
		return nil
	}
	completion := batch.CompletedAt
	if completion == "" {
		now := c.now
		if now == nil {
			now = time.Now
		}
		completion = now().Format(time.RFC3339)
	}
	return c.Command.Send(ctx, model.BatchSummary{
		PotionData: model.BatchData{
			StartTime:      batch.StartTime,
			Ingredients:    batch.Ingredients,
			TotalVolume:    batch.TotalVolume,
			CompletionTime: completion,
		},
	})
}

// SendReport posts one validated reading report to the sensor flow.
func (c *Connector) SendReport(ctx context.Context, report model.ReportPayload) error {
	if report.Timestamp == "" || report.Status == "" {
		return ErrInvalidReport
	}
	if c == nil || c.Sensor == nil {
		slog.Debug("[webhook] sensor endpoint not configured, skipping")
		return nil
	}
	return c.Sensor.Send(ctx, report)
}

// SendReports delivers each report in order and returns a success flag per
// report.
func (c *Connector) SendReports(ctx context.Context, reports []model.ReportPayload) []bool {
	results := make([]bool, len(reports))
	for i, report := range reports {
		results[i] = c.SendReport(ctx, report) == nil
	}
	return results
}
