// Package app implements the web console and archive layer for the
// BrewSense dashboard.
package app

import (
	"log/slog"
	"time"

	"go.etcd.io/bbolt"

	"BrewSense/internal/model"
	"BrewSense/internal/parser"
)

// Archive bucket names, one per stream message type.
const (
	bucketReadings = "readings"
	bucketCommands = "commands"
)

// archive consumes stream messages until stopped and writes each one to the
// archive.
func (c *Console) archive(ch <-chan model.StreamMessage) {
	defer c.wg.Done()
	for {
		select {
		case <-c.archStop:
			return
		case msg := <-ch:
			if err := c.storeMessage(msg); err != nil {
				slog.Warn("[console] archive write failed", "error", err)
			}
		}
	}
}

// storeMessage saves one stream message under its arrival time.
func (c *Console) storeMessage(msg model.StreamMessage) error {
	bucket := bucketReadings
	if msg.Type == parser.TypeVoiceCommand {
		bucket = bucketCommands
	}
	line, err := parser.EncodeStream(msg)
	if err != nil {
		return err
	}
	key := time.Now().Format(time.RFC3339Nano)
	return c.DB.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucket))
		if err != nil {
			return err
		}
		return b.Put([]byte(key), []byte(line))
	})
}
