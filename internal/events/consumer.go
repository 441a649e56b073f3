package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/bharatvest/sim-engine/internal/model"
	"github.com/bharatvest/sim-engine/internal/session"
)

// MessageReader is the subset of *kafka.Reader used by Consumer.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Trader applies trade intents.
type Trader interface {
	Trade(intent model.TradeIntent) (session.TradeResult, error)
}

// NewReader returns a consumer-group reader for topic.
func NewReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 1e6,
		MaxWait:  500 * time.Millisecond,
	})
}

// Consumer applies trade intents read from Kafka.
type Consumer struct {
	r MessageReader
	t Trader
}

// NewConsumer creates a Consumer.
func NewConsumer(r MessageReader, t Trader) *Consumer {
	return &Consumer{r: r, t: t}
}

// Run reads until ctx is done or the reader fails. Malformed messages and
// rejected trades are logged and skipped.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.r.Close()
	for {
		m, err := c.r.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
		var intent model.TradeIntent
		if err := json.Unmarshal(m.Value, &intent); err != nil {
			slog.Warn("bad trade intent message", "offset", m.Offset, "err", err)
			continue
		}
		res, err := c.t.Trade(intent)
		if err != nil {
			slog.Warn("trade intent rejected",
				"symbol", intent.Symbol,
				"type", string(intent.Direction),
				"qty", intent.Quantity,
				"err", err,
			)
			continue
		}
		slog.Debug("trade intent applied", "trade_id", res.ID, "offset", m.Offset)
	}
}
