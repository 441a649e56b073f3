// Package events streams simulation activity to Kafka and accepts trade
// intents from it.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/bharatvest/sim-engine/internal/metrics"
	"github.com/bharatvest/sim-engine/internal/session"
)

// MessageWriter is the subset of *kafka.Writer used by Publisher.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewWriter returns a writer that routes by Message.Topic.
func NewWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
}

// TickEvent is the message published after every tick.
type TickEvent struct {
	Seq     uint64       `json:"seq"`
	At      time.Time    `json:"at"`
	Quotes  []Quote      `json:"quotes"`
	Indices []IndexQuote `json:"indices"`
}

type Quote struct {
	Symbol        string          `json:"symbol"`
	Price         decimal.Decimal `json:"price"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"change_percent"`
}

type IndexQuote struct {
	Name          string          `json:"name"`
	Value         decimal.Decimal `json:"value"`
	ChangePercent decimal.Decimal `json:"change_percent"`
}

// Publisher is a session.Listener that forwards ticks and trades to Kafka.
// Callbacks only enqueue; Run does the writing.
type Publisher struct {
	w          MessageWriter
	tickTopic  string
	tradeTopic string
	queue      chan kafka.Message
}

// NewPublisher creates a Publisher with room for buffer pending messages.
func NewPublisher(w MessageWriter, tickTopic, tradeTopic string, buffer int) *Publisher {
	return &Publisher{
		w:          w,
		tickTopic:  tickTopic,
		tradeTopic: tradeTopic,
		queue:      make(chan kafka.Message, buffer),
	}
}

func (p *Publisher) OnTick(s session.Snapshot) {
	ev := TickEvent{
		Seq:     s.Seq,
		At:      s.At,
		Quotes:  make([]Quote, len(s.Instruments)),
		Indices: make([]IndexQuote, len(s.Indices)),
	}
	for i, x := range s.Instruments {
		ev.Quotes[i] = Quote{Symbol: x.Symbol, Price: x.Price, Change: x.Change, ChangePercent: x.ChangePercent}
	}
	for i, x := range s.Indices {
		ev.Indices[i] = IndexQuote{Name: x.Name, Value: x.Value, ChangePercent: x.ChangePercent}
	}
	p.enqueue(p.tickTopic, "tick", s.At, ev)
}

func (p *Publisher) OnTrade(r session.TradeResult) {
	p.enqueue(p.tradeTopic, r.Intent.Symbol, r.At, r)
}

func (p *Publisher) enqueue(topic, key string, at time.Time, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		slog.Error("event encode failed", "topic", topic, "err", err)
		return
	}
	msg := kafka.Message{Topic: topic, Key: []byte(key), Value: b, Time: at}
	select {
	case p.queue <- msg:
	default:
		metrics.EventsPublished.WithLabelValues(topic, "dropped").Inc()
		slog.Warn("event queue full, dropping message", "topic", topic)
	}
}

// Run writes queued messages until ctx is done, then closes the writer.
func (p *Publisher) Run(ctx context.Context) {
	defer p.w.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-p.queue:
			if err := p.w.WriteMessages(ctx, msg); err != nil {
				metrics.EventsPublished.WithLabelValues(msg.Topic, "error").Inc()
				slog.Error("kafka write failed", "topic", msg.Topic, "err", err)
				continue
			}
			metrics.EventsPublished.WithLabelValues(msg.Topic, "ok").Inc()
		}
	}
}
