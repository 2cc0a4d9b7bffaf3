package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"stackit/internal/shared/events"

	libnats "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	streamSubjects = "qa.>"
	streamMaxAge   = 7 * 24 * time.Hour
	ackWait        = 30 * time.Second
	maxDeliver     = 10
)

// NATS carries events over a JetStream stream. Topics map to subjects and
// consumer groups map to durable consumers, one per topic. EventID is sent
// as the message id so relay replays are de-duplicated by the server.
type NATS struct {
	JS     jetstream.JetStream
	Stream string
	logger *slog.Logger

	mu       sync.Mutex
	consumes []jetstream.ConsumeContext
}

func ConnectNATS(ctx context.Context, url string, stream string, logger *slog.Logger) (*NATS, error) {
	if logger == nil {
		logger = slog.Default()
	}
	nc, err := libnats.Connect(url, libnats.Name("stackit"))
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("open jetstream: %w", err)
	}
	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:       stream,
		Subjects:   []string{streamSubjects},
		MaxAge:     streamMaxAge,
		Duplicates: 2 * time.Minute,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create stream %s: %w", stream, err)
	}
	logger.Info("nats stream ready",
		"event", "nats_stream_ready",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"stream", stream,
	)
	return &NATS{JS: js, Stream: stream, logger: logger}, nil
}

func (n *NATS) Publish(ctx context.Context, topic string, event events.Envelope) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	ack, err := n.JS.Publish(ctx, topic, payload, jetstream.WithMsgID(event.EventID))
	if err != nil {
		n.logger.Error("nats publish failed",
			"event", "nats_publish_failed",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"topic", topic,
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}
	n.logger.Debug("event published",
		"event", "nats_publish",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"topic", topic,
		"event_id", event.EventID,
		"sequence", ack.Sequence,
		"duplicate", ack.Duplicate,
	)
	return nil
}

func (n *NATS) Subscribe(
	ctx context.Context,
	topic string,
	consumerGroup string,
	handler func(context.Context, events.Envelope) error,
) error {
	consumer, err := n.JS.CreateOrUpdateConsumer(ctx, n.Stream, jetstream.ConsumerConfig{
		Durable:       DurableName(consumerGroup, topic),
		FilterSubject: topic,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       ackWait,
		MaxDeliver:    maxDeliver,
	})
	if err != nil {
		return fmt.Errorf("create consumer for %s: %w", topic, err)
	}

	consumeCtx, err := consumer.Consume(func(msg jetstream.Msg) {
		var event events.Envelope
		if err := json.Unmarshal(msg.Data(), &event); err != nil {
			n.logger.Error("nats message decode failed",
				"event", "nats_decode_failed",
				"module", "internal/platform/messaging",
				"layer", "platform",
				"topic", topic,
				"error", err.Error(),
			)
			_ = msg.Term()
			return
		}
		if err := handler(ctx, event); err != nil {
			n.logger.Error("consumer handler failed",
				"event", "nats_consume_failed",
				"module", "internal/platform/messaging",
				"layer", "platform",
				"topic", topic,
				"consumer_group", consumerGroup,
				"event_id", event.EventID,
				"error", err.Error(),
			)
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("consume %s: %w", topic, err)
	}

	n.mu.Lock()
	n.consumes = append(n.consumes, consumeCtx)
	n.mu.Unlock()

	go func() {
		<-ctx.Done()
		consumeCtx.Stop()
	}()
	return nil
}

// Ping reports whether the underlying connection is up.
func (n *NATS) Ping(_ context.Context) error {
	if conn := n.JS.Conn(); conn == nil || !conn.IsConnected() {
		return fmt.Errorf("nats is not connected")
	}
	return nil
}

func (n *NATS) Close() error {
	n.mu.Lock()
	for _, consumeCtx := range n.consumes {
		consumeCtx.Stop()
	}
	n.consumes = nil
	n.mu.Unlock()
	return n.JS.Conn().Drain()
}

// DurableName builds a JetStream durable consumer name, which may not
// contain dots, wildcards or whitespace.
func DurableName(consumerGroup string, topic string) string {
	replacer := strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_")
	return replacer.Replace(consumerGroup + "-" + topic)
}
