// Package kafkatransport feeds Kafka messages to an eventproc.Processor and
// publishes each response event to a reply topic.
package kafkatransport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/bjaus/eventproc"
)

// Header keys set on every reply message.
const (
	HeaderFlowID = "flowId"
	HeaderName   = "name"
)

// Reader is the part of *kafka.Reader the consumer uses.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Writer is the part of *kafka.Writer the consumer uses.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Processor is the part of *eventproc.Processor the consumer uses.
type Processor interface {
	Process(ctx context.Context, raw []byte) eventproc.Event
}

// Config describes the topics the consumer reads from and replies to.
type Config struct {
	Brokers    []string
	Topic      string
	ReplyTopic string
	GroupID    string
}

// NewReader builds a consumer-group reader for cfg.Topic.
func NewReader(cfg Config) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.Topic,
		GroupID:     cfg.GroupID,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     time.Second,
		StartOffset: kafka.FirstOffset,
	})
}

// NewWriter builds a synchronous writer for cfg.ReplyTopic. Replies are
// partitioned by the request key.
func NewWriter(cfg Config) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.ReplyTopic,
		Balancer:               &kafka.Hash{},
		ReadTimeout:            10 * time.Second,
		WriteTimeout:           10 * time.Second,
		AllowAutoTopicCreation: true,
	}
}

// Option configures a Consumer.
type Option func(*Consumer)

// WithLogger sets the consumer's logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Consumer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Consumer reads request events, processes them and writes one reply per
// request. A request is committed only after its reply is written.
type Consumer struct {
	reader    Reader
	writer    Writer
	processor Processor
	logger    *slog.Logger
}

// New creates a Consumer.
//
// Example:
//
//	cfg := kafkatransport.Config{Brokers: brokers, Topic: "events", ReplyTopic: "events.replies", GroupID: "eventd"}
//	reader := kafkatransport.NewReader(cfg)
//	defer reader.Close()
//	writer := kafkatransport.NewWriter(cfg)
//	defer writer.Close()
//
//	err := kafkatransport.New(reader, writer, processor).Run(ctx)
func New(r Reader, w Writer, p Processor, opts ...Option) *Consumer {
	c := &Consumer{
		reader:    r,
		writer:    w,
		processor: p,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run processes messages until ctx is done or the reader, writer or commit
// fails. It returns nil when stopped through ctx.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("fetch message: %w", err)
		}

		if err := c.handle(ctx, msg); err != nil {
			return err
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message) error {
	res := c.processor.Process(ctx, msg.Value)

	value, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}

	reply := kafka.Message{
		Key:   msg.Key,
		Value: value,
		Headers: []kafka.Header{
			{Key: HeaderFlowID, Value: []byte(res.FlowID.String())},
			{Key: HeaderName, Value: []byte(res.Name)},
		},
	}
	if err := c.writer.WriteMessages(ctx, reply); err != nil {
		return fmt.Errorf("write reply for offset %d: %w", msg.Offset, err)
	}

	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		return fmt.Errorf("commit offset %d: %w", msg.Offset, err)
	}

	c.logger.DebugContext(ctx, "event replied",
		slog.String("topic", msg.Topic),
		slog.Int("partition", msg.Partition),
		slog.Int64("offset", msg.Offset),
		slog.String("response", res.Name),
	)
	return nil
}
