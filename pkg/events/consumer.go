package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Handler reacts to one submission change.
type Handler func(ctx context.Context, event SubmissionEvent) error

// ConsumerConfig configures a change feed consumer.
type ConsumerConfig struct {
	Brokers []string
	Topic   string
	GroupID string
	// Observe is told about every message outcome, including undecodable ones.
	Observe func(err error)
}

// Consumer reads submission events and hands them to a Handler.
type Consumer struct {
	reader  messageReader
	handler Handler
	observe func(err error)
	logger  *zap.Logger
}

// NewConsumer joins the consumer group described by cfg.
func NewConsumer(cfg ConsumerConfig, handler Handler, logger *zap.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return newConsumer(reader, handler, cfg.Observe, logger)
}

func newConsumer(reader messageReader, handler Handler, observe func(error), logger *zap.Logger) *Consumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if observe == nil {
		observe = func(error) {}
	}
	return &Consumer{reader: reader, handler: handler, observe: observe, logger: logger}
}

// Run consumes until ctx is cancelled. Messages are committed once handled;
// undecodable messages are logged and committed so they cannot block the partition.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("fetch submission event: %w", err)
		}

		err = c.handle(ctx, msg)
		c.observe(err)
		if err != nil {
			c.logger.Warn("submission event not handled",
				zap.String("topic", msg.Topic),
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("commit submission event: %w", err)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message) error {
	var event SubmissionEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("decode submission event: %w", err)
	}
	if event.SubmissionID == "" {
		event.SubmissionID = string(msg.Key)
	}
	return c.handler(ctx, event)
}

// Close leaves the consumer group.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
