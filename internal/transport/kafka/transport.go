package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"admin-notifier/internal/subscriber"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var ErrNoBrokers = errors.New("no kafka brokers configured")

// Transport читает уведомления о заказах из Kafka-топика вместо STOMP.
// Connect проверяет доступность хотя бы одного брокера.
type Transport struct {
	brokers []string
	groupID string
	log     *zap.Logger
	dial    func(ctx context.Context, network, address string) (io.Closer, error)
}

func NewTransport(brokers []string, groupID string, log *zap.Logger) (*Transport, error) {
	if len(brokers) == 0 {
		return nil, ErrNoBrokers
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Transport{
		brokers: brokers,
		groupID: groupID,
		log:     log,
		dial: func(ctx context.Context, network, address string) (io.Closer, error) {
			return kafka.DialContext(ctx, network, address)
		},
	}, nil
}

func (t *Transport) Connect(ctx context.Context) (subscriber.Conn, error) {
	var lastErr error
	for _, b := range t.brokers {
		c, err := t.dial(ctx, "tcp", b)
		if err != nil {
			lastErr = err
			t.log.Debug("kafka broker unreachable", zap.String("broker", b), zap.Error(err))
			continue
		}
		_ = c.Close()
		return &Conn{brokers: t.brokers, groupID: t.groupID, log: t.log}, nil
	}
	return nil, fmt.Errorf("dial kafka: %w", lastErr)
}

type Conn struct {
	brokers []string
	groupID string
	log     *zap.Logger

	mu     sync.Mutex
	reader *kafka.Reader
}

func (c *Conn) Subscribe(ctx context.Context, topic string) (<-chan subscriber.Delivery, error) {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:           c.brokers,
		GroupID:           c.groupID,
		Topic:             topic,
		MinBytes:          1,
		MaxBytes:          10e6,
		CommitInterval:    time.Second,
		HeartbeatInterval: 3 * time.Second,
		SessionTimeout:    30 * time.Second,
	})
	c.mu.Lock()
	c.reader = r
	c.mu.Unlock()

	out := make(chan subscriber.Delivery)
	go func() {
		defer close(out)
		c.log.Info("kafka consumer started", zap.String("topic", topic))
		for {
			m, err := r.ReadMessage(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
					return
				}
				c.log.Error("read message", zap.Error(err))
				return
			}
			select {
			case out <- subscriber.Delivery{Destination: m.Topic, Body: m.Value}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.reader == nil {
		return nil
	}
	err := c.reader.Close()
	c.reader = nil
	return err
}
