package subscriber

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"admin-notifier/internal/model"

	"github.com/cenkalti/backoff/v4"
	json "github.com/goccy/go-json"
	"go.uber.org/zap"
)

var ErrDecode = errors.New("decode notification")

type State int32

const (
	StateDisconnected State = iota
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Stats: счётчики для health-эндпоинта.
type Stats struct {
	State     string `json:"state"`
	Attempts  int64  `json:"attempts"`
	Received  int64  `json:"received"`
	Rendered  int64  `json:"rendered"`
	Dropped   int64  `json:"dropped"`
	RenderErr int64  `json:"render_errors"`
}

type Subscriber struct {
	transport Transport
	topic     string
	renderer  Renderer
	retry     RetryConfig
	log       *zap.Logger

	after func(time.Duration) <-chan time.Time
	now   func() time.Time

	state     atomic.Int32
	attempts  atomic.Int64
	received  atomic.Int64
	rendered  atomic.Int64
	dropped   atomic.Int64
	renderErr atomic.Int64
}

type Option func(*Subscriber)

// WithTimer подменяет ожидание между попытками (для тестов).
func WithTimer(after func(time.Duration) <-chan time.Time) Option {
	return func(s *Subscriber) { s.after = after }
}

func WithNow(now func() time.Time) Option {
	return func(s *Subscriber) { s.now = now }
}

func New(transport Transport, topic string, renderer Renderer, retry RetryConfig, log *zap.Logger, opts ...Option) (*Subscriber, error) {
	if transport == nil {
		return nil, ErrNilTransport
	}
	if renderer == nil {
		return nil, ErrNilRenderer
	}
	if topic == "" {
		return nil, ErrNoTopic
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &Subscriber{
		transport: transport,
		topic:     topic,
		renderer:  renderer,
		retry:     retry,
		log:       log.With(zap.String("topic", topic)),
		after:     time.After,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Subscriber) State() State { return State(s.state.Load()) }

func (s *Subscriber) Stats() Stats {
	return Stats{
		State:     s.State().String(),
		Attempts:  s.attempts.Load(),
		Received:  s.received.Load(),
		Rendered:  s.rendered.Load(),
		Dropped:   s.dropped.Load(),
		RenderErr: s.renderErr.Load(),
	}
}

// Run держит подписку живой до отмены ctx. Каждая неудачная попытка
// подключения (или потеря соединения) планирует ровно одну следующую
// попытку через интервал из политики повторов.
func (s *Subscriber) Run(ctx context.Context) error {
	b := s.retry.NewBackOff()
	s.log.Info("notification subscriber started", zap.String("retry_policy", string(s.retry.Policy)))

	for {
		connected, err := s.session(ctx)
		if ctx.Err() != nil {
			s.log.Info("notification subscriber stopped")
			return nil
		}
		if connected {
			b.Reset()
		}

		delay := b.NextBackOff()
		if delay == backoff.Stop {
			return fmt.Errorf("%w: %v", ErrRetriesExhausted, err)
		}
		s.log.Warn("notification subscriber disconnected, retrying",
			zap.Error(err),
			zap.Duration("retry_in", delay),
			zap.Int64("attempts", s.attempts.Load()),
		)

		select {
		case <-ctx.Done():
			s.log.Info("notification subscriber stopped")
			return nil
		case <-s.after(delay):
		}
	}
}

// session выполняет одну полную последовательность: handshake, подписка,
// чтение до потери соединения. connected == true, если handshake и подписка прошли.
func (s *Subscriber) session(ctx context.Context) (bool, error) {
	s.attempts.Add(1)

	conn, err := s.transport.Connect(ctx)
	if err != nil {
		return false, fmt.Errorf("connect: %w", err)
	}
	defer func() {
		s.setState(StateDisconnected)
		if cerr := conn.Close(); cerr != nil {
			s.log.Debug("close connection", zap.Error(cerr))
		}
	}()

	deliveries, err := conn.Subscribe(ctx, s.topic)
	if err != nil {
		return false, fmt.Errorf("subscribe: %w", err)
	}
	s.setState(StateConnected)
	s.log.Info("subscribed to notifications")

	for {
		select {
		case <-ctx.Done():
			return true, ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return true, ErrStreamClosed
			}
			s.handle(ctx, d)
		}
	}
}

func (s *Subscriber) handle(ctx context.Context, d Delivery) {
	if d.Err != nil {
		s.dropped.Add(1)
		s.log.Error("delivery error", zap.Error(d.Err))
		return
	}
	s.received.Add(1)

	n, err := Decode(d.Body)
	if err != nil {
		s.dropped.Add(1)
		s.log.Error("unable to decode notification", zap.ByteString("body", d.Body), zap.Error(err))
		return
	}
	n.ReceivedAt = s.now()

	if err := s.renderer.Render(ctx, n); err != nil {
		s.renderErr.Add(1)
		s.log.Error("render notification", zap.String("order_code", n.OrderCode), zap.Error(err))
		return
	}
	s.rendered.Add(1)
	s.log.Debug("notification rendered", zap.String("order_code", n.OrderCode))
}

func (s *Subscriber) setState(st State) {
	if State(s.state.Swap(int32(st))) != st {
		s.log.Info("subscriber state changed", zap.Stringer("state", st))
	}
}

// Decode разбирает тело сообщения как JSON-объект уведомления.
// Без orderId или orderCode сообщение не считается уведомлением о заказе.
// totalAmount может быть null.
func Decode(body []byte) (model.Notification, error) {
	if trimmed := bytes.TrimSpace(body); len(trimmed) == 0 || trimmed[0] != '{' {
		return model.Notification{}, fmt.Errorf("%w: body is not a JSON object", ErrDecode)
	}
	var n model.Notification
	if err := json.Unmarshal(body, &n); err != nil {
		return model.Notification{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if n.OrderID == "" || n.OrderCode == "" {
		return model.Notification{}, fmt.Errorf("%w: orderId and orderCode are required", ErrDecode)
	}
	return n, nil
}
