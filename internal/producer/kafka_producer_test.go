package producer

import (
	"context"
	"errors"
	"testing"
	"time"

	"admin-notifier/internal/model"

	json "github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

type MockWriter struct {
	WriteMessagesFunc func(ctx context.Context, msgs ...kafka.Message) error
	closed            bool
}

func (m *MockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if m.WriteMessagesFunc != nil {
		return m.WriteMessagesFunc(ctx, msgs...)
	}
	return nil
}

func (m *MockWriter) Close() error {
	m.closed = true
	return nil
}

func TestNotificationForwarder_Render(t *testing.T) {
	var written []kafka.Message
	w := &MockWriter{WriteMessagesFunc: func(ctx context.Context, msgs ...kafka.Message) error {
		if _, ok := ctx.Deadline(); !ok {
			t.Error("write context has no deadline")
		}
		written = append(written, msgs...)
		return nil
	}}
	p := &NotificationForwarder{writer: w}

	at := time.Date(2026, 2, 2, 12, 0, 0, 0, time.UTC)
	n := model.Notification{
		OrderID:      "77",
		OrderCode:    "DH77",
		CustomerName: "Phúc",
		TotalAmount:  decimal.NewNullDecimal(decimal.NewFromInt(250000)),
		ReceivedAt:   at,
	}
	if err := p.Render(context.Background(), n); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(written) != 1 {
		t.Fatalf("written %d messages", len(written))
	}
	if string(written[0].Key) != "77" {
		t.Fatalf("key = %q", written[0].Key)
	}

	var ev NewOrderEvent
	if err := json.Unmarshal(written[0].Value, &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.OrderCode != "DH77" || ev.Currency != "VND" || ev.TotalAmount == nil || !ev.TotalAmount.Equal(decimal.NewFromInt(250000)) {
		t.Fatalf("unexpected event %+v", ev)
	}
	if !ev.ReceivedAt.Equal(at) {
		t.Fatalf("received_at = %s", ev.ReceivedAt)
	}

	if err := p.Close(); err != nil || !w.closed {
		t.Fatalf("Close: %v closed=%v", err, w.closed)
	}
}

func TestNotificationForwarder_NullAmountOmitted(t *testing.T) {
	ev := EventFromNotification(model.Notification{OrderID: "1"})
	if ev.TotalAmount != nil {
		t.Fatalf("expected nil amount, got %s", ev.TotalAmount)
	}
}

func TestNotificationForwarder_WriteError(t *testing.T) {
	boom := errors.New("leader not available")
	p := &NotificationForwarder{writer: &MockWriter{WriteMessagesFunc: func(context.Context, ...kafka.Message) error { return boom }}}

	if err := p.Render(context.Background(), model.Notification{OrderID: "1"}); !errors.Is(err, boom) {
		t.Fatalf("expected write error, got %v", err)
	}
}
