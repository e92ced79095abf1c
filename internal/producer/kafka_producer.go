package producer

import (
	"context"
	"time"

	"admin-notifier/internal/model"

	json "github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

const currencyVND = "VND"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NotificationForwarder пересылает уведомления о новых заказах в Kafka,
// чтобы их могли читать другие сервисы (например, рассылка писем).
type NotificationForwarder struct {
	writer messageWriter
}

func NewNotificationForwarder(brokers []string, topic string) *NotificationForwarder {
	return &NotificationForwarder{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
	}
}

type NewOrderEvent struct {
	OrderID      string           `json:"order_id"`
	OrderCode    string           `json:"order_code"`
	CustomerName string           `json:"customer_name"`
	TotalAmount  *decimal.Decimal `json:"total_amount,omitempty"`
	Currency     string           `json:"currency"`
	ReceivedAt   time.Time        `json:"received_at"`
}

func EventFromNotification(n model.Notification) NewOrderEvent {
	e := NewOrderEvent{
		OrderID:      n.OrderID.String(),
		OrderCode:    n.OrderCode,
		CustomerName: n.CustomerName,
		Currency:     currencyVND,
		ReceivedAt:   n.ReceivedAt,
	}
	if n.TotalAmount.Valid {
		amount := n.TotalAmount.Decimal
		e.TotalAmount = &amount
	}
	return e
}

// Render реализует render.Renderer.
func (p *NotificationForwarder) Render(ctx context.Context, n model.Notification) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	value, err := json.Marshal(EventFromNotification(n))
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(n.OrderID.String()),
		Value: value,
	})
}

func (p *NotificationForwarder) Close() error {
	return p.writer.Close()
}
