package model

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// Notification: уведомление о новом заказе, полученное из топика админки.
// Значение неизменяемое и живёт только в рамках одного рендера.
type Notification struct {
	OrderID      OrderID             `json:"orderId"`
	OrderCode    string              `json:"orderCode"`
	CustomerName string              `json:"customerName"`
	TotalAmount  decimal.NullDecimal `json:"totalAmount"`

	ReceivedAt time.Time `json:"-"`
}

// OrderID принимает как строковый, так и числовой идентификатор заказа
// (бэкенд отдаёт Long).
type OrderID string

func (id *OrderID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = OrderID(s)
		return nil
	}
	if _, err := strconv.ParseFloat(string(b), 64); err != nil {
		return fmt.Errorf("orderId: %w", err)
	}
	*id = OrderID(b)
	return nil
}

func (id OrderID) String() string { return string(id) }

// Toast: то, что видит администратор: заголовок, текст и ссылка на заказ.
type Toast struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"orderId"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	HTML      string    `json:"html"`
	Link      string    `json:"link"`
	CreatedAt time.Time `json:"createdAt"`
	Expires   time.Time `json:"expires"`
}
