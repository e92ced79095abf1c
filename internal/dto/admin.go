package dto

import "admin-notifier/internal/subscriber"

type BadgeResponse struct {
	Count   int64 `json:"count"`
	Visible bool  `json:"visible"`
}

type BadgeResetResponse struct {
	BadgeResponse
	Cleared int64 `json:"cleared"`
}

type HealthResponse struct {
	Status       string           `json:"status"`
	Subscriber   subscriber.Stats `json:"subscriber"`
	StreamClient int              `json:"stream_clients"`
}

// TestNotificationRequest: тело POST /admin/notifications/test.
// Поля совпадают с сообщением из топика.
type TestNotificationRequest struct {
	OrderID      string   `json:"orderId" binding:"required"`
	OrderCode    string   `json:"orderCode" binding:"required"`
	CustomerName string   `json:"customerName" binding:"required"`
	TotalAmount  *float64 `json:"totalAmount"`
}
