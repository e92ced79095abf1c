package render

import (
	"context"
	"sync/atomic"

	"admin-notifier/internal/model"
)

// Badge: счётчик новых заказов на пункте меню "Quản lý Đơn hàng".
type Badge struct {
	count atomic.Int64
}

func NewBadge() *Badge { return &Badge{} }

func (b *Badge) Render(context.Context, model.Notification) error {
	b.count.Add(1)
	return nil
}

func (b *Badge) Count() int64 { return b.count.Load() }

// Visible: бейдж скрыт, пока счётчик нулевой.
func (b *Badge) Visible() bool { return b.Count() > 0 }

func (b *Badge) Reset() int64 { return b.count.Swap(0) }
