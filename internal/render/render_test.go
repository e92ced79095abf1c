package render

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"admin-notifier/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sampleNotification() model.Notification {
	return model.Notification{
		OrderID:      "15",
		OrderCode:    "DH15",
		CustomerName: "Trần <b>Thị</b> C",
		TotalAmount:  decimal.NewNullDecimal(decimal.NewFromInt(150000)),
		ReceivedAt:   time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
	}
}

func TestToaster_Build(t *testing.T) {
	tr := NewToaster("https://shop.local/")
	tr.newID = func() string { return "toast-1" }

	toast, err := tr.Build(sampleNotification())
	require.NoError(t, err)

	assert.Equal(t, "toast-1", toast.ID)
	assert.Equal(t, "15", toast.OrderID)
	assert.Equal(t, "https://shop.local/admin/orders/15", toast.Link)
	assert.Equal(t, "Đơn hàng mới #DH15 từ Trần <b>Thị</b> C (150.000 ₫).", toast.Body)
	assert.Equal(t, toast.CreatedAt.Add(ToastTTL), toast.Expires)

	assert.Contains(t, toast.HTML, "<strong>#DH15</strong>")
	assert.Contains(t, toast.HTML, "Trần &lt;b&gt;Thị&lt;/b&gt; C")
	assert.Contains(t, toast.HTML, `href="https://shop.local/admin/orders/15"`)
}

func TestToaster_BuildWithoutAmountOrID(t *testing.T) {
	tr := NewToaster("")
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return now }

	toast, err := tr.Build(model.Notification{OrderCode: "X", CustomerName: "Y"})
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(toast.Body, "(N/A)."), toast.Body)
	assert.Empty(t, toast.Link)
	assert.NotContains(t, toast.HTML, "<a ")
	assert.Equal(t, now, toast.CreatedAt)
}

func TestBadge(t *testing.T) {
	b := NewBadge()
	assert.False(t, b.Visible())

	for i := 0; i < 3; i++ {
		require.NoError(t, b.Render(context.Background(), sampleNotification()))
	}
	assert.Equal(t, int64(3), b.Count())
	assert.True(t, b.Visible())

	assert.Equal(t, int64(3), b.Reset())
	assert.Equal(t, int64(0), b.Count())
	assert.False(t, b.Visible())
}

type renderFunc func(ctx context.Context, n model.Notification) error

func (f renderFunc) Render(ctx context.Context, n model.Notification) error { return f(ctx, n) }

func TestMulti_ContinuesAfterFailure(t *testing.T) {
	boom := errors.New("boom")
	var calls []string
	m := NewMulti(zap.NewNop(),
		renderFunc(func(context.Context, model.Notification) error { calls = append(calls, "a"); return boom }),
		renderFunc(func(context.Context, model.Notification) error { calls = append(calls, "b"); return nil }),
	)

	err := m.Render(context.Background(), sampleNotification())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a", "b"}, calls)
}

func TestToasts_ShowsOnEverySink(t *testing.T) {
	var shown []string
	sink := func(name string) ToastSink {
		return ToastSinkFunc(func(_ context.Context, toast model.Toast) error {
			shown = append(shown, name+":"+toast.OrderID)
			return nil
		})
	}
	r := NewToasts(NewToaster(""), zap.NewNop(), sink("hub"), sink("log"))

	require.NoError(t, r.Render(context.Background(), sampleNotification()))
	assert.Equal(t, []string{"hub:15", "log:15"}, shown)
}

func TestFallbackSink(t *testing.T) {
	var fallbackCalls int
	fallback := ToastSinkFunc(func(context.Context, model.Toast) error { fallbackCalls++; return nil })

	empty := FallbackSink{
		Primary:  ToastSinkFunc(func(context.Context, model.Toast) error { return ErrNoAudience }),
		Fallback: fallback,
	}
	require.NoError(t, empty.Show(context.Background(), model.Toast{}))
	assert.Equal(t, 1, fallbackCalls)

	busy := FallbackSink{
		Primary:  ToastSinkFunc(func(context.Context, model.Toast) error { return nil }),
		Fallback: fallback,
	}
	require.NoError(t, busy.Show(context.Background(), model.Toast{}))
	assert.Equal(t, 1, fallbackCalls)

	noFallback := FallbackSink{
		Primary: ToastSinkFunc(func(context.Context, model.Toast) error { return ErrNoAudience }),
	}
	assert.NoError(t, noFallback.Show(context.Background(), model.Toast{}))

	broken := errors.New("write failed")
	failing := FallbackSink{
		Primary:  ToastSinkFunc(func(context.Context, model.Toast) error { return broken }),
		Fallback: fallback,
	}
	assert.ErrorIs(t, failing.Show(context.Background(), model.Toast{}), broken)
	assert.Equal(t, 1, fallbackCalls)
}
