package subscriber

import (
	"context"

	"admin-notifier/internal/model"
)

// Delivery: одно сообщение, полученное из топика.
// Err заполняется транспортом, если кадр пришёл с ошибкой (например, STOMP ERROR).
type Delivery struct {
	Destination string
	Body        []byte
	Err         error
}

// Transport устанавливает соединение с брокером (handshake).
type Transport interface {
	Connect(ctx context.Context) (Conn, error)
}

// Conn: установленное соединение. Канал подписки закрывается, когда
// соединение потеряно или ctx отменён.
type Conn interface {
	Subscribe(ctx context.Context, destination string) (<-chan Delivery, error)
	Close() error
}

// Renderer: поверхность отображения, в которую отдаются декодированные уведомления.
type Renderer interface {
	Render(ctx context.Context, n model.Notification) error
}

// RendererFunc адаптирует функцию к Renderer.
type RendererFunc func(ctx context.Context, n model.Notification) error

func (f RendererFunc) Render(ctx context.Context, n model.Notification) error { return f(ctx, n) }
