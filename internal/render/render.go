package render

import (
	"context"
	"errors"
	"fmt"

	"admin-notifier/internal/model"

	"go.uber.org/zap"
)

// ErrNoAudience возвращается поверхностью, когда показать тост некому
// (нет подключённых администраторов). FallbackSink в этом случае
// переключается на запасной канал.
var ErrNoAudience = errors.New("no audience for toast")

type Renderer interface {
	Render(ctx context.Context, n model.Notification) error
}

// ToastSink показывает уже собранный тост.
type ToastSink interface {
	Show(ctx context.Context, t model.Toast) error
}

type ToastSinkFunc func(ctx context.Context, t model.Toast) error

func (f ToastSinkFunc) Show(ctx context.Context, t model.Toast) error { return f(ctx, t) }

// Multi отдаёт уведомление всем рендерерам по очереди. Ошибка одного
// рендерера логируется и не мешает остальным; наружу возвращается их объединение.
type Multi struct {
	renderers []Renderer
	log       *zap.Logger
}

func NewMulti(log *zap.Logger, renderers ...Renderer) *Multi {
	if log == nil {
		log = zap.NewNop()
	}
	return &Multi{renderers: renderers, log: log}
}

func (m *Multi) Render(ctx context.Context, n model.Notification) error {
	var errs []error
	for i, r := range m.renderers {
		if err := r.Render(ctx, n); err != nil {
			m.log.Warn("renderer failed", zap.Int("renderer", i), zap.String("type", fmt.Sprintf("%T", r)), zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Toasts собирает тост из уведомления и показывает его на всех поверхностях.
type Toasts struct {
	toaster *Toaster
	sinks   []ToastSink
	log     *zap.Logger
}

func NewToasts(toaster *Toaster, log *zap.Logger, sinks ...ToastSink) *Toasts {
	if log == nil {
		log = zap.NewNop()
	}
	return &Toasts{toaster: toaster, sinks: sinks, log: log}
}

func (t *Toasts) Render(ctx context.Context, n model.Notification) error {
	toast, err := t.toaster.Build(n)
	if err != nil {
		return fmt.Errorf("build toast: %w", err)
	}
	var errs []error
	for _, s := range t.sinks {
		if err := s.Show(ctx, toast); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FallbackSink показывает тост на основной поверхности, а если там никого
// нет (ErrNoAudience), то на запасной. Без запасной поверхности тост просто пропускается.
type FallbackSink struct {
	Primary  ToastSink
	Fallback ToastSink
}

func (f FallbackSink) Show(ctx context.Context, t model.Toast) error {
	err := f.Primary.Show(ctx, t)
	if err == nil || !errors.Is(err, ErrNoAudience) {
		return err
	}
	if f.Fallback == nil {
		return nil
	}
	return f.Fallback.Show(ctx, t)
}

// LogSink пишет тост в лог.
type LogSink struct {
	Log *zap.Logger
}

func (l LogSink) Show(_ context.Context, t model.Toast) error {
	l.Log.Info("new order",
		zap.String("order_id", t.OrderID),
		zap.String("toast", t.Body),
		zap.String("link", t.Link),
	)
	return nil
}
