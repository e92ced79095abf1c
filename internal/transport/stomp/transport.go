package stomp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"admin-notifier/internal/subscriber"

	"github.com/go-stomp/stomp/v3"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var (
	ErrInvalidURL = errors.New("invalid stomp websocket url")
	ErrHandshake  = errors.New("stomp handshake failed")
)

const disconnectTimeout = 2 * time.Second

type Config struct {
	// URL: адрес WebSocket-эндпоинта, например ws://shop.local/ws/websocket.
	URL            string
	Host           string
	Login          string
	Passcode       string
	HeartBeat      time.Duration
	ConnectTimeout time.Duration
	Header         http.Header
}

type Transport struct {
	cfg    Config
	dialer *websocket.Dialer
	log    *zap.Logger
}

func New(cfg Config, log *zap.Logger) (*Transport, error) {
	u, err := NormalizeURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	cfg.URL = u
	if cfg.Host == "" {
		cfg.Host = "/"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Transport{
		cfg: cfg,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 45 * time.Second,
		},
		log: log,
	}, nil
}

// NormalizeURL принимает ws/wss, а также http/https (переводится в ws/wss).
// Для SockJS-эндпоинта Spring ("/ws") добавляется сырой путь "/websocket".
func NormalizeURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	if strings.TrimSuffix(u.Path, "/") == "/ws" {
		u.Path = "/ws/websocket"
	}
	return u.String(), nil
}

func (t *Transport) Connect(ctx context.Context) (subscriber.Conn, error) {
	if t.cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.cfg.ConnectTimeout)
		defer cancel()
	}

	ws, resp, err := t.dialer.DialContext(ctx, t.cfg.URL, t.cfg.Header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("%w: websocket upgrade %s: status %d: %v", ErrHandshake, t.cfg.URL, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("%w: dial %s: %v", ErrHandshake, t.cfg.URL, err)
	}
	rwc := newWSConn(ws)

	opts := []func(*stomp.Conn) error{
		stomp.ConnOpt.Host(t.cfg.Host),
		stomp.ConnOpt.HeartBeat(t.cfg.HeartBeat, t.cfg.HeartBeat),
	}
	if t.cfg.Login != "" {
		opts = append(opts, stomp.ConnOpt.Login(t.cfg.Login, t.cfg.Passcode))
	}

	type result struct {
		conn *stomp.Conn
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		c, err := stomp.Connect(rwc, opts...)
		ch <- result{conn: c, err: err}
	}()

	select {
	case <-ctx.Done():
		_ = rwc.Close()
		return nil, fmt.Errorf("%w: %v", ErrHandshake, ctx.Err())
	case res := <-ch:
		if res.err != nil {
			_ = rwc.Close()
			return nil, fmt.Errorf("%w: %v", ErrHandshake, res.err)
		}
		t.log.Info("stomp connected",
			zap.String("url", t.cfg.URL),
			zap.String("server", res.conn.Server()),
			zap.String("version", string(res.conn.Version())),
		)
		return &Conn{conn: res.conn, log: t.log}, nil
	}
}

type Conn struct {
	conn *stomp.Conn
	log  *zap.Logger
}

func (c *Conn) Subscribe(ctx context.Context, destination string) (<-chan subscriber.Delivery, error) {
	sub, err := c.conn.Subscribe(destination, stomp.AckAuto)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", destination, err)
	}

	out := make(chan subscriber.Delivery)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-sub.C:
				if !ok {
					return
				}
				d := subscriber.Delivery{Destination: msg.Destination, Body: msg.Body, Err: msg.Err}
				select {
				case out <- d:
				case <-ctx.Done():
					return
				}
				if msg.Err != nil {
					// после ERROR-кадра сервер закрывает соединение
					return
				}
			}
		}
	}()
	return out, nil
}

// Close пытается отключиться штатно (DISCONNECT + RECEIPT), а если сервер
// не ответил за disconnectTimeout, рвёт соединение.
func (c *Conn) Close() error {
	done := make(chan error, 1)
	go func() { done <- c.conn.Disconnect() }()

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, stomp.ErrAlreadyClosed) {
			return err
		}
		return nil
	case <-time.After(disconnectTimeout):
		c.log.Warn("stomp disconnect timed out, closing connection")
		return c.conn.MustDisconnect()
	}
}
