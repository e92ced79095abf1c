package handlers_test

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"admin-notifier/internal/handlers"
	"admin-notifier/internal/hub"
	"admin-notifier/internal/model"
	"admin-notifier/internal/render"
	"admin-notifier/internal/router"
	"admin-notifier/internal/subscriber"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockStats struct {
	StatsFunc func() subscriber.Stats
}

func (m *MockStats) Stats() subscriber.Stats {
	if m.StatsFunc != nil {
		return m.StatsFunc()
	}
	return subscriber.Stats{}
}

type fixture struct {
	hub   *hub.Hub
	badge *render.Badge
	srv   *httptest.Server
}

func setup(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := zap.NewNop()
	h := hub.New(4, log)
	badge := render.NewBadge()
	pipeline := render.NewMulti(log,
		badge,
		render.NewToasts(render.NewToaster("http://shop.local"), log, render.FallbackSink{Primary: h}),
	)
	stats := &MockStats{StatsFunc: func() subscriber.Stats {
		return subscriber.Stats{State: subscriber.StateConnected.String(), Rendered: 2}
	}}

	admin := handlers.NewAdminHandler(h, badge, pipeline, stats, log)
	srv := httptest.NewServer(router.Router(admin, nil, log))
	t.Cleanup(srv.Close)
	return &fixture{hub: h, badge: badge, srv: srv}
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHealth(t *testing.T) {
	f := setup(t)

	resp, err := http.Get(f.srv.URL + "/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Status     string           `json:"status"`
		Subscriber subscriber.Stats `json:"subscriber"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "connected", body.Subscriber.State)
	assert.Equal(t, int64(2), body.Subscriber.Rendered)
}

func TestBadgeAndReset(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.badge.Render(context.Background(), model.Notification{}))
	require.NoError(t, f.badge.Render(context.Background(), model.Notification{}))

	resp, err := http.Get(f.srv.URL + "/admin/badge")
	require.NoError(t, err)
	var badge struct {
		Count   int64 `json:"count"`
		Visible bool  `json:"visible"`
	}
	decode(t, resp, &badge)
	assert.Equal(t, int64(2), badge.Count)
	assert.True(t, badge.Visible)

	resp, err = http.Post(f.srv.URL+"/admin/badge/reset", "application/json", nil)
	require.NoError(t, err)
	var reset struct {
		Count   int64 `json:"count"`
		Visible bool  `json:"visible"`
		Cleared int64 `json:"cleared"`
	}
	decode(t, resp, &reset)
	assert.Equal(t, int64(0), reset.Count)
	assert.False(t, reset.Visible)
	assert.Equal(t, int64(2), reset.Cleared)
}

func TestSendTest_Validation(t *testing.T) {
	f := setup(t)

	resp, err := http.Post(f.srv.URL+"/admin/notifications/test", "application/json", strings.NewReader(`{"orderCode":""}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body struct {
		Code string `json:"code"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "validation_error", body.Code)
	assert.Equal(t, int64(0), f.badge.Count())
}

func TestSendTest_RendersWithoutAudience(t *testing.T) {
	f := setup(t)

	resp, err := http.Post(f.srv.URL+"/admin/notifications/test", "application/json",
		strings.NewReader(`{"orderId":"9","orderCode":"DH9","customerName":"Hoa","totalAmount":150000}`))
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, int64(1), f.badge.Count())
}

func TestStream_DeliversToast(t *testing.T) {
	f := setup(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.srv.URL+"/admin/notifications/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	require.Eventually(t, func() bool { return f.hub.Clients() == 1 }, 5*time.Second, 10*time.Millisecond)

	post, err := http.Post(f.srv.URL+"/admin/notifications/test", "application/json",
		strings.NewReader(`{"orderId":"3","orderCode":"DH3","customerName":"An","totalAmount":150000}`))
	require.NoError(t, err)
	post.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	var event string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "event:") {
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			continue
		}
		if event == "toast" && strings.HasPrefix(line, "data:") {
			var toast model.Toast
			require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data:")), &toast))
			assert.Equal(t, "3", toast.OrderID)
			assert.Equal(t, "http://shop.local/admin/orders/3", toast.Link)
			assert.Contains(t, toast.Body, "150.000")
			return
		}
	}
	t.Fatalf("stream ended without toast: %v", scanner.Err())
}

func TestStream_EndsOnHubClose(t *testing.T) {
	f := setup(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.srv.URL+"/admin/notifications/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Eventually(t, func() bool { return f.hub.Clients() == 1 }, 5*time.Second, 10*time.Millisecond)

	done := make(chan error, 1)
	go func() {
		_, err := io.ReadAll(resp.Body)
		done <- err
	}()

	f.hub.Close()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("stream was not closed after hub shutdown")
	}
}

func TestNoRoute(t *testing.T) {
	f := setup(t)
	resp, err := http.Get(f.srv.URL + "/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
