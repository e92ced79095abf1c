package handlers

import (
	"net/http"
	"time"

	"admin-notifier/internal/dto"
	"admin-notifier/internal/hub"
	"admin-notifier/internal/model"
	"admin-notifier/internal/render"
	"admin-notifier/internal/subscriber"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type StatsProvider interface {
	Stats() subscriber.Stats
}

const keepAliveInterval = 25 * time.Second

type AdminHandler struct {
	hub      *hub.Hub
	badge    *render.Badge
	renderer render.Renderer
	stats    StatsProvider
	log      *zap.Logger
}

func NewAdminHandler(h *hub.Hub, badge *render.Badge, renderer render.Renderer, stats StatsProvider, log *zap.Logger) *AdminHandler {
	return &AdminHandler{
		hub:      h,
		badge:    badge,
		renderer: renderer,
		stats:    stats,
		log:      log,
	}
}

func (h *AdminHandler) Health(c *gin.Context) {
	resp := dto.HealthResponse{Status: "ok", StreamClient: h.hub.Clients()}
	if h.stats != nil {
		resp.Subscriber = h.stats.Stats()
	}
	c.JSON(http.StatusOK, resp)
}

// Stream отдаёт тосты новых заказов как Server-Sent Events (event: toast).
func (h *AdminHandler) Stream(c *gin.Context) {
	client := h.hub.Register()
	defer h.hub.Unregister(client)

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	ctx := c.Request.Context()
	c.SSEvent("ready", gin.H{"badge": h.badge.Count()})
	c.Writer.Flush()

	for {
		select {
		case <-ctx.Done():
			return
		case <-keepAlive.C:
			c.SSEvent("ping", time.Now().Unix())
			c.Writer.Flush()
		case t, ok := <-client.C:
			if !ok {
				return
			}
			c.SSEvent("toast", t)
			c.Writer.Flush()
		}
	}
}

func (h *AdminHandler) Badge(c *gin.Context) {
	c.JSON(http.StatusOK, dto.BadgeResponse{Count: h.badge.Count(), Visible: h.badge.Visible()})
}

func (h *AdminHandler) ResetBadge(c *gin.Context) {
	cleared := h.badge.Reset()
	c.JSON(http.StatusOK, dto.BadgeResetResponse{
		BadgeResponse: dto.BadgeResponse{Count: h.badge.Count(), Visible: h.badge.Visible()},
		Cleared:       cleared,
	})
}

// SendTest прогоняет уведомление через те же поверхности, что и сообщения из топика.
func (h *AdminHandler) SendTest(c *gin.Context) {
	var req dto.TestNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid test notification request", zap.Error(err))
		c.JSON(http.StatusBadRequest, dto.NewValidationError("invalid request body", err.Error()))
		return
	}

	n := model.Notification{
		OrderID:      model.OrderID(req.OrderID),
		OrderCode:    req.OrderCode,
		CustomerName: req.CustomerName,
		ReceivedAt:   time.Now(),
	}
	if req.TotalAmount != nil {
		n.TotalAmount = decimal.NewNullDecimal(decimal.NewFromFloat(*req.TotalAmount))
	}

	if err := h.renderer.Render(c.Request.Context(), n); err != nil {
		h.log.Error("test notification render failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.NewInternalError(err.Error()))
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "rendered"})
}
