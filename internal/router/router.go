package router

import (
	"net/http"

	"admin-notifier/internal/dto"
	"admin-notifier/internal/handlers"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func Router(admin *handlers.AdminHandler, allowOrigins []string, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))

	if len(allowOrigins) == 0 {
		allowOrigins = []string{"*"}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:  allowOrigins,
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Content-Type", "Last-Event-ID"},
		ExposeHeaders: []string{"Content-Length"},
	}))

	r.GET("/health", admin.Health)

	a := r.Group("/admin")
	{
		a.GET("/notifications/stream", admin.Stream)
		a.POST("/notifications/test", admin.SendTest)
		a.GET("/badge", admin.Badge)
		a.POST("/badge/reset", admin.ResetBadge)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewNotFoundError("route not found"))
	})

	return r
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		log.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
		)
	}
}
