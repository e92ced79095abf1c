package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"admin-notifier/config"
	"admin-notifier/internal/handlers"
	"admin-notifier/internal/hub"
	"admin-notifier/internal/logger"
	"admin-notifier/internal/producer"
	"admin-notifier/internal/render"
	"admin-notifier/internal/router"
	"admin-notifier/internal/sender"
	"admin-notifier/internal/subscriber"
	kafkatransport "admin-notifier/internal/transport/kafka"
	stomptransport "admin-notifier/internal/transport/stomp"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	isDev := os.Getenv("ENV") == "development"
	if err := logger.Init(isDev); err != nil {
		panic(err)
	}

	defer logger.Sync()

	log := logger.L()

	cfg := config.Load(log)

	if !isDev {
		gin.SetMode(gin.ReleaseMode)
	}

	transport, topic := buildTransport(cfg, log)

	badge := render.NewBadge()
	toastHub := hub.New(hub.DefaultClientBuffer, log)

	var fallback render.ToastSink
	if cfg.EmailEnabled() {
		fallback = sender.NewEmailSender(sender.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			To:       cfg.AdminEmail,
			TMPLDir:  cfg.TMPLDir,
		}, log)
		log.Info("email fallback enabled", zap.String("to", cfg.AdminEmail))
	}

	renderers := []render.Renderer{
		badge,
		render.NewToasts(render.NewToaster(cfg.AdminBaseURL), log,
			render.LogSink{Log: log},
			render.FallbackSink{Primary: toastHub, Fallback: fallback},
		),
	}

	var forwarder *producer.NotificationForwarder
	if cfg.ForwardEnabled() {
		forwarder = producer.NewNotificationForwarder(cfg.KafkaBrokers, cfg.KafkaForwardTopic)
		renderers = append(renderers, forwarder)
		log.Info("kafka forwarding enabled", zap.String("topic", cfg.KafkaForwardTopic))
	}

	pipeline := render.NewMulti(log, renderers...)

	policy, err := subscriber.ParseRetryPolicy(cfg.RetryPolicy)
	if err != nil {
		log.Fatal("invalid RETRY_POLICY", zap.Error(err))
	}

	sub, err := subscriber.New(transport, topic, pipeline, subscriber.RetryConfig{
		Policy:  policy,
		Initial: cfg.RetryInitial,
		Max:     cfg.RetryMax,
	}, log)
	if err != nil {
		log.Fatal("failed to create subscriber", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	admin := handlers.NewAdminHandler(toastHub, badge, pipeline, sub, log)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.Router(admin, cfg.AllowOrigins, log),
		ReadHeaderTimeout: 10 * time.Second,
		// SSE-стримы завершаются вместе с корневым контекстом
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	srv.RegisterOnShutdown(toastHub.Close)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := sub.Run(ctx); err != nil {
			log.Error("subscriber stopped", zap.Error(err))
		}
	}()

	go func() {
		log.Info("admin http server started", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to run http server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Info("shutdown signal received")
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown", zap.Error(err))
	}
	<-done

	if forwarder != nil {
		if err := forwarder.Close(); err != nil {
			log.Error("kafka writer close", zap.Error(err))
		}
	}
}

func buildTransport(cfg *config.Config, log *zap.Logger) (subscriber.Transport, string) {
	switch cfg.Source {
	case config.SourceKafka:
		t, err := kafkatransport.NewTransport(cfg.KafkaBrokers, cfg.KafkaGroupID, log)
		if err != nil {
			log.Fatal("failed to create kafka transport", zap.Error(err))
		}
		return t, cfg.KafkaSourceTopic
	default:
		t, err := stomptransport.New(stomptransport.Config{
			URL:            cfg.StompURL,
			Host:           cfg.StompHost,
			Login:          cfg.StompLogin,
			Passcode:       cfg.StompPasscode,
			HeartBeat:      cfg.StompHeartBeat,
			ConnectTimeout: cfg.ConnectTimeout,
		}, log)
		if err != nil {
			log.Fatal("failed to create stomp transport", zap.Error(err))
		}
		return t, cfg.Topic
	}
}
