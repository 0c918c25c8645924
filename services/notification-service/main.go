package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lapordesa/pkg/config"
	"lapordesa/pkg/logger"
	"lapordesa/pkg/middleware"
	"lapordesa/pkg/queue"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logger.New("notification-service", cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	conn, ch, err := queue.ConnectRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		log.Fatal("[ERROR] Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer conn.Close()
	defer ch.Close()

	if err := queue.DeclareExchange(ch, cfg.RabbitMQExchange); err != nil {
		log.Fatal("[ERROR] Failed to declare exchange", zap.Error(err))
	}
	if err := queue.BindQueue(ch, queueName, cfg.RabbitMQExchange, subscribedKeys...); err != nil {
		log.Fatal("[ERROR] Failed to bind queue", zap.Error(err))
	}
	msgs, err := queue.ConsumeMessages(ch, queueName)
	if err != nil {
		log.Fatal("[ERROR] Failed to consume queue", zap.Error(err))
	}
	log.Info("[OK] Connected to RabbitMQ", zap.String("queue", queueName), zap.Strings("keys", subscribedKeys))

	middleware.RegisterMetrics()
	registerMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := NewHub(log)
	go hub.Run(ctx)
	go consume(ctx, msgs, hub, log)

	srv := &server{hub: hub, logger: log, jwtSecret: []byte(cfg.JWTSecret), heartbeat: heartbeatInterval}
	httpServer := &http.Server{
		Addr:              ":" + cfg.NotificationPort,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("[OK] Notification service running", zap.String("port", cfg.NotificationPort))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("[ERROR] Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("[ERROR] Graceful shutdown failed", zap.Error(err))
	}
	log.Info("Notification service stopped")
}
