package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"lapordesa/pkg/config"
	"lapordesa/pkg/logger"
	"lapordesa/pkg/queue"

	"go.uber.org/zap"
)

const queueName = "report_queue"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logger.New("dispatcher-service", cfg.LogLevel)
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
	if err := queue.BindQueue(ch, queueName, cfg.RabbitMQExchange, queue.KeyReportCreated); err != nil {
		log.Fatal("[ERROR] Failed to bind queue", zap.Error(err))
	}
	msgs, err := queue.ConsumeMessages(ch, queueName)
	if err != nil {
		log.Fatal("[ERROR] Failed to consume queue", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("[OK] Dispatcher waiting for reports", zap.String("queue", queueName))
	run(ctx, msgs, log, nil)
	log.Info("Dispatcher stopped")
}
