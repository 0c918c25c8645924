package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"lapordesa/pkg/classifier"
	"lapordesa/pkg/config"
	"lapordesa/pkg/database"
	"lapordesa/pkg/logger"
	"lapordesa/pkg/middleware"
	"lapordesa/pkg/queue"
	"lapordesa/pkg/security"
	"lapordesa/pkg/storage"
	"lapordesa/services/report-service/lifecycle"
	"lapordesa/services/report-service/store"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[ERROR] Failed to load config: %v", err)
	}

	zlog, err := logger.New("report-service", cfg.LogLevel)
	if err != nil {
		log.Fatalf("[ERROR] Failed to create logger: %v", err)
	}
	defer zlog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mongo := database.NewMongo(cfg.MongoURI, cfg.MongoDB)
	db, err := mongo.Database(ctx)
	if err != nil {
		zlog.Fatal("[ERROR] Failed to connect to MongoDB", zap.Error(err))
	}
	if err := store.EnsureIndexes(ctx, db); err != nil {
		zlog.Fatal("[ERROR] Failed to create indexes", zap.Error(err))
	}
	client, err := mongo.Client(ctx)
	if err != nil {
		zlog.Fatal("[ERROR] Failed to get MongoDB client", zap.Error(err))
	}
	zlog.Info("[OK] Connected to MongoDB",
		zap.String("database", cfg.MongoDB), zap.Bool("transactions", cfg.MongoTransactions))

	key, err := security.DeriveKey(cfg.AnonEncKey, cfg.JWTSecret)
	if err != nil {
		zlog.Fatal("[ERROR] Failed to derive encryption key", zap.Error(err))
	}
	sealer, err := security.NewSealer(key)
	if err != nil {
		zlog.Fatal("[ERROR] Failed to create sealer", zap.Error(err))
	}

	deps := lifecycle.Deps{
		Reports:           store.NewReportStore(db),
		Tasks:             store.NewTaskStore(db),
		Staff:             store.NewStaffStore(db),
		Notifications:     store.NewNotificationStore(db),
		Tx:                database.NewTransactor(client, cfg.MongoTransactions),
		Sealer:            sealer,
		Logger:            zlog,
		ClassifierTimeout: cfg.ClassifierTimeout,
		UploadTimeout:     cfg.UploadTimeout,
	}

	if cfg.GoogleAPIKey != "" {
		gemini, err := classifier.NewGemini(ctx, cfg.GoogleAPIKey, cfg.GeminiModel)
		if err != nil {
			zlog.Warn("[WARN] Gemini unavailable, reports will use the fallback analysis", zap.Error(err))
		} else {
			deps.Classifier = gemini
			zlog.Info("[OK] Gemini classifier ready", zap.String("model", cfg.GeminiModel))
		}
	}
	if deps.Classifier == nil {
		deps.Classifier = classifier.KeywordClassifier{}
	}

	if cfg.MinioEndpoint != "" {
		blobs, err := storage.NewMinioStore(ctx, storage.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
			PublicURL: cfg.MinioPublicURL,
		})
		if err != nil {
			zlog.Warn("[WARN] MinIO unavailable, reports will be saved without images", zap.Error(err))
		} else {
			deps.Blobs = blobs
			zlog.Info("[OK] Connected to MinIO", zap.String("bucket", cfg.MinioBucket))
		}
	}

	conn, ch, err := queue.ConnectRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		zlog.Warn("[WARN] RabbitMQ unavailable, events will not be published", zap.Error(err))
	} else {
		defer conn.Close()
		defer ch.Close()
		if err := queue.DeclareExchange(ch, cfg.RabbitMQExchange); err != nil {
			zlog.Fatal("[ERROR] Failed to declare exchange", zap.Error(err))
		}
		deps.Events = queue.NewPublisher(ch, cfg.RabbitMQExchange, "report-service")
		zlog.Info("[OK] Connected to RabbitMQ", zap.String("exchange", cfg.RabbitMQExchange))
	}

	middleware.RegisterMetrics()
	lifecycle.RegisterMetrics()

	svc := lifecycle.New(deps)
	srv := &http.Server{
		Addr:              ":" + cfg.ReportPort,
		Handler:           newServer(svc, zlog, []byte(cfg.JWTSecret)).routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zlog.Info("[INFO] Report Service running", zap.String("port", cfg.ReportPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("[ERROR] Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zlog.Info("[INFO] Shutting down report service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("[ERROR] Graceful shutdown failed", zap.Error(err))
	}
	if err := mongo.Close(shutdownCtx); err != nil {
		zlog.Error("[ERROR] Failed to close MongoDB", zap.Error(err))
	}
}
