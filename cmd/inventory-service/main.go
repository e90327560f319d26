package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloud-wave-best-zizon/order-pipeline/internal/events"
	"github.com/cloud-wave-best-zizon/order-pipeline/internal/inventory/consumer"
	"github.com/cloud-wave-best-zizon/order-pipeline/internal/inventory/handler"
	"github.com/cloud-wave-best-zizon/order-pipeline/internal/inventory/repository"
	"github.com/cloud-wave-best-zizon/order-pipeline/internal/inventory/service"
	"github.com/cloud-wave-best-zizon/order-pipeline/internal/storage"
	"github.com/cloud-wave-best-zizon/order-pipeline/pkg/bus"
	"github.com/cloud-wave-best-zizon/order-pipeline/pkg/config"
	"github.com/cloud-wave-best-zizon/order-pipeline/pkg/metrics"
	"github.com/cloud-wave-best-zizon/order-pipeline/pkg/middleware"
	pkgtls "github.com/cloud-wave-best-zizon/order-pipeline/pkg/tls"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
)

func main() {
	// Logger 초기화
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// .env는 있으면 로드
	_ = godotenv.Load()

	// Config 로드
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// DynamoDB 클라이언트 초기화
	dynamoClient, err := storage.NewDynamoDBClient(cfg)
	if err != nil {
		log.Fatal("Failed to create DynamoDB client:", err)
	}

	// Repository, Service, Handler 초기화
	stockRepo := repository.NewStockRepository(dynamoClient, cfg.StockTableName, cfg.ProcessedTableName)
	inventoryService := service.NewInventoryService(stockRepo, logger)
	inventoryHandler := handler.NewInventoryHandler(inventoryService, logger)

	ctx, cancel := context.WithCancel(context.Background())

	// 부트스트랩 시드 (멱등)
	if err := inventoryService.SeedFromSpec(ctx, cfg.SeedStock); err != nil {
		log.Fatal("Failed to seed stock:", err)
	}

	// Kafka publisher와 consumer 초기화
	publisher := bus.NewPublisher(cfg.KafkaBrokers, logger)

	orderReader := bus.NewReader(cfg.KafkaBrokers, events.TopicOrderCreated, cfg.ConsumerGroupID)
	orderConsumer := consumer.NewOrderConsumer(orderReader, inventoryService, publisher, logger)
	orderConsumer.Start(ctx)

	dltReader := bus.NewReader(cfg.KafkaBrokers, events.TopicOrderDeadLetter, cfg.ConsumerGroupID+"-dlt")
	dltConsumer := consumer.NewDLTConsumer(dltReader, logger)
	dltConsumer.Start(ctx)

	// Gin Router 설정
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.RequestID())

	// Routes
	router.GET("/inventory/:productId", inventoryHandler.GetStock)
	router.GET("/inventory", inventoryHandler.ListStock)
	router.GET("/metrics", metrics.Handler())
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy"})
	})

	// Server 시작
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	var tlsCfg pkgtls.TLSConfig
	if err := envconfig.Process("", &tlsCfg); err != nil {
		log.Fatal("Failed to load TLS config:", err)
	}
	serverTLS, err := pkgtls.LoadTLSConfig(ctx, &tlsCfg, logger)
	if err != nil {
		log.Fatal("Failed to load TLS config:", err)
	}

	go func() {
		logger.Info("Starting inventory-service", zap.String("port", cfg.Port))
		var serveErr error
		if serverTLS != nil {
			srv.TLSConfig = serverTLS
			serveErr = srv.ListenAndServeTLS("", "")
		} else {
			serveErr = srv.ListenAndServe()
		}
		if serveErr != nil && serveErr != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(serveErr))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down inventory-service...")
	cancel()
	orderConsumer.Wait()
	dltConsumer.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	if err := publisher.Close(); err != nil {
		logger.Error("Failed to close publisher", zap.Error(err))
	}
	pkgtls.Cleanup()

	logger.Info("Server exited")
}
