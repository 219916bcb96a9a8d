// cmd/billing-service/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"

	"cochera/internal/pkg/bootstrap"
	"cochera/internal/pkg/mq"
	"cochera/internal/pkg/redis"
	"cochera/internal/service/billing/application"
	"cochera/internal/service/billing/infrastructure"
	"cochera/internal/service/billing/interfaces"
	"cochera/internal/zookeeper"
)

const (
	serviceName = "billing-service"
)

// main 是计费服务的组装根：创建并组装所有依赖项，然后启动应用。
func main() {
	bootstrap.Init()
	cfg := bootstrap.GetCurrentConfig()

	db, err := infrastructure.OpenDB(cfg.Infra.Mysql.DSN)
	if err != nil {
		log.Fatalf("FATAL: failed to open database: %v", err)
	}

	cache, err := redis.NewClient(context.Background(), cfg.Infra.Redis.Addr, cfg.Infra.Redis.Password, cfg.Infra.Redis.DB)
	if err != nil {
		log.Fatalf("FATAL: failed to connect to redis: %v", err)
	}

	zkConn, err := zookeeper.Connect(cfg.Infra.Zookeeper.Servers)
	if err != nil {
		log.Fatalf("FATAL: failed to connect to zookeeper: %v", err)
	}

	writer := mq.NewWriter(cfg.Infra.Kafka.Brokers, cfg.Infra.Kafka.BillingTopic)

	minPayment, err := decimal.NewFromString(cfg.App.MinPaymentAmount)
	if err != nil {
		log.Fatalf("FATAL: invalid min_payment_amount %q: %v", cfg.App.MinPaymentAmount, err)
	}

	tariffs := infrastructure.NewCachedTariffRepository(
		infrastructure.NewGormTariffRepository(db),
		cache,
		time.Duration(cfg.Infra.Redis.TariffTTLSeconds)*time.Second,
	)
	payments := infrastructure.NewPaymentStore(db)
	occupancies := infrastructure.NewGormOccupancyRepository(db, payments)
	vehicles := infrastructure.NewGormVehicleRegistry(db)
	publisher := infrastructure.NewKafkaEventPublisher(writer)
	locker := infrastructure.NewZkSpotLocker(zkConn)

	service := application.NewBillingService(
		tariffs,
		occupancies,
		payments,
		vehicles,
		publisher,
		locker,
		otel.Tracer(serviceName),
		minPayment,
	)
	handler := interfaces.NewBillingHandler(service)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        8086,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			appCtx.Mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
			appCtx.Mux.Handle("/metrics", promhttp.Handler())
			handler.RegisterRoutes(appCtx.Mux)
		},
		OnShutdown: func(ctx context.Context) {
			if err := writer.Close(); err != nil {
				log.Printf("Error closing kafka writer: %v", err)
			}
			if err := cache.Close(); err != nil {
				log.Printf("Error closing redis client: %v", err)
			}
			zkConn.Close()
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		},
	})
}
