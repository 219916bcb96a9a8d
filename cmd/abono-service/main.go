// cmd/abono-service/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"

	"cochera/internal/pkg/bootstrap"
	"cochera/internal/pkg/mq"
	"cochera/internal/pkg/redis"
	abonoapp "cochera/internal/service/abono/application"
	abonoinfra "cochera/internal/service/abono/infrastructure"
	abonohttp "cochera/internal/service/abono/interfaces"
	billinginfra "cochera/internal/service/billing/infrastructure"
	"cochera/internal/zookeeper"
)

const (
	serviceName = "abono-service"
)

// main 是订阅服务的组装根。
// 资费目录和支付流水与计费服务共用同一套表和序列，
// 这里只是把它们装配进订阅上下文的端口。
func main() {
	bootstrap.Init()
	cfg := bootstrap.GetCurrentConfig()

	db, err := billinginfra.OpenDB(cfg.Infra.Mysql.DSN)
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

	writer := mq.NewWriter(cfg.Infra.Kafka.Brokers, cfg.Infra.Kafka.AbonoTopic)

	tariffs := billinginfra.NewCachedTariffRepository(
		billinginfra.NewGormTariffRepository(db),
		cache,
		time.Duration(cfg.Infra.Redis.TariffTTLSeconds)*time.Second,
	)
	payments := billinginfra.NewPaymentStore(db)
	subscriptions := abonoinfra.NewGormSubscriptionRepository(db, payments)

	service := abonoapp.NewAbonoService(
		subscriptions,
		abonoinfra.NewBillingTariffSource(tariffs),
		billinginfra.NewKafkaEventPublisher(writer),
		billinginfra.NewZkSpotLocker(zkConn),
		otel.Tracer(serviceName),
	)
	handler := abonohttp.NewAbonoHandler(service)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        8087,
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
