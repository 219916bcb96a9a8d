// internal/pkg/bootstrap/app.go
package bootstrap

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"cochera/internal/pkg/logger"
	"cochera/internal/pkg/nacos"
	"cochera/internal/tracing"
)

// AppCtx 传递给各服务的路由注册函数。
type AppCtx struct {
	Mux   *http.ServeMux
	Nacos *nacos.Client
}

// AppInfo 描述一个可部署服务的启动参数。
type AppInfo struct {
	ServiceName string
	Port        int
	// RegisterHandlers 让每个服务装配自己的依赖并注册 HTTP 路由
	RegisterHandlers func(appCtx AppCtx)
	// OnShutdown 在优雅关停时执行（关闭 DB 连接池、Kafka writer 等）
	OnShutdown func(ctx context.Context)
}

// StartService 封装所有服务共用的启动和优雅关停流程。
func StartService(info AppInfo) {
	cfg := GetCurrentConfig()
	logger.Init(cfg.App.LogLevel)

	tp, err := tracing.InitTracerProvider(info.ServiceName, cfg.Infra.Jaeger.Endpoint)
	if err != nil {
		log.Fatalf("failed to initialize tracer provider: %v", err)
	}

	naming, err := nacos.NewClient(cfg.Infra.Nacos.ServerAddrs, cfg.Infra.Nacos.Namespace, cfg.Infra.Nacos.Group)
	if err != nil {
		log.Fatalf("failed to initialize nacos client: %v", err)
	}

	ip, err := outboundIP()
	if err != nil {
		log.Fatalf("failed to determine outbound IP: %v", err)
	}
	if err := naming.Register(info.ServiceName, ip, info.Port); err != nil {
		log.Fatalf("failed to register service: %v", err)
	}

	mux := http.NewServeMux()
	if info.RegisterHandlers != nil {
		info.RegisterHandlers(AppCtx{Mux: mux, Nacos: naming})
	}
	server := &http.Server{Addr: ":" + strconv.Itoa(info.Port), Handler: mux}
	go func() {
		log.Printf("%s listening on :%d", info.ServiceName, info.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("could not listen on %s: %v", server.Addr, err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutting down service %s...", info.ServiceName)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 清理顺序与启动相反：先从注册中心摘除，再冲刷 trace，最后关 HTTP
	if err := naming.Deregister(info.ServiceName, ip, info.Port); err != nil {
		log.Printf("Error deregistering from nacos: %v", err)
	}
	if err := tp.Shutdown(ctx); err != nil {
		log.Printf("Error shutting down tracer provider: %v", err)
	}
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Error shutting down http server: %v", err)
	}
	if info.OnShutdown != nil {
		info.OnShutdown(ctx)
	}
	log.Printf("Service %s gracefully shut down.", info.ServiceName)
}

// outboundIP 通过一次不真正发包的 UDP 拨号拿到本机对外 IP。
func outboundIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", err
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String(), nil
}
