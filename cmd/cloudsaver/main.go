package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"github.com/vnmchuo/cloudsaver/config"
	"github.com/vnmchuo/cloudsaver/internal/analysis"
	"github.com/vnmchuo/cloudsaver/internal/billing"
	"github.com/vnmchuo/cloudsaver/internal/billing/azure"
	"github.com/vnmchuo/cloudsaver/internal/telemetry"
	"github.com/vnmchuo/cloudsaver/internal/tenant"
	"github.com/vnmchuo/cloudsaver/pkg/ratelimit"
)

const serviceName = "cloudsaver"

func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// 2. Init telemetry
	shutdownTracer, err := telemetry.InitTracer(serviceName, cfg)
	if err != nil {
		log.Fatalf("failed to init tracer: %v", err)
	}
	defer shutdownTracer()

	ctx := context.Background()

	// 3. Billing client
	costClient, err := azure.New()
	if err != nil {
		log.Fatalf("failed to init billing client: %v", err)
	}
	billingClient := billing.NewBreakerClient(costClient, cfg.BillingBreakerFailures)

	// 4. Document store
	docStore, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to open %s store: %v", cfg.StoreBackend, err)
	}
	defer closeStore()
	log.Printf("Document store ready (%s)", cfg.StoreBackend)

	// 5. Optional Redis-backed rate limiter
	var limiter *ratelimit.Limiter
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("failed to ping redis: %v", err)
		}
		log.Println("Redis connected, rate limiting enabled")
		limiter = ratelimit.NewLimiter(rdb, "cost-analysis", cfg.RateLimitRPM)
	}

	// 6. Init handler
	tracer := otel.GetTracerProvider().Tracer(serviceName)
	handler := analysis.NewHandler(billingClient, docStore, limiter, tracer, cfg.SubscriptionID)
	tenantMiddleware := tenant.NewMiddleware(tenant.NewHeaderResolver())

	// 7. Init Chi router
	r := newRouter(handler, tenantMiddleware)

	// 8. Graceful shutdown
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      telemetry.WrapHandler(r, serviceName),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("CloudSaver backend running on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
