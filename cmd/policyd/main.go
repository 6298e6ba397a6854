package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sentinel/antispam/internal/admin"
	"github.com/sentinel/antispam/internal/audit"
	"github.com/sentinel/antispam/internal/gateway"
	"github.com/sentinel/antispam/internal/menu"
	"github.com/sentinel/antispam/internal/messaging"
	"github.com/sentinel/antispam/internal/metrics"
	"github.com/sentinel/antispam/internal/pending"
	"github.com/sentinel/antispam/internal/policy"
	"github.com/sentinel/antispam/internal/protocol"

	_ "github.com/lib/pq"
)

func main() {
	log.Println("Starting anti-spam policy service...")

	// Redis setup.
	redisAddr := "localhost:6379"
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		redisAddr = v
	}

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := rdb.Ping(ctx).Err(); err != nil {
		cancel()
		log.Fatalf("failed to connect to Redis: %v", err)
	}
	cancel()

	// NATS setup.
	natsConfig := messaging.DefaultConfig()
	if v := os.Getenv("NATS_URL"); v != "" {
		natsConfig.URL = v
	}
	natsConfig.Name = "antispam-policyd"

	natsClient, err := messaging.NewClient(natsConfig)
	if err != nil {
		log.Fatalf("failed to connect to NATS: %v", err)
	}

	// Postgres is optional. Without it the service runs with audit
	// logging disabled.
	var auditStore *audit.Store
	var db *sql.DB
	if dsn := os.Getenv("POSTGRES_DSN"); dsn != "" {
		db, err = sql.Open("postgres", dsn)
		if err != nil {
			log.Fatalf("failed to open Postgres: %v", err)
		}
		if err := db.PingContext(context.Background()); err != nil {
			log.Fatalf("failed to connect to Postgres: %v", err)
		}
		if err := audit.Migrate(db); err != nil {
			log.Fatalf("failed to run audit migrations: %v", err)
		}
		auditStore = audit.NewStore(db)
	} else {
		log.Println("[policyd] POSTGRES_DSN not set, audit logging disabled")
	}

	workerPoolSize := 64
	if v := os.Getenv("WORKER_POOL_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			workerPoolSize = n
		}
	}

	renderer := gateway.NewRenderer(natsClient)

	controller := &menu.Controller{
		Policies: policy.NewStore(policy.NewRedisPersister(rdb)),
		Pending:  pending.NewRegistry(),
		Renderer: renderer,
		Admins:   admin.NewChecker(rdb),
		Changes:  renderer,
	}
	if auditStore != nil {
		controller.Auditor = auditStore
	}

	// Worker pool: each admin event acquires a slot so a burst of button
	// presses cannot spawn unbounded goroutines. Per-group ordering is
	// enforced downstream by the policy store's key locks.
	workerPool := make(chan struct{}, workerPoolSize)

	handleEvent := func(data []byte) {
		eventType, event, err := protocol.ParseAdminEvent(data)
		if err != nil {
			log.Printf("[policyd] bad admin event: %v", err)
			return
		}

		metrics.EventsTotal.WithLabelValues(eventType).Inc()
		start := time.Now()
		defer func() {
			metrics.EventLatency.Observe(time.Since(start).Seconds())
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		switch ev := event.(type) {
		case protocol.CallbackEvent:
			if err := controller.HandleCallback(ctx, ev); err != nil {
				log.Printf("[policyd] callback user=%d data=%q: %v", ev.UserID, ev.Data, err)
			}
		case protocol.TextEvent:
			if err := controller.HandleText(ctx, ev); err != nil {
				log.Printf("[policyd] text user=%d chat=%d: %v", ev.UserID, ev.ChatID, err)
			}
		}
	}

	err = natsClient.SubscribeAdminEvents(func(data []byte) {
		workerPool <- struct{}{}
		go func() {
			defer func() { <-workerPool }()
			handleEvent(data)
		}()
	})
	if err != nil {
		log.Fatalf("failed to subscribe to admin events: %v", err)
	}

	// Metrics endpoint.
	metricsAddr := ":9100"
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		metricsAddr = v
	}
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", metrics.Handler())
	metricsSrv := &http.Server{Addr: metricsAddr, Handler: metricsMux}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("[policyd] metrics server: %v", err)
		}
	}()

	log.Printf("Anti-spam policy service running")
	log.Printf("  redis_addr:   %s", redisAddr)
	log.Printf("  nats_url:     %s", natsConfig.URL)
	log.Printf("  metrics_addr: %s", metricsAddr)
	log.Printf("  worker_pool:  %d", workerPoolSize)
	log.Printf("  audit:        %v", auditStore != nil)

	// Graceful shutdown.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("received signal %v, shutting down...", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("metrics shutdown error: %v", err)
	}

	natsClient.Close()
	if db != nil {
		db.Close()
	}
	rdb.Close()
}
