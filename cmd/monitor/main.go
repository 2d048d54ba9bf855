package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	appredis "taskman/internal/infrastructure/redis"
	applog "taskman/internal/log"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// The monitor tails the status-change event stream and logs every committed
// transition. It is a read-only consumer: it never writes back to the engine.
func main() {
	applog.Setup(envOr("LOG_LEVEL", "info"))
	logger := applog.WithModule("monitor")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := appredis.NewClient(ctx, envOr("REDIS_ADDR", "localhost:6379"))
	if err != nil {
		log.Fatal("Failed to connect to redis:", err)
	}
	bus := appredis.NewEventBus(client)

	events, err := bus.SubscribeStatusChanges(ctx)
	if err != nil {
		log.Fatal("Failed to subscribe:", err)
	}

	logger.Info("monitor started")
	for event := range events {
		logger.Info("status changed",
			"event_id", event.EventID,
			"entity", event.Entity,
			"entity_id", event.EntityID,
			"process_id", event.ProcessID,
			"old_status", event.OldStatus,
			"new_status", event.NewStatus,
			"at", event.At,
		)
	}
	logger.Info("monitor stopped")
}
