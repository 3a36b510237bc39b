package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"surveillance-core/internal/config"
	"surveillance-core/internal/eventbus"
	"surveillance-core/internal/minio"
	"surveillance-core/internal/observability"
	"surveillance-core/internal/persistence"
	"surveillance-core/services/surveillance"
)

func main() {
	// Конфигурация из окружения
	cfg := config.FromEnv(os.LookupEnv)

	var objects minio.ObjectStore
	if cfg.MinioEndpoint != "" {
		client, err := minio.NewClient(minio.Config{
			Endpoint:        cfg.MinioEndpoint,
			AccessKeyID:     cfg.MinioAccessKey,
			SecretAccessKey: cfg.MinioSecretKey,
			UseSSL:          cfg.MinioUseSSL,
		})
		if err != nil {
			log.Printf("Warning: MinIO unavailable, using built-in configs: %v", err)
		} else {
			objects = client
		}
	}

	snapshots, err := openSnapshots(cfg, objects)
	if err != nil {
		log.Fatalf("Snapshot store: %v", err)
	}
	defer snapshots.Close()

	bus := eventbus.NewEventBus(cfg.KafkaBrokers)
	defer bus.Close()

	service, err := surveillance.NewService(surveillance.Config{
		HTTPAddr:         cfg.HTTPAddr,
		SnapshotInterval: cfg.SnapshotInterval,
		RefreshInterval:  cfg.RefreshInterval,
	}, surveillance.Deps{
		Configs:    config.NewStore(objects, cfg.ConfigBucket),
		Publisher:  bus,
		Subscriber: bus,
		Snapshots:  snapshots,
		Metrics:    observability.NewMetrics(),
	})
	if err != nil {
		log.Fatalf("Surveillance service: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Shutting down surveillance service...")
		cancel()
	}()

	service.Start(ctx)
	<-ctx.Done()
	service.Stop()
	log.Println("Surveillance service stopped.")
}

func openSnapshots(cfg config.ServiceConfig, objects minio.ObjectStore) (persistence.Store, error) {
	switch cfg.SnapshotBackend {
	case config.SnapshotSQLite:
		log.Printf("Snapshots: sqlite %s", cfg.SnapshotSQLitePath)
		return persistence.NewSQLiteStore(cfg.SnapshotSQLitePath)
	case config.SnapshotMinio:
		if objects == nil {
			log.Println("Snapshots: MinIO unavailable, disabled")
			return persistence.Noop{}, nil
		}
		log.Printf("Snapshots: minio bucket %s", cfg.ConfigBucket)
		return persistence.NewMinioStore(objects, cfg.ConfigBucket, ""), nil
	default:
		log.Println("Snapshots: disabled")
		return persistence.Noop{}, nil
	}
}
