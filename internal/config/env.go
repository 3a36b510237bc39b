// internal/config/env.go

package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Snapshot backends.
const (
	SnapshotMinio  = "minio"
	SnapshotSQLite = "sqlite"
	SnapshotNone   = "none"
)

// ServiceConfig: настройки сервиса из переменных окружения.
type ServiceConfig struct {
	KafkaBrokers       []string
	HTTPAddr           string
	MinioEndpoint      string
	MinioAccessKey     string
	MinioSecretKey     string
	MinioUseSSL        bool
	ConfigBucket       string
	SnapshotBackend    string
	SnapshotSQLitePath string
	SnapshotInterval   time.Duration
	RefreshInterval    time.Duration
}

// FromEnv читает конфигурацию сервиса; lookup обычно os.LookupEnv.
func FromEnv(lookup func(string) (string, bool)) ServiceConfig {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && v != "" {
			return v
		}
		return def
	}
	ms := func(key string, def time.Duration) time.Duration {
		v, err := strconv.Atoi(get(key, ""))
		if err != nil || v <= 0 {
			return def
		}
		return time.Duration(v) * time.Millisecond
	}

	cfg := ServiceConfig{
		KafkaBrokers:       splitList(get("KAFKA_BROKERS", "redpanda:9092")),
		HTTPAddr:           get("HTTP_ADDR", ":8085"),
		MinioEndpoint:      get("MINIO_ENDPOINT", ""),
		MinioAccessKey:     get("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:     get("MINIO_SECRET_KEY", ""),
		ConfigBucket:       get("CONFIG_BUCKET", "surveillance-config"),
		SnapshotBackend:    strings.ToLower(get("SNAPSHOT_BACKEND", SnapshotMinio)),
		SnapshotSQLitePath: get("SNAPSHOT_SQLITE_PATH", "surveillance.db"),
		SnapshotInterval:   ms("SNAPSHOT_INTERVAL_MS", 30*time.Second),
		RefreshInterval:    ms("CONFIG_REFRESH_MS", DefaultRefreshInterval),
	}
	cfg.MinioUseSSL, _ = strconv.ParseBool(get("MINIO_USE_SSL", "false"))

	switch cfg.SnapshotBackend {
	case SnapshotMinio, SnapshotSQLite, SnapshotNone:
	default:
		cfg.SnapshotBackend = SnapshotNone
	}
	if cfg.SnapshotBackend == SnapshotMinio && cfg.MinioEndpoint == "" {
		cfg.SnapshotBackend = SnapshotNone
	}
	return cfg
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
