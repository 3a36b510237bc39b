// internal/minio/common.go
//
// Общие определения для клиентов объектного хранилища

package minio

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound: объект или бакет отсутствует.
var ErrNotFound = errors.New("object not found")

// Config для MinIO-клиента.
type Config struct {
	Endpoint        string // Например: "minio:9000" (без http://)
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	Region          string // По умолчанию "us-east-1"
}

// ObjectInfo информация об объекте
type ObjectInfo struct {
	Key          string
	LastModified time.Time
	Size         int64
}

// ObjectStore: общий интерфейс клиентов хранилища: конфиги камер,
// профили жара, карты зон и снапшоты памяти.
type ObjectStore interface {
	// PutObject загружает объект, создавая бакет при необходимости
	PutObject(ctx context.Context, bucket, key string, data []byte, contentType string) error

	// GetObject скачивает объект; отсутствующий объект даёт ErrNotFound
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)

	// ListObjects возвращает объекты с префиксом, новые первыми
	ListObjects(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)

	// RemoveObject удаляет объект; отсутствие объекта не ошибка
	RemoveObject(ctx context.Context, bucket, key string) error
}
