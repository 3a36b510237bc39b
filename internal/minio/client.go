// internal/minio/client.go
//
// Клиент на основе официальной библиотеки github.com/minio/minio-go/v7

package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Client: ObjectStore поверх minio-go.
type Client struct {
	client *minio.Client
	config Config
}

// NewClient создаёт клиент MinIO.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return &Client{client: client, config: cfg}, nil
}

// ensureBucket создаёт бакет, если он не существует.
func (c *Client) ensureBucket(ctx context.Context, bucket string) error {
	exists, err := c.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}
	if err := c.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: c.config.Region}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
	}
	return nil
}

func isNotFound(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return true
	}
	return false
}

// PutObject загружает объект в MinIO.
func (c *Client) PutObject(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	if err := c.ensureBucket(ctx, bucket); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := c.client.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object %s/%s failed: %w", bucket, key, err)
	}
	return nil
}

// GetObject скачивает объект из MinIO.
func (c *Client) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	reader, err := c.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%s/%s: %w", bucket, key, ErrNotFound)
		}
		return nil, fmt.Errorf("get object %s/%s failed: %w", bucket, key, err)
	}
	defer reader.Close()

	// ошибка NoSuchKey приходит только при чтении
	data, err := io.ReadAll(reader)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%s/%s: %w", bucket, key, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read object %s/%s: %w", bucket, key, err)
	}
	return data, nil
}

// ListObjects возвращает список объектов с префиксом.
func (c *Client) ListObjects(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error) {
	if err := c.ensureBucket(ctx, bucket); err != nil {
		return nil, err
	}

	var objects []ObjectInfo
	for object := range c.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if object.Err != nil {
			return nil, fmt.Errorf("list objects failed: %w", object.Err)
		}
		objects = append(objects, ObjectInfo{
			Key:          object.Key,
			LastModified: object.LastModified,
			Size:         object.Size,
		})
	}
	sortNewestFirst(objects)
	return objects, nil
}

// RemoveObject удаляет объект из MinIO.
func (c *Client) RemoveObject(ctx context.Context, bucket, key string) error {
	err := c.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("remove object %s/%s failed: %w", bucket, key, err)
	}
	return nil
}

func sortNewestFirst(objects []ObjectInfo) {
	sort.SliceStable(objects, func(i, j int) bool {
		return objects[i].LastModified.After(objects[j].LastModified)
	})
}
