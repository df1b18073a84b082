package service

import (
	"context"
	"time"

	"github.com/ikkim/moda-backend/internal/app/model"
	"github.com/ikkim/moda-backend/internal/storage"
	"github.com/ikkim/moda-backend/pkg/tryon"
)

// OrderEventPublisher pushes order changes to connected sessions. The
// websocket hub implements it.
type OrderEventPublisher interface {
	PublishOrderStatus(order *model.Order)
}

// ObjectStorage is the part of S3 the services need.
type ObjectStorage interface {
	PutObject(ctx context.Context, key, contentType string, body []byte) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	GeneratePresignedURLWithFolder(ctx context.Context, filename, contentType, folder string) (*storage.PresignedURLResponse, error)
}

// TryOnGenerator produces a try-on image and returns its URL.
type TryOnGenerator interface {
	Generate(ctx context.Context, req tryon.Request) (string, error)
}

// RateLimiter answers whether one more hit fits in the window for key.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// Cache stores JSON values with a TTL.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
