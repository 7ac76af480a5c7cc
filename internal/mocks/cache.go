package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

type Cache struct {
	mock.Mock
}

func (c *Cache) Get(ctx context.Context, namespace, key string) (string, error) {
	args := c.Called(ctx, namespace, key)
	return args.String(0), args.Error(1)
}

func (c *Cache) Set(ctx context.Context, namespace, key string, value interface{}, ttl time.Duration) error {
	args := c.Called(ctx, namespace, key, value, ttl)
	return args.Error(0)
}

func (c *Cache) Delete(ctx context.Context, namespace, key string) error {
	args := c.Called(ctx, namespace, key)
	return args.Error(0)
}
