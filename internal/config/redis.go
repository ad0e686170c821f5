// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package config

import (
	"context"
	"os"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient builds a Redis client from REDIS_ADDR/REDIS_DB/REDIS_PASSWORD,
// pinging once to fail fast on a bad connection. Used when RedisAddr selects
// the Redis-backed job queue (internal/queue.RedisQueue) over the default
// in-process one.
func NewRedisClient(ctx context.Context) (*redis.Client, error) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "127.0.0.1:6379"
	}

	db := 0
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if parsed, err := strconv.Atoi(dbStr); err == nil {
			db = parsed
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		DB:       db,
		Password: os.Getenv("REDIS_PASSWORD"),
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return client, nil
}
