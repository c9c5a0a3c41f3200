package redis

import (
	"context"
	"fmt"
	"time"

	"ChatFlowServer/config"

	"github.com/redis/go-redis/v9"
)

var global *redis.Client

// Build 根据配置创建 Redis 客户端并验证连通性。
func Build(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

// ReplaceGlobal 替换全局客户端实例。
func ReplaceGlobal(client *redis.Client) {
	global = client
}

// Client 返回全局客户端实例，未初始化时为 nil（降级模式）。
func Client() *redis.Client {
	return global
}
