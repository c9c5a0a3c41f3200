package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	pkgkafka "ChatFlowServer/pkg/kafka"
	"ChatFlowServer/pkg/logger"

	segkafka "github.com/segmentio/kafka-go"
	"github.com/redis/go-redis/v9"
)

// RedisRetryConsumer 消费 Redis 重试队列并回放失败的命令。
// 回放仍然失败时递增 RetryCount 重新入队，超过 MaxRetries 后丢弃并告警。
type RedisRetryConsumer struct {
	reader      *segkafka.Reader
	redisClient *redis.Client
	producer    *pkgkafka.Producer
}

// NewRedisRetryConsumer 创建重试消费者。
func NewRedisRetryConsumer(brokers []string, topic, groupID string, redisClient *redis.Client, producer *pkgkafka.Producer, errorLogger segkafka.Logger) *RedisRetryConsumer {
	return &RedisRetryConsumer{
		reader:      pkgkafka.NewReader(brokers, topic, groupID, errorLogger),
		redisClient: redisClient,
		producer:    producer,
	}
}

// Start 阻塞消费，ctx 取消后返回。
func (c *RedisRetryConsumer) Start(ctx context.Context) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("read retry message: %w", err)
		}

		var task RedisTask
		if err := json.Unmarshal(msg.Value, &task); err != nil {
			logger.Error(ctx, "重试任务反序列化失败，丢弃",
				logger.ErrorField("error", err),
				logger.String("raw", string(msg.Value)),
			)
			continue
		}

		c.handle(ctx, task)
	}
}

// Close 关闭底层 Reader。
func (c *RedisRetryConsumer) Close() error {
	return c.reader.Close()
}

func (c *RedisRetryConsumer) handle(ctx context.Context, task RedisTask) {
	execCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	err := c.execute(execCtx, task)
	if err == nil {
		return
	}

	// 回放失败，判断是否还能重试
	task.RetryCount++
	if task.RetryCount >= task.MaxRetries {
		logger.Error(ctx, "Redis 重试任务超过最大重试次数，丢弃",
			logger.String("command", task.Command),
			logger.String("trace_id", task.TraceID),
			logger.Int("retry_count", task.RetryCount),
			logger.ErrorField("error", err),
		)
		return
	}

	if sendErr := SendRedisTask(ctx, task); sendErr != nil {
		logger.Error(ctx, "Redis 重试任务重新入队失败，丢弃",
			logger.String("command", task.Command),
			logger.ErrorField("error", sendErr),
		)
	}
}

func (c *RedisRetryConsumer) execute(ctx context.Context, task RedisTask) error {
	switch task.Type {
	case CmdSimple:
		return c.runCommand(ctx, c.redisClient, task.Command, task.Args)
	case CmdPipeline:
		pipe := c.redisClient.Pipeline()
		for _, cmd := range task.PipelineCmds {
			args := make([]interface{}, 0, len(cmd.Args)+1)
			args = append(args, cmd.Command)
			args = append(args, cmd.Args...)
			pipe.Do(ctx, args...)
		}
		_, err := pipe.Exec(ctx)
		return err
	default:
		return fmt.Errorf("unknown task type: %s", task.Type)
	}
}

func (c *RedisRetryConsumer) runCommand(ctx context.Context, client *redis.Client, command string, args []interface{}) error {
	doArgs := make([]interface{}, 0, len(args)+1)
	doArgs = append(doArgs, strings.ToLower(command))
	doArgs = append(doArgs, args...)
	return client.Do(ctx, doArgs...).Err()
}
