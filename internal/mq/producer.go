package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ChatFlowServer/pkg/kafka"
)

var globalProducer *kafka.Producer

// SetGlobalProducer 设置全局 Kafka 生产者（进程启动时调用一次）。
func SetGlobalProducer(p *kafka.Producer) {
	globalProducer = p
}

// SendRedisTask 把 Redis 重试任务投递到 Kafka。
// 生产者未初始化（Redis 降级模式）时直接返回错误，由调用方记录日志后放弃。
func SendRedisTask(ctx context.Context, task RedisTask) error {
	if globalProducer == nil {
		return errors.New("kafka producer not initialized")
	}

	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal redis task: %w", err)
	}

	// 以 user_uid 作为分区 key，同一用户的补偿操作保持顺序
	key := []byte(task.UserUID)
	if len(key) == 0 {
		key = []byte(task.TraceID)
	}

	return globalProducer.Send(ctx, key, payload)
}
