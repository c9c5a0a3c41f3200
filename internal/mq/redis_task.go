package mq

import (
	"context"
	"time"
)

type CommandType string

const (
	CmdSimple   CommandType = "simple"   // Set, Del, SAdd...
	CmdPipeline CommandType = "pipeline" // 批量操作
)

// RedisTask 存放在 Kafka 里的消息体。
// Redis 写失败时把失败的命令投递到重试队列，由消费者异步补偿。
type RedisTask struct {
	Type CommandType `json:"type"`

	// 普通命令 (如 DEL key)
	Command string        `json:"command,omitempty"` // e.g., "del", "set"
	Args    []interface{} `json:"args,omitempty"`    // e.g., ["user:1", "value"]

	// Pipeline (一组命令)
	PipelineCmds []RedisCmd `json:"pipeline_cmds,omitempty"`

	// 元数据（用于追踪和重试控制）
	TraceID     string    `json:"trace_id,omitempty"`
	UserUID     string    `json:"user_uid,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	RetryCount  int       `json:"retry_count"`      // 已重试次数
	MaxRetries  int       `json:"max_retries"`      // 最大重试次数
	OriginalErr string    `json:"original_err"`     // 原始错误信息
	Source      string    `json:"source,omitempty"` // 操作来源（repo/service）
}

type RedisCmd struct {
	Command string        `json:"command"`
	Args    []interface{} `json:"args"`
}

// ==================== 构造器函数（Builder） ====================

// BuildDelTask 构造一个 DEL 任务
func BuildDelTask(keys ...string) RedisTask {
	args := make([]interface{}, 0, len(keys))
	for _, k := range keys {
		args = append(args, k)
	}
	return RedisTask{
		Type:       CmdSimple,
		Command:    "del",
		Args:       args,
		Timestamp:  time.Now(),
		RetryCount: 0,
		MaxRetries: 3, // 默认最多重试3次
	}
}

// BuildSetTask 构造一个 SET 任务
func BuildSetTask(key string, val interface{}, ttl time.Duration) RedisTask {
	args := []interface{}{key, val}
	if ttl > 0 {
		args = append(args, "EX", int(ttl.Seconds()))
	}
	return RedisTask{
		Type:       CmdSimple,
		Command:    "set",
		Args:       args,
		Timestamp:  time.Now(),
		RetryCount: 0,
		MaxRetries: 3,
	}
}

// BuildSAddTask 构造一个 SADD 任务
func BuildSAddTask(key string, members ...interface{}) RedisTask {
	args := []interface{}{key}
	args = append(args, members...)
	return RedisTask{
		Type:       CmdSimple,
		Command:    "sadd",
		Args:       args,
		Timestamp:  time.Now(),
		RetryCount: 0,
		MaxRetries: 3,
	}
}

// BuildSRemTask 构造一个 SREM 任务
func BuildSRemTask(key string, members ...interface{}) RedisTask {
	args := []interface{}{key}
	args = append(args, members...)
	return RedisTask{
		Type:       CmdSimple,
		Command:    "srem",
		Args:       args,
		Timestamp:  time.Now(),
		RetryCount: 0,
		MaxRetries: 3,
	}
}

// BuildZAddTask 构造一个 ZADD 任务
func BuildZAddTask(key string, score float64, member interface{}) RedisTask {
	return RedisTask{
		Type:       CmdSimple,
		Command:    "zadd",
		Args:       []interface{}{key, score, member},
		Timestamp:  time.Now(),
		RetryCount: 0,
		MaxRetries: 3,
	}
}

// BuildZRemTask 构造一个 ZREM 任务
func BuildZRemTask(key string, members ...interface{}) RedisTask {
	args := []interface{}{key}
	args = append(args, members...)
	return RedisTask{
		Type:       CmdSimple,
		Command:    "zrem",
		Args:       args,
		Timestamp:  time.Now(),
		RetryCount: 0,
		MaxRetries: 3,
	}
}

// BuildPipelineTask 构造一个 Pipeline 任务
func BuildPipelineTask(cmds []RedisCmd) RedisTask {
	return RedisTask{
		Type:         CmdPipeline,
		PipelineCmds: cmds,
		Timestamp:    time.Now(),
		RetryCount:   0,
		MaxRetries:   3,
	}
}

// ==================== 链式方法 ====================

// WithContext 为任务添加上下文信息
func (t RedisTask) WithContext(ctx context.Context) RedisTask {
	if traceID, ok := ctx.Value("trace_id").(string); ok {
		t.TraceID = traceID
	}
	if userUID, ok := ctx.Value("user_uid").(string); ok {
		t.UserUID = userUID
	}
	return t
}

// WithError 为任务添加错误信息
func (t RedisTask) WithError(err error) RedisTask {
	t.OriginalErr = err.Error()
	return t
}

// WithSource 为任务添加来源信息
func (t RedisTask) WithSource(source string) RedisTask {
	t.Source = source
	return t
}

// WithMaxRetries 设置最大重试次数
func (t RedisTask) WithMaxRetries(maxRetries int) RedisTask {
	t.MaxRetries = maxRetries
	return t
}
