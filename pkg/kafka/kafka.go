package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Producer 封装 kafka-go 的 Writer，固定写入单个 topic。
type Producer struct {
	writer *kafka.Writer
}

// NewProducer 创建面向指定 topic 的生产者。
func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 10 * time.Millisecond,
			Async:        false,
		},
	}
}

// Send 发送一条消息，key 用于分区路由。
func (p *Producer) Send(ctx context.Context, key, value []byte) error {
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: key, Value: value}); err != nil {
		return fmt.Errorf("write kafka message: %w", err)
	}
	return nil
}

// Close 关闭底层 Writer。
func (p *Producer) Close() error {
	return p.writer.Close()
}

// NewReader 创建消费组 Reader。
func NewReader(brokers []string, topic, groupID string, errorLogger kafka.Logger) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		GroupID:     groupID,
		MinBytes:    1,
		MaxBytes:    1 << 20,
		MaxWait:     time.Second,
		ErrorLogger: errorLogger,
	})
}

// ZapLoggerAdapter 把 zap 适配成 kafka-go 的 Logger 接口。
type ZapLoggerAdapter struct {
	l *zap.Logger
}

// NewZapLoggerAdapter 创建适配器。
func NewZapLoggerAdapter(l *zap.Logger) *ZapLoggerAdapter {
	return &ZapLoggerAdapter{l: l}
}

// Printf 实现 kafka.Logger 接口。
func (a *ZapLoggerAdapter) Printf(format string, args ...interface{}) {
	a.l.Sugar().Warnf(format, args...)
}
