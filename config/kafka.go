package config

// KafkaConsumerConfig 消费者配置。
type KafkaConsumerConfig struct {
	GroupID string `json:"groupId" yaml:"groupId"`
}

// KafkaConfig Kafka 配置。
// RedisRetryTopic 用于投递 Redis 写失败的重试任务。
type KafkaConfig struct {
	Brokers         []string            `json:"brokers" yaml:"brokers"`
	RedisRetryTopic string              `json:"redisRetryTopic" yaml:"redisRetryTopic"`
	ConsumerConfig  KafkaConsumerConfig `json:"consumer" yaml:"consumer"`
}

// DefaultKafkaConfig 返回本地开发的默认配置。
func DefaultKafkaConfig() KafkaConfig {
	return KafkaConfig{
		Brokers:         []string{getEnv("KAFKA_BROKER", "127.0.0.1:9092")},
		RedisRetryTopic: getEnv("KAFKA_REDIS_RETRY_TOPIC", "chatflow.redis.retry"),
		ConsumerConfig: KafkaConsumerConfig{
			GroupID: getEnv("KAFKA_GROUP_ID", "chatflow-redis-retry"),
		},
	}
}
