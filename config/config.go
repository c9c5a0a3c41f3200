package config

import (
	"os"
	"strconv"
	"time"
)

// getEnv 读取环境变量，未设置时返回默认值。
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt 读取整型环境变量，解析失败时返回默认值。
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// getEnvBool 读取布尔型环境变量，解析失败时返回默认值。
func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// LoggerConfig 日志配置。
type LoggerConfig struct {
	Level            string   `json:"level" yaml:"level"`                       // 日志级别 debug/info/warn/error
	Encoding         string   `json:"encoding" yaml:"encoding"`                 // 编码 json/console
	Development      bool     `json:"development" yaml:"development"`           // 开发模式（error 级别带堆栈）
	EnableColor      bool     `json:"enableColor" yaml:"enableColor"`           // console 模式下彩色等级
	OutputPaths      []string `json:"outputPaths" yaml:"outputPaths"`           // 普通日志输出路径
	ErrorOutputPaths []string `json:"errorOutputPaths" yaml:"errorOutputPaths"` // 错误日志输出路径
}

// DefaultLoggerConfig 返回本地开发的默认日志配置。
func DefaultLoggerConfig() LoggerConfig {
	return LoggerConfig{
		Level:       getEnv("LOG_LEVEL", "info"),
		Encoding:    getEnv("LOG_ENCODING", "json"),
		Development: getEnvBool("LOG_DEVELOPMENT", false),
	}
}

// ServerConfig HTTP 服务配置。
// 超时用于限制异常连接占用资源，避免慢连接拖垮服务。
type ServerConfig struct {
	Addr              string        `json:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
	ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout"`
	WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
	IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
	ShutdownTimeout   time.Duration `json:"shutdownTimeout" yaml:"shutdownTimeout"`
}

// DefaultServerConfig 返回默认服务配置，端口优先读取 SERVER_ADDR。
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:              getEnv("SERVER_ADDR", ":8080"),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		ShutdownTimeout:   10 * time.Second,
	}
}

// JWTConfig 会话校验配置。
// 说明：本服务只校验外部签发的 token，不负责签发。
type JWTConfig struct {
	Secret string `json:"secret" yaml:"secret"`
	Issuer string `json:"issuer" yaml:"issuer"`
}

// DefaultJWTConfig 返回默认 JWT 配置。
func DefaultJWTConfig() JWTConfig {
	return JWTConfig{
		Secret: getEnv("JWT_SECRET", "chatflow-dev-secret"),
		Issuer: getEnv("JWT_ISSUER", "chatflow"),
	}
}

// SnowflakeConfig 雪花算法节点配置。
type SnowflakeConfig struct {
	NodeID int64 `json:"nodeId" yaml:"nodeId"`
}

// DefaultSnowflakeConfig 返回默认节点配置。
func DefaultSnowflakeConfig() SnowflakeConfig {
	return SnowflakeConfig{NodeID: int64(getEnvInt("SNOWFLAKE_NODE_ID", 1))}
}
