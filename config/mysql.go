package config

import (
	"fmt"
	"time"
)

// MySQLConfig 数据库连接配置。
// Replicas 非空时通过 dbresolver 开启读写分离，读请求走从库。
type MySQLConfig struct {
	Host            string        `json:"host" yaml:"host"`
	Port            int           `json:"port" yaml:"port"`
	User            string        `json:"user" yaml:"user"`
	Password        string        `json:"password" yaml:"password"`
	Database        string        `json:"database" yaml:"database"`
	Replicas        []string      `json:"replicas" yaml:"replicas"` // 从库 DSN 列表
	MaxOpenConns    int           `json:"maxOpenConns" yaml:"maxOpenConns"`
	MaxIdleConns    int           `json:"maxIdleConns" yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `json:"connMaxLifetime" yaml:"connMaxLifetime"`
	LogSlowThreshold time.Duration `json:"logSlowThreshold" yaml:"logSlowThreshold"`
}

// DSN 拼接主库连接串。
func (c MySQLConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

// DefaultMySQLConfig 返回本地开发的默认配置。
func DefaultMySQLConfig() MySQLConfig {
	return MySQLConfig{
		Host:             getEnv("MYSQL_HOST", "127.0.0.1"),
		Port:             getEnvInt("MYSQL_PORT", 3306),
		User:             getEnv("MYSQL_USER", "root"),
		Password:         getEnv("MYSQL_PASSWORD", "root"),
		Database:         getEnv("MYSQL_DATABASE", "chatflow"),
		MaxOpenConns:     100,
		MaxIdleConns:     10,
		ConnMaxLifetime:  time.Hour,
		LogSlowThreshold: 200 * time.Millisecond,
	}
}
