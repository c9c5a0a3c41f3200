package config

import "time"

// MinIOConfig 对象存储配置，消息图片走 MinIO。
type MinIOConfig struct {
	Endpoint        string `json:"endpoint" yaml:"endpoint"`               // 服务地址，如 localhost:9000
	AccessKeyID     string `json:"accessKeyId" yaml:"accessKeyId"`         // Access Key
	SecretAccessKey string `json:"secretAccessKey" yaml:"secretAccessKey"` // Secret Key
	UseSSL          bool   `json:"useSSL" yaml:"useSSL"`                   // 是否使用 HTTPS

	BucketName string `json:"bucketName" yaml:"bucketName"` // 存储桶名称
	Location   string `json:"location" yaml:"location"`     // Bucket 区域

	MaxFileSize   int64         `json:"maxFileSize" yaml:"maxFileSize"`     // 最大文件大小（字节）
	AllowedTypes  []string      `json:"allowedTypes" yaml:"allowedTypes"`   // 允许的 Content-Type
	UploadTimeout time.Duration `json:"uploadTimeout" yaml:"uploadTimeout"` // 上传超时时间

	BaseURL string `json:"baseUrl" yaml:"baseUrl"` // 外部访问的基础 URL，返回给客户端
}

// DefaultMinIOConfig 返回本地开发的默认配置。
func DefaultMinIOConfig() MinIOConfig {
	return MinIOConfig{
		Endpoint:        getEnv("MINIO_ENDPOINT", "127.0.0.1:9000"),
		AccessKeyID:     getEnv("MINIO_ACCESS_KEY", "minioadmin"),
		SecretAccessKey: getEnv("MINIO_SECRET_KEY", "minioadmin"),
		UseSSL:          getEnvBool("MINIO_USE_SSL", false),

		BucketName: getEnv("MINIO_BUCKET", "chatflow"),
		Location:   "us-east-1",

		MaxFileSize:   10 * 1024 * 1024,
		AllowedTypes:  []string{"image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp"},
		UploadTimeout: 30 * time.Second,

		BaseURL: getEnv("MINIO_BASE_URL", "http://localhost:9000"),
	}
}
