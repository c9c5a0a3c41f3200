package minio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"ChatFlowServer/config"
	"ChatFlowServer/pkg/logger"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var global *MinIOClient

var (
	// ErrFileTooLarge 文件超过大小上限
	ErrFileTooLarge = errors.New("file too large")

	// ErrInvalidFileType Content-Type 不在白名单内
	ErrInvalidFileType = errors.New("invalid file type")
)

// MinIOClient MinIO 客户端封装，消息图片通过它上传。
type MinIOClient struct {
	client *minio.Client
	config config.MinIOConfig
}

// Client 返回全局 MinIO 客户端（未初始化时为 nil）
func Client() *MinIOClient {
	return global
}

// ReplaceGlobal 设置全局 MinIO 客户端
func ReplaceGlobal(c *MinIOClient) {
	global = c
}

// Build 基于配置创建 MinIO 客户端并确保 Bucket 存在。
func Build(cfg config.MinIOConfig) (*MinIOClient, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, errors.New("minio endpoint is empty")
	}
	if strings.TrimSpace(cfg.BucketName) == "" {
		return nil, errors.New("minio bucketName is empty")
	}

	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	client := &MinIOClient{
		client: minioClient,
		config: cfg,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := minioClient.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket exists: %w", err)
	}
	if !exists {
		if err := minioClient.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{
			Region: cfg.Location,
		}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		logger.Info(ctx, "MinIO Bucket 创建成功",
			logger.String("bucket", cfg.BucketName),
			logger.String("location", cfg.Location),
		)

		// 消息图片直接以 URL 返回客户端，Bucket 设为公开读
		policy := fmt.Sprintf(`{
			"Version": "2012-10-17",
			"Statement": [
				{
					"Effect": "Allow",
					"Principal": {"AWS": ["*"]},
					"Action": ["s3:GetObject"],
					"Resource": ["arn:aws:s3:::%s/*"]
				}
			]
		}`, cfg.BucketName)
		if err := minioClient.SetBucketPolicy(ctx, cfg.BucketName, policy); err != nil {
			logger.Warn(ctx, "设置 Bucket 公开策略失败",
				logger.String("bucket", cfg.BucketName),
				logger.ErrorField("error", err),
			)
		}
	}

	return client, nil
}

// ValidateImage 校验图片大小与 Content-Type。
func (c *MinIOClient) ValidateImage(size int64, contentType string) error {
	if c.config.MaxFileSize > 0 && size > c.config.MaxFileSize {
		return ErrFileTooLarge
	}
	for _, allowed := range c.config.AllowedTypes {
		if strings.EqualFold(allowed, contentType) {
			return nil
		}
	}
	return ErrInvalidFileType
}

// UploadImage 上传消息图片并返回外部可访问的 URL。
// 对象名按日期分目录，文件名用 UUID 避免冲突。
func (c *MinIOClient) UploadImage(ctx context.Context, reader io.Reader, size int64, fileName, contentType string) (string, error) {
	if err := c.ValidateImage(size, contentType); err != nil {
		return "", err
	}

	ext := filepath.Ext(fileName)
	objectName := fmt.Sprintf("messages/%s/%s%s",
		time.Now().Format("2006/01/02"), uuid.New().String(), ext)

	uploadCtx := ctx
	if c.config.UploadTimeout > 0 {
		var cancel context.CancelFunc
		uploadCtx, cancel = context.WithTimeout(ctx, c.config.UploadTimeout)
		defer cancel()
	}

	_, err := c.client.PutObject(uploadCtx, c.config.BucketName, objectName, reader, size,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}

	return fmt.Sprintf("%s/%s/%s",
		strings.TrimRight(c.config.BaseURL, "/"), c.config.BucketName, objectName), nil
}
