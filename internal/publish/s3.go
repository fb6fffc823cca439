// Package publish 可选地把打包好的站点上传到 S3 兼容存储
package publish

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"webweaver/internal/config"
	"webweaver/pkg/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type Publisher interface {
	Publish(ctx context.Context, generationID, archivePath string) (string, error)
}

// ObjectPutter s3.Client 中用到的部分，测试时替换
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Publisher struct {
	client ObjectPutter
	bucket string
	prefix string
}

func NewS3Publisher(client ObjectPutter, bucket, prefix string) *S3Publisher {
	return &S3Publisher{client: client, bucket: bucket, prefix: prefix}
}

// New 未启用时返回 nil, nil
func New(ctx context.Context, cfg config.PublishConfig) (*S3Publisher, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	logger.Infof("Publishing enabled: s3://%s/%s", cfg.Bucket, cfg.Prefix)
	return NewS3Publisher(client, cfg.Bucket, cfg.Prefix), nil
}

func (p *S3Publisher) Key(generationID, archivePath string) string {
	return path.Join(p.prefix, generationID, filepath.Base(archivePath))
}

// Publish 上传 zip，返回 s3:// 地址
func (p *S3Publisher) Publish(ctx context.Context, generationID, archivePath string) (string, error) {
	data, err := os.ReadFile(archivePath)
	if err != nil {
		return "", fmt.Errorf("failed to read archive: %w", err)
	}

	key := p.Key(generationID, archivePath)
	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/zip"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload archive: %w", err)
	}
	return fmt.Sprintf("s3://%s/%s", p.bucket, key), nil
}
