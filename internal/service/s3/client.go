package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

const (
	opTimeout     = 30 * time.Second
	uploadTimeout = 10 * time.Minute
)

// ErrObjectNotFound возвращается, когда блоба нет в хранилище,
// хотя метаданные на него ссылаются
var ErrObjectNotFound = errors.New("object not found in storage")

// Client - обёртка над S3-совместимым хранилищем, реализует Storage
type Client struct {
	api    *s3.Client
	bucket string
}

// NewClient создаёт клиент и проверяет доступность бакета.
// Недоступный бакет - ошибка конфигурации, падаем сразу, а не на
// первой загрузке.
func NewClient(conf *Config) (*Client, error) {
	if conf == nil {
		return nil, fmt.Errorf("configuration is required")
	}

	api := s3.New(s3.Options{
		BaseEndpoint: aws.String(conf.Endpoint),
		Region:       conf.Region,
		Credentials: aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(
			conf.AccessKeyID,
			conf.SecretAccessKey,
			"",
		)),
		RetryMode:        aws.RetryModeAdaptive,
		RetryMaxAttempts: 3,
	})

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if _, err := api.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(conf.Bucket),
	}); err != nil {
		return nil, fmt.Errorf("unable to access bucket %s: %w", conf.Bucket, err)
	}

	return &Client{api: api, bucket: conf.Bucket}, nil
}

func (c *Client) UploadBytes(ctx context.Context, key string, data []byte) error {
	if key == "" {
		return fmt.Errorf("key is required")
	}

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	_, err := c.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s: %w", key, err)
	}

	return nil
}

func (c *Client) GetObject(ctx context.Context, key string) (Object, error) {
	out, err := c.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}

	return &object{
		ReadCloser:    out.Body,
		contentLength: aws.ToInt64(out.ContentLength),
	}, nil
}

// DeleteObject идемпотентен: отсутствующий объект считается удалённым
func (c *Client) DeleteObject(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("key is required")
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := c.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to check object %s: %w", key, err)
	}

	if _, err := c.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}

	return nil
}
