package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/klauspost/compress/gzip"

	"beacon_collector/internal/models"
	"beacon_collector/internal/utils"
)

// ObjectPutter is the subset of the S3 client the archiver uses
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config holds the archive destination
type S3Config struct {
	Bucket   string
	Region   string
	Prefix   string // e.g. "archive/"
	Endpoint string // optional S3-compatible endpoint, enables path-style addressing
	PodName  string

	// Static credentials; the default AWS chain is used when empty
	AccessKeyID     string
	SecretAccessKey string
}

// S3Archiver writes each flushed batch as one gzip-compressed JSON Lines
// object.
type S3Archiver struct {
	client  ObjectPutter
	bucket  string
	prefix  string
	podName string
	now     func() time.Time
	logger  *utils.Logger
}

// NewS3Archiver creates an archiver from cfg
func NewS3Archiver(ctx context.Context, cfg S3Config) (*S3Archiver, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewS3ArchiverWithClient(client, cfg), nil
}

// NewS3ArchiverWithClient creates an archiver on an existing client
func NewS3ArchiverWithClient(client ObjectPutter, cfg S3Config) *S3Archiver {
	return &S3Archiver{
		client:  client,
		bucket:  cfg.Bucket,
		prefix:  cfg.Prefix,
		podName: cfg.PodName,
		now:     time.Now,
		logger:  utils.NewLogger("archive"),
	}
}

func (a *S3Archiver) Enabled() bool { return true }

// Archive uploads records and returns the object key.
// Format: archive/2025/11/30/collector-0-20251130-143022-123456789.jsonl.gz
func (a *S3Archiver) Archive(ctx context.Context, records []*models.LogRecord) (string, error) {
	if len(records) == 0 {
		return "", nil
	}

	now := a.now().UTC()
	key := fmt.Sprintf("%s%04d/%02d/%02d/%s-%s-%d.jsonl.gz",
		a.prefix,
		now.Year(),
		now.Month(),
		now.Day(),
		a.podName,
		now.Format("20060102-150405"),
		now.Nanosecond(),
	)

	body, err := encodeBatch(records)
	if err != nil {
		return "", err
	}

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:          aws.String(a.bucket),
		Key:             aws.String(key),
		Body:            bytes.NewReader(body),
		ContentType:     aws.String("application/x-ndjson"),
		ContentEncoding: aws.String("gzip"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload archive to S3: %w", err)
	}

	a.logger.Info("Wrote archive to S3", "bucket", a.bucket, "key", key, "count", len(records), "bytes", len(body))
	return key, nil
}

// encodeBatch renders records as gzip-compressed JSON Lines.
func encodeBatch(records []*models.LogRecord) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)

	encoder := json.NewEncoder(zw)
	encoder.SetEscapeHTML(false)
	for _, record := range records {
		if err := encoder.Encode(record); err != nil {
			zw.Close()
			return nil, fmt.Errorf("failed to encode record: %w", err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress archive: %w", err)
	}
	return buf.Bytes(), nil
}
