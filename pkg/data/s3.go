package data

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Config selects the bucket and how to reach it. Empty credentials fall
// back to the default AWS credential chain.
type S3Config struct {
	// URL is s3://bucket/prefix.
	URL             string `envconfig:"S3_URL"`
	Region          string `envconfig:"S3_REGION" default:"us-west-2"`
	Endpoint        string `envconfig:"S3_ENDPOINT"`
	PathStyle       bool   `envconfig:"S3_PATH_STYLE"`
	AccessKeyID     string `envconfig:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
}

// S3API is the part of *s3.Client used by S3.
type S3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3 stores each document as an object under a key prefix. A document's
// expiry is carried in the object's Expires header.
type S3 struct {
	client S3API
	bucket string
	prefix string
}

func NewS3(client S3API, bucket, prefix string) *S3 {
	return &S3{client: client, bucket: bucket, prefix: prefix}
}

// OpenS3 builds an S3 client from cfg.
func OpenS3(ctx context.Context, cfg S3Config) (*S3, error) {
	bucket, prefix, err := ParseS3URL(cfg.URL)
	if err != nil {
		return nil, err
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})
	return NewS3(client, bucket, prefix), nil
}

// ParseS3URL splits s3://bucket/prefix. A non-empty prefix always ends in a
// slash.
func ParseS3URL(raw string) (bucket, prefix string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("invalid S3 URL %q: %w", raw, err)
	}
	if u.Scheme != "s3" || u.Host == "" {
		return "", "", fmt.Errorf("invalid S3 URL %q: want s3://bucket/prefix", raw)
	}
	prefix = strings.TrimPrefix(u.Path, "/")
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return u.Host, prefix, nil
}

func (s *S3) key(path string) string {
	return s.prefix + strings.TrimPrefix(path, "/")
}

func (s *S3) Get(ctx context.Context, path string) (*Document, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(path)),
	})
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", s.bucket, s.key(path), err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read s3://%s/%s: %w", s.bucket, s.key(path), err)
	}

	doc := &Document{
		Path:        path,
		Body:        body,
		ContentType: aws.ToString(out.ContentType),
		ETag:        aws.ToString(out.ETag),
		Expires:     out.Expires,
	}
	if doc.ETag == "" {
		doc.ETag = ETag(body)
	}
	if out.LastModified != nil {
		doc.UpdatedAt = *out.LastModified
	}
	return doc, nil
}

func (s *S3) Put(ctx context.Context, doc *Document) error {
	in := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(doc.Path)),
		Body:        bytes.NewReader(doc.Body),
		ContentType: aws.String(doc.ContentType),
	}
	if doc.Expires != nil {
		in.Expires = aws.Time(doc.Expires.UTC().Truncate(time.Second))
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	if _, err := s.client.PutObject(ctx, in); err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", s.bucket, s.key(doc.Path), err)
	}
	return nil
}
