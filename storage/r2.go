package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// R2Bucket talks to Cloudflare R2 through the S3 API.
type R2Bucket struct {
	s3           *s3.Client
	bucket       string
	publicDomain string
}

type R2Options struct {
	Bucket       string
	AccessKeyID  string
	SecretKey    string
	Endpoint     string // https://<account-id>.r2.cloudflarestorage.com
	PublicDomain string
}

func NewR2Bucket(ctx context.Context, o R2Options) (*R2Bucket, error) {
	if o.Bucket == "" || o.AccessKeyID == "" || o.SecretKey == "" || o.Endpoint == "" {
		return nil, fmt.Errorf("missing R2 env vars (R2_BUCKET, R2_ACCESS_KEY_ID, R2_SECRET_ACCESS_KEY, R2_ENDPOINT)")
	}

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(o.AccessKeyID, o.SecretKey, ""),
		),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("r2 config: %w", err)
	}

	return newR2Bucket(cfg, o), nil
}

func newR2Bucket(cfg aws.Config, o R2Options) *R2Bucket {
	client := s3.NewFromConfig(cfg, func(opts *s3.Options) {
		opts.BaseEndpoint = aws.String(o.Endpoint)
		opts.UsePathStyle = true // required for R2
		opts.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})
	return &R2Bucket{
		s3:           client,
		bucket:       o.Bucket,
		publicDomain: strings.TrimRight(o.PublicDomain, "/"),
	}
}

func (r *R2Bucket) NewReader(ctx context.Context, objectName string) (io.ReadCloser, error) {
	out, err := r.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(objectName),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, ErrObjectNotFound
		}
		return nil, err
	}
	return out.Body, nil
}

// spoolWriter buffers an object in a temp file so PutObject gets a seekable body of known
// length.
type spoolWriter struct {
	ctx         context.Context
	r           *R2Bucket
	f           *os.File
	key         string
	contentType string
}

func (w *spoolWriter) Write(b []byte) (int, error) { return w.f.Write(b) }

func (w *spoolWriter) Close() error {
	defer os.Remove(w.f.Name())
	defer w.f.Close()

	if err := w.ctx.Err(); err != nil {
		return err
	}
	size, err := w.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if _, err := w.f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	_, err = w.r.s3.PutObject(w.ctx, &s3.PutObjectInput{
		Bucket:        aws.String(w.r.bucket),
		Key:           aws.String(w.key),
		Body:          w.f,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(w.contentType),
		CacheControl:  aws.String("no-cache"),
	})
	if err != nil {
		return fmt.Errorf("r2 put %s: %w", w.key, err)
	}
	return nil
}

func (r *R2Bucket) NewWriter(ctx context.Context, objectName, contentType string) (io.WriteCloser, error) {
	f, err := os.CreateTemp("", "r2-upload-*")
	if err != nil {
		return nil, fmt.Errorf("r2 spool: %w", err)
	}
	return &spoolWriter{ctx: ctx, r: r, f: f, key: objectName, contentType: contentType}, nil
}

func (r *R2Bucket) Delete(ctx context.Context, objectName string) error {
	_, err := r.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(objectName),
	})
	return err
}

func (r *R2Bucket) PublicURL(objectName string) string {
	return r2PublicURL(r.publicDomain, r.bucket, objectName)
}

func (r *R2Bucket) ObjectName(raw string) (string, error) {
	return r2ObjectName(r.publicDomain, r.bucket, raw)
}

func r2PublicURL(domain, bucket, objectName string) string {
	return fmt.Sprintf("%s/%s/%s", domain, bucket, objectName)
}

func r2ObjectName(domain, bucket, raw string) (string, error) {
	prefix := domain + "/" + bucket + "/"
	if domain != "" && strings.HasPrefix(raw, prefix) {
		return strings.TrimPrefix(raw, prefix), nil
	}
	return "", fmt.Errorf("not a recognised R2 public url")
}
