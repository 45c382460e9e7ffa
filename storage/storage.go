// Package storage hides the object store behind Bucket so that uploads, deletes and the
// video pipeline work the same on GCS, Cloudflare R2 and in tests.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrObjectNotFound = errors.New("object not found")

type Bucket interface {
	// NewReader streams an existing object.
	NewReader(ctx context.Context, objectName string) (io.ReadCloser, error)
	// NewWriter returns a writer whose Close commits the object. Cancelling ctx before
	// Close aborts the upload and leaves no object behind.
	NewWriter(ctx context.Context, objectName, contentType string) (io.WriteCloser, error)
	Delete(ctx context.Context, objectName string) error
	PublicURL(objectName string) string
	ObjectName(publicURL string) (string, error)
}

type UploadedObject struct {
	ObjectName string
	URL        string
	MimeType   string
	SizeBytes  int64
	FileName   string
	UploadedAt time.Time
}

// Upload copies r into objectName.
func Upload(ctx context.Context, b Bucket, objectName, contentType string, r io.Reader) (string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w, err := b.NewWriter(ctx, objectName, contentType)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(w, r); err != nil {
		cancel()
		_ = w.Close()
		return "", fmt.Errorf("upload copy: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("upload close: %w", err)
	}
	return b.PublicURL(objectName), nil
}

// UploadFile stores a multipart file under prefix/<unix>-<uuid><ext>.
func UploadFile(ctx context.Context, b Bucket, prefix string, fh *multipart.FileHeader, contentType string) (*UploadedObject, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if ext == "" {
		ext = ".bin"
	}
	if contentType == "" {
		contentType = fh.Header.Get("Content-Type")
	}
	if contentType == "" {
		contentType = mime.TypeByExtension(ext)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	objectName := NewObjectName(prefix, ext)
	url, err := Upload(ctx, b, objectName, contentType, f)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", fh.Filename, err)
	}

	return &UploadedObject{
		ObjectName: objectName,
		URL:        url,
		MimeType:   contentType,
		SizeBytes:  fh.Size,
		FileName:   fh.Filename,
		UploadedAt: time.Now().UTC(),
	}, nil
}

func NewObjectName(prefix, ext string) string {
	prefix = strings.Trim(prefix, "/")
	return fmt.Sprintf("%s/%d-%s%s", prefix, time.Now().UTC().Unix(), uuid.New().String(), ext)
}

// DeleteObjects removes every object and returns the first error.
func DeleteObjects(ctx context.Context, b Bucket, objectNames []string) error {
	var firstErr error
	for _, obj := range objectNames {
		if obj == "" {
			continue
		}
		if err := b.Delete(ctx, obj); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("delete %s: %w", obj, err)
		}
	}
	return firstErr
}

// DeleteURLs resolves public URLs back to object names, skipping foreign URLs.
func DeleteURLs(ctx context.Context, b Bucket, urls []string) error {
	names := make([]string, 0, len(urls))
	for _, u := range urls {
		if obj, err := b.ObjectName(u); err == nil {
			names = append(names, obj)
		}
	}
	return DeleteObjects(ctx, b, names)
}
