package storage

import (
	"context"
	"fmt"

	"github.com/Avhad-Enterprises/mmv-freelance-sub001/config"
)

// Open builds the bucket selected by STORAGE_DRIVER.
func Open(ctx context.Context, cfg config.StorageConfig, baseURL string) (Bucket, error) {
	switch cfg.Driver {
	case "gcs", "":
		return NewGCSBucket(ctx, cfg.GCSBucket, cfg.CredentialsFile)
	case "r2":
		return NewR2Bucket(ctx, R2Options{
			Bucket:       cfg.R2Bucket,
			AccessKeyID:  cfg.R2AccessKeyID,
			SecretKey:    cfg.R2SecretKey,
			Endpoint:     cfg.R2Endpoint,
			PublicDomain: cfg.R2PublicDomain,
		})
	case "memory":
		return NewMemoryBucket(baseURL + "/media"), nil
	}
	return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.Driver)
}
