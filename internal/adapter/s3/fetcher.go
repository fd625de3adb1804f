// Package s3 downloads source files from S3-compatible object storage.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/couchcryptid/argo-profile-etl/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const scheme = "s3://"

// Fetcher copies objects to local temporary files. It implements pipeline.Fetcher.
type Fetcher struct {
	client *minio.Client
	tmpDir string
	logger *slog.Logger
}

// NewFetcher creates a client for the configured endpoint.
func NewFetcher(cfg *config.Config, logger *slog.Logger) (*Fetcher, error) {
	endpoint := strings.TrimSpace(cfg.S3Endpoint)
	if endpoint == "" {
		return nil, errors.New("S3_ENDPOINT is required")
	}
	region := strings.TrimSpace(cfg.S3Region)
	if region == "" {
		region = "us-east-1"
	}
	opts := &minio.Options{
		Secure: cfg.S3UseSSL,
		Region: region,
	}
	if cfg.S3AccessKey != "" || cfg.S3SecretKey != "" {
		opts.Creds = credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, "")
	} else {
		opts.Creds = credentials.NewStatic("", "", "", credentials.SignatureAnonymous)
	}
	client, err := minio.New(endpoint, opts)
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}
	return &Fetcher{client: client, logger: logger}, nil
}

// ParseURI splits s3://bucket/key into its parts.
func ParseURI(uri string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(uri, scheme)
	if !ok {
		return "", "", fmt.Errorf("not an s3 uri: %s", uri)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("s3 uri without bucket: %s", uri)
	}
	return bucket, key, nil
}

// Fetch downloads uri into a temporary file. The cleanup removes it.
func (f *Fetcher) Fetch(ctx context.Context, uri string) (string, func(), error) {
	bucket, key, err := ParseURI(uri)
	if err != nil {
		return "", nil, err
	}
	if key == "" {
		return "", nil, fmt.Errorf("s3 uri without object key: %s", uri)
	}

	obj, err := f.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return "", nil, fmt.Errorf("get %s: %w", uri, err)
	}
	defer obj.Close()

	tmp, err := os.CreateTemp(f.tmpDir, "argo-*"+path.Ext(key))
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}
	cleanup := func() {
		if err := os.Remove(tmp.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
			f.logger.Warn("remove temp file failed", "path", tmp.Name(), "error", err)
		}
	}

	n, err := io.Copy(tmp, obj)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		cleanup()
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" {
			return "", nil, fmt.Errorf("object %s: %w", uri, os.ErrNotExist)
		}
		return "", nil, fmt.Errorf("download %s: %w", uri, err)
	}
	f.logger.Debug("fetched object", "uri", uri, "bytes", n, "path", tmp.Name())
	return tmp.Name(), cleanup, nil
}

// Expand lists the .nc objects under an s3://bucket/prefix/ uri, sorted by key.
// A uri naming a single object is returned as is.
func (f *Fetcher) Expand(ctx context.Context, uri string) ([]string, error) {
	bucket, prefix, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		return []string{uri}, nil
	}
	var out []string
	for obj := range f.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list %s: %w", uri, obj.Err)
		}
		if strings.HasSuffix(obj.Key, ".nc") {
			out = append(out, scheme+bucket+"/"+obj.Key)
		}
	}
	sort.Strings(out)
	return out, nil
}
