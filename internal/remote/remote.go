// Package remote lists what has already landed in the Elm bucket. It is a
// read-only inventory and does not check archive contents.
package remote

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"elmbackup/internal/config"
)

// ErrNoEndpoint is returned when no S3 endpoint is configured.
var ErrNoEndpoint = errors.New("ELM_ENDPOINT is not set")

// Object is one archived object.
type Object struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// Inventory lists objects under a bucket prefix.
type Inventory struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewClient connects to the configured S3-compatible endpoint.
func NewClient(cfg config.Remote) (*minio.Client, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, ErrNoEndpoint
	}
	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "https://"), "http://")
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return client, nil
}

// NewInventory wraps client for the location named by target, which has the
// same "bucket[/prefix]" form as ELM_BUCKET (an s3:// scheme is accepted).
func NewInventory(client *minio.Client, target string) (*Inventory, error) {
	bucket, prefix := SplitTarget(target)
	if bucket == "" {
		return nil, fmt.Errorf("no bucket in %q", target)
	}
	return &Inventory{client: client, bucket: bucket, prefix: prefix}, nil
}

// SplitTarget separates the bucket name from any key prefix.
func SplitTarget(target string) (bucket, prefix string) {
	target = strings.TrimPrefix(strings.TrimSpace(target), "s3://")
	target = strings.Trim(target, "/")
	bucket, prefix, _ = strings.Cut(target, "/")
	return bucket, prefix
}

// List returns the objects under folder, sorted by key. Keys are relative to
// the bucket.
func (i *Inventory) List(ctx context.Context, folder string) ([]Object, error) {
	full := path.Join(i.prefix, strings.Trim(folder, "/")) + "/"
	full = strings.TrimPrefix(full, "/")

	var objects []Object
	for obj := range i.client.ListObjects(ctx, i.bucket, minio.ListObjectsOptions{
		Prefix:    full,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list %s/%s: %w", i.bucket, full, obj.Err)
		}
		objects = append(objects, Object{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}
	sort.Slice(objects, func(a, b int) bool { return objects[a].Key < objects[b].Key })
	return objects, nil
}

// TotalSize sums object sizes.
func TotalSize(objects []Object) int64 {
	var n int64
	for _, o := range objects {
		n += o.Size
	}
	return n
}

// FormatSize renders a byte count with a binary unit.
func FormatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
