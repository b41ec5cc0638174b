package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var (
	ErrUnsupportedMedia = errors.New("s3: unsupported media type")
	ErrNotConfigured    = errors.New("s3: uploader not configured")
)

// Kind classifies an upload by what the feed renders it as. It ends up in
// posts' image_urls, stories' media_url and message attachments.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// Upload describes one piece of user media headed for the bucket.
type Upload struct {
	OwnerID     string
	ContentType string
	Body        io.Reader
}

// Object is the stored result: the key under the bucket and the public URL
// clients embed in posts, stories and messages.
type Object struct {
	Key         string
	URL         string
	Kind        Kind
	ContentType string
}

type Uploader interface {
	Upload(ctx context.Context, up Upload) (*Object, error)
}

type mediaFormat struct {
	kind Kind
	ext  string
}

// formats is the accepted media catalog. Anything outside it is rejected
// before a byte reaches the bucket.
var formats = map[string]mediaFormat{
	"image/jpeg": {KindImage, ".jpg"},
	"image/jpg":  {KindImage, ".jpg"},
	"image/png":  {KindImage, ".png"},
	"image/webp": {KindImage, ".webp"},
	"image/gif":  {KindImage, ".gif"},
	"video/mp4":  {KindVideo, ".mp4"},
	"video/webm": {KindVideo, ".webm"},
}

// KindFor reports how a content type would be classified, without
// uploading anything.
func KindFor(contentType string) (Kind, bool) {
	format, ok := formats[strings.ToLower(strings.TrimSpace(contentType))]
	return format.kind, ok
}

// Client uploads media to a MinIO/S3 bucket and hands back public URLs.
type Client struct {
	bucket     string
	publicBase string
	client     *minio.Client
	logger     *slog.Logger
	initOnce   sync.Once
	initErr    error
}

func NewClient(endpoint string, useSSL bool, accessKey, secretKey, bucket, publicBaseURL string, logger *slog.Logger) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, errors.New("s3: endpoint is required")
	}
	if bucket = strings.TrimSpace(bucket); bucket == "" {
		return nil, errors.New("s3: bucket is required")
	}

	minioClient, err := minio.New(hostOf(endpoint), &minio.Options{
		Creds:  credentials.NewStaticV4(strings.TrimSpace(accessKey), strings.TrimSpace(secretKey), ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("s3: create client: %w", err)
	}

	base := strings.TrimSpace(publicBaseURL)
	if base == "" {
		base = endpoint
	}
	return &Client{
		bucket:     bucket,
		publicBase: strings.TrimRight(base, "/"),
		client:     minioClient,
		logger:     logger,
	}, nil
}

// Upload classifies the media, stores it under a per-owner key and returns
// the object with its public URL. Uploaded media is immutable, so clients
// may cache it forever.
func (c *Client) Upload(ctx context.Context, up Upload) (*Object, error) {
	contentType := strings.ToLower(strings.TrimSpace(up.ContentType))
	format, ok := formats[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMedia, up.ContentType)
	}
	if up.Body == nil {
		return nil, errors.New("s3: upload body is required")
	}
	if err := c.ensureBucket(ctx); err != nil {
		return nil, err
	}

	key := objectKey(up.OwnerID, format)
	_, err := c.client.PutObject(ctx, c.bucket, key, up.Body, -1, minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "public, max-age=31536000, immutable",
	})
	if err != nil {
		return nil, fmt.Errorf("s3: put object: %w", err)
	}

	obj := &Object{
		Key:         key,
		URL:         c.publicURL(key),
		Kind:        format.kind,
		ContentType: contentType,
	}
	if c.logger != nil {
		c.logger.Info("media stored", "bucket", c.bucket, "key", key, "kind", format.kind)
	}
	return obj, nil
}

func (c *Client) ensureBucket(ctx context.Context) error {
	c.initOnce.Do(func() {
		exists, err := c.client.BucketExists(ctx, c.bucket)
		if err != nil {
			c.initErr = fmt.Errorf("s3: check bucket: %w", err)
			return
		}
		if exists {
			return
		}
		if err := c.client.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
			c.initErr = fmt.Errorf("s3: create bucket: %w", err)
			return
		}
		// Media URLs are served straight from the bucket.
		policy := fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`, c.bucket)
		if err := c.client.SetBucketPolicy(ctx, c.bucket, policy); err != nil {
			c.initErr = fmt.Errorf("s3: set bucket policy: %w", err)
		}
	})
	return c.initErr
}

func (c *Client) publicURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", c.publicBase, c.bucket, strings.TrimLeft(key, "/"))
}

// objectKey namespaces media as <kind>s/<owner>/<random><ext> so one user's
// uploads never collide with another's and the kind is visible in the path.
func objectKey(ownerID string, format mediaFormat) string {
	return fmt.Sprintf("%ss/%s/%s%s", format.kind, sanitizeOwner(ownerID), uuid.NewString(), format.ext)
}

func sanitizeOwner(value string) string {
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9',
			r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	owner := strings.Trim(b.String(), "-")
	if owner == "" {
		return "anonymous"
	}
	return owner
}

func hostOf(endpoint string) string {
	if parsed, err := url.Parse(endpoint); err == nil && parsed.Host != "" {
		return parsed.Host
	}
	return endpoint
}

// NoopUploader stands in when no S3 endpoint is configured.
type NoopUploader struct{}

func (NoopUploader) Upload(context.Context, Upload) (*Object, error) {
	return nil, ErrNotConfigured
}

var (
	_ Uploader = (*Client)(nil)
	_ Uploader = NoopUploader{}
)
