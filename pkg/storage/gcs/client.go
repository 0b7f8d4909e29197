package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	storage "google.golang.org/api/storage/v1"

	"github.com/angelmondragon/teeforge-backend/pkg/config"
	"github.com/angelmondragon/teeforge-backend/pkg/logger"
)

const pingTimeout = 5 * time.Second

// objectStore is the slice of the JSON API the client uses.
type objectStore interface {
	Insert(ctx context.Context, bucket, name, contentType string, body io.Reader) (*storage.Object, error)
	Delete(ctx context.Context, bucket, name string) error
	List(ctx context.Context, bucket, prefix string, max int64) ([]*storage.Object, error)
}

// Object describes an uploaded object.
type Object struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

type Client struct {
	store         objectStore
	defaultBucket string
	publicBaseURL string
}

type Pinger interface {
	Ping(ctx context.Context) error
}

func NewClient(ctx context.Context, cfg config.GCSConfig, gcp config.GCPConfig, logg *logger.Logger) (*Client, error) {
	if cfg.BucketName == "" {
		return nil, errors.New("gcs bucket name is required")
	}

	svc, err := storage.NewService(ctx, clientOptions(gcp)...)
	if err != nil {
		return nil, fmt.Errorf("create storage service: %w", err)
	}

	client := newClient(&apiStore{svc: svc}, cfg)
	if err := client.Ping(ctx); err != nil {
		return nil, fmt.Errorf("gcs health check failed: %w", err)
	}

	if logg != nil {
		logg.Info(ctx, "gcs client initialized")
	}
	return client, nil
}

func newClient(store objectStore, cfg config.GCSConfig) *Client {
	base := strings.TrimRight(cfg.PublicBaseURL, "/")
	if base == "" {
		base = "https://storage.googleapis.com"
	}
	return &Client{store: store, defaultBucket: cfg.BucketName, publicBaseURL: base}
}

func clientOptions(gcp config.GCPConfig) []option.ClientOption {
	var opts []option.ClientOption
	switch {
	case strings.TrimSpace(gcp.CredentialsJSON) != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(gcp.CredentialsJSON)))
	case strings.TrimSpace(gcp.ApplicationCredentials) != "":
		opts = append(opts, option.WithCredentialsFile(gcp.ApplicationCredentials))
	}
	return opts
}

func (c *Client) DefaultBucket() string {
	if c == nil {
		return ""
	}
	return c.defaultBucket
}

// Upload writes body to key in the default bucket and returns its public URL.
func (c *Client) Upload(ctx context.Context, key, contentType string, body io.Reader) (*Object, error) {
	if c == nil || c.store == nil {
		return nil, errors.New("gcs client not initialized")
	}
	key = strings.TrimLeft(key, "/")
	if key == "" {
		return nil, errors.New("object key is required")
	}
	obj, err := c.store.Insert(ctx, c.defaultBucket, key, contentType, body)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", key, err)
	}
	out := &Object{Key: key, URL: c.PublicURL(key), ContentType: contentType}
	if obj != nil {
		out.Size = int64(obj.Size)
	}
	return out, nil
}

// Delete removes key. Objects that are already gone are not an error.
func (c *Client) Delete(ctx context.Context, key string) error {
	if c == nil || c.store == nil {
		return errors.New("gcs client not initialized")
	}
	if err := c.store.Delete(ctx, c.defaultBucket, key); err != nil {
		if IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// PublicURL returns the browser-facing URL for key.
func (c *Client) PublicURL(key string) string {
	segments := strings.Split(strings.TrimLeft(key, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("%s/%s/%s", c.publicBaseURL, url.PathEscape(c.defaultBucket), strings.Join(segments, "/"))
}

func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.store == nil {
		return errors.New("gcs client not initialized")
	}
	if c.defaultBucket == "" {
		return errors.New("gcs bucket not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	// object-level check; requires storage.objects.list
	if _, err := c.store.List(ctx, c.defaultBucket, "", 1); err != nil {
		return fmt.Errorf("gcs object check failed: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	return nil
}

// IsNotFound reports a 404 from the storage API.
func IsNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}

type apiStore struct {
	svc *storage.Service
}

func (a *apiStore) Insert(ctx context.Context, bucket, name, contentType string, body io.Reader) (*storage.Object, error) {
	return a.svc.Objects.
		Insert(bucket, &storage.Object{Name: name, ContentType: contentType}).
		Media(body, googleapi.ContentType(contentType)).
		Context(ctx).
		Do()
}

func (a *apiStore) Delete(ctx context.Context, bucket, name string) error {
	return a.svc.Objects.Delete(bucket, name).Context(ctx).Do()
}

func (a *apiStore) List(ctx context.Context, bucket, prefix string, max int64) ([]*storage.Object, error) {
	call := a.svc.Objects.List(bucket).MaxResults(max).Context(ctx)
	if prefix != "" {
		call = call.Prefix(prefix)
	}
	res, err := call.Do()
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}
