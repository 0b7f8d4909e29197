package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/teeforge-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/teeforge-backend/pkg/errors"
)

const (
	defaultTimeout   = 90 * time.Second
	maxResponseBytes = 32 << 20
	defaultImageSize = "1024x1024"
)

// ReferenceImage is an image the provider uses as visual guidance for a
// prompt.
type ReferenceImage struct {
	ContentType string
	Data        []byte
}

// Generator turns a text prompt, optionally guided by reference images, into
// PNG bytes.
type Generator interface {
	Generate(ctx context.Context, prompt string, refs []ReferenceImage) ([]byte, error)
}

// BackgroundRemover returns a copy of the image with a transparent background.
type BackgroundRemover interface {
	RemoveBackground(ctx context.Context, data []byte, contentType string) ([]byte, error)
}

// Vectorizer converts raster artwork to SVG.
type Vectorizer interface {
	Vectorize(ctx context.Context, data []byte, contentType string) ([]byte, error)
}

// Client talks to the configured image provider endpoints.
type Client struct {
	baseURL       string
	apiKey        string
	model         string
	backgroundURL string
	vectorizeURL  string
	httpClient    *http.Client
}

type generationRequest struct {
	Model      string `json:"model"`
	Prompt     string `json:"prompt"`
	N          int    `json:"n"`
	Size       string `json:"size"`
	Background string `json:"background,omitempty"`
}

type generationResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

func NewClient(cfg config.ImageGenConfig) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("image generation base url required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:       strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:        cfg.APIKey,
		model:         cfg.Model,
		backgroundURL: strings.TrimSpace(cfg.BackgroundURL),
		vectorizeURL:  strings.TrimSpace(cfg.VectorizeURL),
		httpClient:    &http.Client{Timeout: timeout},
	}, nil
}

// CanRemoveBackground reports whether a background removal endpoint is configured.
func (c *Client) CanRemoveBackground() bool { return c.backgroundURL != "" }

// CanVectorize reports whether a vectorization endpoint is configured.
func (c *Client) CanVectorize() bool { return c.vectorizeURL != "" }

// Generate calls the generations endpoint for a bare prompt. With reference
// images it calls the edits endpoint instead, sending each image as an
// "image[]" part next to the prompt fields.
func (c *Client) Generate(ctx context.Context, prompt string, refs []ReferenceImage) ([]byte, error) {
	fields := generationRequest{
		Model:      c.model,
		Prompt:     prompt,
		N:          1,
		Size:       defaultImageSize,
		Background: "transparent",
	}
	var (
		req *http.Request
		err error
	)
	if len(refs) == 0 {
		req, err = c.generationRequest(ctx, fields)
	} else {
		req, err = c.editRequest(ctx, fields, refs)
	}
	if err != nil {
		return nil, err
	}

	body, err := c.do(req, "image generation")
	if err != nil {
		return nil, err
	}

	var result generationResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode image generation response")
	}
	if len(result.Data) == 0 || result.Data[0].B64JSON == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "image generation returned no image")
	}
	img, err := base64.StdEncoding.DecodeString(result.Data[0].B64JSON)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode generated image")
	}
	return img, nil
}

func (c *Client) generationRequest(ctx context.Context, fields generationRequest) (*http.Request, error) {
	payload, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("marshal generation request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/images/generations", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *Client) editRequest(ctx context.Context, fields generationRequest, refs []ReferenceImage) (*http.Request, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for name, value := range map[string]string{
		"model":      fields.Model,
		"prompt":     fields.Prompt,
		"n":          strconv.Itoa(fields.N),
		"size":       fields.Size,
		"background": fields.Background,
	} {
		if value == "" {
			continue
		}
		if err := writer.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("write %s field: %w", name, err)
		}
	}
	for i, ref := range refs {
		name := fmt.Sprintf("reference-%d", i+1)
		if err := writeImagePart(writer, "image[]", name, ref.ContentType, ref.Data); err != nil {
			return nil, fmt.Errorf("write reference image %d: %w", i+1, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close edit body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/images/edits", &buf)
	if err != nil {
		return nil, fmt.Errorf("create edit request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req, nil
}

func (c *Client) RemoveBackground(ctx context.Context, data []byte, contentType string) ([]byte, error) {
	if !c.CanRemoveBackground() {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "background removal is not configured")
	}
	return c.postImage(ctx, c.backgroundURL, "background removal", data, contentType)
}

func (c *Client) Vectorize(ctx context.Context, data []byte, contentType string) ([]byte, error) {
	if !c.CanVectorize() {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "vectorization is not configured")
	}
	return c.postImage(ctx, c.vectorizeURL, "vectorization", data, contentType)
}

// postImage sends the image as the "image" multipart field and returns the
// raw response body.
func (c *Client) postImage(ctx context.Context, url, op string, data []byte, contentType string) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writeImagePart(writer, "image", "image", contentType, data); err != nil {
		return nil, fmt.Errorf("write %s part: %w", op, err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close %s body: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	body, err := c.do(req, op)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, op+" returned an empty body")
	}
	return body, nil
}

func (c *Client) do(req *http.Request, op string) ([]byte, error) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, op+" request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read "+op+" response")
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}
	return nil, statusError(op, resp, body)
}

func statusError(op string, resp *http.Response, body []byte) error {
	if resp.StatusCode == http.StatusTooManyRequests {
		wait := parseRetryAfter(resp.Header.Get("Retry-After"), time.Now())
		return pkgerrors.New(pkgerrors.CodeRateLimit, op+" is busy, try again shortly").WithRetryAfter(wait)
	}
	cause := fmt.Errorf("status %d, body: %s", resp.StatusCode, truncate(string(body), 512))
	return pkgerrors.Wrap(pkgerrors.CodeDependency, cause, op+" failed")
}

// parseRetryAfter accepts delta-seconds or an HTTP date. Unparseable values
// fall back to one second.
func parseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Second
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if wait := at.Sub(now); wait > 0 {
			return wait
		}
		return 0
	}
	return time.Second
}

func writeImagePart(writer *multipart.Writer, field, baseName, contentType string, data []byte) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	part, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {fmt.Sprintf(`form-data; name=%q; filename=%q`, field, baseName+extensionForContentType(contentType))},
		"Content-Type":        {contentType},
	})
	if err != nil {
		return err
	}
	_, err = part.Write(data)
	return err
}

func extensionForContentType(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
