package imagegen

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/teeforge-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/teeforge-backend/pkg/errors"
)

func TestClientGenerateDecodesImage(t *testing.T) {
	want := []byte("\x89PNG fake image")
	var got generationRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/images/generations", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{{"b64_json": base64.StdEncoding.EncodeToString(want)}},
		})
	}))
	defer srv.Close()

	client, err := NewClient(config.ImageGenConfig{BaseURL: srv.URL + "/", APIKey: "key", Model: "img-model"})
	require.NoError(t, err)

	img, err := client.Generate(context.Background(), "a red fox", nil)
	require.NoError(t, err)
	assert.Equal(t, want, img)
	assert.Equal(t, "a red fox", got.Prompt)
	assert.Equal(t, "img-model", got.Model)
	assert.Equal(t, 1, got.N)
}

func TestClientGenerateForwardsReferenceImages(t *testing.T) {
	want := []byte("\x89PNG edited")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/images/edits", r.URL.Path)
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		assert.Equal(t, "keep the fox, add a hat", r.FormValue("prompt"))
		assert.Equal(t, "img-model", r.FormValue("model"))

		parts := r.MultipartForm.File["image[]"]
		if assert.Len(t, parts, 2) {
			assert.Equal(t, "reference-1.png", parts[0].Filename)
			assert.Equal(t, "image/jpeg", parts[1].Header.Get("Content-Type"))
			f, err := parts[0].Open()
			if assert.NoError(t, err) {
				data, _ := io.ReadAll(f)
				_ = f.Close()
				assert.Equal(t, "first", string(data))
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{{"b64_json": base64.StdEncoding.EncodeToString(want)}},
		})
	}))
	defer srv.Close()

	client, err := NewClient(config.ImageGenConfig{BaseURL: srv.URL, Model: "img-model"})
	require.NoError(t, err)

	img, err := client.Generate(context.Background(), "keep the fox, add a hat", []ReferenceImage{
		{ContentType: "image/png", Data: []byte("first")},
		{ContentType: "image/jpeg", Data: []byte("second")},
	})
	require.NoError(t, err)
	assert.Equal(t, want, img)
}

func TestClientMapsTooManyRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "12")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client, err := NewClient(config.ImageGenConfig{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), "prompt", nil)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeRateLimit, typed.Code())
	assert.Equal(t, 12*time.Second, typed.RetryAfter())
	assert.Equal(t, map[string]any{"retry_after_seconds": 12}, typed.Details())
}

func TestClientUpstreamFailureIsDependency(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	client, err := NewClient(config.ImageGenConfig{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), "prompt", nil)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeDependency, typed.Code())
}

func TestClientRemoveBackgroundSendsMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("image")
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "image.png", header.Filename)
		assert.Equal(t, "source", string(data))
		_, _ = w.Write([]byte("clean"))
	}))
	defer srv.Close()

	client, err := NewClient(config.ImageGenConfig{BaseURL: "https://unused.test", BackgroundURL: srv.URL})
	require.NoError(t, err)

	out, err := client.RemoveBackground(context.Background(), []byte("source"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "clean", string(out))
}

func TestClientUnconfiguredEndpoints(t *testing.T) {
	client, err := NewClient(config.ImageGenConfig{BaseURL: "https://unused.test"})
	require.NoError(t, err)

	assert.False(t, client.CanVectorize())
	_, err = client.Vectorize(context.Background(), []byte("x"), "image/png")
	require.Error(t, err)
	_, err = client.RemoveBackground(context.Background(), []byte("x"), "image/png")
	require.Error(t, err)
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, 30*time.Second, parseRetryAfter("30", now))
	assert.Equal(t, time.Second, parseRetryAfter("", now))
	assert.Equal(t, time.Second, parseRetryAfter("soon", now))
	assert.Equal(t, 90*time.Second, parseRetryAfter(now.Add(90*time.Second).Format(http.TimeFormat), now))
	assert.Equal(t, time.Duration(0), parseRetryAfter(now.Add(-time.Minute).Format(http.TimeFormat), now))
}
