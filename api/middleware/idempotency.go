package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/teeforge-backend/api/responses"
	pkgerrors "github.com/angelmondragon/teeforge-backend/pkg/errors"
	"github.com/angelmondragon/teeforge-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/teeforge-backend/pkg/redis"
)

const (
	idempotencyHeader      = "Idempotency-Key"
	replayedHeader         = "Idempotent-Replayed"
	defaultIdempotencyTTL  = 24 * time.Hour
	inFlightTTL            = 2 * time.Minute
	maxIdempotencyKeyLen   = 255
	recordStatePending     = "pending"
	recordStateComplete    = "complete"
	idempotencyPrefixMatch = "*"
)

// POST routes that honour Idempotency-Key. A trailing * matches any suffix.
// Without the header these routes run normally.
var idempotentPatterns = []string{
	"/api/v1/checkout",
	"/api/v1/orders",
	"/api/v1/campaigns",
	"/api/v1/artwork/*",
	"/api/v1/session/artwork/*",
}

type idempotencyRecord struct {
	State       string `json:"state"`
	RequestHash string `json:"request_hash"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        string `json:"body,omitempty"`
}

// Idempotency claims the key before the handler runs so a concurrent retry
// gets a 409 instead of a second order. The finished response is stored for
// ttl and replayed for the same key and body; 5xx responses release the key
// so the client can retry.
func Idempotency(store pkgredis.IdempotencyStore, ttl time.Duration, logg *logger.Logger) func(http.Handler) http.Handler {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
			if store == nil || clientKey == "" || !idempotentRoute(r.Method, routePattern(r)) {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			if len(clientKey) > maxIdempotencyKeyLen {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key is too long"))
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "request body too large"))
					return
				}
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			hash := hashBody(body, r.Header.Get("Content-Type"))
			key := store.IdempotencyKey(idempotencyScope(r), clientKey)

			claimed, err := store.SetNX(ctx, key, encodeRecord(idempotencyRecord{State: recordStatePending, RequestHash: hash}), inFlightTTL)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim idempotency key"))
				return
			}
			if !claimed {
				replayOrReject(w, r, store, key, hash, logg)
				return
			}

			rec := &responseCapture{ResponseWriter: w}
			completed := false
			defer func() {
				if !completed {
					// handler panicked or failed; let the client retry
					if delErr := store.Del(ctx, key); delErr != nil && logg != nil {
						logg.Error(ctx, "release idempotency key", delErr)
					}
				}
			}()
			next.ServeHTTP(rec, r)

			status := rec.statusCode()
			if status >= http.StatusInternalServerError {
				return
			}
			completed = true
			final := encodeRecord(idempotencyRecord{
				State:       recordStateComplete,
				RequestHash: hash,
				Status:      status,
				ContentType: rec.Header().Get("Content-Type"),
				Body:        base64.StdEncoding.EncodeToString(rec.body.Bytes()),
			})
			if err := store.Del(ctx, key); err == nil {
				_, err = store.SetNX(ctx, key, final, ttl)
				if err != nil && logg != nil {
					logg.Error(ctx, "persist idempotency record", err)
				}
			} else if logg != nil {
				logg.Error(ctx, "replace idempotency claim", err)
			}
		})
	}
}

func replayOrReject(w http.ResponseWriter, r *http.Request, store pkgredis.IdempotencyStore, key, hash string, logg *logger.Logger) {
	ctx := r.Context()
	stored, err := store.Get(ctx, key)
	if errors.Is(err, redis.Nil) || (err == nil && stored == "") {
		// the claim expired between SetNX and Get
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "request with this Idempotency-Key is still in progress"))
		return
	}
	if err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
		return
	}
	var record idempotencyRecord
	if err := json.Unmarshal([]byte(stored), &record); err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record"))
		return
	}
	switch {
	case record.RequestHash != hash:
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
	case record.State != recordStateComplete:
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "request with this Idempotency-Key is still in progress"))
	default:
		if record.ContentType != "" {
			w.Header().Set("Content-Type", record.ContentType)
		}
		w.Header().Set(replayedHeader, "true")
		w.WriteHeader(record.Status)
		if decoded, err := base64.StdEncoding.DecodeString(record.Body); err == nil {
			_, _ = w.Write(decoded)
		}
	}
}

func encodeRecord(record idempotencyRecord) string {
	b, _ := json.Marshal(record)
	return string(b)
}

// idempotencyScope keys records by caller and endpoint so two sessions
// sending the same client key never collide.
func idempotencyScope(r *http.Request) string {
	return strings.Join([]string{
		SessionIDFromContext(r.Context()),
		UserIDFromContext(r.Context()),
		r.Method,
		r.URL.Path,
	}, "|")
}

// hashBody fingerprints the request body. Multipart boundaries differ between
// retries of the same form, so they are removed before hashing.
func hashBody(payload []byte, contentType string) string {
	if mediaType, params, err := mime.ParseMediaType(contentType); err == nil && strings.HasPrefix(mediaType, "multipart/") {
		if boundary := params["boundary"]; boundary != "" {
			payload = bytes.ReplaceAll(payload, []byte(boundary), nil)
		}
	}
	sum := sha256.Sum256(payload)
	return base64.StdEncoding.EncodeToString(sum[:])
}

// routePattern prefers chi's pattern. Inside a mounted subrouter it is still
// "/prefix/*" when middleware runs, so the concrete path is used instead.
func routePattern(r *http.Request) string {
	if r == nil {
		return ""
	}
	if ctx := chi.RouteContext(r.Context()); ctx != nil {
		if pattern := ctx.RoutePattern(); pattern != "" && !strings.HasSuffix(pattern, "*") {
			return pattern
		}
	}
	return r.URL.Path
}

func idempotentRoute(method, pattern string) bool {
	if method != http.MethodPost || pattern == "" {
		return false
	}
	for _, candidate := range idempotentPatterns {
		if prefix, ok := strings.CutSuffix(candidate, idempotencyPrefixMatch); ok {
			if strings.HasPrefix(pattern, prefix) {
				return true
			}
			continue
		}
		if pattern == candidate {
			return true
		}
	}
	return false
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (r *responseCapture) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseCapture) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseCapture) statusCode() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}
