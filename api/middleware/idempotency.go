package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/warung-pos/api/responses"
	pkgerrors "github.com/angelmondragon/warung-pos/pkg/errors"
	"github.com/angelmondragon/warung-pos/pkg/logger"
	pkgredis "github.com/angelmondragon/warung-pos/pkg/redis"
)

const (
	idempotencyHeader = "Idempotency-Key"
	replayedHeader    = "Idempotent-Replayed"
	maxIdempotencyKey = 255

	defaultIdempotencyTTL  = 24 * time.Hour
	criticalIdempotencyTTL = 7 * 24 * time.Hour
	// claim held while the first request runs; replaced by the final record.
	inFlightTTL = time.Minute
)

// idempotentRoutes lists the writes that require an Idempotency-Key, keyed
// by "METHOD pattern". Checkout keeps its records longest since a replayed
// sale would double count cash.
var idempotentRoutes = map[string]time.Duration{
	http.MethodPost + " /api/v1/products":      defaultIdempotencyTTL,
	http.MethodPut + " /api/v1/settings/store": defaultIdempotencyTTL,
	http.MethodPost + " /api/v1/checkout":      criticalIdempotencyTTL,
}

const (
	stateInFlight = "in_flight"
	stateDone     = "done"
)

type savedResponse struct {
	State       string `json:"state"`
	RequestHash string `json:"request_hash"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

// Idempotency replays the stored response when a write is retried with the
// same key and body. A key reused with another body, or retried while the
// first attempt is still running, is rejected with 409. Responses with a 5xx
// status are not kept so the client may retry them.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ttl, ok := routeTTL(r.Method, routePattern(r))
			if !ok || store == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()

			clientKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
			switch {
			case clientKey == "":
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required"))
				return
			case len(clientKey) > maxIdempotencyKey:
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header too long"))
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			hash := requestHash(body)
			key := store.IdempotencyKey(requestScope(r), clientKey)

			saved, err := loadSaved(ctx, store, key)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
				return
			}
			if saved == nil {
				claimed, claimErr := store.SetNX(ctx, key, encodeSaved(savedResponse{State: stateInFlight, RequestHash: hash}), inFlightTTL)
				if claimErr != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, claimErr, "claim idempotency key"))
					return
				}
				if claimed {
					captureAndStore(w, r, next, store, key, hash, ttl, logg)
					return
				}
				// lost the race to a concurrent request with the same key
				saved = &savedResponse{State: stateInFlight, RequestHash: hash}
			}

			switch {
			case saved.RequestHash != hash:
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
			case saved.State != stateDone:
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "a request with this idempotency key is still running"))
			default:
				replay(w, saved)
			}
		})
	}
}

func captureAndStore(w http.ResponseWriter, r *http.Request, next http.Handler, store pkgredis.IdempotencyStore, key, hash string, ttl time.Duration, logg *logger.Logger) {
	capture := &responseCapture{ResponseWriter: w}
	next.ServeHTTP(capture, r)

	// the response is already sent; storage failures below only cost a replay
	ctx := context.WithoutCancel(r.Context())
	if capture.statusCode() >= http.StatusInternalServerError {
		if err := store.Del(ctx, key); err != nil {
			logError(ctx, logg, "release idempotency claim", err)
		}
		return
	}
	record := savedResponse{
		State:       stateDone,
		RequestHash: hash,
		Status:      capture.statusCode(),
		ContentType: capture.Header().Get("Content-Type"),
		Body:        capture.body.Bytes(),
	}
	// overwrite the claim in place so the key is never briefly free
	if err := store.Set(ctx, key, encodeSaved(record), ttl); err != nil {
		logError(ctx, logg, "store idempotent response", err)
	}
}

func loadSaved(ctx context.Context, store pkgredis.IdempotencyStore, key string) (*savedResponse, error) {
	raw, err := store.Get(ctx, key)
	if errors.Is(err, redis.Nil) || (err == nil && raw == "") {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var saved savedResponse
	if err := json.Unmarshal([]byte(raw), &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

func encodeSaved(s savedResponse) string {
	// savedResponse has no types json can fail on
	b, _ := json.Marshal(s)
	return string(b)
}

func replay(w http.ResponseWriter, saved *savedResponse) {
	if saved.ContentType != "" {
		w.Header().Set("Content-Type", saved.ContentType)
	}
	w.Header().Set(replayedHeader, "true")
	w.WriteHeader(saved.Status)
	_, _ = w.Write(saved.Body)
}

// requestScope keeps keys from different cashiers or endpoints apart.
func requestScope(r *http.Request) string {
	path := r.URL.Path
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	return UserIDFromContext(r.Context()) + "|" + r.Method + "|" + path
}

func requestHash(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// routePattern prefers the chi pattern. Inside a mounted sub-router it is
// still a wildcard at middleware time, so the raw path is used instead. A
// trailing slash is dropped since chi serves both spellings from one route.
func routePattern(r *http.Request) string {
	pattern := r.URL.Path
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" && !strings.HasSuffix(p, "*") {
			pattern = p
		}
	}
	if len(pattern) > 1 {
		pattern = strings.TrimSuffix(pattern, "/")
	}
	return pattern
}

func routeTTL(method, pattern string) (time.Duration, bool) {
	ttl, ok := idempotentRoutes[method+" "+pattern]
	return ttl, ok
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (c *responseCapture) WriteHeader(code int) {
	if c.status == 0 {
		c.status = code
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *responseCapture) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}

func (c *responseCapture) statusCode() int {
	if c.status == 0 {
		return http.StatusOK
	}
	return c.status
}

func logError(ctx context.Context, logg *logger.Logger, msg string, err error) {
	if logg != nil && err != nil {
		logg.Error(ctx, msg, err)
	}
}
