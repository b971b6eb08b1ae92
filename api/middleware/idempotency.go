package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/lensretail-backend/api/responses"
	pkgerrors "github.com/angelmondragon/lensretail-backend/pkg/errors"
	"github.com/angelmondragon/lensretail-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/lensretail-backend/pkg/redis"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"

	// ReplayWindowDay covers retried discount batches and customer creation.
	ReplayWindowDay = 24 * time.Hour
	// ReplayWindowWeek covers sale order creation and cancellation.
	ReplayWindowWeek = 7 * 24 * time.Hour

	maxIdempotentBody = 1 << 20
)

// replayRecord is what a completed write leaves behind in Redis.
type replayRecord struct {
	Fingerprint string `json:"fingerprint"`
	Status      int    `json:"status"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body"`
}

// IdempotencyGuard replays the first response of a write for every retry that
// carries the same Idempotency-Key from the same user.
type IdempotencyGuard struct {
	store pkgredis.IdempotencyStore
	logg  *logger.Logger
}

// NewIdempotencyGuard returns a guard; with a nil store Within is a no-op.
func NewIdempotencyGuard(store pkgredis.IdempotencyStore, logg *logger.Logger) *IdempotencyGuard {
	return &IdempotencyGuard{store: store, logg: logg}
}

// Within requires the header on the wrapped route and remembers successful
// and client-error outcomes for window. Server errors are not remembered so a
// retry can still succeed.
func (g *IdempotencyGuard) Within(window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if g == nil || g.store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			clientKey := strings.TrimSpace(r.Header.Get(HeaderIdempotencyKey))
			if clientKey == "" {
				responses.WriteError(ctx, g.logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required"))
				return
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, maxIdempotentBody))
			if err != nil {
				responses.WriteError(ctx, g.logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			fingerprint := fingerprintBody(body)
			key := g.store.IdempotencyKey(UserIDFromContext(ctx)+"|"+r.Method+"|"+r.URL.Path, clientKey)

			stored, err := g.store.Get(ctx, key)
			switch {
			case pkgredis.IsMiss(err):
			case err != nil:
				responses.WriteError(ctx, g.logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
				return
			default:
				var record replayRecord
				if err := json.Unmarshal([]byte(stored), &record); err != nil {
					responses.WriteError(ctx, g.logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record"))
					return
				}
				if record.Fingerprint != fingerprint {
					responses.WriteError(ctx, g.logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with a different request body"))
					return
				}
				if record.ContentType != "" {
					w.Header().Set("Content-Type", record.ContentType)
				}
				w.Header().Set("Idempotent-Replayed", "true")
				w.WriteHeader(record.Status)
				_, _ = w.Write(record.Body)
				return
			}

			capture := &capturingWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(capture, r)
			if capture.status >= http.StatusInternalServerError {
				return
			}

			payload, err := json.Marshal(replayRecord{
				Fingerprint: fingerprint,
				Status:      capture.status,
				ContentType: capture.Header().Get("Content-Type"),
				Body:        capture.body.Bytes(),
			})
			if err == nil {
				_, err = g.store.SetNX(ctx, key, string(payload), window)
			}
			if err != nil && g.logg != nil {
				g.logg.Error(ctx, "idempotency.record_failed", err)
			}
		})
	}
}

func fingerprintBody(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// capturingWriter tees the response so it can be stored after the handler.
type capturingWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	body        bytes.Buffer
}

func (c *capturingWriter) WriteHeader(status int) {
	if !c.wroteHeader {
		c.status = status
		c.wroteHeader = true
	}
	c.ResponseWriter.WriteHeader(status)
}

func (c *capturingWriter) Write(b []byte) (int, error) {
	c.wroteHeader = true
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}
