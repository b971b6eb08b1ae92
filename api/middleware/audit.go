package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/lensretail-backend/api/responses"
	"github.com/angelmondragon/lensretail-backend/internal/audit"
	pkgerrors "github.com/angelmondragon/lensretail-backend/pkg/errors"
)

const maxAuditBody = 64 << 10

type auditRecorder interface {
	Record(ctx context.Context, entry audit.Entry)
	RecordError(ctx context.Context, entry audit.ErrorEntry)
}

// actorSlot lets Auth, which runs deeper in the chain, report the caller
// back to the audit middleware.
type actorSlot struct {
	userID string
}

type actorSlotKey struct{}

func noteActor(ctx context.Context, userID string) {
	if slot, ok := ctx.Value(actorSlotKey{}).(*actorSlot); ok && slot != nil {
		slot.userID = userID
	}
}

// Audit records successful mutating requests and routes internal failures
// written through responses.WriteError into the error log.
func Audit(recorder auditRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if recorder == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			slot := &actorSlot{}
			ctx := context.WithValue(r.Context(), actorSlotKey{}, slot)

			method, path := r.Method, r.URL.Path
			ctx = responses.WithErrorSink(ctx, func(ctx context.Context, typed *pkgerrors.Error) {
				entry := audit.ErrorEntry{
					RequestID: RequestIDFromContext(ctx),
					Method:    method,
					Path:      path,
					Code:      string(typed.Code()),
					Message:   typed.Error(),
					Detail:    typed.Details(),
					UserID:    parseActor(slot.userID),
				}
				recorder.RecordError(ctx, entry)
			})

			target, audited := audit.Describe(method, path)
			var body []byte
			if audited && r.Body != nil {
				raw, err := io.ReadAll(io.LimitReader(r.Body, maxAuditBody+1))
				if err == nil {
					r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(raw), r.Body))
					if len(raw) <= maxAuditBody {
						body = raw
					}
				}
			}

			ww := wrapWriter(w, r)
			next.ServeHTTP(ww, r.WithContext(ctx))

			if !audited || statusOf(ww) >= http.StatusBadRequest {
				return
			}
			recorder.Record(ctx, audit.Entry{
				UserID:    parseActor(slot.userID),
				Target:    target,
				Changes:   audit.RedactBody(body),
				IPAddress: clientIP(r),
				UserAgent: r.UserAgent(),
				RequestID: RequestIDFromContext(ctx),
			})
		})
	}
}

func parseActor(raw string) *uuid.UUID {
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}
