package audit

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/lensretail-backend/pkg/enums"
)

const apiPrefix = "/api/v1/"

// groupingSegments are path prefixes that do not name an entity themselves.
var groupingSegments = map[string]bool{"admin": true, "catalog": true}

// Target is the audit classification of one request.
type Target struct {
	Action     enums.AuditAction
	EntityType string
	EntityID   *string
}

// Describe classifies a mutating request. ok is false for reads and for
// paths that are not audited.
func Describe(method, path string) (Target, bool) {
	action, ok := actionFor(method)
	if !ok || !strings.HasPrefix(path, apiPrefix) {
		return Target{}, false
	}
	segments := strings.Split(strings.Trim(strings.TrimPrefix(path, apiPrefix), "/"), "/")
	for len(segments) > 1 && groupingSegments[segments[0]] {
		segments = segments[1:]
	}
	if len(segments) == 0 || segments[0] == "" {
		return Target{}, false
	}

	entity := strings.ReplaceAll(segments[0], "-", "_")
	rest := segments[1:]

	if entity == "auth" {
		if len(rest) == 0 {
			return Target{}, false
		}
		switch rest[0] {
		case "login":
			return Target{Action: enums.AuditActionLogin, EntityType: "session"}, true
		case "logout":
			return Target{Action: enums.AuditActionLogout, EntityType: "session"}, true
		}
		return Target{}, false
	}

	target := Target{Action: action, EntityType: entity}
	if len(rest) > 0 && isIdentifier(rest[0]) {
		id := rest[0]
		target.EntityID = &id
		rest = rest[1:]
	}
	if len(rest) > 0 {
		if entity == "price_mappings" && rest[len(rest)-1] == "apply" {
			target.Action = enums.AuditActionApplyDiscounts
		} else if action == enums.AuditActionCreate {
			// POST to a sub-resource such as /status or /cancel changes the parent.
			target.Action = enums.AuditActionUpdate
		}
	}
	return target, true
}

func actionFor(method string) (enums.AuditAction, bool) {
	switch method {
	case http.MethodPost:
		return enums.AuditActionCreate, true
	case http.MethodPut, http.MethodPatch:
		return enums.AuditActionUpdate, true
	case http.MethodDelete:
		return enums.AuditActionDelete, true
	}
	return "", false
}

func isIdentifier(segment string) bool {
	if _, err := strconv.ParseInt(segment, 10, 64); err == nil {
		return true
	}
	_, err := uuid.Parse(segment)
	return err == nil
}

const redacted = "[REDACTED]"

// RedactBody returns the JSON request body with credential fields masked.
// Non-JSON bodies yield nil.
func RedactBody(body []byte) []byte {
	if len(body) == 0 {
		return nil
	}
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil
	}
	out, err := json.Marshal(redact(payload))
	if err != nil {
		return nil
	}
	return out
}

func redact(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		for k, inner := range typed {
			lower := strings.ToLower(k)
			if strings.Contains(lower, "password") || strings.Contains(lower, "token") || strings.Contains(lower, "secret") {
				typed[k] = redacted
				continue
			}
			typed[k] = redact(inner)
		}
		return typed
	case []any:
		for i, inner := range typed {
			typed[i] = redact(inner)
		}
		return typed
	}
	return v
}
