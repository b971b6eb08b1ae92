package validators

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/lensretail-backend/pkg/errors"
)

const queryDateLayout = "2006-01-02"

func queryValue(r *http.Request, key string) (string, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	return raw, raw != ""
}

func badQuery(key, message string, extra ...any) error {
	details := map[string]any{"field": key}
	for i := 0; i+1 < len(extra); i += 2 {
		details[extra[i].(string)] = extra[i+1]
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "query parameter "+message).WithDetails(details)
}

// ParseQueryInt returns def when key is absent and rejects values outside [lo, hi].
func ParseQueryInt(r *http.Request, key string, def, lo, hi int) (int, error) {
	raw, ok := queryValue(r, key)
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	switch {
	case err != nil:
		return 0, badQuery(key, "must be numeric")
	case n < lo || n > hi:
		return 0, badQuery(key, "out of range", "min", lo, "max", hi)
	}
	return n, nil
}

// ParseQueryInt64 reads a positive id; nil when absent.
func ParseQueryInt64(r *http.Request, key string) (*int64, error) {
	raw, ok := queryValue(r, key)
	if !ok {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, badQuery(key, "must be a positive id")
	}
	return &id, nil
}

func ParseQueryBool(r *http.Request, key string) (*bool, error) {
	raw, ok := queryValue(r, key)
	if !ok {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, badQuery(key, "must be a boolean")
	}
	return &b, nil
}

// ParseQueryDate accepts YYYY-MM-DD or RFC 3339; nil when absent.
func ParseQueryDate(r *http.Request, key string) (*time.Time, error) {
	raw, ok := queryValue(r, key)
	if !ok {
		return nil, nil
	}
	for _, layout := range []string{queryDateLayout, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, badQuery(key, "must be a date (YYYY-MM-DD)")
}
