package domain

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// NormalizeTimestamp converts the timestamp representations seen in imported
// tenant data into a single UTC instant. Document exports mix native times,
// RFC 3339 strings, unix seconds/milliseconds, and store-specific wrappers
// ({"seconds": ..., "nanoseconds": ...}) on the same field. Unparseable input
// falls back to the given instant, never an error: a bad date must not
// penalize the tenant.
func NormalizeTimestamp(v any, fallback time.Time) time.Time {
	switch t := v.(type) {
	case nil:
		return fallback
	case time.Time:
		if t.IsZero() {
			return fallback
		}
		return t.UTC()
	case *time.Time:
		if t == nil || t.IsZero() {
			return fallback
		}
		return t.UTC()
	case string:
		return parseTimeString(t, fallback)
	case int:
		return fromUnix(int64(t), fallback)
	case int64:
		return fromUnix(t, fallback)
	case float64:
		return fromUnix(int64(t), fallback)
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return parseTimeString(t.String(), fallback)
		}
		return fromUnix(n, fallback)
	case map[string]any:
		for _, key := range []string{"seconds", "_seconds"} {
			if raw, ok := t[key]; ok {
				sec := NormalizeTimestamp(raw, fallback)
				if !sec.Equal(fallback) {
					return sec
				}
			}
		}
		return fallback
	default:
		return fallback
	}
}

func parseTimeString(s string, fallback time.Time) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed.UTC()
		}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return fromUnix(n, fallback)
	}
	return fallback
}

// fromUnix treats values past the year-2262 second range as milliseconds.
func fromUnix(n int64, fallback time.Time) time.Time {
	if n <= 0 {
		return fallback
	}
	if n > 1e12 {
		return time.UnixMilli(n).UTC()
	}
	return time.Unix(n, 0).UTC()
}
