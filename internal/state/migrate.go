package state

import (
	"time"
)

// migration transforms a raw decoded document from one schema version to the
// next. Migrations are total: they never fail, they default what is missing,
// and re-running one on already-migrated data is a no-op.
type migration func(raw map[string]any, now time.Time) map[string]any

var migrations = map[int]migration{
	0: migrateV0toV1,
}

// docVersion reads the version field from a raw document; absent or
// malformed counts as version 0 (the pre-versioning schema).
func docVersion(raw map[string]any) int {
	switch v := raw["version"].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

// migrate runs the migration chain until the raw document reaches
// CurrentVersion. Unknown future versions are returned untouched.
func migrate(raw map[string]any, now time.Time) map[string]any {
	for v := docVersion(raw); v < CurrentVersion; v = docVersion(raw) {
		step, ok := migrations[v]
		if !ok {
			break
		}
		raw = step(raw, now)
	}
	return raw
}

// migrateV0toV1 stamps the version field, renames the battleCards
// collection to callCards, and defaults missing createdAt timestamps on
// call logs and cards so validation passes.
func migrateV0toV1(raw map[string]any, now time.Time) map[string]any {
	raw["version"] = CurrentVersion

	if cards, ok := raw["battleCards"]; ok {
		if _, exists := raw["callCards"]; !exists {
			raw["callCards"] = cards
		}
		delete(raw, "battleCards")
	}

	defaultCreatedAt(raw["callLogs"], now)
	defaultCreatedAt(raw["callCards"], now)
	return raw
}

func defaultCreatedAt(collection any, now time.Time) {
	items, ok := collection.([]any)
	if !ok {
		return
	}
	stamp := now.UTC().Format(time.RFC3339Nano)
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if s, ok := m["createdAt"].(string); !ok || s == "" {
			m["createdAt"] = stamp
		}
	}
}
