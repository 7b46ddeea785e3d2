package store

import (
	"fmt"
	"strings"
)

// MatchesWhere evaluates a filter clause against a metadata map. Supported
// shapes, mirroring the adapter boundary:
//
//	{"field": "value"}                          equality
//	{"field": {"$in": [v1, v2]}}                membership
//	{"$or": [{...}, {...}]}                     alternation of sub-clauses
//	{"$and": [{...}, {...}]}                    conjunction of sub-clauses
//
// Multiple top-level fields combine with logical AND.
func MatchesWhere(where map[string]interface{}, metadata map[string]interface{}) bool {
	if len(where) == 0 {
		return true
	}

	for field, cond := range where {
		if field == "$or" {
			if !matchesOr(cond, metadata) {
				return false
			}
			continue
		}
		if field == "$and" {
			if !matchesAnd(cond, metadata) {
				return false
			}
			continue
		}

		value, ok := metadata[field]
		if !ok {
			return false
		}
		if !matchesCondition(cond, value) {
			return false
		}
	}
	return true
}

func matchesAnd(cond interface{}, metadata map[string]interface{}) bool {
	for _, sub := range subClauses(cond) {
		if !MatchesWhere(sub, metadata) {
			return false
		}
	}
	return true
}

func subClauses(cond interface{}) []map[string]interface{} {
	switch v := cond.(type) {
	case []map[string]interface{}:
		return v
	case []interface{}:
		out := make([]map[string]interface{}, 0, len(v))
		for _, alt := range v {
			if sub, ok := alt.(map[string]interface{}); ok {
				out = append(out, sub)
			}
		}
		return out
	default:
		return nil
	}
}

func matchesOr(cond interface{}, metadata map[string]interface{}) bool {
	for _, sub := range subClauses(cond) {
		if MatchesWhere(sub, metadata) {
			return true
		}
	}
	return false
}

func matchesCondition(cond, value interface{}) bool {
	switch c := cond.(type) {
	case map[string]interface{}:
		if in, ok := c["$in"]; ok {
			return matchesIn(in, value)
		}
		if eq, ok := c["$eq"]; ok {
			return equalFold(eq, value)
		}
		return false
	default:
		return equalFold(cond, value)
	}
}

func matchesIn(in, value interface{}) bool {
	switch set := in.(type) {
	case []interface{}:
		for _, candidate := range set {
			if equalFold(candidate, value) {
				return true
			}
		}
	case []string:
		for _, candidate := range set {
			if equalFold(candidate, value) {
				return true
			}
		}
	}
	return false
}

// equalFold compares scalars case-insensitively via their string forms so
// that "BSCS" matches "bscs" and the int 2 matches "2".
func equalFold(a, b interface{}) bool {
	return strings.EqualFold(stringify(a), stringify(b))
}

func stringify(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		// JSON numbers decode as float64; render whole values without decimals
		if s == float64(int64(s)) {
			return fmt.Sprintf("%d", int64(s))
		}
		return fmt.Sprintf("%v", s)
	default:
		return fmt.Sprintf("%v", v)
	}
}
