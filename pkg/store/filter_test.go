package store

import "testing"

func TestMatchesWhere(t *testing.T) {
	metadata := map[string]interface{}{
		"program":    "BSCS",
		"year_level": float64(2),
		"section":    "A",
	}

	tests := []struct {
		name  string
		where map[string]interface{}
		want  bool
	}{
		{
			name:  "empty filter matches everything",
			where: map[string]interface{}{},
			want:  true,
		},
		{
			name:  "scalar equality is case insensitive",
			where: map[string]interface{}{"program": "bscs"},
			want:  true,
		},
		{
			name:  "scalar mismatch",
			where: map[string]interface{}{"program": "BSIT"},
			want:  false,
		},
		{
			name:  "missing field never matches",
			where: map[string]interface{}{"department": "CS"},
			want:  false,
		},
		{
			name:  "numeric value matches string form",
			where: map[string]interface{}{"year_level": "2"},
			want:  true,
		},
		{
			name:  "in-set membership",
			where: map[string]interface{}{"program": map[string]interface{}{"$in": []interface{}{"BSIT", "BSCS"}}},
			want:  true,
		},
		{
			name:  "in-set miss",
			where: map[string]interface{}{"program": map[string]interface{}{"$in": []interface{}{"BSIT", "BSBA"}}},
			want:  false,
		},
		{
			name:  "eq operator",
			where: map[string]interface{}{"section": map[string]interface{}{"$eq": "a"}},
			want:  true,
		},
		{
			name: "or clause matches one alternative",
			where: map[string]interface{}{"$or": []interface{}{
				map[string]interface{}{"program": "BSIT"},
				map[string]interface{}{"section": "A"},
			}},
			want: true,
		},
		{
			name: "or clause with no matching alternative",
			where: map[string]interface{}{"$or": []interface{}{
				map[string]interface{}{"program": "BSIT"},
				map[string]interface{}{"section": "B"},
			}},
			want: false,
		},
		{
			name: "and clause requires every sub-clause",
			where: map[string]interface{}{"$and": []interface{}{
				map[string]interface{}{"program": "BSCS"},
				map[string]interface{}{"section": "A"},
			}},
			want: true,
		},
		{
			name: "and clause fails on one sub-clause",
			where: map[string]interface{}{"$and": []interface{}{
				map[string]interface{}{"program": "BSCS"},
				map[string]interface{}{"section": "B"},
			}},
			want: false,
		},
		{
			name: "top-level fields combine with and",
			where: map[string]interface{}{
				"program": "BSCS",
				"section": "B",
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchesWhere(tt.where, metadata); got != tt.want {
				t.Errorf("MatchesWhere(%v) = %v, want %v", tt.where, got, tt.want)
			}
		})
	}
}

func TestDedup(t *testing.T) {
	docs := []Document{
		{Content: "a", SourceCollection: "one"},
		{Content: "b"},
		{Content: "a", SourceCollection: "two"},
	}
	out := Dedup(docs)
	if len(out) != 2 {
		t.Fatalf("Dedup kept %d documents, want 2", len(out))
	}
	if out[0].SourceCollection != "one" {
		t.Errorf("Dedup should keep first occurrence, got %q", out[0].SourceCollection)
	}
}
