package filter

import (
	"fmt"
	"strconv"
	"strings"

	"campus-qa-be/pkg/schema"
)

// programAliases pairs each short program code with its long-form name.
// Expansion works in both directions.
var programAliases = map[string]string{
	"BSCS":   "Bachelor of Science in Computer Science",
	"BSIT":   "Bachelor of Science in Information Technology",
	"BSIS":   "Bachelor of Science in Information Systems",
	"BSBA":   "Bachelor of Science in Business Administration",
	"BSHM":   "Bachelor of Science in Hospitality Management",
	"BSCRIM": "Bachelor of Science in Criminology",
	"BSED":   "Bachelor of Secondary Education",
	"BEED":   "Bachelor of Elementary Education",
}

var yearOrdinals = map[int]string{
	1: "1st Year",
	2: "2nd Year",
	3: "3rd Year",
	4: "4th Year",
	5: "5th Year",
}

// Normalizer expands canonical (field, value) pairs into store-native
// filter clauses that match heterogeneously labeled data. When built with
// an introspected schema, clauses target the spellings actually stored in
// the addressed collection instead of every spelling known globally.
type Normalizer struct {
	schema *schema.Schema
}

func NewNormalizer(sch *schema.Schema) *Normalizer {
	return &Normalizer{schema: sch}
}

// Build combines per-field clauses with logical AND without scoping the
// key spellings to one collection.
func (n *Normalizer) Build(fields map[string]interface{}) map[string]interface{} {
	return n.BuildFor("", fields)
}

// BuildFor combines per-field clauses with logical AND, translating each
// field to the spellings stored in the named collection. A pre-built $or
// clause bypasses field-level translation entirely.
func (n *Normalizer) BuildFor(collection string, fields map[string]interface{}) map[string]interface{} {
	if or, ok := fields["$or"]; ok {
		return map[string]interface{}{"$or": or}
	}

	var clauses []map[string]interface{}
	for field, value := range fields {
		if value == nil || value == "" {
			continue
		}
		clauses = append(clauses, n.NormalizeFor(collection, field, value))
	}

	switch len(clauses) {
	case 0:
		return map[string]interface{}{}
	case 1:
		return clauses[0]
	default:
		return map[string]interface{}{"$and": clauses}
	}
}

// Normalize expands one canonical (field, value) pair into a clause over
// every schema-variant key and every known value alias.
func (n *Normalizer) Normalize(field string, value interface{}) map[string]interface{} {
	return n.NormalizeFor("", field, value)
}

// NormalizeFor is Normalize scoped to the spellings one collection stores
// the field under.
func (n *Normalizer) NormalizeFor(collection, field string, value interface{}) map[string]interface{} {
	// Operator-shaped values (explicit $in / $or / $eq) pass through
	if m, ok := value.(map[string]interface{}); ok {
		if _, isOr := m["$or"]; isOr {
			return m
		}
		return n.spreadOverKeys(collection, field, m)
	}

	canonical := schema.CanonicalField(field)
	text := strings.TrimSpace(fmt.Sprintf("%v", value))

	var aliases []string
	switch canonical {
	case "program":
		aliases = ProgramAliases(text)
	case "year_level":
		aliases = YearLevelAliases(text)
	case "section":
		aliases = SectionAliases(text)
	default:
		aliases = caseVariants(text)
	}

	return n.spreadOverKeys(collection, canonical, map[string]interface{}{"$in": toInterfaces(aliases)})
}

// ProgramAliases returns the alias set for a program value: the input,
// its short code and its long-form name, whichever direction it came from.
func ProgramAliases(value string) []string {
	aliases := caseVariants(value)
	upper := strings.ToUpper(strings.TrimSpace(value))

	if long, ok := programAliases[upper]; ok {
		aliases = appendUnique(aliases, long)
		aliases = appendUnique(aliases, upper)
		return aliases
	}
	for short, long := range programAliases {
		if strings.EqualFold(long, value) {
			aliases = appendUnique(aliases, short)
			aliases = appendUnique(aliases, long)
			return aliases
		}
	}
	return aliases
}

// YearLevelAliases covers the bare digit, "Year N" and the ordinal form.
func YearLevelAliases(value string) []string {
	year := parseYear(value)
	if year == 0 {
		return caseVariants(value)
	}
	aliases := []string{
		strconv.Itoa(year),
		fmt.Sprintf("Year %d", year),
	}
	if ordinal, ok := yearOrdinals[year]; ok {
		aliases = append(aliases, ordinal)
	}
	return aliases
}

// SectionAliases emits the bare section plus SEC/Section-prefixed variants.
func SectionAliases(value string) []string {
	bare := strings.TrimSpace(value)
	for _, prefix := range []string{"SEC ", "SECTION ", "Sec ", "Section "} {
		if strings.HasPrefix(strings.ToUpper(bare), strings.ToUpper(prefix)) {
			bare = strings.TrimSpace(bare[len(prefix):])
			break
		}
	}
	aliases := caseVariants(bare)
	aliases = appendUnique(aliases, "SEC "+strings.ToUpper(bare))
	aliases = appendUnique(aliases, "Section "+strings.ToUpper(bare))
	return aliases
}

func parseYear(value string) int {
	trimmed := strings.TrimSpace(strings.ToLower(value))
	trimmed = strings.TrimPrefix(trimmed, "year ")
	for suffix := range map[string]bool{"st year": true, "nd year": true, "rd year": true, "th year": true} {
		trimmed = strings.TrimSuffix(trimmed, suffix)
	}
	year, err := strconv.Atoi(strings.TrimSpace(trimmed))
	if err != nil || year < 1 || year > 5 {
		return 0
	}
	return year
}

// spreadOverKeys turns a condition on a canonical field into an $or over
// the on-disk spellings of that field: the introspected spellings of the
// addressed collection when known, every spelling in the global alias
// table otherwise.
func (n *Normalizer) spreadOverKeys(collection, canonical string, cond map[string]interface{}) map[string]interface{} {
	keys := n.storedKeys(collection, canonical)
	if len(keys) <= 1 {
		key := canonical
		if len(keys) == 1 {
			key = keys[0]
		}
		return map[string]interface{}{key: cond}
	}

	alternatives := make([]map[string]interface{}, 0, len(keys))
	for _, key := range keys {
		alternatives = append(alternatives, map[string]interface{}{key: cond})
	}
	return map[string]interface{}{"$or": alternatives}
}

func (n *Normalizer) storedKeys(collection, canonical string) []string {
	if n.schema != nil && collection != "" {
		return n.schema.OriginalKeysFor(collection, canonical)
	}
	return schema.OriginalKeys(canonical)
}

func caseVariants(value string) []string {
	v := strings.TrimSpace(value)
	variants := []string{v}
	variants = appendUnique(variants, strings.ToLower(v))
	variants = appendUnique(variants, strings.ToUpper(v))
	variants = appendUnique(variants, titleCase(v))
	return variants
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func appendUnique(slice []string, value string) []string {
	for _, existing := range slice {
		if existing == value {
			return slice
		}
	}
	return append(slice, value)
}

func toInterfaces(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
