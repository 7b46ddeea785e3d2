package fallback

import (
	"context"
	"log"
	"regexp"
	"sort"
	"strings"

	"campus-qa-be/pkg/rag/entity"
	"campus-qa-be/pkg/store"
)

// Specificity levels derived from how many targets the intent rules set.
const (
	SpecificityHigh   = "high"
	SpecificityMedium = "medium"
	SpecificityLow    = "low"
)

// Intent kinds, one per classification rule.
const (
	IntentSubjectSearch  = "subject_search"
	IntentPersonSearch   = "person_search"
	IntentGroupSearch    = "group_search"
	IntentScheduleSearch = "schedule_search"
	IntentGeneral        = "general"
)

// Intent is the extracted shape of a query that reached the fallback path.
type Intent struct {
	Kind          string
	TargetPerson  string
	TargetCourse  string
	TargetYear    string
	TargetSection string
	TargetSubject string
	DataType      string // student | faculty | schedule | "" (no restriction)
	Specificity   string
}

var (
	subjectCodePattern = regexp.MustCompile(`\b([A-Z]{2,6})\s?-?\s?(\d{2,3})\b`)
	whoIsPattern       = regexp.MustCompile(`(?i)\bwho\s+is\s+([A-Z][a-zA-Z.'-]+(?:\s+[A-Z][a-zA-Z.'-]+)*)`)
	titledNamePattern  = regexp.MustCompile(`\b(?:Dr|Prof|Mr|Ms|Mrs|Engr|Atty)\.?\s+([A-Z][a-zA-Z.'-]+(?:\s+[A-Z][a-zA-Z.'-]+)*)`)
	bareNamePattern    = regexp.MustCompile(`\b([A-Z][a-z]+(?:\s+[A-Z][a-z]+)+)\b`)
	programCodePattern = regexp.MustCompile(`\b(BSCS|BSIT|BSIS|BSBA|BSHM|BSCRIM|BSED|BEED)\b`)
	yearPattern        = regexp.MustCompile(`(?i)\b(1st|2nd|3rd|4th|5th|first|second|third|fourth|fifth)\s+year\b|\byear\s+([1-5])\b`)
	sectionPattern     = regexp.MustCompile(`(?i)\bsec(?:tion)?\s+([A-Za-z0-9]{1,3})\b`)
)

var scheduleKeywords = []string{"schedule", "class", "subject", "room", "time", "period"}

var studentHints = []string{"student", "grade", "gwa", "classmate", "enrolled"}
var facultyHints = []string{"teacher", "instructor", "professor", "faculty", "adviser", "staff", "dean"}

// Classify runs the intent rules in priority order and derives the
// specificity level from how many targets were set.
func Classify(query string) Intent {
	intent := Intent{Kind: IntentGeneral}

	if m := subjectCodePattern.FindStringSubmatch(query); m != nil {
		intent.Kind = IntentSubjectSearch
		intent.TargetSubject = strings.TrimSpace(m[0])
	} else if m := whoIsPattern.FindStringSubmatch(query); m != nil {
		intent.Kind = IntentPersonSearch
		intent.TargetPerson = strings.TrimSpace(m[1])
	} else if m := titledNamePattern.FindStringSubmatch(query); m != nil {
		intent.Kind = IntentPersonSearch
		intent.TargetPerson = strings.TrimSpace(m[1])
	} else if m := bareNamePattern.FindStringSubmatch(query); m != nil {
		intent.Kind = IntentPersonSearch
		intent.TargetPerson = strings.TrimSpace(m[1])
	} else if m := programCodePattern.FindStringSubmatch(query); m != nil {
		intent.Kind = IntentGroupSearch
		intent.TargetCourse = m[1]
	}

	// Secondary targets stack onto whatever rule fired first
	if intent.TargetCourse == "" {
		if m := programCodePattern.FindStringSubmatch(query); m != nil {
			intent.TargetCourse = m[1]
		}
	}
	if m := yearPattern.FindStringSubmatch(query); m != nil {
		intent.TargetYear = strings.TrimSpace(firstNonEmpty(m[1], m[2]))
		if intent.Kind == IntentGeneral {
			intent.Kind = IntentGroupSearch
		}
	}
	if m := sectionPattern.FindStringSubmatch(query); m != nil {
		intent.TargetSection = strings.ToUpper(m[1])
		if intent.Kind == IntentGeneral {
			intent.Kind = IntentGroupSearch
		}
	}
	if intent.Kind == IntentGeneral && containsAny(query, scheduleKeywords) {
		intent.Kind = IntentScheduleSearch
	}

	intent.DataType = inferDataType(query, intent)
	intent.Specificity = specificityOf(intent)
	return intent
}

func specificityOf(intent Intent) string {
	targets := 0
	for _, t := range []string{intent.TargetPerson, intent.TargetCourse, intent.TargetYear, intent.TargetSection, intent.TargetSubject} {
		if t != "" {
			targets++
		}
	}
	switch {
	case targets >= 3:
		return SpecificityHigh
	case targets >= 1:
		return SpecificityMedium
	default:
		return SpecificityLow
	}
}

func inferDataType(query string, intent Intent) string {
	lowered := strings.ToLower(query)
	switch {
	case intent.Kind == IntentScheduleSearch:
		return "schedule"
	case containsAny(lowered, facultyHints):
		return "faculty"
	case containsAny(lowered, studentHints) || intent.TargetCourse != "" || intent.TargetYear != "":
		return "student"
	default:
		return ""
	}
}

// Threshold returns the minimum score a candidate must reach for this
// intent.
func (i Intent) Threshold() int {
	switch {
	case i.Specificity == SpecificityHigh:
		return 70
	case i.Kind == IntentPersonSearch:
		return 25
	case i.Specificity == SpecificityMedium && i.TargetPerson != "":
		return 50
	default:
		return 25
	}
}

// Engine ranks raw semantic results with rule-derived boosts when the
// planned tool came back empty.
type Engine struct {
	store      store.Store
	logger     *log.Logger
	queryLimit int
}

func NewEngine(s store.Store, logger *log.Logger) *Engine {
	return &Engine{store: s, logger: logger, queryLimit: 15}
}

type scored struct {
	doc   store.Document
	score int
}

// Search classifies the query, scores candidates across compatible
// collections and returns those at or above the intent threshold, best
// first.
func (e *Engine) Search(ctx context.Context, query string) []store.Document {
	intent := Classify(query)
	threshold := intent.Threshold()
	e.logger.Printf("[FALLBACK] intent=%s specificity=%s threshold=%d person=%q",
		intent.Kind, intent.Specificity, threshold, intent.TargetPerson)

	var candidates []scored
	for _, name := range e.store.Names() {
		if skipCollection(name, intent.DataType) {
			continue
		}
		collection, ok := e.store.Collection(name)
		if !ok {
			continue
		}

		docs, err := collection.Query(ctx, store.QueryRequest{Text: query, Limit: e.queryLimit})
		if err != nil {
			e.logger.Printf("[FALLBACK] query failed on %s: %v", name, err)
			continue
		}
		for _, doc := range docs {
			if s := Score(doc, intent); s >= threshold {
				candidates = append(candidates, scored{doc: doc, score: s})
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	out := make([]store.Document, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.doc)
	}
	return store.Dedup(out)
}

// skipCollection drops collections whose names contradict the data type.
func skipCollection(name, dataType string) bool {
	lowered := strings.ToLower(name)
	switch dataType {
	case "student":
		return strings.Contains(lowered, "faculty") || strings.Contains(lowered, "staff")
	case "faculty":
		return strings.Contains(lowered, "student") || strings.Contains(lowered, "grade")
	case "schedule":
		return strings.Contains(lowered, "grade")
	default:
		return false
	}
}

// Score combines the semantic base with rule-derived boosts.
func Score(doc store.Document, intent Intent) int {
	score := 70 - int(2*doc.Distance)
	if score < 0 {
		score = 0
	}

	content := strings.ToLower(doc.Content)
	meta := lowerMetadata(doc.Metadata)

	if intent.TargetPerson != "" {
		person := strings.ToLower(entity.CleanName(intent.TargetPerson))

		if strings.Contains(meta["full_name"], person) || strings.Contains(meta["fullname"], person) || strings.Contains(meta["name"], person) {
			score += 80
		} else if strings.Contains(meta["surname"], person) || strings.Contains(meta["last_name"], person) {
			score += 75
		} else if strings.Contains(content, person) {
			score += 60
		}
		if strings.Contains(meta["adviser"], person) || strings.Contains(meta["advisor"], person) {
			score += 90
		}

		tokens := strings.Fields(person)
		matched := 0
		for _, token := range tokens {
			if strings.Contains(content, token) {
				score += 40
				matched++
			} else if metadataContains(meta, token) {
				score += 35
				matched++
			}
		}
		if matched > 1 {
			score += 25
		}
	}

	if intent.TargetCourse != "" && mentions(content, meta, intent.TargetCourse) {
		score += 40
	}
	if intent.TargetYear != "" && mentions(content, meta, intent.TargetYear) {
		score += 30
	}
	if intent.TargetSection != "" && mentions(content, meta, intent.TargetSection) {
		score += 25
	}
	if intent.TargetSubject != "" && mentions(content, meta, intent.TargetSubject) {
		score += 40
	}
	return score
}

func mentions(content string, meta map[string]string, target string) bool {
	lowered := strings.ToLower(target)
	if strings.Contains(content, lowered) {
		return true
	}
	return metadataContains(meta, lowered)
}

func metadataContains(meta map[string]string, token string) bool {
	for _, value := range meta {
		if strings.Contains(value, token) {
			return true
		}
	}
	return false
}

func lowerMetadata(metadata map[string]interface{}) map[string]string {
	out := make(map[string]string, len(metadata))
	for key, value := range metadata {
		if s, ok := value.(string); ok {
			out[strings.ToLower(key)] = strings.ToLower(s)
		}
	}
	return out
}

func containsAny(s string, keywords []string) bool {
	lowered := strings.ToLower(s)
	for _, k := range keywords {
		if strings.Contains(lowered, k) {
			return true
		}
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
