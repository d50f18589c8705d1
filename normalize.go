package painscope

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zombar/painscope/models"
)

const (
	minIntensity      = 1
	maxIntensity      = 10
	fallbackIntensity = 5
	maxKeywords       = 10
)

// Normalizer coerces raw parsed model output into a fixed-shape,
// bounds-checked classification record. It is total: any input, including
// nil, yields a fully-shaped record.
type Normalizer struct {
	categories map[string]struct{}
	audiences  map[string]struct{}
}

// NewNormalizer creates a Normalizer for the given closed enumerations.
// Matching is case-insensitive; the stored values are lowercased.
func NewNormalizer(categories, audiences []string) *Normalizer {
	n := &Normalizer{
		categories: make(map[string]struct{}, len(categories)),
		audiences:  make(map[string]struct{}, len(audiences)),
	}
	for _, c := range categories {
		n.categories[strings.ToLower(c)] = struct{}{}
	}
	for _, a := range audiences {
		n.audiences[strings.ToLower(a)] = struct{}{}
	}
	return n
}

// Normalize validates and normalizes raw classification data. Fields
// degrade asymmetrically: category, audience and automation potential fall
// back to safe defaults, intensity defaults to 5 only when provided but
// unparseable, and free-text fields stay nil when absent. A false pain
// point flag short-circuits everything else to nil.
func (n *Normalizer) Normalize(data map[string]any) models.Classification {
	var c models.Classification

	if data == nil {
		return c
	}

	c.IsPainPoint = truthy(data["is_pain_point"])
	if !c.IsPainPoint {
		return c
	}

	// Two historical key names are accepted for category and audience.
	category := stringField(data, "pain_point_category", "category")
	if _, ok := n.categories[strings.ToLower(category)]; category != "" && ok {
		c.Category = ptr(strings.ToLower(category))
	} else {
		c.Category = ptr("other")
	}

	audience := stringField(data, "target_audience", "audience")
	if _, ok := n.audiences[strings.ToLower(audience)]; audience != "" && ok {
		c.Audience = ptr(strings.ToLower(audience))
	} else {
		c.Audience = ptr("consumer")
	}

	// Absent stays nil; provided-but-garbage becomes 5. This distinguishes
	// "not provided" from "provided but unusable".
	if raw, ok := data["intensity"]; ok && raw != nil {
		c.Intensity = ptr(clampIntensity(raw))
	}

	automation := stringField(data, "automation_potential")
	switch strings.ToLower(automation) {
	case "low", "medium", "high":
		c.AutomationPotential = ptr(strings.ToLower(automation))
	default:
		c.AutomationPotential = ptr("medium")
	}

	if s := textField(data, "suggested_solution"); s != "" {
		c.SuggestedSolution = ptr(s)
	}
	if s := textField(data, "summary"); s != "" {
		c.Summary = ptr(s)
	}

	c.Keywords = normalizeKeywords(data["keywords"])

	return c
}

// truthy applies loose boolean coercion to a decoded JSON value.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}

// stringField returns the first non-empty string value among the given
// keys. Non-string values are ignored.
func stringField(data map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := data[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// textField returns the value under key in string form, or "" when the key
// is absent or nil. Non-string values are passed through stringified.
func textField(data map[string]any, key string) string {
	v, ok := data[key]
	if !ok || v == nil {
		return ""
	}
	return stringify(v)
}

// clampIntensity coerces an intensity value to an integer in [1, 10].
// Unparseable input defaults to 5.
func clampIntensity(raw any) int {
	var i int
	switch t := raw.(type) {
	case float64:
		i = int(t)
	case bool:
		if t {
			i = 1
		}
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return fallbackIntensity
		}
		i = parsed
	default:
		return fallbackIntensity
	}

	if i < minIntensity {
		return minIntensity
	}
	if i > maxIntensity {
		return maxIntensity
	}
	return i
}

// normalizeKeywords accepts either a list or a comma-delimited string and
// returns at most 10 keyword strings. Anything else yields nil.
func normalizeKeywords(raw any) []string {
	switch t := raw.(type) {
	case []any:
		keywords := make([]string, 0, len(t))
		for _, k := range t {
			if len(keywords) == maxKeywords {
				break
			}
			keywords = append(keywords, stringify(k))
		}
		return keywords
	case string:
		parts := strings.Split(t, ",")
		if len(parts) > maxKeywords {
			parts = parts[:maxKeywords]
		}
		keywords := make([]string, 0, len(parts))
		for _, p := range parts {
			keywords = append(keywords, strings.TrimSpace(p))
		}
		return keywords
	default:
		return nil
	}
}

// stringify converts a decoded JSON value to its string form.
func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func ptr[T any](v T) *T {
	return &v
}
