package painscope

import (
	"reflect"
	"testing"
)

func newTestNormalizer() *Normalizer {
	return NewNormalizer(DefaultCategories, DefaultAudiences)
}

func TestNormalizeFullRecord(t *testing.T) {
	n := newTestNormalizer()

	c := n.Normalize(map[string]any{
		"is_pain_point":        true,
		"pain_point_category":  "transport",
		"target_audience":      "consumer",
		"intensity":            float64(7),
		"automation_potential": "high",
		"suggested_solution":   "Real-time crowding predictions",
		"keywords":             []any{"mrt", "delay", "breakdown"},
		"summary":              "Commuter frustrated by repeated MRT breakdowns",
	})

	if !c.IsPainPoint {
		t.Fatal("Expected is_pain_point true")
	}
	if c.Category == nil || *c.Category != "transport" {
		t.Errorf("Expected category transport, got %v", c.Category)
	}
	if c.Audience == nil || *c.Audience != "consumer" {
		t.Errorf("Expected audience consumer, got %v", c.Audience)
	}
	if c.Intensity == nil || *c.Intensity != 7 {
		t.Errorf("Expected intensity 7, got %v", c.Intensity)
	}
	if c.AutomationPotential == nil || *c.AutomationPotential != "high" {
		t.Errorf("Expected automation high, got %v", c.AutomationPotential)
	}
	if c.SuggestedSolution == nil || *c.SuggestedSolution != "Real-time crowding predictions" {
		t.Errorf("Unexpected suggested solution: %v", c.SuggestedSolution)
	}
	if !reflect.DeepEqual(c.Keywords, []string{"mrt", "delay", "breakdown"}) {
		t.Errorf("Unexpected keywords: %v", c.Keywords)
	}
}

func TestNormalizeNilInput(t *testing.T) {
	n := newTestNormalizer()

	c := n.Normalize(nil)

	if c.IsPainPoint {
		t.Error("Expected nil input to normalize to a negative record")
	}
	if c.Category != nil || c.Intensity != nil || c.Keywords != nil {
		t.Error("Expected all optional fields nil for nil input")
	}
}

func TestNormalizeEmptyObject(t *testing.T) {
	n := newTestNormalizer()

	c := n.Normalize(map[string]any{})

	if c.IsPainPoint {
		t.Error("Expected missing is_pain_point to be false")
	}
	if c.Category != nil || c.Audience != nil || c.Intensity != nil ||
		c.AutomationPotential != nil || c.SuggestedSolution != nil ||
		c.Keywords != nil || c.Summary != nil {
		t.Error("Expected all optional fields nil for empty object")
	}
}

func TestNormalizeNegativeShortCircuits(t *testing.T) {
	n := newTestNormalizer()

	// Fields present alongside a false flag are discarded.
	c := n.Normalize(map[string]any{
		"is_pain_point":       false,
		"pain_point_category": "transport",
		"intensity":           float64(9),
		"keywords":            []any{"mrt"},
	})

	if c.IsPainPoint {
		t.Fatal("Expected is_pain_point false")
	}
	if c.Category != nil {
		t.Errorf("Expected category nil, got %v", *c.Category)
	}
	if c.Intensity != nil {
		t.Errorf("Expected intensity nil, got %v", *c.Intensity)
	}
	if c.Keywords != nil {
		t.Errorf("Expected keywords nil, got %v", c.Keywords)
	}
}

func TestNormalizeTruthyCoercion(t *testing.T) {
	n := newTestNormalizer()

	tests := []struct {
		name string
		v    any
		want bool
	}{
		{"bool true", true, true},
		{"bool false", false, false},
		{"nonzero number", float64(1), true},
		{"zero number", float64(0), false},
		{"nonempty string", "yes", true},
		{"empty string", "", false},
		{"null", nil, false},
		{"nonempty list", []any{"x"}, true},
		{"empty list", []any{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := n.Normalize(map[string]any{"is_pain_point": tt.v})
			if c.IsPainPoint != tt.want {
				t.Errorf("is_pain_point = %v for %v, want %v", c.IsPainPoint, tt.v, tt.want)
			}
		})
	}
}

func TestNormalizeCategoryFallbacks(t *testing.T) {
	n := newTestNormalizer()

	tests := []struct {
		name string
		data map[string]any
		want string
	}{
		{"unknown value", map[string]any{"is_pain_point": true, "pain_point_category": "bogus"}, "other"},
		{"case insensitive", map[string]any{"is_pain_point": true, "pain_point_category": "Transport"}, "transport"},
		{"alternate key", map[string]any{"is_pain_point": true, "category": "housing"}, "housing"},
		{"primary key wins", map[string]any{"is_pain_point": true, "pain_point_category": "finance", "category": "housing"}, "finance"},
		{"non-string value", map[string]any{"is_pain_point": true, "pain_point_category": float64(3)}, "other"},
		{"absent", map[string]any{"is_pain_point": true}, "other"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := n.Normalize(tt.data)
			if c.Category == nil || *c.Category != tt.want {
				t.Errorf("category = %v, want %q", c.Category, tt.want)
			}
		})
	}
}

func TestNormalizeAudienceFallbacks(t *testing.T) {
	n := newTestNormalizer()

	tests := []struct {
		name string
		data map[string]any
		want string
	}{
		{"sme lowercased", map[string]any{"is_pain_point": true, "target_audience": "SME"}, "sme"},
		{"alternate key", map[string]any{"is_pain_point": true, "audience": "both"}, "both"},
		{"unknown value", map[string]any{"is_pain_point": true, "target_audience": "enterprise"}, "consumer"},
		{"absent", map[string]any{"is_pain_point": true}, "consumer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := n.Normalize(tt.data)
			if c.Audience == nil || *c.Audience != tt.want {
				t.Errorf("audience = %v, want %q", c.Audience, tt.want)
			}
		})
	}
}

func TestNormalizeIntensity(t *testing.T) {
	n := newTestNormalizer()

	tests := []struct {
		name string
		v    any
		want int
	}{
		{"in range", float64(7), 7},
		{"above range clamps", float64(99), 10},
		{"below range clamps", float64(-3), 1},
		{"numeric string", "8", 8},
		{"padded numeric string", " 6 ", 6},
		{"garbage string", "abc", 5},
		{"float truncates", float64(7.9), 7},
		{"list defaults", []any{"x"}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := n.Normalize(map[string]any{"is_pain_point": true, "intensity": tt.v})
			if c.Intensity == nil || *c.Intensity != tt.want {
				t.Errorf("intensity = %v for %v, want %d", c.Intensity, tt.v, tt.want)
			}
		})
	}
}

func TestNormalizeIntensityAbsentStaysNil(t *testing.T) {
	n := newTestNormalizer()

	c := n.Normalize(map[string]any{"is_pain_point": true})
	if c.Intensity != nil {
		t.Errorf("Expected absent intensity to stay nil, got %d", *c.Intensity)
	}

	c = n.Normalize(map[string]any{"is_pain_point": true, "intensity": nil})
	if c.Intensity != nil {
		t.Errorf("Expected null intensity to stay nil, got %d", *c.Intensity)
	}
}

func TestNormalizeAutomationPotential(t *testing.T) {
	n := newTestNormalizer()

	tests := []struct {
		name string
		v    any
		want string
	}{
		{"low", "low", "low"},
		{"case insensitive", "HIGH", "high"},
		{"unknown", "maybe", "medium"},
		{"absent", nil, "medium"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := map[string]any{"is_pain_point": true}
			if tt.v != nil {
				data["automation_potential"] = tt.v
			}
			c := n.Normalize(data)
			if c.AutomationPotential == nil || *c.AutomationPotential != tt.want {
				t.Errorf("automation = %v, want %q", c.AutomationPotential, tt.want)
			}
		})
	}
}

func TestNormalizeFreeTextPassedThrough(t *testing.T) {
	n := newTestNormalizer()

	// Free text is kept as provided; non-string values are stringified
	// rather than dropped.
	c := n.Normalize(map[string]any{
		"is_pain_point":      true,
		"suggested_solution": float64(42),
		"summary":            "Commuters stranded",
	})

	if c.SuggestedSolution == nil || *c.SuggestedSolution != "42" {
		t.Errorf("Expected suggested_solution %q, got %v", "42", c.SuggestedSolution)
	}
	if c.Summary == nil || *c.Summary != "Commuters stranded" {
		t.Errorf("Expected summary kept, got %v", c.Summary)
	}

	c = n.Normalize(map[string]any{
		"is_pain_point": true,
		"summary":       nil,
	})
	if c.Summary != nil {
		t.Errorf("Expected null summary to stay nil, got %v", *c.Summary)
	}
}

func TestNormalizeKeywords(t *testing.T) {
	n := newTestNormalizer()

	tests := []struct {
		name string
		v    any
		want []string
	}{
		{"list", []any{"mrt", "delay"}, []string{"mrt", "delay"}},
		{"list stringifies", []any{"mrt", float64(3)}, []string{"mrt", "3"}},
		{"list capped at ten", []any{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"},
			[]string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}},
		{"comma string", "mrt, delay ,breakdown", []string{"mrt", "delay", "breakdown"}},
		{"wrong type", float64(5), nil},
		{"absent", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := map[string]any{"is_pain_point": true}
			if tt.v != nil {
				data["keywords"] = tt.v
			}
			c := n.Normalize(data)
			if !reflect.DeepEqual(c.Keywords, tt.want) {
				t.Errorf("keywords = %v, want %v", c.Keywords, tt.want)
			}
		})
	}
}
