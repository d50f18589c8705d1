package painscope

import "testing"

func TestExtractJSONDirect(t *testing.T) {
	obj := ExtractJSON(`{"is_pain_point": true, "intensity": 7}`)
	if obj == nil {
		t.Fatal("Expected direct JSON to parse")
	}
	if obj["is_pain_point"] != true {
		t.Errorf("Unexpected is_pain_point: %v", obj["is_pain_point"])
	}
}

func TestExtractJSONFencedBlock(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"json tag", "Here is the result:\n```json\n{\"is_pain_point\": true}\n```\nDone."},
		{"bare fence", "```\n{\"is_pain_point\": true}\n```"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj := ExtractJSON(tt.text)
			if obj == nil {
				t.Fatal("Expected fenced JSON to parse")
			}
			if obj["is_pain_point"] != true {
				t.Errorf("Unexpected is_pain_point: %v", obj["is_pain_point"])
			}
		})
	}
}

func TestExtractJSONEmbeddedObject(t *testing.T) {
	text := `Sure! Based on the post, my analysis is {"is_pain_point": true, "intensity": 8} hope that helps.`
	obj := ExtractJSON(text)
	if obj == nil {
		t.Fatal("Expected embedded JSON object to parse")
	}
	if obj["intensity"] != float64(8) {
		t.Errorf("Unexpected intensity: %v", obj["intensity"])
	}
}

func TestExtractJSONUnparseable(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"prose only", "I cannot classify this post."},
		{"empty", ""},
		{"truncated object", `{"is_pain_point": tru`},
		{"top-level array", `[1, 2, 3]`},
		{"bare string", `"just a string"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if obj := ExtractJSON(tt.text); obj != nil {
				t.Errorf("Expected nil for %q, got %v", tt.text, obj)
			}
		})
	}
}

func TestExtractJSONPrefersWholeText(t *testing.T) {
	// A valid whole-text document wins even when it contains brace spans.
	obj := ExtractJSON(`{"outer": {"inner": 1}}`)
	if obj == nil {
		t.Fatal("Expected parse")
	}
	if _, ok := obj["outer"]; !ok {
		t.Error("Expected outer object key")
	}
}
