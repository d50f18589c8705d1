package fingerprint

import (
	"strings"
	"testing"
)

func TestGenerateDeterministic(t *testing.T) {
	a := Generate("reddit/r/singapore", "MRT delays again", "Third time this week")
	b := Generate("reddit/r/singapore", "MRT delays again", "Third time this week")

	if a != b {
		t.Errorf("Same inputs produced different fingerprints: %s vs %s", a, b)
	}
}

func TestGenerateLength(t *testing.T) {
	fp := Generate("hwz/edmw", "title", "content")
	if len(fp) != 32 {
		t.Errorf("Expected fingerprint length 32, got %d", len(fp))
	}
}

func TestGenerateDistinguishesInputs(t *testing.T) {
	tests := []struct {
		name string
		a    [3]string
		b    [3]string
	}{
		{"different source", [3]string{"reddit", "t", "c"}, [3]string{"hwz", "t", "c"}},
		{"different title", [3]string{"reddit", "t1", "c"}, [3]string{"reddit", "t2", "c"}},
		{"different content", [3]string{"reddit", "t", "c1"}, [3]string{"reddit", "t", "c2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fpA := Generate(tt.a[0], tt.a[1], tt.a[2])
			fpB := Generate(tt.b[0], tt.b[1], tt.b[2])
			if fpA == fpB {
				t.Errorf("Expected different fingerprints for %v and %v", tt.a, tt.b)
			}
		})
	}
}

func TestGenerateContentPrefixOnly(t *testing.T) {
	prefix := strings.Repeat("a", 500)

	// Bodies that only diverge after the 500-character prefix are treated
	// as the same content.
	fpA := Generate("reddit", "title", prefix+"tail one")
	fpB := Generate("reddit", "title", prefix+"completely different tail")

	if fpA != fpB {
		t.Error("Expected identical fingerprints for bodies diverging after 500 chars")
	}

	// Divergence within the prefix must still be detected.
	fpC := Generate("reddit", "title", "b"+prefix)
	if fpA == fpC {
		t.Error("Expected different fingerprints for bodies diverging within prefix")
	}
}

func TestGenerateUnicodeContent(t *testing.T) {
	// Rune-based truncation must not split multi-byte characters.
	content := strings.Repeat("é", 600)
	fp := Generate("reddit", "title", content)
	if len(fp) != 32 {
		t.Errorf("Expected fingerprint length 32 for unicode content, got %d", len(fp))
	}
}
