package prompt

import (
	"strings"
	"testing"
)

func TestRenderSubstitutesFields(t *testing.T) {
	r := NewRenderer("")

	out := r.Render("MRT delays again", "Third time this week", "reddit/r/singapore")

	if !strings.Contains(out, "POST TITLE: MRT delays again") {
		t.Error("Expected rendered prompt to contain the title")
	}
	if !strings.Contains(out, "POST CONTENT: Third time this week") {
		t.Error("Expected rendered prompt to contain the content")
	}
	if !strings.Contains(out, "SOURCE: reddit/r/singapore") {
		t.Error("Expected rendered prompt to contain the source verbatim")
	}
}

func TestRenderTruncatesTitle(t *testing.T) {
	r := NewRenderer("{title}")

	long := strings.Repeat("x", 600)
	out := r.Render(long, "", "")

	if len(out) != 500 {
		t.Errorf("Expected title truncated to 500 chars, got %d", len(out))
	}
}

func TestRenderTruncatesContent(t *testing.T) {
	r := NewRenderer("{content}")

	long := strings.Repeat("y", 3000)
	out := r.Render("", long, "")

	if len(out) != 2000 {
		t.Errorf("Expected content truncated to 2000 chars, got %d", len(out))
	}
}

func TestRenderSourceNotTruncated(t *testing.T) {
	r := NewRenderer("{source}")

	long := strings.Repeat("s", 3000)
	out := r.Render("", "", long)

	if len(out) != 3000 {
		t.Errorf("Expected source passed through verbatim, got %d chars", len(out))
	}
}

func TestRenderCustomTemplate(t *testing.T) {
	r := NewRenderer("Classify {title} from {source}")

	out := r.Render("a", "ignored", "b")
	if out != "Classify a from b" {
		t.Errorf("Unexpected render result: %q", out)
	}
}

func TestTruncateUnicode(t *testing.T) {
	s := strings.Repeat("日", 10)
	got := truncate(s, 5)
	if got != strings.Repeat("日", 5) {
		t.Errorf("Expected rune-safe truncation, got %q", got)
	}
}
