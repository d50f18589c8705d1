package painscope

import (
	"encoding/json"
	"regexp"
)

// Generative models routinely wrap JSON in prose or markdown fences; the
// extraction cascade tolerates the common deviations without attempting a
// grammar-aware repair.
var (
	fencedBlockRe = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")
	jsonObjectRe  = regexp.MustCompile(`\{[\s\S]*\}`)
)

// ExtractJSON extracts a JSON object from arbitrary model output text.
// Strategies are tried in order, first success wins:
//
//  1. parse the entire text as JSON
//  2. parse the interior of a fenced code block
//  3. parse the first greedy { ... } span
//
// A nil return means the text is unparseable. That is an expected outcome
// for model output, not a fault.
func ExtractJSON(text string) map[string]any {
	if obj := tryParse(text); obj != nil {
		return obj
	}

	if m := fencedBlockRe.FindStringSubmatch(text); m != nil {
		if obj := tryParse(m[1]); obj != nil {
			return obj
		}
	}

	if m := jsonObjectRe.FindString(text); m != "" {
		if obj := tryParse(m); obj != nil {
			return obj
		}
	}

	return nil
}

// tryParse parses text as a JSON object, returning nil for invalid JSON or
// non-object documents (arrays, bare strings).
func tryParse(text string) map[string]any {
	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return nil
	}
	return obj
}
