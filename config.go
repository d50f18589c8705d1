// Package painscope implements the post classification pipeline: it pulls
// unclassified posts from the record store, drives one model backend call
// per post, parses and normalizes the reply, and persists the result.
package painscope

import "github.com/zombar/painscope/prompt"

// DefaultCategories is the closed set of pain point categories. Model
// output naming anything else normalizes to "other".
var DefaultCategories = []string{
	"healthcare",
	"transport",
	"compliance",
	"hiring",
	"cost_of_living",
	"housing",
	"finance",
	"education",
	"government_services",
	"rental",
	"food_delivery",
	"banking",
	"insurance",
	"telecommunications",
	"other",
}

// DefaultAudiences is the closed set of target audiences. Model output
// naming anything else normalizes to "consumer".
var DefaultAudiences = []string{"consumer", "SME", "both"}

// Config contains pipeline configuration. The value is treated as
// immutable once passed to New.
type Config struct {
	Categories     []string // closed category enumeration
	Audiences      []string // closed audience enumeration
	PromptTemplate string   // classification prompt template
	BatchLimit     int      // maximum posts classified per run
}

// DefaultConfig returns default pipeline configuration
func DefaultConfig() Config {
	return Config{
		Categories:     DefaultCategories,
		Audiences:      DefaultAudiences,
		PromptTemplate: prompt.DefaultTemplate,
		BatchLimit:     100,
	}
}
