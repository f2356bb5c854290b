package pricing

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Classifier resolves a product's ruleset once, preferring explicit data over
// name heuristics: the product's own ruleset attribute, then the lookup table
// keyed by product id, then Classify.
type Classifier struct {
	overrides map[int64]Ruleset
}

type classificationTable struct {
	Products map[int64]string `yaml:"products"`
}

// NewClassifier builds a Classifier from an in-memory table.
func NewClassifier(overrides map[int64]Ruleset) *Classifier {
	copied := make(map[int64]Ruleset, len(overrides))
	for id, rs := range overrides {
		copied[id] = rs
	}
	return &Classifier{overrides: copied}
}

// LoadClassifier parses a YAML table of the form
//
//	products:
//	  12: SLIM_FRAME
//	  40: GANSAL_WINDOW
func LoadClassifier(r io.Reader) (*Classifier, error) {
	var table classificationTable
	if err := yaml.NewDecoder(r).Decode(&table); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode ruleset table: %w", err)
	}

	overrides := make(map[int64]Ruleset, len(table.Products))
	for id, raw := range table.Products {
		rs, ok := ParseRuleset(raw)
		if !ok {
			return nil, fmt.Errorf("ruleset table: product %d has unknown ruleset %q", id, raw)
		}
		overrides[id] = rs
	}
	return &Classifier{overrides: overrides}, nil
}

// LoadClassifierFile reads the table at path; an empty path yields a heuristics-only classifier.
func LoadClassifierFile(path string) (*Classifier, error) {
	if path == "" {
		return NewClassifier(nil), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ruleset table: %w", err)
	}
	defer f.Close()
	return LoadClassifier(f)
}

// Classify returns the ruleset for productID. explicit is the product's stored
// ruleset attribute and may be empty.
func (c *Classifier) Classify(productID int64, explicit string, attrs Attributes) Ruleset {
	if rs, ok := ParseRuleset(explicit); ok {
		return rs
	}
	if c != nil {
		if rs, ok := c.overrides[productID]; ok {
			return rs
		}
	}
	return Classify(attrs)
}

// Len reports how many product overrides are loaded.
func (c *Classifier) Len() int {
	if c == nil {
		return 0
	}
	return len(c.overrides)
}
