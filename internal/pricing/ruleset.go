package pricing

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Ruleset names the bundle of surcharge rules that applies to a product.
type Ruleset string

const (
	RulesetWoodFrame    Ruleset = "WOOD_FRAME"
	RulesetSlimFrame    Ruleset = "SLIM_FRAME"
	RulesetPVCFrame     Ruleset = "PVC_FRAME"
	RulesetGansalWindow Ruleset = "GANSAL_WINDOW"
	RulesetNormalWindow Ruleset = "NORMAL_WINDOW"
	RulesetABSDoor      Ruleset = "ABS_DOOR"
	RulesetMolding      Ruleset = "MOLDING"
	RulesetFilm         Ruleset = "FILM"
	RulesetInterlock    Ruleset = "INTERLOCK"
	RulesetGenericFrame Ruleset = "GENERIC_FRAME"
	RulesetNone         Ruleset = "NONE"
)

var knownRulesets = map[Ruleset]struct{}{
	RulesetWoodFrame:    {},
	RulesetSlimFrame:    {},
	RulesetPVCFrame:     {},
	RulesetGansalWindow: {},
	RulesetNormalWindow: {},
	RulesetABSDoor:      {},
	RulesetMolding:      {},
	RulesetFilm:         {},
	RulesetInterlock:    {},
	RulesetGenericFrame: {},
	RulesetNone:         {},
}

// ParseRuleset accepts the canonical upper-case tag, ignoring surrounding space and case.
func ParseRuleset(raw string) (Ruleset, bool) {
	rs := Ruleset(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := knownRulesets[rs]; !ok {
		return "", false
	}
	return rs, true
}

const (
	markerWoodFrame   = "목재문틀"
	markerSlimFrame   = "슬림문틀"
	markerABS         = "ABS"
	gansalSubCategory = "간살 목창호"
)

// Attributes are the catalog facts the heuristic classification looks at.
type Attributes struct {
	CategoryCode    string
	ParentCode      string
	ProductName     string
	Description     string
	SubCategoryName string
}

// Classify picks the ruleset for a product. Name markers win over the
// subcategory, which wins over the category code. Unmatched input is RulesetNone.
func Classify(attrs Attributes) Ruleset {
	name := norm.NFC.String(attrs.ProductName)
	desc := norm.NFC.String(attrs.Description)

	switch {
	case containsEither(name, desc, markerWoodFrame):
		return RulesetWoodFrame
	case containsEither(name, desc, markerSlimFrame):
		return RulesetSlimFrame
	case containsEither(name, desc, markerABS):
		return RulesetABSDoor
	}

	if strings.TrimSpace(norm.NFC.String(attrs.SubCategoryName)) == gansalSubCategory {
		return RulesetGansalWindow
	}

	for _, code := range []string{attrs.CategoryCode, attrs.ParentCode} {
		switch strings.ToUpper(strings.TrimSpace(code)) {
		case "FRAME":
			if strings.Contains(name, "PVC") || strings.Contains(name, "발포") {
				return RulesetPVCFrame
			}
			return RulesetGenericFrame
		case "WINDOW":
			return RulesetNormalWindow
		case "MOLDING":
			return RulesetMolding
		case "FILM":
			return RulesetFilm
		case "INTERLOCK":
			return RulesetInterlock
		}
	}

	return RulesetNone
}

func containsEither(name, desc, marker string) bool {
	return strings.Contains(name, marker) || strings.Contains(desc, marker)
}
