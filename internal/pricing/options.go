package pricing

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Option is a selectable add-on with a flat price.
type Option struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	AddPrice int64  `json:"addPrice"`
}

var (
	// Options that restate a size surcharge the window rulesets already apply.
	surchargeDuplicateMarkers = []string{"높이 2101 이상", "높이 2101mm 이상", "가로 1051 이상", "가로 1051mm 이상"}

	excludedEverywhere = []string{"디자인 포인트", "오르토", "리벨"}
)

// SelectableOptions returns the options a customer may add for the ruleset,
// ordered by id.
func SelectableOptions(rs Ruleset, options []Option) []Option {
	sorted := make([]Option, len(options))
	copy(sorted, options)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	if rs == RulesetSlimFrame {
		if len(sorted) <= 2 {
			return []Option{}
		}
		sorted = sorted[2:]
	}

	out := make([]Option, 0, len(sorted))
	for _, opt := range sorted {
		if containsAny(opt.Name, excludedEverywhere) {
			continue
		}
		if (rs == RulesetGansalWindow || rs == RulesetNormalWindow) && containsAny(opt.Name, surchargeDuplicateMarkers) {
			continue
		}
		out = append(out, opt)
	}
	return out
}

// SumOptions adds the price of every available option whose id was selected.
// Unknown ids are ignored and each option counts once.
func SumOptions(selected []int64, available []Option) (int64, error) {
	if len(selected) == 0 {
		return 0, nil
	}
	wanted := make(map[int64]struct{}, len(selected))
	for _, id := range selected {
		wanted[id] = struct{}{}
	}

	sum := decimal.Zero
	for _, opt := range available {
		if _, ok := wanted[opt.ID]; ok {
			sum = sum.Add(decimal.NewFromInt(opt.AddPrice))
			delete(wanted, opt.ID)
		}
	}
	return toAmount(sum)
}

// SelectedNames lists the names of the selected available options in catalog order.
func SelectedNames(selected []int64, available []Option) []string {
	wanted := make(map[int64]struct{}, len(selected))
	for _, id := range selected {
		wanted[id] = struct{}{}
	}
	names := make([]string, 0, len(selected))
	for _, opt := range available {
		if _, ok := wanted[opt.ID]; ok {
			names = append(names, opt.Name)
			delete(wanted, opt.ID)
		}
	}
	return names
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
