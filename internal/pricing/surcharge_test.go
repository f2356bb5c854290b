package pricing

import (
	"errors"
	"math"
	"testing"
)

func flatTotal(surcharges []Surcharge) int64 {
	var sum int64
	for _, s := range surcharges {
		sum += s.Amount
	}
	return sum
}

func TestSurcharges_Boundaries(t *testing.T) {
	cases := []struct {
		name string
		in   SurchargeInput
		want int64
	}{
		{"gansal sliding narrow below height", SurchargeInput{Ruleset: RulesetGansalWindow, Width: intPtr(350), Height: intPtr(2100), TypeName: "미닫이 (80바)"}, 0},
		{"gansal sliding narrow at height", SurchargeInput{Ruleset: RulesetGansalWindow, Width: intPtr(651), Height: intPtr(2101), TypeName: "미닫이 (80바)"}, 20000},
		{"gansal sliding wide at height", SurchargeInput{Ruleset: RulesetGansalWindow, Width: intPtr(1041), Height: intPtr(2101), TypeName: "미닫이"}, 25000},
		{"gansal sliding width not listed", SurchargeInput{Ruleset: RulesetGansalWindow, Width: intPtr(352), Height: intPtr(2400), TypeName: "미닫이"}, 0},
		{"gansal sliding ignores hinged widths", SurchargeInput{Ruleset: RulesetGansalWindow, Width: intPtr(430), Height: intPtr(2200), TypeName: "미닫이"}, 0},
		{"gansal hinged narrow at height", SurchargeInput{Ruleset: RulesetGansalWindow, Width: intPtr(430), Height: intPtr(2101), TypeName: "여닫이 (120바)"}, 20000},
		{"gansal hinged wide at height", SurchargeInput{Ruleset: RulesetGansalWindow, Width: intPtr(1131), Height: intPtr(2101), TypeName: "여닫이"}, 25000},
		{"gansal hinged below height", SurchargeInput{Ruleset: RulesetGansalWindow, Width: intPtr(831), Height: intPtr(2100), TypeName: "여닫이"}, 0},
		{"gansal untyped consults all widths", SurchargeInput{Ruleset: RulesetGansalWindow, Width: intPtr(931), Height: intPtr(2101)}, 25000},

		{"slim 110 below both", SurchargeInput{Ruleset: RulesetSlimFrame, SpecName: "110바", Width: intPtr(1200), Height: intPtr(2100)}, 0},
		{"slim 110 height", SurchargeInput{Ruleset: RulesetSlimFrame, SpecName: "110바", Width: intPtr(1200), Height: intPtr(2101)}, 3000},
		{"slim 155 width", SurchargeInput{Ruleset: RulesetSlimFrame, SpecName: "155바", Width: intPtr(1201), Height: intPtr(2100)}, 10000},
		{"slim 140 both", SurchargeInput{Ruleset: RulesetSlimFrame, SpecName: "140", Width: intPtr(1201), Height: intPtr(2101)}, 13000},
		{"slim 175 below height", SurchargeInput{Ruleset: RulesetSlimFrame, SpecName: "175바", Width: intPtr(900), Height: intPtr(2100)}, 0},
		{"slim 175 height", SurchargeInput{Ruleset: RulesetSlimFrame, SpecName: "175바", Width: intPtr(900), Height: intPtr(2101)}, 5000},
		{"slim 195 width", SurchargeInput{Ruleset: RulesetSlimFrame, SpecName: "195바", Width: intPtr(1201), Height: intPtr(2000)}, 13000},
		{"slim 195 below width", SurchargeInput{Ruleset: RulesetSlimFrame, SpecName: "195바", Width: intPtr(1200), Height: intPtr(2000)}, 0},
		{"slim 210 height", SurchargeInput{Ruleset: RulesetSlimFrame, SpecName: "210바", Width: intPtr(900), Height: intPtr(2101)}, 7000},
		{"slim 230 width below", SurchargeInput{Ruleset: RulesetSlimFrame, SpecName: "230바", Width: intPtr(2100), Height: intPtr(2000)}, 0},
		{"slim 230 width", SurchargeInput{Ruleset: RulesetSlimFrame, SpecName: "230바", Width: intPtr(2101), Height: intPtr(2000)}, 15000},
		{"slim unknown spec", SurchargeInput{Ruleset: RulesetSlimFrame, SpecName: "120바", Width: intPtr(3000), Height: intPtr(3000)}, 0},

		{"normal window below", SurchargeInput{Ruleset: RulesetNormalWindow, Width: intPtr(1050), Height: intPtr(2100)}, 0},
		{"normal window width", SurchargeInput{Ruleset: RulesetNormalWindow, Width: intPtr(1051), Height: intPtr(2100)}, 5000},
		{"normal window height", SurchargeInput{Ruleset: RulesetNormalWindow, Width: intPtr(1050), Height: intPtr(2101)}, 10000},
		{"normal window both", SurchargeInput{Ruleset: RulesetNormalWindow, Width: intPtr(1051), Height: intPtr(2101)}, 15000},

		{"abs basic below", SurchargeInput{Ruleset: RulesetABSDoor, TypeName: "베이직", Height: intPtr(2065)}, 0},
		{"abs basic at", SurchargeInput{Ruleset: RulesetABSDoor, TypeName: "내추럴", Height: intPtr(2066)}, 10000},
		{"abs line at", SurchargeInput{Ruleset: RulesetABSDoor, ProductName: "ABS 라인 도어", Height: intPtr(2066)}, 10000},
		{"abs minja window", SurchargeInput{Ruleset: RulesetABSDoor, TypeName: "민자", Width: intPtr(951), Height: intPtr(2101)}, 10000},
		{"abs minja window upper", SurchargeInput{Ruleset: RulesetABSDoor, TypeName: "민자", Width: intPtr(1070), Height: intPtr(2260)}, 10000},
		{"abs minja width below window", SurchargeInput{Ruleset: RulesetABSDoor, TypeName: "민자", Width: intPtr(950), Height: intPtr(2101)}, 0},
		{"abs minja tall", SurchargeInput{Ruleset: RulesetABSDoor, TypeName: "민자", Width: intPtr(900), Height: intPtr(2261)}, 20000},
		{"abs minja too tall", SurchargeInput{Ruleset: RulesetABSDoor, TypeName: "민자", Width: intPtr(900), Height: intPtr(2381)}, 0},
		{"abs minja wide", SurchargeInput{Ruleset: RulesetABSDoor, TypeName: "민자", Width: intPtr(1071), Height: intPtr(2000)}, 30000},
		{"abs minja window height above upper", SurchargeInput{Ruleset: RulesetABSDoor, TypeName: "민자", Width: intPtr(1000), Height: intPtr(2261)}, 20000},
		{"abs minja tall outside window width", SurchargeInput{Ruleset: RulesetABSDoor, TypeName: "민자", Width: intPtr(1071), Height: intPtr(2261)}, 50000},
		{"abs minja tall below window width", SurchargeInput{Ruleset: RulesetABSDoor, TypeName: "민자", Width: intPtr(950), Height: intPtr(2261)}, 20000},
		{"abs minja above wide band", SurchargeInput{Ruleset: RulesetABSDoor, TypeName: "민자", Width: intPtr(1171), Height: intPtr(2000)}, 0},
		{"abs minja wide and tall", SurchargeInput{Ruleset: RulesetABSDoor, ProductName: "ABS 민자", Width: intPtr(1170), Height: intPtr(2380)}, 50000},

		{"none ruleset", SurchargeInput{Ruleset: RulesetNone, Width: intPtr(5000), Height: intPtr(5000)}, 0},
		{"molding ruleset", SurchargeInput{Ruleset: RulesetMolding, Width: intPtr(5000), Height: intPtr(5000)}, 0},
		{"missing dimensions", SurchargeInput{Ruleset: RulesetNormalWindow}, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Surcharges(tc.in)
			for _, s := range got {
				if s.IsPercentage() {
					t.Fatalf("unexpected percentage surcharge %+v", s)
				}
				if s.Reason == "" {
					t.Fatalf("surcharge without reason: %+v", s)
				}
			}
			if total := flatTotal(got); total != tc.want {
				t.Fatalf("flat total = %d, want %d (%+v)", total, tc.want, got)
			}
		})
	}
}

func TestSurcharges_GenericFrameBandsAreExclusive(t *testing.T) {
	cases := []struct {
		name   string
		width  int
		height int
		rate   float64
	}{
		{"below both", 1000, 2100, 0},
		{"width first band", 1001, 2000, 0.10},
		{"width first band upper", 1200, 2000, 0.10},
		{"height first band", 900, 2101, 0.10},
		{"height first band upper", 900, 2300, 0.10},
		{"width second band", 1201, 2000, 0.20},
		{"height second band", 900, 2301, 0.20},
		{"second band upper", 1500, 2400, 0.20},
		{"first band wins over second", 1100, 2350, 0.10},
		{"above both", 1501, 2401, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Surcharges(SurchargeInput{Ruleset: RulesetGenericFrame, Width: intPtr(tc.width), Height: intPtr(tc.height)})
			if tc.rate == 0 {
				if len(got) != 0 {
					t.Fatalf("expected no surcharge, got %+v", got)
				}
				return
			}
			if len(got) != 1 || got[0].Rate != tc.rate {
				t.Fatalf("expected single %.2f band, got %+v", tc.rate, got)
			}
		})
	}
}

func TestApplySurcharges(t *testing.T) {
	cases := []struct {
		name       string
		surcharges []Surcharge
		want       int64
	}{
		{"flat", []Surcharge{{Amount: 3000}, {Amount: 10000}}, 23000},
		{"percent", []Surcharge{{Rate: 0.2}}, 12000},
		{"none", nil, 10000},
	}
	for _, tc := range cases {
		got, err := ApplySurcharges(10000, tc.surcharges)
		if err != nil {
			t.Fatalf("%s: ApplySurcharges returned error: %v", tc.name, err)
		}
		equalInt64(t, tc.name, got, tc.want)
	}

	if _, err := ApplySurcharges(math.MaxInt64, []Surcharge{{Amount: 1}}); !errors.Is(err, ErrAmountOutOfRange) {
		t.Fatalf("expected ErrAmountOutOfRange, got %v", err)
	}
}

func TestParseSpec(t *testing.T) {
	cases := map[string]int{"110바": 110, " 175바 ": 175, "230": 230}
	for raw, want := range cases {
		got, ok := ParseSpec(raw)
		if !ok || got != want {
			t.Fatalf("ParseSpec(%q) = %d, %v; want %d", raw, got, ok, want)
		}
	}
	if _, ok := ParseSpec("바110"); ok {
		t.Fatalf("expected spec without leading digits to fail")
	}
}
