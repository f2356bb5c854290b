package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DongSeo/platform/internal/cart"
	"github.com/DongSeo/platform/internal/estimate"
	"github.com/DongSeo/platform/internal/pricing"
)

var (
	estProduct  int64
	estCategory int64
	estWidth    int
	estHeight   int
	estSpec     string
	estType     string
	estOptions  []int64
	estColor    int64
	estQuantity int
	estMargin   string
	estCart     string
)

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Price an estimate line",
	Long: `Price one product with its size, spec, type, options, color, quantity and margin.

Examples:
  # Normal window with a color and a 10% margin
  quote estimate --product 3 --width 1051 --height 2101 --color 2 --margin 10

  # Gansal window resolved by category and type, added to a cart
  quote estimate --category 4 --type 미닫이 --width 900 --height 2100 --cart 01J...`,
	RunE: runEstimate,
}

func init() {
	estimateCmd.Flags().Int64Var(&estProduct, "product", 0, "Product id")
	estimateCmd.Flags().Int64Var(&estCategory, "category", 0, "Category id, to resolve the product by --type")
	estimateCmd.Flags().IntVar(&estWidth, "width", 0, "Width in mm")
	estimateCmd.Flags().IntVar(&estHeight, "height", 0, "Height in mm")
	estimateCmd.Flags().StringVar(&estSpec, "spec", "", "Spec name, e.g. 110바")
	estimateCmd.Flags().StringVar(&estType, "type", "", "Type name, e.g. 미닫이")
	estimateCmd.Flags().Int64SliceVar(&estOptions, "option", nil, "Option id (repeatable)")
	estimateCmd.Flags().Int64Var(&estColor, "color", 0, "Color id")
	estimateCmd.Flags().IntVar(&estQuantity, "qty", 1, "Quantity")
	estimateCmd.Flags().StringVar(&estMargin, "margin", "", "Company margin in percent")
	estimateCmd.Flags().StringVar(&estCart, "cart", "", "Add the priced line to this cart")
	estimateCmd.MarkFlagsOneRequired("product", "category")
}

func estimateRequest(cmd *cobra.Command) estimate.QuoteRequest {
	return estimate.QuoteRequest{
		ProductID:  optionalInt64(cmd, "product", estProduct),
		CategoryID: optionalInt64(cmd, "category", estCategory),
		Width:      optionalInt(cmd, "width", estWidth),
		Height:     optionalInt(cmd, "height", estHeight),
		SpecName:   estSpec,
		TypeName:   estType,
		OptionIDs:  estOptions,
		ColorID:    optionalInt64(cmd, "color", estColor),
		Quantity:   estQuantity,
		Margin:     estMargin,
	}
}

func runEstimate(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	c := newClient()
	req := estimateRequest(cmd)
	out := cmd.OutOrStdout()

	if estCart != "" {
		line, err := c.AddLine(ctx, estCart, estimate.LineRequest{Source: cart.SourceEstimate, QuoteRequest: req})
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(out, line)
		}
		printLine(out, line)
		fmt.Fprintf(out, "장바구니 %s 에 추가되었습니다. (항목 %s)\n", estCart, line.ID)
		return nil
	}

	quote, err := c.Quote(ctx, req)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(out, quote)
	}
	printLine(out, quote.Line)
	return nil
}

func printLine(w io.Writer, l cart.Line) {
	fmt.Fprintf(w, "%s", l.ProductName)
	if l.Ruleset != "" && l.Ruleset != pricing.RulesetNone {
		fmt.Fprintf(w, " [%s]", l.Ruleset)
	}
	fmt.Fprintln(w)
	if l.Width != nil && l.Height != nil {
		fmt.Fprintf(w, "  사이즈: %d x %d mm\n", *l.Width, *l.Height)
	}
	if l.SpecName != "" || l.TypeName != "" {
		fmt.Fprintf(w, "  규격/타입: %s / %s\n", orDash(l.SpecName), orDash(l.TypeName))
	}
	fmt.Fprintf(w, "  기본 단가: %s원\n", pricing.FormatWon(l.BaseUnitPrice))
	for _, s := range l.Surcharges {
		fmt.Fprintf(w, "  - %s\n", s.Reason)
	}
	if l.ColorCost != nil {
		fmt.Fprintf(w, "  색상: %s (+%s원)\n", l.ColorCost.Reason, pricing.FormatWon(l.ColorCost.Amount))
	}
	fmt.Fprintf(w, "  단가: %s원\n", pricing.FormatWon(l.UnitPrice))
	if l.OptionPrice > 0 {
		fmt.Fprintf(w, "  옵션: %s (+%s원)\n", strings.Join(l.SelectedOptions, ", "), pricing.FormatWon(l.OptionPrice))
	}
	fmt.Fprintf(w, "  수량: %d개\n", l.Quantity)
	fmt.Fprintf(w, "  소계: %s원\n", pricing.FormatWon(l.TotalPrice))
	if l.MarginAmount != nil && *l.MarginAmount > 0 {
		fmt.Fprintf(w, "  마진 (%s%%): +%s원\n", l.Margin, pricing.FormatWon(*l.MarginAmount))
	}
	fmt.Fprintf(w, "  합계: %s원\n", pricing.FormatWon(l.Price()))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
