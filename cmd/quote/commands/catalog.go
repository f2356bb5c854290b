package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/DongSeo/platform/internal/catalog"
	"github.com/DongSeo/platform/internal/pricing"
)

var (
	companyID   int64
	parentID    int64
	categoryID  int64
	productFlag int64
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the estimate server is reachable",
	RunE:  runPing,
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List categories and colors",
	Long: `List the main categories of a company, or the subcategories of --parent,
together with the company's colors.`,
	RunE:  runCategories,
}

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "List the products of a category",
	RunE:  runProducts,
}

var optionsCmd = &cobra.Command{
	Use:   "options",
	Short: "List the options and variants a product may be quoted with",
	RunE:  runOptions,
}

func init() {
	categoriesCmd.Flags().Int64Var(&companyID, "company", 1, "Company id")
	categoriesCmd.Flags().Int64Var(&parentID, "parent", 0, "List the subcategories of this category")
	productsCmd.Flags().Int64Var(&categoryID, "category", 0, "Category id")
	_ = productsCmd.MarkFlagRequired("category")
	optionsCmd.Flags().Int64Var(&productFlag, "product", 0, "Product id")
	_ = optionsCmd.MarkFlagRequired("product")
}

func runPing(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	msg, err := newClient().Ping(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), msg)
	return nil
}

type categoryListing struct {
	Categories []catalog.Category `json:"categories"`
	Colors     []catalog.Color    `json:"colors"`
}

func runCategories(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	c := newClient()
	var listing categoryListing
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if parentID > 0 {
			listing.Categories, err = c.SubCategories(gctx, parentID)
		} else {
			listing.Categories, err = c.Categories(gctx, &companyID)
		}
		return err
	})
	g.Go(func() error {
		var err error
		listing.Colors, err = c.Colors(gctx, companyID)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, listing)
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCODE\tNAME")
	for _, cat := range listing.Categories {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", cat.ID, cat.Code, cat.Name)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "COLOR\tCODE\tCOST")
	for _, color := range listing.Colors {
		fmt.Fprintf(tw, "%d %s\t%s\t%s%%\n", color.ID, color.Name, color.ColorCode, pricing.FormatPercent(color.Cost))
	}
	return tw.Flush()
}

func runProducts(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	products, err := newClient().Products(ctx, categoryID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, products)
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tBASE PRICE")
	for _, p := range products {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s원\n", p.ID, p.Name, p.Category.Name, pricing.FormatWon(p.BasePrice))
	}
	return tw.Flush()
}

type optionListing struct {
	Options  []catalog.Option  `json:"options"`
	Variants []catalog.Variant `json:"variants"`
}

func runOptions(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	c := newClient()
	var listing optionListing
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		listing.Options, err = c.SelectableOptions(gctx, productFlag)
		return err
	})
	g.Go(func() error {
		var err error
		listing.Variants, err = c.Variants(gctx, productFlag)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, listing)
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if len(listing.Variants) > 0 {
		fmt.Fprintln(tw, "VARIANT\tSPEC\tTYPE\tPRICE")
		for _, v := range listing.Variants {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s원\n", v.ID, orDash(v.SpecName), orDash(v.TypeName), pricing.FormatWon(v.Price))
		}
		fmt.Fprintln(tw)
	}
	if len(listing.Options) == 0 {
		fmt.Fprintln(tw, "선택 가능한 옵션이 없습니다.")
		return tw.Flush()
	}
	fmt.Fprintln(tw, "OPTION\tNAME\tPRICE")
	for _, o := range listing.Options {
		fmt.Fprintf(tw, "%d\t%s\t+%s원\n", o.ID, strings.TrimSpace(o.Name), pricing.FormatWon(o.AddPrice))
	}
	return tw.Flush()
}
