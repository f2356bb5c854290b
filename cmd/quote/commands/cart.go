package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/DongSeo/platform/internal/cart"
	"github.com/DongSeo/platform/internal/estimate"
	"github.com/DongSeo/platform/internal/pricing"
)

var (
	woodProduct  int64
	woodQuantity int
	woodMargin   string
)

var cartCmd = &cobra.Command{
	Use:   "cart",
	Short: "Manage estimate carts",
}

var cartNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Start a new cart",
	Args:  cobra.NoArgs,
	RunE:  runCartNew,
}

var cartShowCmd = &cobra.Command{
	Use:   "show CART_ID",
	Short: "Show the lines and total of a cart",
	Args:  cobra.ExactArgs(1),
	RunE:  runCartShow,
}

var cartWoodCmd = &cobra.Command{
	Use:   "add-wood CART_ID",
	Short: "Add a wood material line",
	Args:  cobra.ExactArgs(1),
	RunE:  runCartWood,
}

var cartQuantityCmd = &cobra.Command{
	Use:   "qty CART_ID LINE_ID QUANTITY",
	Short: "Change the quantity of a wood line",
	Args:  cobra.ExactArgs(3),
	RunE:  runCartQuantity,
}

var cartRemoveCmd = &cobra.Command{
	Use:   "remove CART_ID LINE_ID",
	Short: "Remove a line",
	Args:  cobra.ExactArgs(2),
	RunE:  runCartRemove,
}

var cartClearCmd = &cobra.Command{
	Use:   "clear CART_ID",
	Short: "Remove every line",
	Args:  cobra.ExactArgs(1),
	RunE:  runCartClear,
}

func init() {
	cartWoodCmd.Flags().Int64Var(&woodProduct, "product", 0, "Wood product id")
	cartWoodCmd.Flags().IntVar(&woodQuantity, "qty", 1, "Quantity")
	cartWoodCmd.Flags().StringVar(&woodMargin, "margin", "", "Company margin in percent")
	_ = cartWoodCmd.MarkFlagRequired("product")

	cartCmd.AddCommand(cartNewCmd, cartShowCmd, cartWoodCmd, cartQuantityCmd, cartRemoveCmd, cartClearCmd)
}

func runCartNew(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	view, err := newClient().CreateCart(ctx)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), view)
	}
	fmt.Fprintln(cmd.OutOrStdout(), view.ID)
	return nil
}

func runCartShow(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	view, err := newClient().Cart(ctx, args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, view)
	}
	if len(view.Lines) == 0 {
		fmt.Fprintln(out, "장바구니가 비어 있습니다.")
		return nil
	}
	for i, l := range view.Lines {
		fmt.Fprintf(out, "%d. (%s) ", i+1, l.ID)
		printLine(out, l)
	}
	fmt.Fprintf(out, "총 예상 금액: %s원\n", pricing.FormatWon(view.Total))
	return nil
}

func runCartWood(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	line, err := newClient().AddLine(ctx, args[0], estimate.LineRequest{
		Source: cart.SourceWood,
		QuoteRequest: estimate.QuoteRequest{
			ProductID: &woodProduct,
			Quantity:  woodQuantity,
			Margin:    woodMargin,
		},
	})
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), line)
	}
	printLine(cmd.OutOrStdout(), line)
	return nil
}

func runCartQuantity(cmd *cobra.Command, args []string) error {
	qty, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("parse quantity %q: %w", args[2], err)
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	line, err := newClient().UpdateWoodQuantity(ctx, args[0], args[1], qty)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), line)
	}
	printLine(cmd.OutOrStdout(), line)
	return nil
}

func runCartRemove(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	return newClient().RemoveLine(ctx, args[0], args[1])
}

func runCartClear(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	return newClient().ClearCart(ctx, args[0])
}
