package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/DongSeo/platform/internal/client"
	"github.com/DongSeo/platform/internal/observability"
)

const defaultServer = "http://localhost:8080"

var (
	serverURL  string
	token      string
	timeout    time.Duration
	jsonOutput bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:           "quote",
	Short:         "Door and window estimates from the command line",
	Long:          `Browse the catalog, price estimates, manage carts and export quote PDFs against an estimate server.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envOr("CHENOUS_SERVER", defaultServer), "Estimate server base URL")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("CHENOUS_TOKEN"), "Bearer access token")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Request timeout")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print raw JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")

	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(categoriesCmd)
	rootCmd.AddCommand(productsCmd)
	rootCmd.AddCommand(optionsCmd)
	rootCmd.AddCommand(estimateCmd)
	rootCmd.AddCommand(cartCmd)
	rootCmd.AddCommand(pdfCmd)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newClient() *client.Client {
	return client.New(serverURL, client.WithToken(token))
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}

func newLogger() *zap.Logger {
	level := "warn"
	if verbose {
		level = "debug"
	}
	logger, err := observability.NewLogger(level)
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

// optionalInt returns nil when the flag was not given.
func optionalInt(cmd *cobra.Command, name string, v int) *int {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &v
}

func optionalInt64(cmd *cobra.Command, name string, v int64) *int64 {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &v
}
