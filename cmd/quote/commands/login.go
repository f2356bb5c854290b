package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	loginUsername string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Obtain an access token for admin commands",
	Long: `Log in and print an access token. Pass it with --token or CHENOUS_TOKEN.

Example:
  export CHENOUS_TOKEN=$(quote login --username admin --password admin123)`,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().StringVar(&loginUsername, "username", "", "User name")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Password")
	_ = loginCmd.MarkFlagRequired("username")
	_ = loginCmd.MarkFlagRequired("password")
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	tok, err := newClient().Login(ctx, loginUsername, loginPassword)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), tok)
	}
	fmt.Fprintln(cmd.OutOrStdout(), tok.AccessToken)
	return nil
}
