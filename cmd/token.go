package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/xolan/outreach/internal/auth"
)

var tokenTTL time.Duration

var tokenCmd = &cobra.Command{
	Use:   "token <user>",
	Short: "Mint a token for the remote backend",
	Long: `Print a bearer token for user, signed with token_secret. Put it in the
token setting (or OUTREACH_TOKEN) of a client using the remote backend.

Examples:
  outreach token ada
  outreach token ada --ttl 24h`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		mintToken(args[0], tokenTTL)
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "Token lifetime (default token_ttl from the config)")
}

func mintToken(user string, ttl time.Duration) {
	user = strings.TrimSpace(user)
	if user == "" {
		_, _ = fmt.Fprintln(deps.Stderr, "Error: User cannot be empty")
		deps.Exit(1)
		return
	}
	_, cfg, ok := loadConfig()
	if !ok {
		return
	}
	if err := cfg.RequireServer(); err != nil {
		_, _ = fmt.Fprintln(deps.Stderr, "Error: Cannot mint a token")
		_, _ = fmt.Fprintf(deps.Stderr, "Details: %v\n", err)
		_, _ = fmt.Fprintln(deps.Stderr, "Hint: Set token_secret in the config file or export OUTREACH_TOKEN_SECRET")
		deps.Exit(1)
		return
	}
	if ttl <= 0 {
		ttl = cfg.TTL()
	}

	token, err := auth.GenerateToken(user, []byte(cfg.TokenSecret), ttl)
	if err != nil {
		_, _ = fmt.Fprintln(deps.Stderr, "Error: Failed to sign token")
		_, _ = fmt.Fprintf(deps.Stderr, "Details: %v\n", err)
		deps.Exit(1)
		return
	}
	_, _ = fmt.Fprintln(deps.Stdout, token)
}
