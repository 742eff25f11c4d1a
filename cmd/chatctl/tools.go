package main

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hernanbl/gandolfo-recordatorios/internal/chat/parser"
	"github.com/hernanbl/gandolfo-recordatorios/internal/chat/widget"

	"github.com/spf13/cobra"
)

func newParseDateCmd() *cobra.Command {
	var ref string

	cmd := &cobra.Command{
		Use:   "parse-date TEXT...",
		Short: "Print the canonical YYYY-MM-DD date for a free-text Spanish date",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			if ref != "" {
				t, err := time.ParseInLocation("2006-01-02", ref, time.Local)
				if err != nil {
					return fmt.Errorf("invalid --ref %q: expected YYYY-MM-DD", ref)
				}
				now = t
			}

			date, ok := parser.ParseDate(strings.Join(args, " "), now)
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "unparseable")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", date, parser.DisplayDate(date))
			return nil
		},
	}

	cmd.Flags().StringVar(&ref, "ref", "", "reference date YYYY-MM-DD (default today)")
	return cmd
}

func newWidgetTokenCmd() *cobra.Command {
	var (
		restaurantID string
		secret       string
		ttl          time.Duration
	)

	cmd := &cobra.Command{
		Use:   "widget-token",
		Short: "Mint a signed widget token that pins a restaurant id",
		RunE: func(cmd *cobra.Command, args []string) error {
			if restaurantID == "" {
				return errors.New("--restaurant is required")
			}
			if !parser.IsRestaurantID(restaurantID) {
				return fmt.Errorf("--restaurant %q is not a UUID", restaurantID)
			}

			tokens, err := widget.NewTokens(secret)
			if err != nil {
				return fmt.Errorf("%w (set --secret or WIDGET_TOKEN_SECRET)", err)
			}
			token, err := tokens.Issue(restaurantID, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&restaurantID, "restaurant", "", "restaurant id the token is issued for")
	cmd.Flags().StringVar(&secret, "secret", os.Getenv("WIDGET_TOKEN_SECRET"), "HMAC secret")
	cmd.Flags().DurationVar(&ttl, "ttl", 720*time.Hour, "token lifetime (0 = no expiry)")
	return cmd
}

func newKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "Generate COOKIE_HASH_KEY and COOKIE_BLOCK_KEY values (base64)",
		RunE: func(cmd *cobra.Command, args []string) error {
			hash := make([]byte, 32)
			block := make([]byte, 32)
			if _, err := rand.Read(hash); err != nil {
				return err
			}
			if _, err := rand.Read(block); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "export COOKIE_HASH_KEY=%s\n", base64.StdEncoding.EncodeToString(hash))
			fmt.Fprintf(cmd.OutOrStdout(), "export COOKIE_BLOCK_KEY=%s\n", base64.StdEncoding.EncodeToString(block))
			return nil
		},
	}
}
