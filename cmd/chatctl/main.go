// Command chatctl is the operator CLI for the reservation chat: a terminal
// REPL over the same ChatService the widget uses, the date parser, and
// helpers to mint widget tokens and cookie keys.
package main

import (
	"fmt"
	"os"

	"github.com/hernanbl/gandolfo-recordatorios/internal/config"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "chatctl",
		Short:         "Operate the restaurant reservation chat from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newChatCmd())
	root.AddCommand(newParseDateCmd())
	root.AddCommand(newWidgetTokenCmd())
	root.AddCommand(newKeysCmd())

	return root
}

func main() {
	_ = config.LoadDotEnv(".env")

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
