package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oshokin/ward-monitor/internal/service/monitor"
)

var (
	// verifyBotCmd checks the bot token.
	verifyBotCmd = &cobra.Command{
		Use:   "verify-bot",
		Short: "Check the bot token and print the bot name.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, err := monitor.VerifyBot(cmd.Context(), options())
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), name)

			return nil
		},
	}

	// sendCmd sends a message to the alert chat.
	sendCmd = &cobra.Command{
		Use:   "send <text>",
		Short: "Send a message to the alert chat.",
		Long:  "Send an HTML message to the configured alert chat, e.g. to check delivery before a shift.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return monitor.Send(cmd.Context(), options(), strings.Join(args, " "))
		},
	}
)
