package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/hernanbl/gandolfo-recordatorios/internal/app"
	"github.com/hernanbl/gandolfo-recordatorios/internal/chat/domain"
	"github.com/hernanbl/gandolfo-recordatorios/internal/chat/service"
	"github.com/hernanbl/gandolfo-recordatorios/internal/config"
	"github.com/hernanbl/gandolfo-recordatorios/internal/infra/observability"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newChatCmd() *cobra.Command {
	var (
		apiURL       string
		restaurantID string
		logLevel     string
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the reservation assistant in a terminal session",
		Long: "Runs the chat service in-process against the reservation API.\n" +
			"Type /reset to start over and /quit (or Ctrl-D) to leave.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			cfg.UseRedis = false
			cfg.WatchRestaurants = false
			if apiURL != "" {
				cfg.ReservasAPIURL = apiURL
			}
			if restaurantID != "" {
				cfg.DefaultRestaurantID = restaurantID
			}

			logger := observability.NewLogger(logLevel)
			defer logger.Sync()

			stack, err := app.New(cfg, logger)
			if err != nil {
				return err
			}
			defer stack.Close()

			return runREPL(cmd.Context(), stack.Chat, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&apiURL, "api", "", "reservation API base URL (default RESERVAS_API_URL)")
	cmd.Flags().StringVar(&restaurantID, "restaurant", "", "restaurant id (default DEFAULT_RESTAURANT_ID)")
	cmd.Flags().StringVar(&logLevel, "log-level", "error", "log level (debug, info, warn, error)")
	return cmd
}

// runREPL reads one message per line and prints the assistant's answer.
func runREPL(ctx context.Context, chat *service.ChatService, in io.Reader, out io.Writer) error {
	sessionID := uuid.NewString()

	welcome := chat.Welcome(ctx, "")
	fmt.Fprintf(out, "bot> %s\n", welcome.Message)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "you> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/reset":
			if err := chat.Reset(ctx, sessionID); err != nil {
				return err
			}
			sessionID = uuid.NewString()
			fmt.Fprintln(out, "bot> (conversación reiniciada)")
			continue
		}

		req := &domain.ChatRequest{Query: line}
		if strings.HasPrefix(line, "!") {
			req = &domain.ChatRequest{Action: strings.TrimPrefix(line, "!")}
		}

		resp, err := chat.ProcessMessage(ctx, sessionID, req)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		fmt.Fprintf(out, "bot> %s\n", resp.Answer)
		if resp.InProgress {
			fmt.Fprintf(out, "     [paso: %s]\n", resp.Step)
		}
	}
}
