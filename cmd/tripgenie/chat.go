package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/antoniostano/tripgenie/internal/app"
	"github.com/antoniostano/tripgenie/internal/config"
	"github.com/antoniostano/tripgenie/internal/dialogue"
	"github.com/antoniostano/tripgenie/internal/geo"
	"github.com/antoniostano/tripgenie/internal/protocol"
)

func newChatCmd() *cobra.Command {
	var sender string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the dialogue router from the terminal",
		Long: `Reads one message per line from stdin and prints each reply.

A line of the form @LAT,LNG is sent as a shared location, for example
@48.8566,2.3522. Type 'start' to begin and 'end_session' to finish.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			built, err := app.Build(ctx, cfg)
			if err != nil {
				return err
			}
			defer built.Cleanup()

			return runChat(ctx, built.Router, sender, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&sender, "sender", "local", "sender id used for the session")
	return cmd
}

func runChat(ctx context.Context, router *dialogue.Router, sender string, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		ev, err := chatEvent(sender, line)
		if err != nil {
			fmt.Fprintf(out, "! %v\n", err)
			continue
		}
		fmt.Fprintf(out, "%s\n\n", router.Handle(ctx, ev))
	}
	return scanner.Err()
}

// chatEvent turns one REPL line into an inbound event.
func chatEvent(sender, line string) (protocol.InboundEvent, error) {
	ev := protocol.InboundEvent{Sender: sender}
	if rest, ok := strings.CutPrefix(line, "@"); ok {
		lat, lng, err := geo.ParseLatLng(rest)
		if err != nil {
			return protocol.InboundEvent{}, fmt.Errorf("location must look like @LAT,LNG: %w", err)
		}
		ev.Latitude, ev.Longitude = &lat, &lng
	} else {
		ev.Message = line
	}
	if err := ev.Validate(); err != nil {
		return protocol.InboundEvent{}, err
	}
	return ev, nil
}
