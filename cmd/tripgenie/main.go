package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	serve := newServeCmd()
	root := &cobra.Command{
		Use:   "tripgenie",
		Short: "TripGenie travel chat backend",
		Long: `TripGenie routes chat messages through a per-user dialogue: nearby place
suggestions with paging, or a multi-day itinerary for a named location.

Configuration comes from the environment (APP_*, MAPS_*, NLP_*, ITINERARY_*,
DATABASE_URL). Without API keys every collaborator falls back to an offline mock.`,
		SilenceUsage: true,
		// Running the binary without a subcommand serves HTTP.
		RunE: serve.RunE,
	}
	root.Flags().AddFlagSet(serve.Flags())
	root.AddCommand(serve, newChatCmd())
	return root
}
