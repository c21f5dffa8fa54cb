package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/antoniostano/tripgenie/internal/app"
	"github.com/antoniostano/tripgenie/internal/config"
)

func TestChatEvent(t *testing.T) {
	ev, err := chatEvent("u1", "@48.8566,2.3522")
	if err != nil {
		t.Fatalf("chatEvent(location) error = %v", err)
	}
	if !ev.HasCoordinates() || *ev.Latitude != 48.8566 || *ev.Longitude != 2.3522 || ev.Message != "" {
		t.Fatalf("location event = %+v", ev)
	}

	ev, err = chatEvent("u1", "cafes near me")
	if err != nil {
		t.Fatalf("chatEvent(text) error = %v", err)
	}
	if ev.HasCoordinates() || ev.Message != "cafes near me" {
		t.Fatalf("text event = %+v", ev)
	}

	for _, bad := range []string{"@paris", "@91,10"} {
		if _, err := chatEvent("u1", bad); err == nil {
			t.Fatalf("chatEvent(%q) error = nil", bad)
		}
	}
	if _, err := chatEvent(" ", "start"); err == nil {
		t.Fatalf("chatEvent with blank sender error = nil")
	}
}

func TestRunChatDrivesRouter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	built, err := app.Build(ctx, config.Config{
		MetricsNamespace: "test_cli_" + time.Now().Format("150405") + "_" + time.Now().Format("000000000"),
		SessionTimeout:   time.Hour,
		JanitorInterval:  time.Minute,
		PageSize:         5,
		EndPhrases:       []string{"end_session"},
		ItineraryDays:    5,
		ItineraryTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	defer built.Cleanup()

	in := strings.NewReader("start\n\n1\n@48.8566,2.3522\n@nowhere\nmuseums\nend_session\n")
	var out bytes.Buffer
	if err := runChat(ctx, built.Router, "cli", in, &out); err != nil {
		t.Fatalf("runChat() error = %v", err)
	}

	got := out.String()
	for _, want := range []string{"Welcome to TripGenie", "share your location", "Location received", "! location must look like", "museums #1", "session has ended"} {
		if !strings.Contains(got, want) {
			t.Fatalf("chat output missing %q:\n%s", want, got)
		}
	}
	if built.Sessions.Exists("cli") {
		t.Fatalf("session survived end_session")
	}
}

func TestRootCommandHasSubcommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"serve", "chat"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Fatalf("Find(%q) = %v, %v", name, cmd, err)
		}
	}
	if root.Flags().Lookup("addr") == nil {
		t.Fatalf("root command is missing --addr")
	}
	chat, _, _ := root.Find([]string{"chat"})
	if f := chat.Flags().Lookup("sender"); f == nil || f.DefValue != "local" {
		t.Fatalf("chat --sender flag = %+v", f)
	}
}
