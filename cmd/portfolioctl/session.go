package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ashureev/portfolio/internal/chat"
	"github.com/ashureev/portfolio/internal/identity"
	"github.com/ashureev/portfolio/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	sessionCmd := &cobra.Command{Use: "session", Short: "Stored assistant session operations"}

	showCmd := &cobra.Command{
		Use:   "show VISITOR_ID",
		Short: "Print a visitor's stored conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSessions(args[0], func(s *chat.Store) error {
				return runSessionShow(cmd.Context(), s, os.Stdout)
			})
		},
	}
	sessionCmd.AddCommand(showCmd)

	clearCmd := &cobra.Command{
		Use:   "clear VISITOR_ID",
		Short: "Delete a visitor's stored conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSessions(args[0], func(s *chat.Store) error {
				s.Clear(cmd.Context())
				_, err := fmt.Fprintf(os.Stdout, "cleared %s\n", s.Key())
				return err
			})
		},
	}
	sessionCmd.AddCommand(clearCmd)

	rootCmd.AddCommand(sessionCmd)
}

func withSessions(visitorID string, fn func(*chat.Store) error) error {
	if !identity.IsValidVisitorID(visitorID) {
		return fmt.Errorf("invalid visitor id %q", visitorID)
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() { _ = repo.Close() }()

	sessions := chat.NewSessions(repo, chat.Options{
		MaxMessages: cfg.Chat.MaxMessages,
		Timeout:     cfg.Chat.SessionTimeout,
	})
	return fn(sessions.For(visitorID))
}

func runSessionShow(ctx context.Context, s *chat.Store, out io.Writer) error {
	session, ok := s.Load(ctx)
	if !ok {
		_, err := fmt.Fprintf(out, "no active session for %s\n", s.Key())
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Session any `json:"session"`
		Stats   any `json:"stats"`
	}{session, s.Stats(session)})
}
