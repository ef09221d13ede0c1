// portfolioctl inspects the portfolio document and stored assistant sessions.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ashureev/portfolio/internal/config"
	"github.com/ashureev/portfolio/internal/content"
	"github.com/ashureev/portfolio/internal/domain"
	"github.com/ashureev/portfolio/internal/grounding"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	fileFlag string
	dbFlag   string
	rootCmd  = &cobra.Command{
		Use:          "portfolioctl",
		Short:        "Inspect portfolio content and assistant sessions",
		SilenceUsage: true,
	}
)

func main() {
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVarP(&fileFlag, "file", "f", "", "Read content from this YAML/JSON file instead of the configured source")
	rootCmd.PersistentFlags().StringVar(&dbFlag, "db", "", "SQLite database path (defaults to DB_PATH)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the server configuration, applying flag overrides.
func loadConfig() (*config.Config, error) {
	if fileFlag != "" {
		if err := os.Setenv("CONTENT_SOURCE", config.ContentSourceFile); err != nil {
			return nil, err
		}
		if err := os.Setenv("CONTENT_FILE", fileFlag); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if dbFlag != "" {
		cfg.DBPath = dbFlag
	}
	return cfg, nil
}

func loadSnapshot(ctx context.Context) (*domain.ContentSnapshot, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	source, err := content.FromConfig(cfg.Content)
	if err != nil {
		return nil, err
	}
	snap, err := grounding.NewContext(content.NewClient(source, nil), nil).Initialize(ctx)
	if err != nil {
		return nil, fmt.Errorf("load portfolio: %w", err)
	}
	return snap, nil
}
