package commands

import (
	"context"
	"fmt"
	"os"

	"blogmigrate/lib/configutil"
	"blogmigrate/lib/serviceutil"
	"blogmigrate/lib/surface"
	"blogmigrate/services/migration"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "blogmigrate",
	Short: "blogmigrate extracts posts from the legacy blog and replays them into the new platform.",
}

var configPath *string

func init() {
	configPath = rootCmd.PersistentFlags().String(
		"config", "config.json5",
		"Path to the migration config file.",
	)
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type DestinationConfig struct {
	BaseUrl  string `json:"base_url"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Config struct {
	Destination DestinationConfig    `json:"destination"`
	Locators    surface.LocatorTable `json:"locators"`

	// FallbackAuthor substitutes authors missing from the destination's
	// vocabulary. Empty selects the built-in default.
	FallbackAuthor string `json:"fallback_author"`

	Database string `json:"database"`
	AuditLog string `json:"audit_log"`

	// Smtp, when set, emails the attention-required report at the end
	// of a migration run.
	Smtp *migration.SmtpConfig `json:"smtp"`
}

func readConfig() Config {
	cfg, err := configutil.ReadConfig[Config](*configPath)
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	if cfg.Database == "" {
		cfg.Database = "posts.db"
	}
	if cfg.AuditLog == "" {
		cfg.AuditLog = "logs.txt"
	}
	return cfg
}
