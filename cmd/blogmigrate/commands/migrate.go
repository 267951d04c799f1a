package commands

import (
	"log/slog"
	"os"
	"time"

	"blogmigrate/lib/auditlog"
	"blogmigrate/lib/poststore"
	"blogmigrate/lib/serviceutil"
	"blogmigrate/lib/surface/webform"
	"blogmigrate/services/migration"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Replays every stored post into the destination platform.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()
		ctx := cmd.Context()

		audit, err := auditlog.Open(cfg.AuditLog)
		if err != nil {
			serviceutil.Fatal("failed to open audit log", err)
		}
		defer audit.Close()

		store, err := poststore.Open(cfg.Database)
		if err != nil {
			serviceutil.Fatal("failed to open post database", err)
		}
		defer store.Close()

		records, err := store.List(ctx)
		if err != nil {
			serviceutil.Fatal("failed to load stored posts", err)
		}
		if len(records) == 0 {
			slog.Info("nothing to migrate, run extract first")
			return
		}

		client, err := webform.NewClient(ctx, webform.ClientOptions{
			BaseURL: cfg.Destination.BaseUrl,
		})
		if err != nil {
			serviceutil.Fatal("failed to initialize destination client", err)
		}
		err = client.Open(ctx, "/")
		if err != nil {
			serviceutil.Fatal("failed to open destination", err)
		}
		err = client.Login(ctx, cfg.Locators, cfg.Destination.Email, cfg.Destination.Password)
		if err != nil {
			serviceutil.Fatal("failed to log in to destination", err)
		}

		driver := migration.NewDriver(migration.DriverOptions{
			Surface:        client.Root(),
			Locators:       cfg.Locators,
			Audit:          audit,
			Store:          &store,
			FallbackAuthor: cfg.FallbackAuthor,
			ShowProgress:   true,
		})
		summary := driver.Run(ctx, records)

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Total", "Migrated", "Failed", "Skipped", "Elapsed"})
		t.AppendRow(table.Row{
			summary.Total,
			summary.Migrated,
			summary.Failed,
			summary.Skipped,
			summary.Elapsed.Round(time.Second).String(),
		})
		t.Render()

		attention := audit.Attention()
		if len(attention) > 0 {
			slog.Warn("some posts need manual review", "count", len(attention))
			if cfg.Smtp != nil {
				err := migration.SendAttentionReport(*cfg.Smtp, audit.Run(), attention)
				if err != nil {
					slog.Error("failed to email attention report", "err", err)
				}
			}
		}
	},
}
