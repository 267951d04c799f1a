package commands

import (
	"os"

	"blogmigrate/lib/poststore"
	"blogmigrate/lib/serviceutil"
	"blogmigrate/lib/timestamp"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Lists the stored posts and their migration state.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()

		store, err := poststore.Open(cfg.Database)
		if err != nil {
			serviceutil.Fatal("failed to open post database", err)
		}
		defer store.Close()

		records, err := store.List(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to load stored posts", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Title", "Author", "Published", "Source", "Destination"})
		for _, record := range records {
			destination := record.DestinationURL()
			if destination == "" {
				destination = "(pending)"
			}
			t.AppendRow(table.Row{
				record.Title,
				record.Author,
				timestamp.Format(record.PublishedAt),
				record.SourceURL,
				destination,
			})
		}
		t.Render()
	},
}
