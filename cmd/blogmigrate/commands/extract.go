package commands

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"blogmigrate/lib/auditlog"
	"blogmigrate/lib/post"
	"blogmigrate/lib/poststore"
	"blogmigrate/lib/scrapers/legacyblog"
	"blogmigrate/lib/serviceutil"

	"github.com/spf13/cobra"
)

var extractFromFile *string

func init() {
	extractFromFile = extractCmd.Flags().String(
		"from-file", "",
		"Read source post urls from a file, one per line.",
	)
	rootCmd.AddCommand(extractCmd)
}

const extractConcurrency = 4

var extractCmd = &cobra.Command{
	Use:   "extract [--from-file <urls.txt>] [url ...]",
	Short: "Extracts posts from the legacy blog and stores them for migration.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()
		ctx := cmd.Context()

		urls := args
		if *extractFromFile != "" {
			contents, err := os.ReadFile(*extractFromFile)
			if err != nil {
				serviceutil.Fatal("failed to read url list", err)
			}
			for _, line := range strings.Split(string(contents), "\n") {
				line = strings.TrimSpace(line)
				if line != "" {
					urls = append(urls, line)
				}
			}
		}
		if len(urls) == 0 {
			serviceutil.Fatal("no source urls given", nil)
		}

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

		client := legacyblog.NewClient(audit)

		records := make([]*post.Record, len(urls))
		sem := make(chan struct{}, extractConcurrency)
		wg := sync.WaitGroup{}

		for i, url := range urls {
			wg.Add(1)
			sem <- struct{}{}
			go func() {
				defer wg.Done()
				defer func() { <-sem }()

				record, err := client.FetchPost(ctx, url)
				if err != nil {
					slog.ErrorContext(ctx, "failed to extract post", "url", url, "err", err)
					return
				}
				records[i] = record
			}()
		}
		wg.Wait()

		// saved serially in input order so the stored batch replays in
		// the order the urls were given
		saved := 0
		for _, record := range records {
			if record == nil {
				continue
			}
			err := store.Save(ctx, record)
			if err != nil {
				serviceutil.Fatal("failed to save post", err)
			}
			fmt.Println(record.String())
			saved++
		}

		slog.Info("extraction finished", "requested", len(urls), "saved", saved)
	},
}
