package commands

import (
	"fmt"

	"blogmigrate/lib/post"
	"blogmigrate/lib/poststore"
	"blogmigrate/lib/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(combineCmd)
}

var combineCmd = &cobra.Command{
	Use:   "combine <source-url-a> <source-url-b>",
	Short: "Merges two stored posts: a keeps its metadata, b's body is appended, b is removed.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()
		ctx := cmd.Context()

		store, err := poststore.Open(cfg.Database)
		if err != nil {
			serviceutil.Fatal("failed to open post database", err)
		}
		defer store.Close()

		a, err := store.Get(ctx, args[0])
		if err != nil {
			serviceutil.Fatal("failed to load first post", err)
		}
		b, err := store.Get(ctx, args[1])
		if err != nil {
			serviceutil.Fatal("failed to load second post", err)
		}
		if a == nil || b == nil {
			serviceutil.Fatal("both posts must be extracted before combining", nil)
		}
		if a.Migrated() || b.Migrated() {
			serviceutil.Fatal("refusing to combine already migrated posts", nil)
		}

		combined := post.Combine(a, b)
		err = store.Save(ctx, combined)
		if err != nil {
			serviceutil.Fatal("failed to save combined post", err)
		}
		err = store.Delete(ctx, b.SourceURL)
		if err != nil {
			serviceutil.Fatal("failed to remove merged post", err)
		}

		fmt.Println(combined.String())
	},
}
