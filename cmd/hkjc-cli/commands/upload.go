package commands

import (
	"fmt"

	"hkracing-backend/lib/scrapers/hkjc"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(uploadCmd)
}

var uploadCmd = &cobra.Command{
	Use:   "upload <date> <venue> <race>",
	Short: "Re-uploads previously backed-up records for a race without scraping.",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		date, venue, race, err := parseRaceArgs(args)
		if err != nil {
			fatal("bad arguments", err)
		}
		key, err := hkjc.NewRaceKey(date, venue, race)
		if err != nil {
			fatal("bad race key", err)
		}

		ctx := cmd.Context()
		cfg := readConfig()
		if cfg.PocketBase.URL == "" {
			fatal("no remote store configured", fmt.Errorf("pocketbase.url is empty"))
		}
		service := newService(ctx, cfg)

		if err := service.UploadBackups(ctx, key); err != nil {
			fatal("upload failed", err)
		}
		fmt.Printf("uploaded backups for %s\n", key)
	},
}
