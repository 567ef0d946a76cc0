package commands

import (
	"context"
	"fmt"

	"hkracing-backend/lib/pocketbase"
	"hkracing-backend/services/extraction"

	"github.com/spf13/cobra"
)

var cleanupDryRun *bool

func init() {
	cleanupDryRun = cleanupCmd.Flags().Bool("dry-run", false, "Report duplicates without deleting them.")
	rootCmd.AddCommand(cleanupCmd)
}

// discriminator fields that distinguish records sharing one race key,
// empty for collections keyed one-record-per-race
var collectionKeys = map[string][]string{
	extraction.CollectionOdds:             nil,
	extraction.CollectionPerformance:      nil,
	extraction.CollectionPayouts:          nil,
	extraction.CollectionIncidentAnalysis: nil,
	extraction.CollectionHorsePerformance: {"horse_number"},
	extraction.CollectionPayoutPools:      {"pool"},
	extraction.CollectionIncidents:        {"horse_number"},
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Removes duplicate records accumulated in the remote store.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := readConfig()
		if cfg.PocketBase.URL == "" {
			fatal("no remote store configured", fmt.Errorf("pocketbase.url is empty"))
		}

		client := pocketbase.New(cfg.PocketBase)
		if err := client.Authenticate(ctx); err != nil {
			fatal("failed to authenticate against pocketbase", err)
		}

		total := 0
		for collection, extraKeys := range collectionKeys {
			removed, err := dedupeCollection(ctx, client, collection, extraKeys)
			if err != nil {
				fatal("cleanup failed on "+collection, err)
			}
			if removed > 0 {
				fmt.Printf("%s: %d duplicate(s)\n", collection, removed)
			}
			total += removed
		}
		if *cleanupDryRun {
			fmt.Printf("would remove %d record(s)\n", total)
			return
		}
		fmt.Printf("removed %d record(s)\n", total)
	},
}

// dedupeCollection keeps the latest record per natural key and deletes
// the rest. records list in insertion order, so the last one per key
// is the newest scrape.
func dedupeCollection(ctx context.Context, client *pocketbase.Client, collection string, extraKeys []string) (int, error) {
	records, err := client.List(ctx, collection, "")
	if err != nil {
		return 0, err
	}

	newest := map[string]string{}
	for _, rec := range records {
		newest[naturalKey(rec, extraKeys)] = rec.ID()
	}

	removed := 0
	for _, rec := range records {
		if newest[naturalKey(rec, extraKeys)] == rec.ID() {
			continue
		}
		removed++
		if *cleanupDryRun {
			continue
		}
		if err := client.Delete(ctx, collection, rec.ID()); err != nil {
			return removed, err
		}
	}
	return removed, nil
}

func naturalKey(rec pocketbase.Record, extraKeys []string) string {
	key := fmt.Sprintf("%v|%v|%v", rec["race_date"], rec["venue"], rec["race_number"])
	for _, field := range extraKeys {
		key += fmt.Sprintf("|%v", rec[field])
	}
	return key
}
