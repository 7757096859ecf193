// Command qmctl is a small operator CLI over the quartermaster client:
// stats, process-failed, remove-failed, and handle-expired. No queue
// logic lives here — every subcommand loads a Config via viper (through
// quartermaster.LoadConfig) and calls the matching public API operation.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vyr-e/quartermaster"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "qmctl",
		Short: "Operate a quartermaster work queue",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "qmctl.yaml", "path to config file")

	root.AddCommand(statsCmd(), processFailedCmd(), removeFailedCmd(), handleExpiredCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newClient() (*quartermaster.Client, error) {
	cfg, err := quartermaster.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	return quartermaster.New(cfg)
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print sublist lengths for the configured queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			defer c.Close()

			ctx := context.Background()
			for _, sub := range []quartermaster.Sublist{
				quartermaster.SublistUnprocessed,
				quartermaster.SublistWorking,
				quartermaster.SublistProcessed,
				quartermaster.SublistFailed,
			} {
				n, err := c.QueueLength(ctx, sub)
				if err != nil {
					return err
				}
				fmt.Printf("%-12s %d\n", sub, n)
			}
			return nil
		},
	}
}

func processFailedCmd() *cobra.Command {
	var maxCount int
	cmd := &cobra.Command{
		Use:   "process-failed",
		Short: "Snapshot the failed sublist and print each item's key",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			defer c.Close()

			itemCount, errorCount, err := c.ProcessFailedItems(cmd.Context(), maxCount, func(ctx context.Context, item quartermaster.Item) error {
				fmt.Printf("%s\tprocess_count=%d\tlast_error=%s\n", item.Key, item.Meta.ProcessCount, item.Meta.LastError)
				return nil
			})
			fmt.Printf("processed %d items, %d errors\n", itemCount, errorCount)
			return err
		},
	}
	cmd.Flags().IntVar(&maxCount, "max-count", 0, "maximum items to process (0 = all)")
	return cmd
}

func removeFailedCmd() *cobra.Command {
	var minAge float64
	var minFailCount int64
	cmd := &cobra.Command{
		Use:   "remove-failed",
		Short: "Drop parked items past the retention policy",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			defer c.Close()

			dropped, errorCount, err := c.RemoveFailedItems(cmd.Context(), quartermaster.RemoveFailedItemsOptions{
				MinAge:       minAge,
				MinFailCount: minFailCount,
			})
			fmt.Printf("dropped %d items, %d errors\n", dropped, errorCount)
			return err
		},
	}
	cmd.Flags().Float64Var(&minAge, "min-age", 0, "drop items created before now-min-age seconds")
	cmd.Flags().Int64Var(&minFailCount, "min-fail-count", 5, "drop items with process_count >= this")
	return cmd
}

func handleExpiredCmd() *cobra.Command {
	var action string
	cmd := &cobra.Command{
		Use:   "handle-expired",
		Short: "Reclaim items stuck in the working sublist past busy_expiry_time",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			defer c.Close()

			reclaimed, err := c.HandleExpiredItems(cmd.Context(), 0, quartermaster.ExpiryAction(action))
			if err != nil {
				return err
			}
			fmt.Printf("reclaimed %d items\n", len(reclaimed))
			return nil
		},
	}
	cmd.Flags().StringVar(&action, "action", "requeue", `"requeue" or "drop"`)
	return cmd
}
