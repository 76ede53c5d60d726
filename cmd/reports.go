package cmd

import (
	"errors"
	"fmt"

	"netbox-sync/core/config"
	"netbox-sync/core/storage"
	"netbox-sync/feature/report"

	"github.com/spf13/cobra"
)

// reportsCmd lists archived run reports, or prints one.
var reportsCmd = &cobra.Command{
	Use:   "reports [run-id]",
	Short: "List archived run reports or print one",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := config.LoadConfig(envDir)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return err
		}

		if len(args) == 1 {
			summary, err := report.Fetch(ctx, client, cfg.Storage.Bucket, args[0])
			if err != nil {
				return err
			}
			report.Render(cmd.OutOrStdout(), summary)
			return nil
		}

		ids, err := report.Archived(ctx, client, cfg.Storage.Bucket)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return errors.New("no archived reports in bucket " + cfg.Storage.Bucket)
		}
		for _, id := range ids {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(reportsCmd)
}
