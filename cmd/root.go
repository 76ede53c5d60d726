package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"netbox-sync/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// envDir is where the .env file is looked up.
var envDir string

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "netbox-sync",
	Short: "Mirror an OpenStack inventory into NetBox",
	Long: `netbox-sync reconciles an OpenStack inventory snapshot into a NetBox registry.
It creates and updates virtual machines, disks, interfaces, MAC addresses, VRFs,
prefixes and IP addresses, and removes the tagged objects the source no longer has.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command context,
// which aborts a pending mutation delay or cleanup delay.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := RootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		// Console format with the debug config gives ISO8601 timestamps for CLI errors.
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().StringVar(&envDir, "env-dir", ".", "Directory holding the .env file")
}
