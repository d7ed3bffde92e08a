package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/berthplan/core/allocation"
)

var docksCmd = &cobra.Command{
	Use:   "docks",
	Short: "Print docks with their current occupancy",
	RunE:  runDocks,
}

func init() {
	rootCmd.AddCommand(docksCmd)
}

func runDocks(cmd *cobra.Command, args []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	defer closeService(svc)

	ctx := cmd.Context()
	docks, err := svc.Repository().Docks(ctx)
	if err != nil {
		return err
	}
	allocs, err := svc.Repository().Allocations(ctx)
	if err != nil {
		return err
	}
	renderDocks(cmd.OutOrStdout(), allocation.DeriveDockOccupancy(docks, allocs, time.Now()))
	return nil
}
