package cmd

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/berthplan/core/model"
)

var allocateOpts struct {
	goal    string
	maxWind float64
	minTide float64
	json    bool
}

var allocateCmd = &cobra.Command{
	Use:   "allocate",
	Short: "Run one allocation against the configured store",
	RunE:  runAllocate,
}

func init() {
	f := allocateCmd.Flags()
	f.StringVar(&allocateOpts.goal, "goal", string(model.GoalBalanced), "optimization goal: waiting_time, dock_utilization or balanced")
	f.Float64Var(&allocateOpts.maxWind, "max-wind", 0, "override the wind limit in knots")
	f.Float64Var(&allocateOpts.minTide, "min-tide", 0, "override the minimum tide level in meters")
	f.BoolVar(&allocateOpts.json, "json", false, "print the result as JSON")
	rootCmd.AddCommand(allocateCmd)
}

func runAllocate(cmd *cobra.Command, args []string) error {
	goal, err := model.ParseGoal(allocateOpts.goal)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := newService()
	if err != nil {
		return err
	}
	defer closeService(svc)

	res, err := svc.RunAllocation(ctx, goal, model.Thresholds{
		MaxWindSpeed: allocateOpts.maxWind,
		MinTideLevel: allocateOpts.minTide,
	})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if allocateOpts.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	renderResult(out, res)
	return nil
}
