package cmd

import (
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/berthplan/core/lifecycle"
	"github.com/kilianp07/berthplan/pkg/export"
)

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the berth plan as JSON or CSV",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", "output format: csv or json")
	exportCmd.Flags().StringVarP(&exportOut, "output", "o", "", "output file (stdout when empty)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	defer closeService(svc)

	ctx := cmd.Context()
	repo := svc.Repository()
	ships, err := repo.Ships(ctx)
	if err != nil {
		return err
	}
	docks, err := repo.Docks(ctx)
	if err != nil {
		return err
	}
	allocs, err := repo.Allocations(ctx)
	if err != nil {
		return err
	}
	allocs, _ = lifecycle.Advance(allocs, time.Now())

	var w io.Writer = cmd.OutOrStdout()
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return export.Write(w, exportFormat, export.Plan(allocs, ships, docks))
}
