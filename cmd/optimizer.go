package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/berthplan/infra/logger"
	"github.com/kilianp07/berthplan/infra/metrics"
	"github.com/kilianp07/berthplan/infra/optimizer"
)

var optimizerOpts struct {
	addr        string
	metricsAddr string
}

var optimizerCmd = &cobra.Command{
	Use:   "optimizer",
	Short: "Run the reference allocation model server",
	RunE:  runOptimizer,
}

func init() {
	optimizerCmd.Flags().StringVar(&optimizerOpts.addr, "addr", ":5000", "listen address")
	optimizerCmd.Flags().StringVar(&optimizerOpts.metricsAddr, "metrics-addr", "", "serve /metrics on this address when set")
	rootCmd.AddCommand(optimizerCmd)
}

func runOptimizer(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.New("optimizer")
	if optimizerOpts.metricsAddr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, optimizerOpts.metricsAddr, nil, log); err != nil {
				log.Errorf("prom server: %v", err)
			}
		}()
	}
	srv := optimizer.NewServer(optimizer.Config{ListenAddr: optimizerOpts.addr}, log, nil)
	return srv.Start(ctx)
}
