package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jd3nn1s/dashd"
)

var printTelemetry bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the telemetry daemon against real devices",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDaemon(false)
	},
}

var mockCmd = &cobra.Command{
	Use:   "mock",
	Short: "Run the daemon with synthetic telemetry, no hardware needed",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDaemon(true)
	},
}

func init() {
	runCmd.Flags().BoolVar(&printTelemetry, "print-telemetry", false, "print snapshots to stdout")
	mockCmd.Flags().BoolVar(&printTelemetry, "print-telemetry", false, "print snapshots to stdout")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(mockCmd)
}

func runDaemon(mock bool) error {
	cfg, err := dashd.LoadConfig(configFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d := dashd.New(cfg)
	d.SetMockMode(mock)

	if printTelemetry {
		go printSnapshots(ctx, d.Aggregator)
	}

	err = d.Start(ctx)
	if err == context.Canceled {
		log.Info("shutting down")
		return nil
	}
	return err
}

// printSnapshots polls the aggregator the way the renderer does, on its
// own cadence, never driven by ingestion arrival.
func printSnapshots(ctx context.Context, agg *dashd.Aggregator) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		snap := agg.Snapshot(time.Now())
		fmt.Printf("mode=%s scheme=%s rpm=%s speed=%s gps=%s g=(%s,%s)\n",
			snap.DriveMode, snap.ColorScheme,
			fmtField(snap, dashd.FieldRPM),
			fmtField(snap, dashd.FieldSpeed),
			fmtField(snap, dashd.FieldGPSSpeed),
			fmtField(snap, dashd.FieldGForceX),
			fmtField(snap, dashd.FieldGForceY))
	}
}

func fmtField(snap dashd.Snapshot, id dashd.FieldID) string {
	f, ok := snap.Fields[id]
	if !ok {
		return "-"
	}
	if f.Stale {
		return fmt.Sprintf("%.2f(stale)", f.Value)
	}
	return fmt.Sprintf("%.2f", f.Value)
}
