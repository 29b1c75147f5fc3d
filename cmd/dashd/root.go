package main

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configFile string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "dashd",
	Short: "Vehicle telemetry aggregation daemon",
	Long: `dashd ingests telemetry from the ESP32 sensor node (framed TLV over
serial) and the RaceBox Micro (binary notifications) and maintains one
staleness-aware snapshot of vehicle state for the dashboard renderer.

A local TCP control channel accepts line commands such as
"set_mode Track" and "set_scheme Light".`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.SetLevel(log.InfoLevel)
		if verbose {
			log.SetLevel(log.DebugLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "dashd.toml", "Configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}
