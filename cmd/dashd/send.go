package main

import (
	"fmt"
	"net"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jd3nn1s/dashd"
)

var sendCmd = &cobra.Command{
	Use:   "send <command> <argument>",
	Short: "Send one control command to a running daemon",
	Long: `Sends a single line over the control channel and exits. The channel
is fire-and-forget, so no reply is expected.

Examples:
  dashd send set_mode Track
  dashd send set_scheme Light`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := dashd.LoadConfig(configFile)
		if err != nil {
			return err
		}

		conn, err := net.DialTimeout("tcp", cfg.Control.Listen, 3*time.Second)
		if err != nil {
			return errors.Wrapf(err, "unable to reach control channel at %s", cfg.Control.Listen)
		}
		defer conn.Close()

		_, err = fmt.Fprintf(conn, "%s %s\n", args[0], args[1])
		return errors.Wrap(err, "unable to send command")
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
}
