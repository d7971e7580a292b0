package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const (
	appName    = "flingrecv"
	appVersion = "0.1.0"
)

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Receiver-side media-control endpoint",
	Long: `Flingrecv registers with the local fling daemon and accepts playback
commands (LOAD, PLAY, PAUSE, SEEK, SET_VOLUME, PING, GET_STATUS) from
remote senders over a per-session message channel, driving a media
surface and reporting status changes back.`,
	Version: appVersion,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a .flingrecv.kdl config file")

	rootCmd.AddCommand(runCmd)

	rootCmd.SetVersionTemplate(fmt.Sprintf("%s v%s\n", appName, appVersion))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
