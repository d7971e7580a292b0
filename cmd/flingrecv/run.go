package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/flingware/flingrecv/internal/config"
	"github.com/flingware/flingrecv/internal/player"
	"github.com/flingware/flingrecv/internal/receiver"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the receiver and register with the local daemon",
	Long: `Run starts a playback session: it connects to the fling daemon,
registers, publishes the session channel address, and serves sender
commands until interrupted.

Without a real rendering surface attached, a simulated surface is used;
it acknowledges loads and control commands with the events a renderer
would produce, which is useful for daemon and sender integration work.`,
	RunE: runReceiver,
}

func init() {
	runCmd.Flags().String("daemon-host", "", "Daemon host (default 127.0.0.1)")
	runCmd.Flags().Int("daemon-port", 0, "Daemon registration port (default 9431)")
	runCmd.Flags().Int("channel-port", 0, "Session channel port (default 9439)")
	runCmd.Flags().String("app-id", "", "Application id reported to the daemon")
}

func runReceiver(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Receiver.LogLevel),
	}))
	logger.Info("receiver starting", "version", appVersion, "daemon",
		cfg.Daemon.Host, "port", cfg.Daemon.Port)

	surface := player.NewSimulatedSurface(200*time.Millisecond, 0)
	recv, err := receiver.New(receiver.Config{
		DaemonHost:  cfg.Daemon.Host,
		DaemonPort:  cfg.Daemon.Port,
		ChannelPort: cfg.Daemon.ChannelPort,
		AppID:       cfg.Receiver.AppID,
	}, surface, receiver.WithLogger(logger))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := recv.Run(ctx)
	if closeErr := recv.Close(); runErr == nil {
		runErr = closeErr
	}
	logger.Info("receiver stopped")
	return runErr
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		wd, wdErr := os.Getwd()
		if wdErr != nil {
			wd = "."
		}
		cfg, err = config.Load(wd)
	}
	if err != nil {
		return nil, err
	}

	if host, _ := cmd.Flags().GetString("daemon-host"); host != "" {
		cfg.Daemon.Host = host
	}
	if port, _ := cmd.Flags().GetInt("daemon-port"); port != 0 {
		cfg.Daemon.Port = port
	}
	if port, _ := cmd.Flags().GetInt("channel-port"); port != 0 {
		cfg.Daemon.ChannelPort = port
	}
	if appID, _ := cmd.Flags().GetString("app-id"); appID != "" {
		cfg.Receiver.AppID = appID
	}

	return cfg, nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
