package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"metcm_relay/internal/config"
	"metcm_relay/internal/daemon"
	"metcm_relay/internal/models"
	"metcm_relay/internal/observability"
	"metcm_relay/internal/transport"
)

func initLogger(cfg *config.Config) {
	var logLevel slog.Level
	switch cfg.Log.Level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	var handler slog.Handler
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
}

func main() {
	configPath := flag.String("config", "", "Path to config file (YAML)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [-config path] [receive | send -dest host:port -file bulletin.txt [-partial]]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *configPath != "" {
		os.Setenv("METCM_RELAY_CONFIG_PATH", *configPath)
	}

	cfg, err := config.Load()
	if err != nil {
		// Logger isn't initialized yet
		basicLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		basicLogger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	initLogger(cfg)

	cmd := "receive"
	args := flag.Args()
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "receive":
		err = runReceive(cfg)
	case "send":
		err = runSend(args)
	default:
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		slog.Error("Command failed", "command", cmd, "error", err)
		os.Exit(1)
	}
}

func runReceive(cfg *config.Config) error {
	metrics := observability.NewMetrics()

	d, err := daemon.New(cfg, metrics)
	if err != nil {
		return err
	}

	if err := d.Start(); err != nil {
		d.Stop()
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// The daemon keeps running while at least one listener is alive
	alive := len(cfg.ListenPorts)
	for alive > 0 {
		select {
		case <-sigChan:
			slog.Info("Received interrupt signal, shutting down...")
			return d.Stop()
		case exit := <-d.Errors():
			alive--
			slog.Warn("Listener worker is down", "port", exit.Port, "remaining", alive)
		}
	}

	d.Stop()
	return fmt.Errorf("all listeners stopped")
}

func runSend(args []string) error {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	dest := fs.String("dest", "", "Destination host:port")
	file := fs.String("file", "", "Bulletin file: 4 header lines followed by 32 zone lines")
	partial := fs.Bool("partial", false, "Allow missing trailing zones and skip field validation")
	timeout := fs.Duration("timeout", 5*time.Second, "Send timeout")
	fs.Parse(args)

	if *dest == "" || *file == "" {
		fs.Usage()
		return fmt.Errorf("-dest and -file are required")
	}

	b, err := readBulletinFile(*file, *partial)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	return transport.NewSender(nil).Send(ctx, *dest, b)
}

// readBulletinFile loads a bulletin from a text file: 4 header lines then the zone lines.
// Unless partial, all 36 fields are required and checked with Validate.
func readBulletinFile(path string, partial bool) (models.Bulletin, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return models.Bulletin{}, fmt.Errorf("failed to read bulletin file: %w", err)
	}
	text := strings.TrimSuffix(strings.ReplaceAll(string(raw), "\r\n", "\n"), "\n")
	lines := strings.Split(text, "\n")

	if partial {
		return models.DecodeBulletinPartial(lines)
	}

	b, err := models.DecodeBulletin(lines)
	if err != nil {
		return models.Bulletin{}, err
	}
	if err := b.Validate(); err != nil {
		return models.Bulletin{}, err
	}
	return b, nil
}
