package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/pzhang-hci/holospeak/internal/assets"
	"github.com/pzhang-hci/holospeak/internal/config"
	"github.com/pzhang-hci/holospeak/internal/engine"
	"github.com/pzhang-hci/holospeak/internal/facet"
	"github.com/pzhang-hci/holospeak/internal/runlog"
	"github.com/pzhang-hci/holospeak/internal/service"
)

// Version is stamped by the build.
var Version = "dev"

func main() {
	_ = godotenv.Load()

	app := newApp()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "holospeak: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "holospeak",
		Usage:   "Picture-driven sentence board backed by a remote inference service",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "data-dir",
				Usage: "Directory for configuration, audio cache, and run logs",
				Value: defaultDataDir(),
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Commands: []*cli.Command{
			runCmd(),
			hostCmd(),
		},
		// No subcommand behaves like "run".
		Action: func(c *cli.Context) error {
			return runSession(c)
		},
	}
}

func runCmd() *cli.Command {
	return &cli.Command{
		Name:   "run",
		Usage:  "Start an interactive session",
		Action: runSession,
	}
}

func hostCmd() *cli.Command {
	return &cli.Command{
		Name:  "host",
		Usage: "Inspect or change the inference service host",
		Subcommands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Print the configured host",
				Action: func(c *cli.Context) error {
					host := config.NewHost(c.String("data-dir"))
					current, err := host.Load()
					if err != nil {
						return err
					}
					fmt.Println(current)
					return nil
				},
			},
			{
				Name:      "set",
				Usage:     "Probe a host:port and persist it on success",
				ArgsUsage: "<host:port>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Persist without probing first",
					},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return fmt.Errorf("usage: holospeak host set <host:port>")
					}
					return setHost(c, c.Args().First(), c.Bool("force"))
				},
			},
			{
				Name:  "default",
				Usage: "Reset the host to the factory default",
				Action: func(c *cli.Context) error {
					host := config.NewHost(c.String("data-dir"))
					if err := host.Set(config.DefaultHostPort); err != nil {
						return err
					}
					fmt.Println(config.DefaultHostPort)
					return nil
				},
			},
			{
				Name:  "test",
				Usage: "Probe the configured host",
				Action: func(c *cli.Context) error {
					host := config.NewHost(c.String("data-dir"))
					if _, err := host.Load(); err != nil {
						return err
					}
					return probeHost(c.Context, host)
				},
			},
		},
	}
}

func setHost(c *cli.Context, hostPort string, force bool) error {
	dir := c.String("data-dir")
	host := config.NewHost(dir)
	if _, err := host.Load(); err != nil {
		return err
	}
	previous := host.Current()

	// Probe the candidate before committing it so a typo does not strand
	// the device on an unreachable host.
	if !force {
		if err := host.Set(hostPort); err != nil {
			return err
		}
		if err := probeHost(c.Context, host); err != nil {
			if restoreErr := host.Set(previous); restoreErr != nil {
				return fmt.Errorf("probe failed (%v) and restoring %s failed: %w", err, previous, restoreErr)
			}
			return fmt.Errorf("host %s not reachable, keeping %s: %w", hostPort, previous, err)
		}
		fmt.Printf("host set to %s\n", host.Current())
		return nil
	}

	if err := host.Set(hostPort); err != nil {
		return err
	}
	fmt.Printf("host set to %s (unprobed)\n", host.Current())
	return nil
}

func probeHost(ctx context.Context, host *config.Host) error {
	client := service.NewClient(host, 10*time.Second, nil)
	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Probe(probeCtx); err != nil {
		return err
	}
	fmt.Printf("%s reachable\n", host.Current())
	return nil
}

func runSession(c *cli.Context) error {
	dataDir := c.String("data-dir")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	logger, err := buildLogger(c.Bool("verbose"))
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	settings, err := config.LoadSettings(dataDir)
	if err != nil {
		return err
	}

	host := config.NewHost(dataDir)
	if _, err := host.Load(); err != nil {
		return err
	}
	logger.Info("using service host", zap.String("host", host.Current()))

	// External edits to the host file take effect without a restart.
	stopWatch, err := host.Watch(ctx, logger, func(h string) {
		logger.Info("service host changed", zap.String("host", h))
	})
	if err != nil {
		logger.Warn("host file watch unavailable", zap.Error(err))
	} else {
		defer stopWatch()
	}

	assetDir := settings.AssetDir
	if assetDir == "" {
		assetDir = filepath.Join(dataDir, "audio")
	}
	assetStore, err := assets.Open(ctx, assetDir, logger)
	if err != nil {
		return fmt.Errorf("opening audio cache: %w", err)
	}
	defer assetStore.Close()

	logDir := settings.LogDir
	if logDir == "" {
		logDir = filepath.Join(dataDir, "logs")
	}
	events, err := runlog.New(logDir)
	if err != nil {
		return err
	}

	client := service.NewClient(host, settings.RequestTimeout, logger)

	capture := newFileCapture()
	r := newREPL(os.Stdin, os.Stdout, capture, logger)
	orch := engine.New(engine.Config{
		Store:     facet.NewStore(nil),
		Transport: client,
		Capture:   capture,
		Player:    newExecPlayer(),
		Notifier:  r,
		View:      r,
		Voice:     voiceSettings{settings},
		Assets:    assetStore,
		Events:    events,
		Logger:    logger,
	})

	events.Write(runlog.EventOpen, "")
	defer events.Write(runlog.EventClose, "")

	if err := r.run(ctx, orch); err != nil {
		return err
	}
	orch.Wait()
	return nil
}

func buildLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".holospeak"
	}
	return filepath.Join(home, ".holospeak")
}
