// Command optilist is a terminal front end for the posts, recipes and todos
// lists of the demo API.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"optilist/config"
	"optilist/logging"
	"optilist/pages"
	"optilist/remote"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	logger, err := logging.New(os.Stderr, cfg.Log)
	if err != nil {
		slog.Error("logger", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := remote.New(cfg.API.BaseURL,
		remote.WithTimeout(cfg.API.Timeout),
		remote.WithRateLimit(cfg.API.RateLimit, cfg.API.Burst),
		remote.WithLogger(logger),
	)
	var shell *Shell
	set := pages.New(client, pages.Options{
		Unified: cfg.Unified(),
		Logger:  logger,
		OnChange: func(resource string) {
			if shell != nil {
				shell.Changed(resource)
			}
		},
	})
	// A failed initial load leaves that list empty; the shell still starts.
	if err := set.Initialize(ctx); err != nil {
		logger.Warn("initial load incomplete", "error", err)
	}

	fmt.Println(set.Home)
	shell = NewShell(set, os.Stdout, true)
	if err := shell.Run(ctx, os.Stdin); err != nil {
		logger.Error("shell", "error", err)
		os.Exit(1)
	}
}
