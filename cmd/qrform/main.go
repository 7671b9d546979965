package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"qr_generator_client/platform/config"
	"qr_generator_client/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Debug("starting qrform", "env", cfg.Env, "baseUrl", cfg.APIBaseURL)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	root := newRootCommand(&app{cfg: cfg, log: log, out: os.Stdout})
	err = root.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
