package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/rodrigooliver/interflow-sub001/pkg/config"
	"github.com/rodrigooliver/interflow-sub001/pkg/server"
	"github.com/rodrigooliver/interflow-sub001/pkg/store"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		Prefix:          "interflow",
	})

	flags := pflag.NewFlagSet("interflow-server", pflag.ExitOnError)
	cfgFile := flags.StringP("config", "c", "", "Config file (default is config.yaml)")
	flags.String("addr", "", "Listen address (default from server.addr)")
	flags.String("store", "", "Database path, or \"memory\"")
	flags.Bool("debug", false, "Enable debug logging")
	_ = flags.Parse(os.Args[1:])

	cfg, err := config.Build(*cfgFile, flags)
	if err != nil {
		logger.Fatal("invalid configuration", "err", err)
	}
	logger = cfg.Logger("interflow")

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		logger.Fatal("failed to open store", "path", cfg.Store.Path, "err", err)
	}
	defer st.Close()
	logger.Info("store opened", "path", cfg.Store.Path)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, logger, st)
	if err := srv.Start(ctx, cfg.Server.Addr); err != nil {
		logger.Fatal("server error", "err", err)
	}
	logger.Info("server stopped")
}
