package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/R3E-Network/gameoflife/internal/app/runtime"
	"github.com/R3E-Network/gameoflife/internal/config"
	"github.com/R3E-Network/gameoflife/internal/platform/migrations"
	"github.com/R3E-Network/gameoflife/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (defaults to $"+config.EnvConfigPath+")")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: gameoflife [-config file] [serve | migrate up|down]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	lg := logger.New(cfg.Logging.LoggerConfig()).Named("gameoflife")

	cmd := flag.Arg(0)
	switch cmd {
	case "", "serve":
		if err := serve(cfg, lg); err != nil {
			lg.WithError(err).Fatal("server stopped")
		}
	case "migrate":
		if err := migrate(cfg, flag.Arg(1)); err != nil {
			lg.WithError(err).Fatal("migration failed")
		}
		lg.Info("migrations complete")
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func serve(cfg *config.Config, lg *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := runtime.NewApplication(ctx, cfg, lg)
	if err != nil {
		return err
	}

	runErr := application.Run(ctx)
	lg.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := application.Shutdown(shutdownCtx); err != nil {
		lg.WithError(err).Warn("graceful shutdown failed")
	}
	return runErr
}

func migrate(cfg *config.Config, direction string) error {
	if cfg.Database.Driver != "postgres" {
		return fmt.Errorf("migrations need the postgres driver, configured driver is %q", cfg.Database.Driver)
	}
	switch direction {
	case "", "up":
		return migrations.Up(cfg.Database.DSN)
	case "down":
		return migrations.Down(cfg.Database.DSN)
	default:
		return fmt.Errorf("unknown migrate direction %q", direction)
	}
}
