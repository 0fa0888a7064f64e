package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/raumwerk/raumwerk/pkg/api"
	"github.com/raumwerk/raumwerk/pkg/config"
	"github.com/raumwerk/raumwerk/pkg/logging"
	"github.com/raumwerk/raumwerk/pkg/metrics"
	"github.com/raumwerk/raumwerk/pkg/server"
	"github.com/raumwerk/raumwerk/pkg/store"
)

func main() {
	configPath := flag.String("config", "", "Path to rules YAML (default: built-in rule set)")
	port := flag.Int("port", 0, "HTTP server port (default from config, or set PORT)")
	dbPath := flag.String("db", "", "SQLite database path (default from config)")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	flag.Parse()

	logger := logging.NewJSONLogger(os.Stdout, logging.ParseLevel(*logLevel))
	logging.SetDefaultLogger(logger)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Error("failed to load config", logging.Error(err))
		os.Exit(1)
	}
	if *port == 0 {
		*port = cfg.HTTPPort
		if envPort := os.Getenv("PORT"); envPort != "" {
			if p, err := strconv.Atoi(envPort); err == nil {
				*port = p
			}
		}
	}
	if *dbPath == "" {
		*dbPath = cfg.StorePath
	}

	reg := metrics.DefaultRegistry()
	st, err := store.Open(*dbPath, logger, reg)
	if err != nil {
		logger.Error("failed to open store", logging.Error(err))
		os.Exit(1)
	}
	defer func() { _ = st.Close() }()

	projects, err := st.ListProjects(context.Background())
	if err == nil {
		logger.Info("store opened",
			logging.String("path", st.Path()),
			logging.Int("projects", len(projects)),
		)
	}

	srv := api.NewServer(cfg, st, logger, reg)
	gs := server.NewGracefulServer(fmt.Sprintf(":%d", *port), srv.Handler(), logger)
	gs.SetRuleReloadFunc(func() error {
		if *configPath == "" {
			return nil
		}
		reloaded, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		srv.Reload(reloaded)
		return nil
	})

	logger.Info("raumwerk server starting",
		logging.String("version", api.Version),
		logging.Int("port", *port),
		logging.String("db", *dbPath),
		logging.String("din277", cfg.Rules.DIN277.Version),
		logging.String("woflv", cfg.Rules.WoFlV.Version),
		logging.String("accessibility", cfg.Rules.Accessibility.Standard),
	)

	if err := gs.Start(); err != nil {
		logger.Error("server failed", logging.Error(err))
		os.Exit(1)
	}
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}
