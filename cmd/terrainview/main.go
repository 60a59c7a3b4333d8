// Package main is the entry point for the TerraStream terrain viewer.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/terrastream/internal/config"
	"github.com/Faultbox/terrastream/internal/engine/sector"
	"github.com/Faultbox/terrastream/internal/logger"
	"github.com/Faultbox/terrastream/internal/persistence/sectordb"
	"github.com/Faultbox/terrastream/internal/viewer"
)

// Buckets keep region assignments next to the sectors they store.
var _ sector.RegionStore = (*sectordb.Bucket)(nil)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== TerraStream Viewer ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	// Invalid settings are reported but not fatal; generation falls back
	// per setting and logs what it did.
	if err := cfg.Validate(); err != nil {
		logger.Warn("config failed validation", zap.Error(err))
	}

	var store sector.Store
	if cfg.Cache.Path != "" {
		db, err := sectordb.Open(cfg.Cache.Path)
		if err != nil {
			logger.Warn("sector cache unavailable, generating everything", zap.String("path", cfg.Cache.Path), zap.Error(err))
		} else {
			defer db.Close()
			store = db.Bucket(cfg.Digest())
			logger.Info("sector cache opened", zap.String("path", cfg.Cache.Path))
		}
	}

	v, err := viewer.New(cfg, store)
	if err != nil {
		logger.Error("failed to create viewer", zap.Error(err))
		os.Exit(1)
	}
	defer v.Close()

	if err := v.Run(); err != nil {
		logger.Error("viewer error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("viewer closed normally")
}
