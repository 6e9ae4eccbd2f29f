// Command broker runs gobroker as a standalone process: parse flags,
// load config, start an agent, wait for a shutdown signal.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/nmatsuda/gobroker/internal/agent"
	"github.com/nmatsuda/gobroker/internal/config"
	"github.com/nmatsuda/gobroker/internal/log"
)

func main() {
	os.Exit(run())
}

func run() int {
	logger := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()

	var (
		configPath    = flag.String("config", "", "path to a YAML broker config file (defaults to "+config.DefaultPath()+")")
		dataDir       = flag.String("data-dir", "", "override the config's data directory")
		listenAddr    = flag.String("listen", "", "override the config's TCP listen address")
		metricsAddr   = flag.String("metrics-listen", "", "address to serve Prometheus metrics on (disabled if empty)")
		maxStoreBytes = flag.Uint64("segment-max-store-bytes", 0, "override the config's segment size limit")
	)
	flag.Parse()

	cfg := config.Default()
	path := *configPath
	if path == "" {
		path = config.DefaultPath()
	}
	if loaded, err := config.Load(path); err == nil {
		cfg = loaded
	} else if *configPath != "" {
		logger.Error().Err(err).Str("path", path).Msg("failed to load broker config")
		return 1
	}

	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}
	if *metricsAddr != "" {
		cfg.MetricsListenAddr = *metricsAddr
	}
	if *maxStoreBytes != 0 {
		cfg.Segment.MaxStoreBytes = *maxStoreBytes
	}

	logConfig := log.Config{}
	logConfig.Segment.MaxStoreBytes = cfg.Segment.MaxStoreBytes
	logConfig.Segment.MaxIndexBytes = cfg.Segment.MaxIndexBytes

	a, err := agent.New(agent.Config{
		DataDir:           cfg.DataDir,
		ListenAddr:        cfg.ListenAddr,
		MetricsListenAddr: cfg.MetricsListenAddr,
		LogConfig:         logConfig,
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to start broker")
		return 1
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	fmt.Println("shutting down broker...")
	if err := a.Shutdown(); err != nil {
		logger.Error().Err(err).Msg("error during broker shutdown")
		return 1
	}
	return 0
}
