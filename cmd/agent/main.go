// rezolus-go - high-resolution Linux performance telemetry agent
// SPDX-License-Identifier: Apache-2.0

// Command agent runs the sampler-driven telemetry agent: it builds every
// enabled sampler, drives them under a suture supervisor tree, and
// exposes /metrics and the query surface over HTTP, optionally persisting
// what it samples to a columnar recording.
//
// Exit codes:
//
//	0 - clean shutdown (signal received, or context canceled)
//	1 - configuration error
//	2 - fatal runtime error (supervisor tree failed to start)
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/rezolus-go/internal/config"
	"github.com/tomtom215/rezolus-go/internal/httpapi"
	"github.com/tomtom215/rezolus-go/internal/logging"
	"github.com/tomtom215/rezolus-go/internal/metric"
	"github.com/tomtom215/rezolus-go/internal/promql"
	"github.com/tomtom215/rezolus-go/internal/recorder"
	"github.com/tomtom215/rezolus-go/internal/recording"
	"github.com/tomtom215/rezolus-go/internal/sampler"
	"github.com/tomtom215/rezolus-go/internal/samplerdrv"
	"github.com/tomtom215/rezolus-go/internal/selfmetrics"
	"github.com/tomtom215/rezolus-go/internal/supervisor"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to a YAML config file (overrides CONFIG_PATH)")
	flag.Parse()

	if *configPath != "" {
		os.Setenv(config.ConfigPathEnvVar, *configPath)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "rezolus-agent: configuration error: %v\n", err)
		return 1
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().Msg("starting rezolus agent")

	reg := metric.NewRegistry()
	slogLogger := logging.NewSlogLogger()

	tree, err := supervisor.NewTree(slogLogger, supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Error().Err(err).Msg("failed to build supervisor tree")
		return 2
	}

	driver := samplerdrv.NewDriver(slogLogger, samplerdrv.DefaultConfig())
	for name, sc := range cfg.Samplers {
		if !sc.Enabled {
			continue
		}
		s, err := sampler.Build(name, reg)
		if err != nil {
			if errors.Is(err, sampler.ErrUnsupported) {
				logging.Warn().Str("sampler", name).Err(err).Msg("sampler unsupported on this host, skipping")
				continue
			}
			logging.Error().Str("sampler", name).Err(err).Msg("failed to build sampler")
			return 2
		}
		driver.AddSampler(s, sc.Interval)
		logging.Info().Str("sampler", name).Dur("interval", sc.Interval).Msg("sampler started")
	}
	tree.AddService(driver)

	if cfg.Recording.Enabled {
		db, err := recording.OpenDuckDB(cfg.Recording.Path)
		if err != nil {
			logging.Error().Err(err).Msg("failed to open recording")
			return 2
		}
		defer db.Close()

		rec, err := recorder.New(reg, db, time.Second, recording.Header{
			Source:     "rezolus-agent",
			Version:    "1",
			IntervalNS: int64(time.Second),
		})
		if err != nil {
			logging.Error().Err(err).Msg("failed to start recorder")
			return 2
		}
		tree.AddService(rec)
		logging.Info().Str("path", cfg.Recording.Path).Msg("recording enabled")
	}

	// The agent itself never answers historical queries — that is
	// cmd/query's job against the recording this agent writes — so its
	// query endpoints always report 503 until a future engine is wired in.
	engineHolder := httpapi.NewEngineHolder(func() *promql.Engine { return nil })

	httpCfg := httpapi.DefaultConfig()
	httpCfg.Addr = cfg.Server.Addr()
	server := httpapi.NewServer(httpCfg, httpapi.Deps{Registry: reg, Status: driver.Status()}, engineHolder)
	tree.AddAPIService(server)

	selfmetrics.RegistryEntries.WithLabelValues("total").Set(float64(len(reg.Names())))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	errCh := tree.ServeBackground(ctx)
	select {
	case <-ctx.Done():
		logging.Info().Msg("context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor tree error")
		}
	}
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("services failed to stop within timeout")
	}

	logging.Info().Msg("rezolus agent stopped")
	return 0
}
