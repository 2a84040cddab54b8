package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cells/internal/app"
	"cells/internal/core"
	"cells/internal/platform/otel"
	"cells/internal/runner"
	_ "cells/internal/sims/excitable"
	_ "cells/internal/sims/greenberg"
	"cells/internal/sims/rulefile"
	"cells/internal/transport/stream"
)

func main() {
	logger := log.New(os.Stderr, "cells: ", log.LstdFlags)

	cfg := app.NewConfig()
	if err := cfg.LoadEnv(); err != nil {
		logger.Fatalf("environment: %v", err)
	}
	cfg.Bind(flag.CommandLine)
	flag.Parse()

	simName := cfg.Sim
	if cfg.Rules != "" && !flagSet("sim") {
		simName = rulefile.SimName
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := otel.Setup(ctx, "cells")
	if err != nil {
		logger.Printf("tracing disabled: %v", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdown(sctx)
	}()

	sim, err := core.New(simName, cfg.SimConfig())
	if err != nil {
		logger.Fatalf("%v (available: %v)", err, core.Names())
	}
	sim.Reset(cfg.Seed)

	opts := runner.Options{TPS: cfg.TPS, LogEvery: cfg.LogEvery, Logger: logger}

	var hub *stream.Hub
	if cfg.Listen != "" {
		hub, err = stream.NewHub()
		if err != nil {
			logger.Fatalf("stream: %v", err)
		}
		defer hub.Close()
		opts.Publisher = hub
	}

	r := runner.New(sim, opts)

	if hub != nil {
		srv := stream.NewServer(hub, r, logger)
		srv.AllowRemote = cfg.Remote
		ln, err := net.Listen("tcp", cfg.Listen)
		if err != nil {
			logger.Fatalf("listen %s: %v", cfg.Listen, err)
		}
		httpSrv := &http.Server{Handler: srv.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Printf("stream server: %v", err)
			}
		}()
		logger.Printf("streaming on http://%s (bootstrap /bootstrap, frames /ws)", ln.Addr())
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = httpSrv.Shutdown(sctx)
		}()
	}

	if err := r.Run(ctx, cfg.Steps); err != nil && !errors.Is(err, context.Canceled) {
		logger.Printf("run: %v", err)
		return
	}
	logger.Printf("final: %s", runner.FormatHistogram(sim.Grid().Histogram()))
}

func flagSet(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}
