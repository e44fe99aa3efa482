// Package main starts the estimate service and handles termination.
//
// With -healthcheck the binary probes a running instance's gRPC health
// endpoint and exits, which lets container health checks reuse the image.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	estimatecmd "github.com/louisbranch/estimate.space/internal/cmd/estimate"
	"github.com/louisbranch/estimate.space/internal/platform/config"
	platformgrpc "github.com/louisbranch/estimate.space/internal/platform/grpc"
	"github.com/louisbranch/estimate.space/internal/platform/timeouts"
)

func main() {
	cfg, err := estimatecmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf(config.ExitUsage, "parse flags: %v", err)
	}
	log.SetPrefix("[ESTIMATE] ")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.HealthCheck {
		if cfg.GRPCAddr == "" {
			config.Exitf(config.ExitUsage, "healthcheck requires -grpc-addr")
		}
		if err := platformgrpc.Probe(ctx, cfg.GRPCAddr, timeouts.GRPCDial, log.Printf); err != nil {
			config.Exitf(config.ExitFailure, "healthcheck: %v", err)
		}
		return
	}

	if err := estimatecmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
