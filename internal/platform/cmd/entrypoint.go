// Package cmd holds the startup plumbing shared by service commands.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/louisbranch/estimate.space/internal/platform/config"
	"github.com/louisbranch/estimate.space/internal/platform/otel"
	"github.com/louisbranch/estimate.space/internal/platform/timeouts"
)

// ServiceEstimate names the estimation service in telemetry and logs.
const ServiceEstimate = "estimate"

// ParseConfig loads ESTIMATE_SPACE_* environment values into cfg. Flags
// registered afterwards default to these values.
func ParseConfig[T any](cfg *T) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	return config.ParseEnv(cfg)
}

// ParseArgs parses command-line flags. Positional arguments are rejected.
func ParseArgs(fs *flag.FlagSet, args []string) error {
	if fs == nil {
		return errors.New("flag parser is required")
	}
	if err := fs.Parse(append([]string{}, args...)); err != nil {
		return err
	}
	if extra := fs.Args(); len(extra) > 0 {
		return fmt.Errorf("unexpected arguments: %s", strings.Join(extra, " "))
	}
	return nil
}

// RunWithTelemetry sets up tracing, runs the service loop and flushes spans
// within timeouts.Shutdown once run returns. A run that ends because ctx was
// cancelled counts as a clean stop.
func RunWithTelemetry(ctx context.Context, service string, run func(context.Context) error) error {
	service = strings.TrimSpace(service)
	if service == "" {
		return errors.New("service name is required")
	}
	if run == nil {
		return errors.New("run function is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	shutdown, err := otel.Setup(ctx, service)
	if err != nil {
		return fmt.Errorf("%s telemetry: %w", service, err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Printf("%s otel shutdown: %v", service, err)
		}
	}()

	started := time.Now()
	err = run(ctx)
	log.Printf("%s stopped after %s", service, time.Since(started).Round(time.Second))
	if err != nil && errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return nil
	}
	return err
}
