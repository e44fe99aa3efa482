// Package estimate parses estimate command flags and composes the server.
package estimate

import (
	"context"
	"flag"
	"fmt"
	"time"

	entrypoint "github.com/louisbranch/estimate.space/internal/platform/cmd"
	server "github.com/louisbranch/estimate.space/internal/services/estimate/app"
	"github.com/louisbranch/estimate.space/internal/services/estimate/room"
)

// Config holds estimate command configuration. Env names carry the
// ESTIMATE_SPACE_ prefix.
type Config struct {
	HTTPAddr           string        `env:"HTTP_ADDR"           envDefault:":8090"`
	GRPCAddr           string        `env:"GRPC_ADDR"`
	IdleTimeout        time.Duration `env:"IDLE_TIMEOUT"        envDefault:"10m"`
	ReapInterval       time.Duration `env:"REAP_INTERVAL"       envDefault:"60s"`
	AgreementThreshold float64       `env:"AGREEMENT_THRESHOLD" envDefault:"0.65"`
	DefaultCardSet     string        `env:"DEFAULT_CARD_SET"    envDefault:"1,2,3,5,8,13,21,?"`
	JournalPath        string        `env:"JOURNAL_PATH"`
	MCPEnabled         bool          `env:"MCP_ENABLED"`

	// HealthCheck probes GRPCAddr and exits instead of serving.
	HealthCheck bool
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP and WebSocket listen address")
	fs.StringVar(&cfg.GRPCAddr, "grpc-addr", cfg.GRPCAddr, "gRPC health listen address (empty disables)")
	fs.DurationVar(&cfg.IdleTimeout, "idle-timeout", cfg.IdleTimeout, "close rooms idle for longer than this")
	fs.DurationVar(&cfg.ReapInterval, "reap-interval", cfg.ReapInterval, "how often idle rooms are swept")
	fs.Float64Var(&cfg.AgreementThreshold, "agreement-threshold", cfg.AgreementThreshold, "share of votes needed for agreement")
	fs.StringVar(&cfg.DefaultCardSet, "default-card-set", cfg.DefaultCardSet, "comma separated default card set")
	fs.StringVar(&cfg.JournalPath, "journal-path", cfg.JournalPath, "SQLite journal path (empty disables)")
	fs.BoolVar(&cfg.MCPEnabled, "mcp", cfg.MCPEnabled, "serve the MCP endpoint at /mcp")
	fs.BoolVar(&cfg.HealthCheck, "healthcheck", false, "probe the gRPC health server and exit")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if cfg.IdleTimeout <= 0 {
		return Config{}, fmt.Errorf("idle timeout must be positive, got %s", cfg.IdleTimeout)
	}
	if cfg.ReapInterval <= 0 {
		return Config{}, fmt.Errorf("reap interval must be positive, got %s", cfg.ReapInterval)
	}
	if cfg.AgreementThreshold <= 0 || cfg.AgreementThreshold > 1 {
		return Config{}, fmt.Errorf("agreement threshold must be in (0, 1], got %v", cfg.AgreementThreshold)
	}
	return cfg, nil
}

// ServerConfig maps the command configuration onto the server inputs.
func (c Config) ServerConfig() server.Config {
	return server.Config{
		HTTPAddr:           c.HTTPAddr,
		GRPCAddr:           c.GRPCAddr,
		IdleTimeout:        c.IdleTimeout,
		ReapInterval:       c.ReapInterval,
		AgreementThreshold: c.AgreementThreshold,
		DefaultCardSet:     room.ParseCardSet(c.DefaultCardSet),
		JournalPath:        c.JournalPath,
		MCPEnabled:         c.MCPEnabled,
	}
}

// Run builds the estimate server and serves until ctx ends.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceEstimate, func(ctx context.Context) error {
		return server.Run(ctx, cfg.ServerConfig())
	})
}
