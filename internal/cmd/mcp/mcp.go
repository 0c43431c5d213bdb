// Package mcp parses MCP command flags and selects stdio or HTTP transport.
package mcp

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/loda-lang/loda-mcp/internal/lodaapi"
	"github.com/loda-lang/loda-mcp/internal/platform/config"
	"github.com/loda-lang/loda-mcp/internal/platform/otel"
	"github.com/loda-lang/loda-mcp/internal/services/mcp/service"
)

// Config holds MCP command configuration. A positive Port selects HTTP
// transport on localhost; zero selects stdio.
type Config struct {
	APIBaseURL string `env:"LODA_API_BASE_URL" envDefault:"https://api.loda-lang.org/v2"`
	Port       int    `env:"LODA_MCP_PORT"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	fs.IntVar(&cfg.Port, "port", cfg.Port, "HTTP port (omit for stdio transport)")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = lodaapi.DefaultBaseURL
	}
	if cfg.Port < 0 {
		return Config{}, fmt.Errorf("port must not be negative, got %d", cfg.Port)
	}
	return cfg, nil
}

// Run starts the MCP protocol adapter.
func Run(ctx context.Context, cfg Config) error {
	shutdown, err := otel.Setup(ctx, "mcp")
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Printf("otel shutdown: %v", err)
		}
	}()

	serviceCfg := service.Config{
		APIBaseURL: cfg.APIBaseURL,
		Transport:  service.TransportStdio,
	}
	if cfg.Port > 0 {
		serviceCfg.Transport = service.TransportHTTP
		serviceCfg.HTTPAddr = fmt.Sprintf("localhost:%d", cfg.Port)
	}
	return service.Run(ctx, serviceCfg)
}
