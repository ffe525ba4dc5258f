package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/devricklin/smart-listener/internal/conf"
	"github.com/devricklin/smart-listener/internal/mcp"
)

// version is set at build time
var version = "dev"

const defaultAPIURL = "http://127.0.0.1:9876"

// gate-mcp serves gate diagnostics to MCP clients over stdio. It talks to a
// running listener through the admin API; stdout belongs to the protocol, so
// logs go to stderr.
func main() {
	_ = godotenv.Load()
	conf.SetupLogging(conf.LogConfig{Level: os.Getenv("LOG_LEVEL"), Console: true})

	apiURL := os.Getenv("LISTENER_API_URL")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	server := mcp.NewServer(mcp.NewClient(apiURL), version)
	log.Info().Str("api", apiURL).Msg("gate MCP server starting on stdio")
	if err := server.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("MCP server failed")
	}
}
