package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ironsheep/pixel-tools-mcp/internal/config"
	"github.com/ironsheep/pixel-tools-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("pixel-tools-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("pixel-tools-mcp - MCP server for pixel art and color analysis")
			fmt.Println()
			fmt.Println("Usage: pixel-tools-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables (also read from ./.env):")
			fmt.Printf("  %s=debug         Log level: debug, info, warn, error\n", config.EnvLogLevel)
			fmt.Printf("  %s=1               Goroutines for convolution and clustering\n", config.EnvWorkers)
			fmt.Printf("  %s=300      Clustering iteration cap\n", config.EnvMaxIterations)
			fmt.Printf("  %s=0                  Fixed clustering seed (0 = random)\n", config.EnvSeed)
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	// stdout is for MCP protocol
	logger := cfg.Logger(os.Stderr)
	logger.Debug("starting", "version", Version, "built", BuildTime, "commit", GitCommit,
		"workers", cfg.Workers, "max_iterations", cfg.MaxIterations)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server.Version = Version
	srv := server.New(cfg, logger)
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("server error", slog.Any("error", err))
		stop()
		os.Exit(1)
	}
}
