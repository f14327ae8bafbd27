package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ironsheep/pickplace-mcp/internal/config"
	"github.com/ironsheep/pickplace-mcp/internal/logging"
	"github.com/ironsheep/pickplace-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	configPath := ""

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version", "-v", "version":
			fmt.Printf("pickplace-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printUsage()
			return
		case "--config", "-c":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "--config needs a file path")
				os.Exit(2)
			}
			i++
			configPath = args[i]
		default:
			fmt.Fprintf(os.Stderr, "unknown option %q (see --help)\n", args[i])
			os.Exit(2)
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pickplace-mcp: %v\n", err)
		os.Exit(1)
	}

	// stdout is reserved for the MCP protocol
	logger := logging.NewStderr(cfg.LogLevel)
	logger.Debug("starting", "version", Version, "built", BuildTime, "commit", GitCommit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server.Version = Version
	srv := server.New(cfg, logger)
	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("pickplace-mcp - MCP server for pick-and-place object matching")
	fmt.Println()
	fmt.Println("Usage: pickplace-mcp [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --config, -c FILE  Read settings from a YAML file")
	fmt.Println("  --version, -v      Print version information")
	fmt.Println("  --help, -h         Print this help message")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Printf("  %s=FILE     Settings file when --config is not given\n", config.EnvConfig)
	fmt.Printf("  %s=debug Log level (debug, info, warn, error)\n", config.EnvLogLevel)
	fmt.Printf("  %s=FILE     Model store (JSON)\n", config.EnvModels)
	fmt.Println()
	fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
	fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
}
