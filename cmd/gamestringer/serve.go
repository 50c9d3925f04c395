package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/gamestringer/gamestringer/internal/debug"
	"github.com/gamestringer/gamestringer/internal/games"
	"github.com/gamestringer/gamestringer/internal/mcp"
	"github.com/gamestringer/gamestringer/internal/store"
)

func serveCommand(c *cli.Context) error {
	// The protocol owns stdout and stderr from here on; suppress all
	// debug output to stdio.
	debug.SetMCPMode(true)

	env, err := buildEnv(c)
	if err != nil {
		return err
	}

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if env.cfg.Data.Watch {
		// Losing the watcher only disables cache invalidation on external
		// edits; the server still works without it.
		watcher, werr := store.NewWatcher(env.store)
		if werr != nil {
			debug.LogStore("watcher unavailable: %v\n", werr)
		} else if werr := watcher.Start(ctx); werr != nil {
			debug.LogStore("watcher failed to start: %v\n", werr)
		} else {
			defer watcher.Stop()
		}
	}

	// Game scanners are registered by integrations; the registry starts
	// empty and games_list answers with an empty library.
	registry := games.NewRegistry()

	mcpServer, err := mcp.NewServer(env.engine, env.glossaries, env.translator, registry, env.cfg)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = mcpServer.Shutdown(shutdownCtx)
	}()

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start MCP server in a goroutine
	errChan := make(chan error, 1)
	go func() {
		debug.LogMCP("starting MCP server with stdio transport\n")
		errChan <- mcpServer.Start(ctx)
	}()

	// Wait for either server error or shutdown signal
	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		debug.LogMCP("received signal %v, shutting down gracefully\n", sig)
		cancel()

		// Give the server a moment to shutdown gracefully
		shutdownTimer := time.NewTimer(2 * time.Second)
		defer shutdownTimer.Stop()

		select {
		case err := <-errChan:
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		case <-shutdownTimer.C:
			// Force close stdin to break the stdio transport loop
			os.Stdin.Close()

			forceTimer := time.NewTimer(500 * time.Millisecond)
			defer forceTimer.Stop()

			select {
			case err := <-errChan:
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			case <-forceTimer.C:
				debug.LogMCP("force shutdown timeout exceeded\n")
				return nil
			}
		}
	}
}
