// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/H0llyW00dzZ/x509-trust-verifier/src/version"
	"github.com/mark3labs/mcp-go/server"
)

var serverName = "X509 Trust Verifier" // MCP server name
var appVersion = version.Version       // default version

// GetVersion returns the current version of the MCP server.
//
// The version is initially set to the default from the version package,
// but can be overridden when calling Run() with a specific version string.
func GetVersion() string {
	return appVersion
}

// Run starts the MCP server with X509 trust verification tools.
//
// Run initializes and starts the MCP server with all verification
// capabilities: chain building by issuer fingerprint, purpose verification,
// revocation checking against cached CRLs, CRL cache management, and cache
// statistics. The server supports graceful shutdown on SIGINT and SIGTERM.
//
// Parameters:
//   - version: Version string to set for the server (e.g., "0.1.0")
//
// Returns:
//   - error: Server startup or runtime error, or graceful shutdown signal
//
// Configuration:
//   - Loads config from MCP_X509_TRUST_CONFIG_FILE environment variable
//   - Falls back to default config if environment variable not set
//
// Server Lifecycle:
//  1. Load configuration from environment
//  2. Set up signal handling for graceful shutdown
//  3. Register tools on a new MCP server
//  4. Start stdio server with context cancellation support
//  5. Wait for either server error or shutdown signal
func Run(version string) error {
	// Set the version for GetVersion
	appVersion = version

	// Load configuration
	config, err := loadConfig(os.Getenv("MCP_X509_TRUST_CONFIG_FILE"))
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	// Create MCP server and register tools
	s := server.NewMCPServer(
		serverName,
		appVersion,
		server.WithToolCapabilities(true),
	)
	for _, def := range createTools(config) {
		s.AddTool(def.Tool, def.Handler)
	}

	// Create stdio server to connect with our context
	stdioServer := server.NewStdioServer(s)

	// Start server with graceful shutdown support
	errChan := make(chan error, 1)
	go func() {
		errChan <- stdioServer.Listen(ctx, os.Stdin, os.Stdout)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		// Graceful shutdown triggered by signal
		return fmt.Errorf("server shutdown: %w", ctx.Err())
	}
}
