// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// ToolDefinition pairs an MCP tool description with its handler so that the
// server can register both in a single pass.
type ToolDefinition struct {
	// Tool: The MCP tool metadata (name, description, parameters)
	Tool mcp.Tool
	// Handler: The function invoked when the tool is called
	Handler func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// createTools creates and returns all MCP tool definitions with their handlers.
// Handlers that depend on server configuration (anchors, engine, cache, timeouts)
// capture it by closure.
//
// Parameters:
//   - config: The loaded server configuration
//
// Returns:
//   - A slice of ToolDefinition covering every tool the server exposes
//
// The function defines the following tools:
//   - build_cert_chain: Links certificates into an issuer chain and renders it
//   - check_cert_purpose: Verifies a certificate for a declared purpose
//   - check_cert_revocation: Checks revocation status against cached CRLs
//   - fetch_crl: Downloads a CRL into the cache and reports its metadata
//   - get_crl_cache_stats: Reports process-wide CRL cache statistics
//
// Each tool includes proper parameter definitions, descriptions, and default values
// as required by the MCP specification.
func createTools(config *Config) []ToolDefinition {
	return []ToolDefinition{
		{
			Tool: mcp.NewTool("build_cert_chain",
				mcp.WithDescription("Build a X509 certificate chain by matching issuer fingerprints across the supplied certificates"),
				mcp.WithString("certificates",
					mcp.Required(),
					mcp.Description("Certificate bundle file path or base64-encoded certificate data (PEM, DER, or PKCS#7)"),
				),
				mcp.WithString("format",
					mcp.Description("Output format: 'pem', 'tree', 'table', or 'json' (default: pem)"),
					mcp.DefaultString("pem"),
				),
			),
			Handler: func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleBuildCertChain(ctx, request)
			},
		},
		{
			Tool: mcp.NewTool("check_cert_purpose",
				mcp.WithDescription("Verify a X509 certificate for a declared purpose against the configured trust anchors"),
				mcp.WithString("certificate",
					mcp.Required(),
					mcp.Description("Certificate file path or base64-encoded certificate data"),
				),
				mcp.WithString("purpose",
					mcp.Description("Purpose to verify: 'any', 'sslclient', 'sslserver', 'smimesign', 'smimeencrypt', 'crlsign' (default: "+config.Defaults.Purpose+")"),
					mcp.DefaultString(config.Defaults.Purpose),
				),
			),
			Handler: func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleCheckCertPurpose(ctx, request, config)
			},
		},
		{
			Tool: mcp.NewTool("check_cert_revocation",
				mcp.WithDescription("Check a X509 certificate's revocation status against its CRL distribution points"),
				mcp.WithString("certificate",
					mcp.Required(),
					mcp.Description("Certificate file path or base64-encoded certificate data; include issuers for a full-chain check"),
				),
				mcp.WithBoolean("check_all",
					mcp.Description("Check every certificate in the chain against its CRL (default: "+fmt.Sprintf("%v", config.Defaults.CheckAllCRLs)+")"),
					mcp.DefaultBool(config.Defaults.CheckAllCRLs),
				),
			),
			Handler: func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleCheckCertRevocation(ctx, request, config)
			},
		},
		{
			Tool: mcp.NewTool("fetch_crl",
				mcp.WithDescription("Fetch a CRL from a distribution point URI into the cache and report its metadata"),
				mcp.WithString("uri",
					mcp.Required(),
					mcp.Description("CRL distribution point URI"),
				),
				mcp.WithBoolean("force",
					mcp.Description("Refetch even if the cached copy is still fresh (default: false)"),
					mcp.DefaultBool(false),
				),
			),
			Handler: func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleFetchCRL(ctx, request, config)
			},
		},
		{
			Tool: mcp.NewTool("get_crl_cache_stats",
				mcp.WithDescription("Get CRL cache statistics: fetches, refreshes, artifact reuses and rebuilds"),
				mcp.WithString("format",
					mcp.Description("Output format: 'text' or 'json' (default: 'text')"),
					mcp.DefaultString("text"),
				),
			),
			Handler: handleGetCRLCacheStats,
		},
	}
}
