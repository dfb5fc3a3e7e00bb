// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package mcpserver provides the [MCP] server for [X509] certificate trust
// verification. It implements the Model Context Protocol ([MCP]) server with
// tools for building certificate chains by issuer fingerprint, verifying
// certificates for a declared purpose, checking revocation status against
// cached CRLs, fetching CRLs into the cache, and reporting cache statistics.
//
// [X509]: https://grokipedia.com/page/X.509
// [MCP]: https://modelcontextprotocol.io/docs/getting-started/intro
package mcpserver
