// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	x509chain "github.com/H0llyW00dzZ/x509-trust-verifier/src/internal/x509/chain"
	x509crl "github.com/H0llyW00dzZ/x509-trust-verifier/src/internal/x509/crl"
	x509verify "github.com/H0llyW00dzZ/x509-trust-verifier/src/internal/x509/verify"
	"github.com/mark3labs/mcp-go/mcp"
)

// chainReport is the JSON shape of a built certificate chain.
type chainReport struct {
	// Certificates: The chain members in leaf-to-root order when complete,
	// otherwise in input order
	Certificates []certReport `json:"certificates"`
	// Complete: Whether the leaf's ancestry reached a self-signed root
	Complete bool `json:"complete"`
	// Total: Number of certificates in the report
	Total int `json:"total"`
}

// certReport describes one certificate in a chainReport.
type certReport struct {
	Subject              string `json:"subject"`
	Fingerprint          string `json:"fingerprint"`
	IssuerFingerprint    string `json:"issuerFingerprint,omitempty"`
	NotBefore            string `json:"notBefore"`
	NotAfter             string `json:"notAfter"`
	IsCA                 bool   `json:"isCA"`
	SelfSigned           bool   `json:"selfSigned"`
	CRLDistributionPoint string `json:"crlDistributionPoint,omitempty"`
}

// handleBuildCertChain links the supplied certificates into an issuer chain
// and renders the result in the requested format.
//
// Parameters:
//   - ctx: Context for cancellation and timeout handling
//   - request: MCP tool call request containing the certificate bundle and format
//
// Returns:
//   - The tool execution result containing the rendered chain
//   - An error if certificate processing fails
//
// The function supports multiple input formats (file path or base64) and
// output formats (PEM, ASCII tree, Markdown table, JSON). Chains are linked
// by matching each certificate's issuer fingerprint against the others'
// subject fingerprints; an incomplete ancestry is reported, not treated as
// a failure.
func handleBuildCertChain(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	certInput, err := request.RequireString("certificates")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("certificates parameter required: %v", err)), nil
	}

	format := request.GetString("format", "pem")

	certData, err := readCertInput(certInput)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	certs, err := loadSubjects(certData)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to decode certificates: %v", err)), nil
	}

	ordered, err := x509chain.Ancestry(certs[0])
	complete := err == nil
	if err != nil {
		ordered = certs
	}

	var output string
	switch format {
	case "tree":
		output = x509chain.RenderASCIITree(ordered, nil)
	case "table":
		output = x509chain.RenderTable(ordered, nil)
	case "json":
		report := chainReport{
			Certificates: make([]certReport, 0, len(ordered)),
			Complete:     complete,
			Total:        len(ordered),
		}
		for _, c := range ordered {
			entry := certReport{
				Subject:     c.CommonName(),
				Fingerprint: c.FingerprintHex(),
				NotBefore:   c.NotBefore().Format(time.RFC3339),
				NotAfter:    c.NotAfter().Format(time.RFC3339),
				IsCA:        c.IsCA(),
				SelfSigned:  c.IsSelfSigned(),
			}
			if fp := c.IssuerFingerprint(); len(fp) > 0 {
				entry.IssuerFingerprint = hex.EncodeToString(fp)
			}
			if uri, ok := c.CRLDistributionURI(); ok {
				entry.CRLDistributionPoint = uri
			}
			report.Certificates = append(report.Certificates, entry)
		}
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to encode report: %v", err)), nil
		}
		output = string(data)
	default: // pem
		var sb strings.Builder
		for _, c := range ordered {
			sb.Write(c.EncodePEM())
		}
		output = sb.String()
	}

	chainInfo := "Certificate chain built successfully:\n"
	for i, c := range ordered {
		chainInfo += fmt.Sprintf("%d: %s\n", i+1, c.CommonName())
	}
	if !complete {
		chainInfo += "\nWarning: the chain is incomplete (no path to a self-signed root)\n"
	}
	chainInfo += fmt.Sprintf("\nTotal: %d certificate(s)\n\n", len(ordered))
	chainInfo += output

	return mcp.NewToolResultText(chainInfo), nil
}

// handleCheckCertPurpose verifies a certificate for a declared purpose
// against the configured trust anchors.
//
// Parameters:
//   - ctx: Context for cancellation and timeout handling
//   - request: MCP tool call request containing the certificate and purpose
//   - config: The server configuration (anchors, engine, cache)
//
// Returns:
//   - The tool execution result with the verdict
//   - An error if certificate processing fails
//
// A false verdict means the certificate is definitively not certified for
// the purpose. Faults, where no verdict could be reached, are reported as
// tool errors instead.
func handleCheckCertPurpose(ctx context.Context, request mcp.CallToolRequest, config *Config) (*mcp.CallToolResult, error) {
	certInput, err := request.RequireString("certificate")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("certificate parameter required: %v", err)), nil
	}

	purposeName := request.GetString("purpose", config.Defaults.Purpose)
	purpose, err := x509verify.ParsePurpose(purposeName)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	certData, err := readCertInput(certInput)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	certs, err := loadSubjects(certData)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to decode certificate: %v", err)), nil
	}
	leaf := certs[0]

	verifier, err := verifierFromConfig(config)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	ok, err := verifier.CheckPurpose(ctx, leaf, purpose)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("purpose verification fault: %v", err)), nil
	}

	result := fmt.Sprintf("Certificate: %s\n", leaf.CommonName())
	result += fmt.Sprintf("Purpose: %s\n", purpose)
	if ok {
		result += "Verdict: certified ✓\n"
	} else {
		result += "Verdict: NOT certified ✗\n"
	}
	result += fmt.Sprintf("Validity: %s to %s\n",
		leaf.NotBefore().Format("2006-01-02"), leaf.NotAfter().Format("2006-01-02"))

	return mcp.NewToolResultText(result), nil
}

// handleCheckCertRevocation checks a certificate's revocation status against
// the CRLs named by its distribution points, using the cache.
//
// Parameters:
//   - ctx: Context for cancellation and timeout handling
//   - request: MCP tool call request containing the certificate and scope
//   - config: The server configuration (anchors, engine, cache, timeout)
//
// Returns:
//   - The tool execution result with the verdict
//   - An error if certificate processing fails
//
// With check_all enabled the certificate's whole ancestry is walked and each
// member's CRL is consulted; an incomplete ancestry is a fault, never a
// clean verdict.
func handleCheckCertRevocation(ctx context.Context, request mcp.CallToolRequest, config *Config) (*mcp.CallToolResult, error) {
	certInput, err := request.RequireString("certificate")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("certificate parameter required: %v", err)), nil
	}

	checkAll := request.GetBool("check_all", config.Defaults.CheckAllCRLs)

	certData, err := readCertInput(certInput)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	certs, err := loadSubjects(certData)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to decode certificate: %v", err)), nil
	}
	leaf := certs[0]

	verifier, err := verifierFromConfig(config)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	ok, err := verifier.CheckCRL(ctx, leaf, checkAll)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("revocation check fault: %v", err)), nil
	}

	scope := "leaf"
	if checkAll {
		scope = "full chain"
	}
	result := fmt.Sprintf("Certificate: %s\n", leaf.CommonName())
	result += fmt.Sprintf("Scope: %s\n", scope)
	if ok {
		result += "Verdict: not revoked ✓\n"
	} else {
		result += "Verdict: REVOKED ✗\n"
	}

	return mcp.NewToolResultText(result), nil
}

// handleFetchCRL downloads a CRL from a distribution point URI into the
// cache and reports its metadata.
//
// Parameters:
//   - ctx: Context for cancellation and timeout handling
//   - request: MCP tool call request containing the URI and force flag
//   - config: The server configuration (cache directory, timeout)
//
// Returns:
//   - The tool execution result with the cached CRL's metadata
//   - An error if the fetch or parse fails
func handleFetchCRL(ctx context.Context, request mcp.CallToolRequest, config *Config) (*mcp.CallToolResult, error) {
	uri, err := request.RequireString("uri")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("uri parameter required: %v", err)), nil
	}

	force := request.GetBool("force", false)

	list := x509crl.NewList(uri, x509crl.WithCacheDir(config.Cache.Dir))
	if err := list.Refresh(ctx, force); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to fetch CRL: %v", err)), nil
	}

	number, err := list.Number(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read CRL metadata: %v", err)), nil
	}
	issuer, err := list.Issuer(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read CRL metadata: %v", err)), nil
	}
	lastUpdate, err := list.LastUpdate(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read CRL metadata: %v", err)), nil
	}
	nextUpdate, err := list.NextUpdate(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read CRL metadata: %v", err)), nil
	}
	fingerprint, err := list.Fingerprint(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read CRL metadata: %v", err)), nil
	}

	result := fmt.Sprintf("CRL fetched: %s\n\n", uri)
	result += fmt.Sprintf("Cached at: %s\n", list.CachePath())
	result += fmt.Sprintf("Issuer: %s\n", issuer)
	result += fmt.Sprintf("Number: %s\n", number)
	result += fmt.Sprintf("Last update: %s\n", lastUpdate.Format(time.RFC3339))
	result += fmt.Sprintf("Next update: %s\n", nextUpdate.Format(time.RFC3339))
	result += fmt.Sprintf("Fingerprint: %s\n", fingerprint)

	return mcp.NewToolResultText(result), nil
}

// handleGetCRLCacheStats reports process-wide CRL cache statistics.
//
// Parameters:
//   - ctx: Context for cancellation and timeout handling
//   - request: MCP tool call request containing the output format
//
// Returns:
//   - The tool execution result with the statistics in text or JSON form
//   - An error only if JSON encoding fails
func handleGetCRLCacheStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	format := request.GetString("format", "text")

	if format == "json" {
		m := x509crl.GetMetrics()
		data, err := json.MarshalIndent(map[string]int64{
			"fetches":   m.Fetches,
			"refreshes": m.Refreshes,
			"reuses":    m.Reuses,
			"rebuilds":  m.Rebuilds,
		}, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to encode stats: %v", err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}

	return mcp.NewToolResultText(x509crl.GetCacheStats()), nil
}
