// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xeipuuv/gojsonschema"

	x509certs "github.com/H0llyW00dzZ/x509-trust-verifier/src/internal/x509/certs"
)

// chainReportSchema pins the JSON shape emitted by build_cert_chain.
const chainReportSchema = `{
	"type": "object",
	"required": ["certificates", "complete", "total"],
	"properties": {
		"complete": {"type": "boolean"},
		"total": {"type": "integer", "minimum": 1},
		"certificates": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["subject", "fingerprint", "notBefore", "notAfter", "isCA", "selfSigned"],
				"properties": {
					"subject": {"type": "string"},
					"fingerprint": {"type": "string", "pattern": "^[0-9a-f]+$"},
					"issuerFingerprint": {"type": "string", "pattern": "^[0-9a-f]+$"},
					"notBefore": {"type": "string", "format": "date-time"},
					"notAfter": {"type": "string", "format": "date-time"},
					"isCA": {"type": "boolean"},
					"selfSigned": {"type": "boolean"},
					"crlDistributionPoint": {"type": "string"}
				}
			}
		}
	}
}`

// newTestBundle generates a root and leaf pair and returns their combined
// PEM bundle.
func newTestBundle(t *testing.T) []byte {
	t.Helper()

	rootKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	rootTmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "Tool Test Root CA"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		SubjectKeyId:          []byte{0xA0, 0x10},
		BasicConstraintsValid: true,
		IsCA:                  true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
	}
	rootDER, err := x509.CreateCertificate(rand.Reader, rootTmpl, rootTmpl, &rootKey.PublicKey, rootKey)
	require.NoError(t, err)
	rootCert, err := x509.ParseCertificate(rootDER)
	require.NoError(t, err)

	leafKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	leafTmpl := &x509.Certificate{
		SerialNumber: big.NewInt(2),
		Subject:      pkix.Name{CommonName: "tool.example.com"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		SubjectKeyId: []byte{0xC0, 0x10},
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	leafDER, err := x509.CreateCertificate(rand.Reader, leafTmpl, rootCert, &leafKey.PublicKey, rootKey)
	require.NoError(t, err)
	leafCert, err := x509.ParseCertificate(leafDER)
	require.NoError(t, err)

	return x509certs.New().EncodeMultiplePEM([]*x509.Certificate{leafCert, rootCert})
}

// callTool builds a CallToolRequest with the given arguments.
func callTool(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

// resultText extracts the text payload of a tool result.
func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content, "tool result has no content")
	tc, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "tool result content is not text")
	return tc.Text
}

func TestCreateTools(t *testing.T) {
	config, err := loadConfig("")
	require.NoError(t, err)

	tools := createTools(config)
	require.Len(t, tools, 5, "expected five tool definitions")

	names := make(map[string]bool)
	for _, def := range tools {
		names[def.Tool.Name] = true
		assert.NotNil(t, def.Handler, "tool %s has no handler", def.Tool.Name)
	}

	for _, want := range []string{
		"build_cert_chain", "check_cert_purpose", "check_cert_revocation",
		"fetch_crl", "get_crl_cache_stats",
	} {
		assert.True(t, names[want], "missing tool %s", want)
	}
}

func TestHandleBuildCertChain(t *testing.T) {
	ctx := context.Background()
	bundle := newTestBundle(t)

	t.Run("From File PEM", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bundle.pem")
		require.NoError(t, os.WriteFile(path, bundle, 0o644))

		result, err := handleBuildCertChain(ctx, callTool("build_cert_chain", map[string]any{
			"certificates": path,
		}))
		require.NoError(t, err)
		require.False(t, result.IsError, "unexpected tool error: %s", resultText(t, result))

		text := resultText(t, result)
		assert.Contains(t, text, "tool.example.com", "output should name the leaf")
		assert.Contains(t, text, "Tool Test Root CA", "output should name the root")
		assert.Contains(t, text, "-----BEGIN CERTIFICATE-----", "pem format expected by default")
		assert.NotContains(t, text, "incomplete", "the bundle forms a complete chain")
	})

	t.Run("From Base64 JSON Matches Schema", func(t *testing.T) {
		result, err := handleBuildCertChain(ctx, callTool("build_cert_chain", map[string]any{
			"certificates": base64.StdEncoding.EncodeToString(bundle),
			"format":       "json",
		}))
		require.NoError(t, err)
		require.False(t, result.IsError, "unexpected tool error: %s", resultText(t, result))

		text := resultText(t, result)
		start := strings.Index(text, "{")
		require.Greater(t, start, -1, "no JSON object in output")

		validation, err := gojsonschema.Validate(
			gojsonschema.NewStringLoader(chainReportSchema),
			gojsonschema.NewStringLoader(text[start:]),
		)
		require.NoError(t, err, "schema validation error")
		assert.True(t, validation.Valid(), "report does not match schema: %v", validation.Errors())
	})

	t.Run("Tree Format", func(t *testing.T) {
		result, err := handleBuildCertChain(ctx, callTool("build_cert_chain", map[string]any{
			"certificates": base64.StdEncoding.EncodeToString(bundle),
			"format":       "tree",
		}))
		require.NoError(t, err)
		require.False(t, result.IsError)

		assert.Contains(t, resultText(t, result), "tool.example.com")
	})

	t.Run("Missing Parameter", func(t *testing.T) {
		result, err := handleBuildCertChain(ctx, callTool("build_cert_chain", map[string]any{}))
		require.NoError(t, err, "parameter errors are tool results, not handler errors")
		assert.True(t, result.IsError, "expected a tool error for the missing parameter")
	})

	t.Run("Invalid Input", func(t *testing.T) {
		result, err := handleBuildCertChain(ctx, callTool("build_cert_chain", map[string]any{
			"certificates": "!!!not-a-path-or-base64!!!",
		}))
		require.NoError(t, err)
		assert.True(t, result.IsError, "expected a tool error for unusable input")
	})
}

func TestHandleGetCRLCacheStats(t *testing.T) {
	ctx := context.Background()

	t.Run("Text", func(t *testing.T) {
		result, err := handleGetCRLCacheStats(ctx, callTool("get_crl_cache_stats", map[string]any{}))
		require.NoError(t, err)
		require.False(t, result.IsError)

		assert.Contains(t, resultText(t, result), "CRL Cache Statistics", "stats header missing")
	})

	t.Run("JSON", func(t *testing.T) {
		result, err := handleGetCRLCacheStats(ctx, callTool("get_crl_cache_stats", map[string]any{
			"format": "json",
		}))
		require.NoError(t, err)
		require.False(t, result.IsError)

		text := resultText(t, result)
		for _, key := range []string{"fetches", "refreshes", "reuses", "rebuilds"} {
			assert.Contains(t, text, key, "stats JSON missing %s", key)
		}
	})
}

func TestVerifierFromConfig(t *testing.T) {
	t.Run("Native", func(t *testing.T) {
		config, err := loadConfig("")
		require.NoError(t, err)

		verifier, err := verifierFromConfig(config)
		require.NoError(t, err)
		assert.NotNil(t, verifier)
	})

	t.Run("Unknown Engine", func(t *testing.T) {
		config, err := loadConfig("")
		require.NoError(t, err)
		config.Engine.Type = "gnutls"

		_, err = verifierFromConfig(config)
		assert.Error(t, err, "expected error for unknown engine type")
	})
}

func TestReadCertInput(t *testing.T) {
	t.Run("File Path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "data.bin")
		require.NoError(t, os.WriteFile(path, []byte("payload"), 0o644))

		data, err := readCertInput(path)
		require.NoError(t, err)
		assert.Equal(t, []byte("payload"), data)
	})

	t.Run("Base64", func(t *testing.T) {
		data, err := readCertInput(base64.StdEncoding.EncodeToString([]byte("payload")))
		require.NoError(t, err)
		assert.Equal(t, []byte("payload"), data)
	})

	t.Run("Neither", func(t *testing.T) {
		_, err := readCertInput("!!!neither!!!")
		assert.ErrorIs(t, err, errBadCertInput)
	})
}
