// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	x509certs "github.com/H0llyW00dzZ/x509-trust-verifier/src/internal/x509/certs"
	x509chain "github.com/H0llyW00dzZ/x509-trust-verifier/src/internal/x509/chain"
	x509verify "github.com/H0llyW00dzZ/x509-trust-verifier/src/internal/x509/verify"
)

// errBadCertInput reports that a tool's certificate argument was neither a
// readable file path nor valid base64 data.
var errBadCertInput = errors.New("failed to read certificate: not a valid file path or base64 data")

// readCertInput resolves a tool's certificate argument into raw bytes.
// It tries the input as a file path first, then as base64-encoded data.
func readCertInput(input string) ([]byte, error) {
	if data, err := os.ReadFile(input); err == nil {
		return data, nil
	}
	if decoded, err := base64.StdEncoding.DecodeString(input); err == nil {
		return decoded, nil
	}
	return nil, errBadCertInput
}

// loadSubjects decodes the certificate bytes and links issuers by fingerprint.
// The leaf is always the first element.
func loadSubjects(data []byte) ([]*x509chain.Cert, error) {
	raw, err := x509certs.New().DecodeMultiple(data)
	if err != nil {
		return nil, err
	}

	certs := make([]*x509chain.Cert, 0, len(raw))
	for _, c := range raw {
		certs = append(certs, x509chain.NewCert(c))
	}
	x509chain.Build(certs)
	return certs, nil
}

// verifierFromConfig assembles a verifier from the server configuration:
// trust anchors, engine selection, cache directory, and network timeout.
func verifierFromConfig(config *Config) (*x509verify.Verifier, error) {
	anchors := x509verify.Anchors{
		Files: config.Anchors.Files,
		Dirs:  config.Anchors.Dirs,
	}

	var engine x509verify.Engine
	switch config.Engine.Type {
	case "", "native":
		engine = x509verify.NativeEngine{}
	case "openssl":
		engine = &x509verify.OpenSSLEngine{Binary: config.Engine.OpenSSLBinary}
	default:
		return nil, fmt.Errorf("unknown engine %q (expected native or openssl)", config.Engine.Type)
	}

	verifier := x509verify.New(anchors, engine, config.Cache.Dir)
	verifier.HTTPClient = &http.Client{Timeout: configTimeout(config)}
	return verifier, nil
}

// configTimeout returns the configured network timeout as a duration.
func configTimeout(config *Config) time.Duration {
	return time.Duration(config.Defaults.TimeoutSeconds) * time.Second
}
