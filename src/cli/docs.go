// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package cli provides the command-line interface for the X.509 trust verifier.
// It implements a Cobra-based CLI that resolves certificate chains by issuer
// fingerprint, verifies certificates for a declared purpose, checks revocation
// status against cached CRLs, and manages the CRL cache. Chains can be read
// from local files (PEM, DER, or PKCS#7) or fetched from a remote TLS peer,
// and rendered as PEM, an ASCII tree, or a Markdown table.
package cli
