// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
// Use of this source code is governed by a BSD 3-Clause
// license that can be found in the LICENSE file.

// x509-trust-verifier is a command-line tool for building X.509 certificate
// chains by issuer fingerprint, verifying certificates for a declared
// purpose, and checking revocation status against cached CRLs.
//
// # Installation
//
// Install with Go 1.25.5 or later:
//
//	go install github.com/H0llyW00dzZ/x509-trust-verifier/cmd/x509-trust-verifier@latest
//
// # Usage
//
//	x509-trust-verifier -f INPUT_CERT [FLAGS]
//	x509-trust-verifier verify -f INPUT_CERT [FLAGS]
//	x509-trust-verifier crl fetch [URI...] [FLAGS]
//	x509-trust-verifier crl stats
//
// # Flags
//
//	-f, --file        Input certificate file (PEM, DER, or PKCS#7)
//	-r, --remote      Fetch the chain from a remote host (HOST[:PORT])
//	-o, --output      Destination file (default: stdout)
//	    --format      Chain output format: pem, tree, or table
//	-a, --anchors     Trust anchor certificate file(s)
//	    --anchor-dir  Trust anchor directory(ies)
//	    --cache-dir   CRL cache directory
//	    --engine      Verification engine: native or openssl
//	    --openssl     Path to the openssl binary
//	    --timeout     Network timeout for remote fetches and CRL downloads
//
// # Examples
//
// Build a chain from a bundle and render it as an ASCII tree:
//
//	x509-trust-verifier -f bundle.pem --format tree
//
// Verify a certificate for the sslserver purpose:
//
//	x509-trust-verifier verify -f cert.pem -p sslserver -a root.pem
//
// Check the whole chain for revocation using the openssl engine:
//
//	x509-trust-verifier verify -f bundle.pem --crl-all --engine openssl -a root.pem
//
// Prefetch the CRLs named by a certificate's distribution points:
//
//	x509-trust-verifier crl fetch -f cert.pem
package main
