// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package x509chain links parsed X.509 certificates into issuer chains.
//
// Certificates are matched by fingerprint: a certificate's authority key
// identifier against a candidate issuer's subject key identifier. Issuer
// links are write-once, so a built chain cannot be corrupted by repeated
// linking. Chain traversal defends against cycles with a visited set even
// though the write-once discipline prevents them by construction.
//
// The package also renders linked chains as ASCII trees and markdown tables,
// and can bootstrap a chain from the certificates a live TLS endpoint
// presents.
package x509chain
