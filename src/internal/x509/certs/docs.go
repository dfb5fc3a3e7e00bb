// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package x509certs provides decoding and encoding of X.509 certificates.
// It accepts PEM, DER, and PKCS7 input, and emits the PEM artifact format
// expected by external verification engines (64-column body, CRLF line
// endings, trailing blank line).
package x509certs
