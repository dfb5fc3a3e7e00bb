// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package x509verify certifies certificates for a declared purpose and
// checks revocation status across a linked issuer chain.
//
// Verification is delegated to an [Engine]: either the openssl verify
// command (interpreting its textual success marker) or a pure-Go equivalent.
// Trust anchors are caller-supplied file and directory paths; revocation
// input is a combined CRL artifact produced by the x509crl package.
//
// Boolean results are strict: false means definitively untrusted or
// revoked, while an inability to decide (an unreachable engine, an
// incomplete issuer chain) is always an error. Callers must treat such
// errors as "could not determine", never as implicit denial or grant.
package x509verify
