// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package x509crl manages the lifecycle of certificate revocation lists:
// fetching a CRL from its distribution URI, caching it on disk at a path
// derived from the URI, detecting staleness against the list's NextUpdate
// time, and merging multiple lists into one PEM artifact for verification
// engines.
//
// The on-disk cache is shared between processes by design. All writes are
// atomic whole-file replaces and every fetch or merge is idempotent, so
// concurrent runs may duplicate work but never corrupt an artifact.
package x509crl
