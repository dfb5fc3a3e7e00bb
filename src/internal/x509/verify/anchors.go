// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509verify

import (
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"

	x509certs "github.com/H0llyW00dzZ/x509-trust-verifier/src/internal/x509/certs"
)

// Anchors names the file and directory paths holding trusted root and
// intermediate certificates. The paths are passed opaquely to verification
// engines; Load materializes them into a certificate pool for native
// verification.
type Anchors struct {
	// Files are paths to PEM or DER certificate bundles.
	Files []string
	// Dirs are directories scanned non-recursively for certificate files.
	Dirs []string
}

// WithFile returns a copy of the anchors with an extra bundle file appended.
func (a Anchors) WithFile(path string) Anchors {
	files := make([]string, 0, len(a.Files)+1)
	files = append(files, a.Files...)
	files = append(files, path)
	return Anchors{Files: files, Dirs: a.Dirs}
}

// IsEmpty reports whether no anchor paths are configured.
func (a Anchors) IsEmpty() bool { return len(a.Files) == 0 && len(a.Dirs) == 0 }

// Load reads every configured path into a certificate pool.
//
// Unreadable paths and unparsable files fail the load; an engine given a
// partial anchor set could silently distrust a valid chain.
func (a Anchors) Load() (*x509.CertPool, error) {
	pool := x509.NewCertPool()
	decoder := x509certs.New()

	addFile := func(path string) error {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("%w: reading anchor %s: %v", ErrEngine, path, err)
		}

		if decoder.IsPEM(data) {
			// Combined revocation artifacts ride along in the anchor file
			// list for engine use; their blocks are not anchors.
			for len(data) > 0 {
				block, rest := pem.Decode(data)
				if block == nil {
					break
				}
				data = rest

				if block.Type != "CERTIFICATE" {
					continue
				}
				cert, err := x509.ParseCertificate(block.Bytes)
				if err != nil {
					return fmt.Errorf("%w: parsing anchor %s: %v", ErrEngine, path, err)
				}
				pool.AddCert(cert)
			}
			return nil
		}

		certs, err := decoder.DecodeMultiple(data)
		if err != nil {
			return fmt.Errorf("%w: parsing anchor %s: %v", ErrEngine, path, err)
		}
		for _, cert := range certs {
			pool.AddCert(cert)
		}
		return nil
	}

	for _, file := range a.Files {
		if err := addFile(file); err != nil {
			return nil, err
		}
	}

	for _, dir := range a.Dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("%w: reading anchor dir %s: %v", ErrEngine, dir, err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if err := addFile(filepath.Join(dir, entry.Name())); err != nil {
				return nil, err
			}
		}
	}

	return pool, nil
}
