// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509verify

import (
	"bytes"
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	x509certs "github.com/H0llyW00dzZ/x509-trust-verifier/src/internal/x509/certs"
	x509crl "github.com/H0llyW00dzZ/x509-trust-verifier/src/internal/x509/crl"
)

var (
	// ErrEngine indicates that the verification engine could not be invoked
	// or could not produce a determination. It is distinct from a clean
	// "untrusted" result: a caller must never treat it as either denial or
	// grant.
	ErrEngine = errors.New("x509verify: verification engine failure")
)

// Engine abstracts the external verification mechanism consulted for
// any-purpose checks and revocation checks.
//
// Both methods return a strict boolean: false is a definitive "untrusted",
// while an inability to decide surfaces as an error wrapping [ErrEngine].
type Engine interface {
	// VerifyAnyPurpose reports whether the leaf certificate at leafPath
	// chains to the anchors, ignoring purpose restrictions.
	VerifyAnyPurpose(ctx context.Context, leafPath string, anchors Anchors) (bool, error)

	// VerifyChainCRL reports whether the leaf certificate at leafPath chains
	// to the anchors and is unrevoked per the combined revocation list
	// artifact at crlPath. With all set, every certificate in the chain is
	// checked against the lists; otherwise only the leaf.
	VerifyChainCRL(ctx context.Context, leafPath string, anchors Anchors, crlPath string, all bool) (bool, error)
}

// OpenSSLEngine shells out to the openssl verify command.
//
// Success is read from the first line of output: the marker the command
// prints for a verified certificate is "<path>: OK". Anything else is a
// clean false. This marker has been stable across OpenSSL releases, but it
// is a textual contract; a changed message format would read as untrusted,
// never as trusted.
type OpenSSLEngine struct {
	// Binary is the openssl executable. Empty means "openssl" on PATH.
	Binary string
}

// binary returns the configured executable name.
func (e *OpenSSLEngine) binary() string {
	if e.Binary != "" {
		return e.Binary
	}
	return "openssl"
}

// VerifyAnyPurpose runs openssl verify without a purpose restriction.
func (e *OpenSSLEngine) VerifyAnyPurpose(ctx context.Context, leafPath string, anchors Anchors) (bool, error) {
	args, cleanup, err := e.anchorArgs(anchors)
	if err != nil {
		return false, err
	}
	defer cleanup()
	args = append(args, leafPath)

	return e.run(ctx, leafPath, args)
}

// VerifyChainCRL runs openssl verify in CRL-check mode against the combined
// artifact.
func (e *OpenSSLEngine) VerifyChainCRL(ctx context.Context, leafPath string, anchors Anchors, crlPath string, all bool) (bool, error) {
	args, cleanup, err := e.anchorArgs(anchors)
	if err != nil {
		return false, err
	}
	defer cleanup()

	if all {
		args = append(args, "-crl_check_all")
	} else {
		args = append(args, "-crl_check")
	}
	args = append(args, "-CRLfile", crlPath, leafPath)

	return e.run(ctx, leafPath, args)
}

// anchorArgs translates the anchor paths into openssl verify arguments.
// Multiple bundle files are merged into one temporary -CAfile, since the
// command accepts only a single one. The returned cleanup removes that
// temporary bundle and must be called once the command has run.
func (e *OpenSSLEngine) anchorArgs(anchors Anchors) ([]string, func(), error) {
	args := []string{"verify"}
	cleanup := func() {}

	for _, dir := range anchors.Dirs {
		args = append(args, "-CApath", dir)
	}

	switch len(anchors.Files) {
	case 0:
	case 1:
		args = append(args, "-CAfile", anchors.Files[0])
	default:
		var bundle []byte
		for _, file := range anchors.Files {
			data, err := os.ReadFile(file)
			if err != nil {
				return nil, cleanup, fmt.Errorf("%w: reading anchor %s: %v", ErrEngine, file, err)
			}
			bundle = append(bundle, data...)
		}

		tmp, err := os.CreateTemp("", "anchors-*.pem")
		if err != nil {
			return nil, cleanup, fmt.Errorf("%w: %v", ErrEngine, err)
		}
		if _, err := tmp.Write(bundle); err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
			return nil, cleanup, fmt.Errorf("%w: %v", ErrEngine, err)
		}
		tmp.Close()

		cleanup = func() { os.Remove(tmp.Name()) }
		args = append(args, "-CAfile", tmp.Name())
	}

	return args, cleanup, nil
}

// run executes the command and interprets the first output line.
func (e *OpenSSLEngine) run(ctx context.Context, leafPath string, args []string) (bool, error) {
	cmd := exec.CommandContext(ctx, e.binary(), args...)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	// The command exits non-zero for an untrusted certificate, which is a
	// normal outcome here, not an engine failure.
	runErr := cmd.Run()
	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return false, fmt.Errorf("%w: %v", ErrEngine, runErr)
		}
	}

	firstLine, _, _ := strings.Cut(out.String(), "\n")
	return strings.TrimSpace(firstLine) == leafPath+": OK", nil
}

// NativeEngine verifies chains in-process with the standard library instead
// of an external binary. Revocation is decided by scanning the combined
// artifact's revoked serial numbers against the verified chain.
type NativeEngine struct{}

// VerifyAnyPurpose verifies the leaf against the anchors with no purpose
// restriction.
func (NativeEngine) VerifyAnyPurpose(ctx context.Context, leafPath string, anchors Anchors) (bool, error) {
	leaf, pool, err := loadLeafAndPool(leafPath, anchors)
	if err != nil {
		return false, err
	}

	_, err = leaf.Verify(x509.VerifyOptions{
		Roots:     pool,
		KeyUsages: []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
	})
	return err == nil, nil
}

// VerifyChainCRL verifies the leaf against the anchors and checks the
// resulting chain against the revocation lists in the combined artifact.
func (NativeEngine) VerifyChainCRL(ctx context.Context, leafPath string, anchors Anchors, crlPath string, all bool) (bool, error) {
	leaf, pool, err := loadLeafAndPool(leafPath, anchors)
	if err != nil {
		return false, err
	}

	chains, err := leaf.Verify(x509.VerifyOptions{
		Roots:     pool,
		KeyUsages: []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
	})
	if err != nil {
		return false, nil
	}

	lists, err := parseCombined(crlPath)
	if err != nil {
		return false, err
	}

	subjects := chains[0][:1]
	if all {
		subjects = chains[0]
	}

	for _, cert := range subjects {
		for _, list := range lists {
			for _, entry := range list.RevokedCertificateEntries {
				if entry.SerialNumber.Cmp(cert.SerialNumber) == 0 {
					return false, nil
				}
			}
		}
	}

	return true, nil
}

// loadLeafAndPool reads the leaf certificate and materializes the anchors.
func loadLeafAndPool(leafPath string, anchors Anchors) (*x509.Certificate, *x509.CertPool, error) {
	data, err := os.ReadFile(leafPath)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: reading leaf %s: %v", ErrEngine, leafPath, err)
	}

	leaf, err := x509certs.New().Decode(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: parsing leaf %s: %v", ErrEngine, leafPath, err)
	}

	pool, err := anchors.Load()
	if err != nil {
		return nil, nil, err
	}

	return leaf, pool, nil
}

// parseCombined parses every X509 CRL PEM block in the combined artifact.
func parseCombined(path string) ([]*x509.RevocationList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading CRL artifact %s: %v", ErrEngine, path, err)
	}

	lists, err := x509crl.ParseAll(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngine, err)
	}

	return lists, nil
}
