// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509verify

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	x509chain "github.com/H0llyW00dzZ/x509-trust-verifier/src/internal/x509/chain"
	x509crl "github.com/H0llyW00dzZ/x509-trust-verifier/src/internal/x509/crl"
)

var (
	// ErrCRLCheck indicates that a revocation check could not be carried
	// out, e.g. because the issuer chain is incomplete or cyclic. A false
	// result, by contrast, is a definitive "revoked or untrusted".
	ErrCRLCheck = errors.New("x509verify: CRL check failed")

	// ErrNoCRLDistribution indicates that a certificate carries no CRL
	// distribution point, so no revocation list can be located for it.
	ErrNoCRLDistribution = errors.New("x509verify: no CRL distribution point")
)

// Verifier certifies certificates for a purpose and checks revocation
// against the accumulated trust anchors.
//
// Any-purpose checks and revocation checks go through the configured
// [Engine]; all other purposes are checked natively against the parsed
// certificate. The zero value is not usable; construct with [New].
type Verifier struct {
	anchors  Anchors
	engine   Engine
	combiner *x509crl.Combiner
	cacheDir string

	// HTTPClient is used for CRL fetches. Nil selects a client with a
	// 10 second timeout.
	HTTPClient *http.Client

	// Now is the clock used for validity checks; overridable in tests.
	Now func() time.Time
}

// New creates a Verifier using the given trust anchors and engine. A nil
// engine selects [NativeEngine]. An empty cacheDir selects the default
// per-user CRL cache directory.
func New(anchors Anchors, engine Engine, cacheDir string) *Verifier {
	if engine == nil {
		engine = NativeEngine{}
	}
	if cacheDir == "" {
		cacheDir = x509crl.DefaultCacheDir()
	}

	return &Verifier{
		anchors:  anchors,
		engine:   engine,
		combiner: x509crl.NewCombiner(cacheDir),
		cacheDir: cacheDir,
		Now:      time.Now,
	}
}

// Anchors returns the verifier's trust anchor paths.
func (v *Verifier) Anchors() Anchors { return v.anchors }

// CheckPurpose reports whether the certificate is trusted for the given
// purpose against the verifier's anchors.
//
// PurposeAny is delegated to the engine, which works on the certificate's
// PEM rendering. All other purposes are checked natively: the certificate
// must be inside its validity window, must chain to the anchors, and must
// satisfy the purpose's key usage requirements. A false result is
// definitive; faults wrap [ErrEngine].
func (v *Verifier) CheckPurpose(ctx context.Context, cert *x509chain.Cert, purpose Purpose) (bool, error) {
	if purpose == PurposeAny {
		leafPath, cleanup, err := v.writeLeaf(cert)
		if err != nil {
			return false, err
		}
		defer cleanup()

		return v.engine.VerifyAnyPurpose(ctx, leafPath, v.anchors)
	}

	if !cert.IsValidAt(v.Now()) {
		return false, nil
	}

	if purpose == PurposeCRLSign && cert.X509().KeyUsage&x509.KeyUsageCRLSign == 0 {
		return false, nil
	}

	pool, err := v.anchors.Load()
	if err != nil {
		return false, err
	}

	_, err = cert.X509().Verify(x509.VerifyOptions{
		Roots:       pool,
		CurrentTime: v.Now(),
		KeyUsages:   purpose.extKeyUsage(),
	})
	return err == nil, nil
}

// CheckCRL reports whether the certificate is unrevoked per its CRL,
// chaining to the verifier's anchors.
//
// The certificate's own CRL is always consulted. With checkAll, issuer
// links are walked up to the self-signed root, each ancestor's CRL is
// appended, and the engine is asked to check the whole chain. A missing
// issuer link before the root, or a cycle in the links, fails with a fault
// wrapping [ErrCRLCheck]; it is never reported as a clean false.
//
// All gathered lists are merged into one artifact, which is both handed to
// the engine as the revocation input and appended to the trust anchor file
// list, mirroring how the engine expects its verification inputs.
func (v *Verifier) CheckCRL(ctx context.Context, cert *x509chain.Cert, checkAll bool) (bool, error) {
	subjects := []*x509chain.Cert{cert}

	if checkAll {
		ancestry, err := x509chain.Ancestry(cert)
		if err != nil {
			return false, fmt.Errorf("%w: %w", ErrCRLCheck, err)
		}
		subjects = ancestry
	}

	var lists []*x509crl.List
	seen := make(map[string]bool)
	for i, subject := range subjects {
		uri, ok := subject.CRLDistributionURI()
		if !ok {
			// The leaf's own CRL is mandatory; ancestors without a
			// distribution point (typically roots) have nothing to consult.
			if i == 0 {
				return false, fmt.Errorf("%w: %w for %s", ErrCRLCheck, ErrNoCRLDistribution, subject.CommonName())
			}
			continue
		}
		if seen[uri] {
			continue
		}
		seen[uri] = true

		opts := []x509crl.Option{x509crl.WithCacheDir(v.cacheDir)}
		if v.HTTPClient != nil {
			opts = append(opts, x509crl.WithHTTPClient(v.HTTPClient))
		}
		lists = append(lists, x509crl.NewList(uri, opts...))
	}

	artifact, err := v.combiner.Combine(ctx, lists)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrCRLCheck, err)
	}

	leafPath, cleanup, err := v.writeLeaf(cert)
	if err != nil {
		return false, err
	}
	defer cleanup()

	return v.engine.VerifyChainCRL(ctx, leafPath, v.anchors.WithFile(artifact), artifact, checkAll)
}

// writeLeaf renders the certificate to a temporary PEM file for engine
// consumption.
func (v *Verifier) writeLeaf(cert *x509chain.Cert) (string, func(), error) {
	tmp, err := os.CreateTemp("", "leaf-*.pem")
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrEngine, err)
	}

	if _, err := tmp.Write(cert.EncodePEM()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", nil, fmt.Errorf("%w: %v", ErrEngine, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", nil, fmt.Errorf("%w: %v", ErrEngine, err)
	}

	return tmp.Name(), func() { os.Remove(tmp.Name()) }, nil
}
