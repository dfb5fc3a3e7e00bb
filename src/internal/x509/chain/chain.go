// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"bytes"
	"crypto/sha1"
	"crypto/x509"
	"encoding/hex"
	"errors"
	"time"

	x509certs "github.com/H0llyW00dzZ/x509-trust-verifier/src/internal/x509/certs"
)

var (
	// ErrInvalidIssuer indicates that a candidate issuer does not match the
	// certificate's issuer fingerprint, or is not a CA certificate.
	ErrInvalidIssuer = errors.New("x509chain: invalid issuer")

	// ErrIssuerAlreadySet indicates an attempt to re-link a certificate whose
	// issuer link has already been established. Issuer links are write-once.
	ErrIssuerAlreadySet = errors.New("x509chain: issuer already set")

	// ErrIncompleteChain indicates that an issuer link is missing before a
	// self-signed root was reached during chain traversal.
	ErrIncompleteChain = errors.New("x509chain: incomplete chain")

	// ErrChainCycle indicates that issuer links form a cycle.
	ErrChainCycle = errors.New("x509chain: issuer cycle detected")
)

// Cert is a parsed [X.509] certificate with identity fields derived once at
// construction time and an optional, write-once link to its issuer.
//
// The fingerprint is the subject key identifier; the issuer fingerprint is
// the authority key identifier. Certificates without a subject key identifier
// extension fall back to the SHA-1 digest of the subject public key info,
// which is the identifier CAs conventionally derive the extension from.
//
// [X.509]: https://en.wikipedia.org/wiki/X.509
type Cert struct {
	cert *x509.Certificate

	fingerprint       []byte
	issuerFingerprint []byte
	crlURI            string

	issuer *Cert
}

// NewCert wraps an already parsed certificate, computing derived fields.
func NewCert(cert *x509.Certificate) *Cert {
	c := &Cert{cert: cert}

	c.fingerprint = cert.SubjectKeyId
	if len(c.fingerprint) == 0 {
		sum := sha1.Sum(cert.RawSubjectPublicKeyInfo)
		c.fingerprint = sum[:]
	}
	c.issuerFingerprint = cert.AuthorityKeyId

	if len(cert.CRLDistributionPoints) > 0 {
		c.crlURI = cert.CRLDistributionPoints[0]
	}

	return c
}

// ParseCert decodes a single certificate from PEM, DER, or PKCS7 data and
// wraps it. Malformed input surfaces the x509certs parse errors unchanged.
func ParseCert(data []byte) (*Cert, error) {
	cert, err := x509certs.New().Decode(data)
	if err != nil {
		return nil, err
	}
	return NewCert(cert), nil
}

// X509 returns the underlying parsed certificate.
func (c *Cert) X509() *x509.Certificate { return c.cert }

// Raw returns the DER encoding of the certificate.
func (c *Cert) Raw() []byte { return c.cert.Raw }

// Fingerprint returns the certificate's subject key identifier.
func (c *Cert) Fingerprint() []byte { return c.fingerprint }

// IssuerFingerprint returns the certificate's authority key identifier,
// or nil if the certificate carries no such extension.
func (c *Cert) IssuerFingerprint() []byte { return c.issuerFingerprint }

// FingerprintHex returns the fingerprint as a lowercase hex string.
func (c *Cert) FingerprintHex() string { return hex.EncodeToString(c.fingerprint) }

// CommonName returns the subject common name.
func (c *Cert) CommonName() string { return c.cert.Subject.CommonName }

// NotBefore returns the start of the validity window in UTC.
func (c *Cert) NotBefore() time.Time { return c.cert.NotBefore.UTC() }

// NotAfter returns the end of the validity window in UTC.
func (c *Cert) NotAfter() time.Time { return c.cert.NotAfter.UTC() }

// IsValidAt reports whether now falls within the validity window
// [NotBefore, NotAfter).
func (c *Cert) IsValidAt(now time.Time) bool {
	return !now.Before(c.cert.NotBefore) && now.Before(c.cert.NotAfter)
}

// IsCA reports whether the basic constraints extension declares CA capability.
func (c *Cert) IsCA() bool { return c.cert.IsCA }

// CRLDistributionURI returns the first URI of the CRL distribution points
// extension. The second return value is false if the certificate has none.
func (c *Cert) CRLDistributionURI() (string, bool) {
	return c.crlURI, c.crlURI != ""
}

// IsSelfSigned reports whether the certificate's fingerprint equals its
// issuer fingerprint.
func (c *Cert) IsSelfSigned() bool {
	return len(c.issuerFingerprint) > 0 && bytes.Equal(c.fingerprint, c.issuerFingerprint)
}

// Issuer returns the linked issuer certificate, or nil if no issuer link
// has been established. A nil issuer means "issuer unknown", not
// "self-signed".
func (c *Cert) Issuer() *Cert { return c.issuer }

// SetIssuer establishes the issuer link for the certificate.
//
// The link is write-once: a second call fails with [ErrIssuerAlreadySet].
// The candidate must match the certificate's issuer fingerprint and must be
// a CA certificate; otherwise the call fails with [ErrInvalidIssuer] and the
// link remains unset.
func (c *Cert) SetIssuer(issuer *Cert) error {
	if c.issuer != nil {
		return ErrIssuerAlreadySet
	}
	if !bytes.Equal(issuer.Fingerprint(), c.issuerFingerprint) {
		return ErrInvalidIssuer
	}
	if !issuer.IsCA() {
		return ErrInvalidIssuer
	}

	c.issuer = issuer
	return nil
}

// EncodePEM encodes the certificate in the PEM artifact format.
func (c *Cert) EncodePEM() []byte {
	return x509certs.New().EncodePEM(c.cert)
}

// Build links every certificate in the set to its issuer.
//
// For each certificate, the first other certificate in the set whose
// fingerprint matches the certificate's issuer fingerprint becomes its
// issuer. A certificate is never linked to itself, so self-signed
// certificates keep a nil issuer link. Certificates that are already
// linked, or whose issuer is absent from the set, are left untouched.
//
// The scan is O(n²) over the input; chains are single-digit deep in
// practice.
func Build(certs []*Cert) {
	for _, cert := range certs {
		if cert.issuer != nil || len(cert.issuerFingerprint) == 0 {
			continue
		}

		for _, candidate := range certs {
			if candidate == cert {
				continue
			}
			if err := cert.SetIssuer(candidate); err == nil {
				break
			}
		}
	}
}

// Ancestry walks issuer links from leaf up to and including the self-signed
// root, defending against cycles with a visited set.
//
// It fails with [ErrIncompleteChain] if a link is missing before a
// self-signed certificate is reached, and with [ErrChainCycle] if the links
// loop. The write-once link discipline should prevent cycles by
// construction; a detected one is treated as a broken chain all the same.
func Ancestry(leaf *Cert) ([]*Cert, error) {
	var out []*Cert
	visited := make(map[string]bool)

	for current := leaf; ; {
		fp := current.FingerprintHex()
		if visited[fp] {
			return nil, ErrChainCycle
		}
		visited[fp] = true
		out = append(out, current)

		if current.IsSelfSigned() {
			return out, nil
		}
		if current.Issuer() == nil {
			return nil, ErrIncompleteChain
		}
		current = current.Issuer()
	}
}
