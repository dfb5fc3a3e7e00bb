// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
)

// RenderASCIITree renders a linked chain as an ASCII tree diagram, leaf
// first, with visual connectors between each certificate and its issuer.
//
// Parameters:
//   - certs: Chain in leaf-to-root order (e.g. the result of [Ancestry])
//   - revoked: Optional map of fingerprint hex to revocation outcome; any
//     value other than "good" marks the certificate
//
// Returns:
//   - string: ASCII tree representation of the chain
func RenderASCIITree(certs []*Cert, revoked map[string]string) string {
	if len(certs) == 0 {
		return "No certificates in chain"
	}

	var result strings.Builder
	for i, cert := range certs {
		connector := "├── "
		if i == len(certs)-1 {
			connector = "└── "
		}

		statusIcon := "✓"
		if revoked != nil {
			if status, exists := revoked[cert.FingerprintHex()]; exists && !strings.EqualFold(status, "good") {
				statusIcon = "✗"
			}
		}

		certInfo := fmt.Sprintf("[%s] %s", statusIcon, cert.CommonName())
		if role := certificateRole(certs, i); role != "" {
			certInfo += fmt.Sprintf(" (%s)", role)
		}

		result.WriteString(connector + certInfo + "\n")
	}

	return result.String()
}

// RenderTable renders a linked chain as a formatted markdown table showing
// role, subject, issuer link state, validity dates, key size, and
// revocation outcome.
//
// Parameters:
//   - certs: Chain in leaf-to-root order
//   - revoked: Optional map of fingerprint hex to revocation outcome
//
// Returns:
//   - string: Markdown table representation of the chain
func RenderTable(certs []*Cert, revoked map[string]string) string {
	if len(certs) == 0 {
		return "No certificates to display"
	}

	var buf strings.Builder
	table := tablewriter.NewTable(&buf,
		tablewriter.WithRenderer(renderer.NewMarkdown(tw.Rendition{Streaming: true})),
	)

	table.Header([]string{"#", "Role", "Subject", "Issuer", "Valid Until", "Key Size", "Status"})

	var rows [][]string
	for i, cert := range certs {
		status := "unknown"
		if revoked != nil {
			if s, exists := revoked[cert.FingerprintHex()]; exists {
				status = s
			}
		}

		issuerName := "(unlinked)"
		if cert.IsSelfSigned() {
			issuerName = cert.CommonName()
		} else if cert.Issuer() != nil {
			issuerName = cert.Issuer().CommonName()
		}

		keySize := "unknown"
		if rsaKey, ok := cert.X509().PublicKey.(*rsa.PublicKey); ok {
			keySize = fmt.Sprintf("%d-bit RSA", rsaKey.Size()*8)
		} else if ecdsaKey, ok := cert.X509().PublicKey.(*ecdsa.PublicKey); ok {
			keySize = fmt.Sprintf("%d-bit ECDSA", ecdsaKey.Curve.Params().BitSize)
		}

		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			certificateRole(certs, i),
			cert.CommonName(),
			issuerName,
			cert.NotAfter().Format("2006-01-02"),
			keySize,
			status,
		})
	}

	table.Bulk(rows)
	table.Render()

	return buf.String()
}

// certificateRole names a certificate's position in a leaf-to-root chain.
func certificateRole(certs []*Cert, i int) string {
	cert := certs[i]
	switch {
	case cert.IsSelfSigned():
		return "Root CA"
	case i == 0:
		return "Leaf"
	case cert.IsCA():
		return "Intermediate CA"
	default:
		return "Intermediate"
	}
}
