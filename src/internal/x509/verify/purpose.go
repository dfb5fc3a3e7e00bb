// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509verify

import (
	"crypto/x509"
	"fmt"
	"strings"
)

// Purpose identifies what a certificate is being trusted for.
type Purpose int

const (
	// PurposeAny accepts a certificate trusted for any purpose. This purpose
	// is checked through the external engine path rather than the native
	// extended key usage match.
	PurposeAny Purpose = iota
	// PurposeSSLClient covers TLS client authentication.
	PurposeSSLClient
	// PurposeSSLServer covers TLS server authentication.
	PurposeSSLServer
	// PurposeSMIMESign covers S/MIME message signing.
	PurposeSMIMESign
	// PurposeSMIMEEncrypt covers S/MIME message encryption.
	PurposeSMIMEEncrypt
	// PurposeCRLSign covers signing certificate revocation lists.
	PurposeCRLSign
)

// String returns the canonical name of the purpose.
func (p Purpose) String() string {
	switch p {
	case PurposeAny:
		return "any"
	case PurposeSSLClient:
		return "sslclient"
	case PurposeSSLServer:
		return "sslserver"
	case PurposeSMIMESign:
		return "smimesign"
	case PurposeSMIMEEncrypt:
		return "smimeencrypt"
	case PurposeCRLSign:
		return "crlsign"
	default:
		return fmt.Sprintf("purpose(%d)", int(p))
	}
}

// ParsePurpose converts a purpose name to a Purpose. Matching is
// case-insensitive.
func ParsePurpose(name string) (Purpose, error) {
	switch strings.ToLower(name) {
	case "any":
		return PurposeAny, nil
	case "sslclient":
		return PurposeSSLClient, nil
	case "sslserver":
		return PurposeSSLServer, nil
	case "smimesign":
		return PurposeSMIMESign, nil
	case "smimeencrypt":
		return PurposeSMIMEEncrypt, nil
	case "crlsign":
		return PurposeCRLSign, nil
	default:
		return PurposeAny, fmt.Errorf("x509verify: unknown purpose %q", name)
	}
}

// extKeyUsage maps a purpose onto the extended key usages accepted during
// native chain verification. PurposeCRLSign has no extended key usage; it is
// enforced through the key usage bits instead.
func (p Purpose) extKeyUsage() []x509.ExtKeyUsage {
	switch p {
	case PurposeSSLClient:
		return []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth}
	case PurposeSSLServer:
		return []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth}
	case PurposeSMIMESign, PurposeSMIMEEncrypt:
		return []x509.ExtKeyUsage{x509.ExtKeyUsageEmailProtection}
	default:
		return []x509.ExtKeyUsage{x509.ExtKeyUsageAny}
	}
}
