// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"time"
)

// FetchRemoteChain establishes a TLS connection to the target host and wraps
// the certificates presented during the handshake. The returned set contains
// the leaf first, followed by any intermediates the server provided, with
// issuer links already resolved via [Build].
func FetchRemoteChain(ctx context.Context, hostname string, port int, timeout time.Duration) ([]*Cert, error) {
	dialer := &net.Dialer{Timeout: timeout}

	if deadline, ok := ctx.Deadline(); ok {
		dialer.Deadline = deadline
	}

	conn, err := tls.DialWithDialer(dialer, "tcp", fmt.Sprintf("%s:%d", hostname, port),
		// We just want the presented chain, not to verify
		&tls.Config{InsecureSkipVerify: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s:%d: %w", hostname, port, err)
	}
	defer conn.Close()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	peerCerts := conn.ConnectionState().PeerCertificates
	if len(peerCerts) == 0 {
		return nil, fmt.Errorf("no certificates received from server")
	}

	certs := make([]*Cert, 0, len(peerCerts))
	for _, pc := range peerCerts {
		certs = append(certs, NewCert(pc))
	}

	Build(certs)
	return certs, nil
}
