// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package keystore

import (
	"crypto"
	"crypto/x509"
	"errors"
	"fmt"
	"sync"

	x509certs "github.com/H0llyW00dzZ/x509-trust-verifier/src/internal/x509/certs"
	"golang.org/x/crypto/pkcs12"
)

var (
	// ErrUnlock indicates that the PKCS#12 container could not be decrypted,
	// either because the data is malformed or the passphrase is wrong.
	ErrUnlock = errors.New("keystore: failed to unlock PKCS#12 container")

	// ErrReleased indicates an access to a keystore after Close. A released
	// keystore fails every operation deterministically.
	ErrReleased = errors.New("keystore: already released")
)

// KeyStore holds the private key and certificate unlocked from a PKCS#12
// container under a single-owner release discipline: Close transitions the
// store to a released state, and every subsequent access fails with
// [ErrReleased] instead of reading stale material.
type KeyStore struct {
	mu       sync.Mutex
	key      crypto.PrivateKey
	cert     *x509.Certificate
	released bool
}

// Unlock decrypts a PKCS#12 container into a KeyStore. The caller owns the
// returned store and must Close it on every exit path.
func Unlock(data []byte, passphrase string) (*KeyStore, error) {
	key, cert, err := pkcs12.Decode(data, passphrase)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnlock, err)
	}

	return &KeyStore{key: key, cert: cert}, nil
}

// Certificate returns the certificate held by the store.
func (ks *KeyStore) Certificate() (*x509.Certificate, error) {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	if ks.released {
		return nil, ErrReleased
	}
	return ks.cert, nil
}

// Key returns the private key held by the store.
func (ks *KeyStore) Key() (crypto.PrivateKey, error) {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	if ks.released {
		return nil, ErrReleased
	}
	return ks.key, nil
}

// CertificatePEM returns the certificate in the PEM artifact format.
func (ks *KeyStore) CertificatePEM() ([]byte, error) {
	cert, err := ks.Certificate()
	if err != nil {
		return nil, err
	}
	return x509certs.New().EncodePEM(cert), nil
}

// Close releases the store. The key and certificate references are dropped
// and the store becomes permanently unusable. Closing an already released
// store fails with [ErrReleased].
func (ks *KeyStore) Close() error {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	if ks.released {
		return ErrReleased
	}

	ks.key = nil
	ks.cert = nil
	ks.released = true
	return nil
}
