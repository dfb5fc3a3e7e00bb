// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509crl

import (
	"context"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/H0llyW00dzZ/x509-trust-verifier/src/internal/helper/gc"
	x509certs "github.com/H0llyW00dzZ/x509-trust-verifier/src/internal/x509/certs"
)

var (
	// ErrFetch indicates that the CRL could not be retrieved from its source URI.
	ErrFetch = errors.New("x509crl: fetch failed")

	// ErrWrite indicates that the fetched CRL could not be persisted to the local cache.
	ErrWrite = errors.New("x509crl: cache write failed")

	// ErrParse indicates that the cached CRL bytes are not a well-formed revocation list.
	ErrParse = errors.New("x509crl: failed to parse revocation list")
)

// crlBlockType is the PEM block type of emitted revocation list artifacts.
const crlBlockType = "X509 CRL"

// List represents one certificate revocation list: its source URI, a locally
// cached copy keyed by a stable hash of the URI, and metadata parsed lazily
// from the cached copy.
//
// The cache file goes through three states: uncached, cached-fresh, and
// cached-stale. Staleness is evaluated lazily against the list's NextUpdate
// time; there is no timer. A successful fetch always leaves the list
// cached-fresh. Metadata accessors memoize the first parse and keep serving
// the memoized values until an explicit [List.Refresh] invalidates them.
type List struct {
	uri       string
	cachePath string

	httpClient *http.Client

	mu   sync.Mutex
	meta *listMeta
}

// listMeta holds metadata derived from one parse of the cached copy.
type listMeta struct {
	lastUpdate  time.Time
	nextUpdate  time.Time
	hash        string
	fingerprint string
	number      *big.Int
	issuer      string
}

// Option configures a List.
type Option func(*List)

// WithCacheDir overrides the directory holding the local cached copy. An
// empty dir keeps the per-user default, so callers can pass an unset
// flag or config value through unchanged.
func WithCacheDir(dir string) Option {
	return func(l *List) {
		if dir == "" {
			dir = DefaultCacheDir()
		}
		l.cachePath = filepath.Join(dir, cacheKey(l.uri))
	}
}

// WithHTTPClient overrides the HTTP client used to fetch the list.
func WithHTTPClient(client *http.Client) Option {
	return func(l *List) { l.httpClient = client }
}

// NewList creates a revocation list handle for the given source URI.
//
// The local cache path is derived deterministically from the URI and scoped
// to the current user, so concurrent runs under different users never share
// (or poison) each other's cache files. No I/O happens until the first
// refresh or metadata access.
func NewList(uri string, opts ...Option) *List {
	l := &List{
		uri:        uri,
		cachePath:  filepath.Join(DefaultCacheDir(), cacheKey(uri)),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// cacheKey derives the cache file name from the source URI.
func cacheKey(uri string) string {
	sum := sha256.Sum256([]byte(uri))
	return hex.EncodeToString(sum[:]) + ".crl"
}

// DefaultCacheDir returns the per-user directory holding cached CRL copies
// and combined artifacts.
func DefaultCacheDir() string {
	return filepath.Join(os.TempDir(), fmt.Sprintf("x509-trust-verifier-%d", os.Getuid()))
}

// URI returns the source URI of the revocation list.
func (l *List) URI() string { return l.uri }

// CachePath returns the path of the local cached copy. The file may not
// exist yet.
func (l *List) CachePath() string { return l.cachePath }

// IsStale reports whether the list must be re-fetched before use: either no
// local cache exists, or the current time is past the list's NextUpdate.
func (l *List) IsStale(now time.Time) bool {
	data, err := os.ReadFile(l.cachePath)
	if err != nil {
		return true
	}

	parsed, err := parseCRL(data)
	if err != nil {
		return true
	}

	return now.After(parsed.NextUpdate)
}

// Refresh fetches the list from its source URI and replaces the local cache.
//
// Without force, the fetch only happens when the list is uncached or stale;
// a cached-fresh list is left untouched. With force, the fetch is
// unconditional. A successful fetch invalidates memoized metadata, so the
// next accessor call re-parses the new cached copy.
//
// Fetch failures surface as [ErrFetch]; cache write failures as [ErrWrite].
// The cache file is replaced atomically, so a concurrent reader sees either
// the old or the new complete copy, never a partial one.
func (l *List) Refresh(ctx context.Context, force bool) error {
	if !force {
		if _, err := os.Stat(l.cachePath); err == nil && !l.IsStale(time.Now()) {
			return nil
		}
	}

	data, err := l.fetch(ctx)
	if err != nil {
		return err
	}

	if err := writeFileAtomic(l.cachePath, data); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}

	l.mu.Lock()
	l.meta = nil
	l.mu.Unlock()

	metrics.refreshed()
	return nil
}

// fetch retrieves the raw CRL bytes from the source URI.
func (l *List) fetch(ctx context.Context) ([]byte, error) {
	metrics.fetched()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.uri, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: server returned status %d", ErrFetch, resp.StatusCode)
	}

	// Get a buffer from the pool
	buf := gc.Default.Get()
	defer func() {
		buf.Reset()         // Reset the buffer to prevent data leaks
		gc.Default.Put(buf) // Return the buffer to the pool for reuse
	}()

	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	return append([]byte(nil), buf.Bytes()...), nil
}

// ensure populates memoized metadata, refreshing first if the list is
// uncached or stale. Once memoized, metadata is served as-is until an
// explicit refresh invalidates it.
func (l *List) ensure(ctx context.Context) (*listMeta, error) {
	l.mu.Lock()
	if l.meta != nil {
		meta := l.meta
		l.mu.Unlock()
		return meta, nil
	}
	l.mu.Unlock()

	if err := l.Refresh(ctx, false); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(l.cachePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	parsed, err := parseCRL(data)
	if err != nil {
		return nil, err
	}

	der := parsed.Raw
	hashSum := sha256.Sum256(der)
	fpSum := sha1.Sum(der)

	meta := &listMeta{
		lastUpdate:  parsed.ThisUpdate.UTC(),
		nextUpdate:  parsed.NextUpdate.UTC(),
		hash:        hex.EncodeToString(hashSum[:]),
		fingerprint: hex.EncodeToString(fpSum[:]),
		number:      parsed.Number,
		issuer:      parsed.Issuer.String(),
	}

	l.mu.Lock()
	l.meta = meta
	l.mu.Unlock()

	return meta, nil
}

// LastUpdate returns the CRL's ThisUpdate time in UTC.
func (l *List) LastUpdate(ctx context.Context) (time.Time, error) {
	meta, err := l.ensure(ctx)
	if err != nil {
		return time.Time{}, err
	}
	return meta.lastUpdate, nil
}

// NextUpdate returns the CRL's NextUpdate time in UTC. Staleness is judged
// against this value.
func (l *List) NextUpdate(ctx context.Context) (time.Time, error) {
	meta, err := l.ensure(ctx)
	if err != nil {
		return time.Time{}, err
	}
	return meta.nextUpdate, nil
}

// Hash returns the SHA-256 digest of the DER encoding as lowercase hex.
func (l *List) Hash(ctx context.Context) (string, error) {
	meta, err := l.ensure(ctx)
	if err != nil {
		return "", err
	}
	return meta.hash, nil
}

// Fingerprint returns the SHA-1 digest of the DER encoding as lowercase hex.
func (l *List) Fingerprint(ctx context.Context) (string, error) {
	meta, err := l.ensure(ctx)
	if err != nil {
		return "", err
	}
	return meta.fingerprint, nil
}

// Number returns the CRL number extension value, or nil if absent.
func (l *List) Number(ctx context.Context) (*big.Int, error) {
	meta, err := l.ensure(ctx)
	if err != nil {
		return nil, err
	}
	return meta.number, nil
}

// Issuer returns the distinguished name of the CRL's issuer.
func (l *List) Issuer(ctx context.Context) (string, error) {
	meta, err := l.ensure(ctx)
	if err != nil {
		return "", err
	}
	return meta.issuer, nil
}

// ToPEM refreshes the list if needed and renders the cached copy in the PEM
// artifact format (BEGIN/END X509 CRL, 64-column body, CRLF line endings).
//
// The output is a pure function of the cached copy: two calls with no
// intervening refresh produce byte-identical results.
func (l *List) ToPEM(ctx context.Context) ([]byte, error) {
	if err := l.Refresh(ctx, false); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(l.cachePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	parsed, err := parseCRL(data)
	if err != nil {
		return nil, err
	}

	return x509certs.EncodeBlock(crlBlockType, parsed.Raw), nil
}

// ParseAll parses every X509 CRL PEM block in data, such as a combined
// artifact produced by [Combiner.Combine].
func ParseAll(data []byte) ([]*x509.RevocationList, error) {
	var lists []*x509.RevocationList

	for len(data) > 0 {
		block, rest := pem.Decode(data)
		if block == nil {
			break
		}
		if block.Type != crlBlockType {
			return nil, fmt.Errorf("%w: unexpected PEM block type %q", ErrParse, block.Type)
		}

		crl, err := x509.ParseRevocationList(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}

		lists = append(lists, crl)
		data = rest
	}

	if len(lists) == 0 {
		return nil, fmt.Errorf("%w: no revocation lists found", ErrParse)
	}

	return lists, nil
}

// parseCRL parses DER or PEM revocation list bytes.
func parseCRL(data []byte) (*x509.RevocationList, error) {
	der := data
	if block, _ := pem.Decode(data); block != nil {
		if block.Type != crlBlockType {
			return nil, fmt.Errorf("%w: unexpected PEM block type %q", ErrParse, block.Type)
		}
		der = block.Bytes
	}

	crl, err := x509.ParseRevocationList(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	return crl, nil
}

// writeFileAtomic replaces path with data via a rename, so readers never
// observe a partially written file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	return os.Rename(tmp.Name(), path)
}
