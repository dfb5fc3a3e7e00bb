// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509crl

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// Combiner merges a set of revocation lists into one concatenated PEM
// artifact, cached on disk by the identity of the participating lists.
//
// The artifact key is derived from the ordered cache identities of the
// inputs, not their content, so the same set of lists always maps to the
// same artifact path. An existing artifact is reused as long as none of the
// inputs has a newer local copy; otherwise it is rebuilt in one pass.
//
// There is a window between the staleness check and the artifact read where
// a concurrent process may replace a constituent list. The artifact write is
// an atomic whole-file replace and re-merging is idempotent, so the race
// costs at most one extra rebuild, never a torn artifact.
type Combiner struct {
	cacheDir string
}

// NewCombiner creates a Combiner writing artifacts under the given
// directory. An empty dir selects [DefaultCacheDir].
func NewCombiner(dir string) *Combiner {
	if dir == "" {
		dir = DefaultCacheDir()
	}
	return &Combiner{cacheDir: dir}
}

// Combine merges the given lists, in input order, into one PEM artifact and
// returns its path.
//
// If a current artifact already exists under the derived key it is reused
// without touching the network; each input still gets a non-forced freshness
// check first, so a stale input triggers a re-fetch and with it a rebuild.
func (c *Combiner) Combine(ctx context.Context, lists []*List) (string, error) {
	artifact := filepath.Join(c.cacheDir, c.key(lists))

	if info, err := os.Stat(artifact); err == nil {
		stale := false
		for _, list := range lists {
			if err := list.Refresh(ctx, false); err != nil {
				return "", err
			}

			listInfo, err := os.Stat(list.CachePath())
			if err != nil {
				return "", fmt.Errorf("%w: %v", ErrFetch, err)
			}
			if listInfo.ModTime().After(info.ModTime()) {
				stale = true
			}
		}

		if !stale {
			metrics.reused()
			return artifact, nil
		}

		if err := os.Remove(artifact); err != nil && !os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %v", ErrWrite, err)
		}
	}

	var merged []byte
	for _, list := range lists {
		pemData, err := list.ToPEM(ctx)
		if err != nil {
			return "", err
		}
		merged = append(merged, pemData...)
	}

	if err := writeFileAtomic(artifact, merged); err != nil {
		return "", fmt.Errorf("%w: %v", ErrWrite, err)
	}

	metrics.rebuilt()
	return artifact, nil
}

// key derives the artifact file name from the ordered cache identities of
// the participating lists.
func (c *Combiner) key(lists []*List) string {
	outer := sha256.New()
	for _, list := range lists {
		inner := sha256.Sum256([]byte(list.CachePath()))
		outer.Write(inner[:])
	}
	return hex.EncodeToString(outer.Sum(nil)) + ".pem"
}
