// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509crl

import (
	"fmt"
	"sync/atomic"
)

// Metrics tracks CRL cache activity across the process.
type Metrics struct {
	Fetches   int64 // Network fetches of individual lists
	Refreshes int64 // Successful cache refreshes (fetch + persist)
	Reuses    int64 // Combined artifacts served from cache
	Rebuilds  int64 // Combined artifacts rebuilt from constituents
}

// cacheMetrics is the package-wide counter set.
type cacheMetrics struct {
	fetches   atomic.Int64
	refreshes atomic.Int64
	reuses    atomic.Int64
	rebuilds  atomic.Int64
}

var metrics cacheMetrics

func (m *cacheMetrics) fetched()   { m.fetches.Add(1) }
func (m *cacheMetrics) refreshed() { m.refreshes.Add(1) }
func (m *cacheMetrics) reused()    { m.reuses.Add(1) }
func (m *cacheMetrics) rebuilt()   { m.rebuilds.Add(1) }

// GetMetrics returns a snapshot of the current cache metrics.
func GetMetrics() Metrics {
	return Metrics{
		Fetches:   metrics.fetches.Load(),
		Refreshes: metrics.refreshes.Load(),
		Reuses:    metrics.reuses.Load(),
		Rebuilds:  metrics.rebuilds.Load(),
	}
}

// ResetMetrics zeroes all counters (useful for testing).
func ResetMetrics() {
	metrics.fetches.Store(0)
	metrics.refreshes.Store(0)
	metrics.reuses.Store(0)
	metrics.rebuilds.Store(0)
}

// GetCacheStats returns a formatted string with cache statistics.
func GetCacheStats() string {
	m := GetMetrics()

	hitRate := float64(0)
	total := m.Reuses + m.Rebuilds
	if total > 0 {
		hitRate = float64(m.Reuses) / float64(total) * 100
	}

	return fmt.Sprintf("CRL Cache Statistics:\n"+
		"  Fetches: %d\n"+
		"  Refreshes: %d\n"+
		"  Combined Artifact Hit Rate: %.1f%% (%d reused, %d rebuilt)",
		m.Fetches,
		m.Refreshes,
		hitRate, m.Reuses, m.Rebuilds)
}
