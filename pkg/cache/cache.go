// Package cache stores smoothing artifacts keyed by their inputs.
//
// A smoothing pass is a pure function of the residual table, the mode, the
// flow limit, and the date window, so its CSV output can be reused across
// runs. The CLI uses a [FileCache] under the user cache directory, the API
// server can share a [RedisCache] between replicas, and [NullCache] disables
// caching.
//
// Keys come from a [Keyer]:
//
//	keyer := cache.NewDefaultKeyer()
//	key := keyer.ArtifactKey(cache.Hash(residualCSV), cache.ArtifactKeyOpts{
//	    Mode:      "sm2",
//	    FlowLimit: 0.5,
//	})
package cache

import (
	"context"
	"time"
)

// DefaultTTL is how long artifacts are kept when no TTL is configured.
const DefaultTTL = 7 * 24 * time.Hour

// Cache is a byte-oriented key/value store with expiry.
type Cache interface {
	// Get returns the stored value and whether it was found. A miss is not
	// an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}

// ArtifactKeyOpts are the inputs of a pass besides the residual itself.
type ArtifactKeyOpts struct {
	Mode      string  `json:"mode"`
	FlowLimit float64 `json:"flow_limit"`
	Start     string  `json:"start,omitempty"`
	End       string  `json:"end,omitempty"`
}

// Keyer derives cache keys.
type Keyer interface {
	// ArtifactKey returns the key of a smoothed CSV for the residual whose
	// content hash is inputHash.
	ArtifactKey(inputHash string, opts ArtifactKeyOpts) string

	// ReportKey returns the key of the JSON report that accompanies an
	// artifact.
	ReportKey(inputHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes every key component into a fixed-length key.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(inputHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", inputHash, opts)
}

// ReportKey implements Keyer.
func (DefaultKeyer) ReportKey(inputHash string, opts ArtifactKeyOpts) string {
	return hashKey("report", inputHash, opts)
}
