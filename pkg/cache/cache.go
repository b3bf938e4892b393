// Package cache provides caching backends for conversion pipeline stages.
//
// Three stages of the pipeline are cacheable:
//   - parse: markdown source to document sections
//   - scene: sections to a positioned 3D scene
//   - artifact: scene to rendered output (X3D, SVG, JSON)
//
// Each stage has a dedicated key builder on [Keyer] and a default TTL.
// Backends range from in-process ([MemoryCache]) through on-disk
// ([FileCache], the CLI default) to shared remote stores ([RedisCache],
// [MongoCache]) for server deployments serving multiple clients.
package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Default TTLs per pipeline stage. Parse and scene entries are invalidated
// by content changes (the document hash is part of the key), so the TTL
// mainly bounds storage growth.
const (
	TTLParse    = 24 * time.Hour
	TTLScene    = 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is the interface implemented by all caching backends.
//
// Get reports a miss with hit=false rather than an error; errors are
// reserved for backend failures (I/O, network). Callers treat cache
// errors as soft and fall through to recomputation.
type Cache interface {
	// Get retrieves a value. hit is false when the key is absent or expired.
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)

	// Set stores a value. A ttl of zero means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// ParseKeyOpts captures the options that affect parse results.
type ParseKeyOpts struct {
	MaxSectionLevel int `json:"max_section_level"`
}

// SceneKeyOpts captures the options that affect scene construction.
type SceneKeyOpts struct {
	Template            string  `json:"template"`
	Seed                uint64  `json:"seed"`
	ForceDirected       bool    `json:"force_directed"`
	CollisionResolution bool    `json:"collision_resolution"`
	MaxIterations       int     `json:"max_iterations"`
	Separation          float64 `json:"separation"`
	Spacing             float64 `json:"spacing"`
}

// ArtifactKeyOpts captures the options that affect rendered artifacts.
type ArtifactKeyOpts struct {
	Format   string `json:"format"`
	Detailed bool   `json:"detailed"`
}

// Keyer builds cache keys for pipeline stages.
//
// Keys embed a content hash of the stage input plus every option that
// changes the stage output, so stale entries are unreachable rather
// than invalidated.
type Keyer interface {
	// ParseKey returns the key for the parsed sections of a document.
	ParseKey(docHash string, opts ParseKeyOpts) string

	// SceneKey returns the key for a laid-out scene.
	SceneKey(docHash string, opts SceneKeyOpts) string

	// ArtifactKey returns the key for a rendered artifact.
	ArtifactKey(sceneHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer builds keys by hashing the stage inputs with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard key builder.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// ParseKey generates a key for parse stage caching.
func (k *DefaultKeyer) ParseKey(docHash string, opts ParseKeyOpts) string {
	return hashKey("parse", docHash, opts)
}

// SceneKey generates a key for scene stage caching.
func (k *DefaultKeyer) SceneKey(docHash string, opts SceneKeyOpts) string {
	return hashKey("scene", docHash, opts)
}

// ArtifactKey generates a key for artifact caching.
func (k *DefaultKeyer) ArtifactKey(sceneHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", sceneHash, opts)
}

// GetJSON reads key from c and unmarshals the entry into v.
// Returns ErrCacheMiss when the key is absent.
func GetJSON(ctx context.Context, c Cache, key string, v any) error {
	data, hit, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	if !hit {
		return ErrCacheMiss
	}
	return json.Unmarshal(data, v)
}

// SetJSON marshals v and stores it under key.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data, ttl)
}
