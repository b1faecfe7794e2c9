package embedding

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync/atomic"

	_ "modernc.org/sqlite"

	"refdrift/internal/logging"
)

// =============================================================================
// SQLITE EMBEDDING CACHE
// =============================================================================

// CachedEngine wraps an Engine with a persistent SQLite cache keyed by
// (engine name, text). Reference snapshots repeat most cell values between
// versions, so warm runs skip nearly every provider round-trip.
type CachedEngine struct {
	inner Engine
	db    *sql.DB
	path  string

	hits   int64
	misses int64
}

// NewCachedEngine opens (or creates) the cache database at path and wraps
// inner with it.
func NewCachedEngine(inner Engine, path string) (*CachedEngine, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	db.SetMaxOpenConns(1)

	c := &CachedEngine{inner: inner, db: db, path: path}
	if err := c.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logging.Embedding("Embedding cache ready at %s (engine=%s)", path, inner.Name())
	return c, nil
}

// initialize applies pragmas and creates the schema.
func (c *CachedEngine) initialize() error {
	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := c.db.Exec(p); err != nil {
			return fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}

	schema := `
	CREATE TABLE IF NOT EXISTS embeddings (
		key        TEXT PRIMARY KEY,
		engine     TEXT NOT NULL,
		dims       INTEGER NOT NULL,
		vector     BLOB NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create embeddings table: %w", err)
	}
	return nil
}

// cacheKey derives the lookup key for one text under the wrapped engine.
func (c *CachedEngine) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(c.inner.Name() + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

// Embed returns the cached vector for text, or asks the wrapped engine and
// stores the result.
func (c *CachedEngine) Embed(ctx context.Context, text string) ([]float32, error) {
	key := c.cacheKey(text)

	if vec, ok := c.lookup(key); ok {
		atomic.AddInt64(&c.hits, 1)
		return vec, nil
	}
	atomic.AddInt64(&c.misses, 1)

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.store(key, vec)
	return vec, nil
}

// EmbedBatch serves cached texts locally and sends only the misses to the
// wrapped engine.
func (c *CachedEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int

	for i, text := range texts {
		if vec, ok := c.lookup(c.cacheKey(text)); ok {
			atomic.AddInt64(&c.hits, 1)
			out[i] = vec
			continue
		}
		atomic.AddInt64(&c.misses, 1)
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) > 0 {
		vecs, err := c.inner.EmbedBatch(ctx, missing)
		if err != nil {
			return nil, err
		}
		if len(vecs) != len(missing) {
			return nil, fmt.Errorf("engine returned %d embeddings for %d texts", len(vecs), len(missing))
		}
		for j, vec := range vecs {
			out[missingIdx[j]] = vec
			c.store(c.cacheKey(missing[j]), vec)
		}
	}

	return out, nil
}

func (c *CachedEngine) lookup(key string) ([]float32, bool) {
	var dims int
	var blob []byte
	err := c.db.QueryRow("SELECT dims, vector FROM embeddings WHERE key = ?", key).Scan(&dims, &blob)
	if err != nil {
		return nil, false
	}

	vec := decodeVector(blob)
	if len(vec) != dims {
		// Corrupt row; treat as a miss so it gets rewritten.
		return nil, false
	}
	return vec, true
}

func (c *CachedEngine) store(key string, vec []float32) {
	_, err := c.db.Exec(
		"INSERT OR REPLACE INTO embeddings (key, engine, dims, vector) VALUES (?, ?, ?, ?)",
		key, c.inner.Name(), len(vec), encodeVector(vec),
	)
	if err != nil {
		logging.Get(logging.CategoryEmbedding).Warn("Failed to store embedding: %v", err)
	}
}

// Stats reports cache hits and misses accumulated by this process.
func (c *CachedEngine) Stats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}

// Dimensions returns the wrapped engine's dimensionality.
func (c *CachedEngine) Dimensions() int {
	return c.inner.Dimensions()
}

// Name returns the wrapped engine's name with a cache marker.
func (c *CachedEngine) Name() string {
	return c.inner.Name() + "+cache"
}

// Close closes the cache database and the wrapped engine.
func (c *CachedEngine) Close() error {
	dbErr := c.db.Close()
	if innerErr := c.inner.Close(); innerErr != nil && dbErr == nil {
		return innerErr
	}
	return dbErr
}

// encodeVector packs a vector as little-endian float32 bytes.
func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// decodeVector unpacks little-endian float32 bytes.
func decodeVector(b []byte) []float32 {
	vec := make([]float32, len(b)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return vec
}
