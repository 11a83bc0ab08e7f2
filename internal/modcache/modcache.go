// Package modcache is the compiled-module cache SPEC_FULL.md §4.15 adds: a
// content-addressed store that lets a host skip re-running the semantic
// pipeline and compiler over source text it has already seen.
//
// Grounded on the teacher's own on-disk module cache
// (_examples/funvibe-funxy/internal/vm/bundle.go: "hash source, check for a
// matching bundle on disk, compile-and-write on a miss"), adapted from
// funxy's flat-file-per-hash layout to a single modernc.org/sqlite (pure
// Go, no cgo) database so concurrent Interpreters can share one cache file
// without a directory-listing race, per SPEC_FULL.md §4.15.
package modcache

import (
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/emberlang/ember/internal/bundle"
	"github.com/emberlang/ember/internal/module"
)

// Cache is a handle to the compiled-module database.
type Cache struct {
	db *sql.DB
}

// Open opens (creating if necessary) the sqlite database at path and
// ensures its schema exists: modules(hash TEXT PRIMARY KEY, bundle BLOB,
// created_at INTEGER), per SPEC_FULL.md §4.15.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("modcache: open %s: %w", path, err)
	}
	const schema = `CREATE TABLE IF NOT EXISTS modules (
		hash TEXT PRIMARY KEY,
		bundle BLOB NOT NULL,
		created_at INTEGER NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("modcache: create schema: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close releases the underlying database handle.
func (c *Cache) Close() error { return c.db.Close() }

// Hash returns the cache key for source: an FNV-1a digest of its bytes
// (SPEC_FULL.md §4.15), hex-encoded.
func Hash(source string) string {
	h := fnv.New64a()
	h.Write([]byte(source))
	return fmt.Sprintf("%016x", h.Sum64())
}

// Lookup returns the cached Module for hash, if any, rehydrated against
// builtin as its sole import. A miss (or a bundle this build can no longer
// decode — e.g. after a format-version bump) reports found=false rather
// than an error, so the caller falls back to a normal compile.
func (c *Cache) Lookup(hash string, builtin *module.Module) (mod *module.Module, found bool, err error) {
	var data []byte
	err = c.db.QueryRow(`SELECT bundle FROM modules WHERE hash = ?`, hash).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("modcache: lookup %s: %w", hash, err)
	}
	b, err := bundle.Unmarshal(data)
	if err != nil {
		return nil, false, nil
	}
	mod, ok := b.ToModule(builtin)
	if !ok {
		return nil, false, nil
	}
	return mod, true, nil
}

// Store bundles mod and records it under hash, replacing any prior entry.
// A Module the bundle format can't represent (bundle.Supported reports
// false — e.g. it uses closures) is silently not cached: the caller will
// simply recompile it every time, which is correct, only slower.
func (c *Cache) Store(hash string, mod *module.Module) error {
	b, ok := bundle.FromModule(mod)
	if !ok {
		return nil
	}
	data, err := b.Marshal()
	if err != nil {
		return fmt.Errorf("modcache: marshal %s: %w", hash, err)
	}
	_, err = c.db.Exec(
		`INSERT OR REPLACE INTO modules (hash, bundle, created_at) VALUES (?, ?, ?)`,
		hash, data, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("modcache: store %s: %w", hash, err)
	}
	return nil
}
