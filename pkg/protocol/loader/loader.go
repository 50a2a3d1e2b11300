// Package loader resolves a provider/model id to a validated
// protocol.ProtocolManifest via a layered search order: in-process
// registry, $AI_PROTOCOL_PATH, well-known local directories, and an
// optional remote repository.
package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/digitallysavvy/go-ai-core/pkg/protocol"
)

// RemoteFetcher fetches a manifest document by id from a remote manifest
// repository. Loader treats it as an optional, last-resort search layer.
type RemoteFetcher interface {
	Fetch(id string) (raw []byte, format string, err error)
}

// NotFoundError indicates none of the configured search layers had a
// manifest for the requested id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no protocol manifest found for %q", e.ID)
}

// Loader resolves, validates, and caches manifests. A Loader is safe for
// concurrent use; the manifest cache is read-mostly with copy-on-write
// swaps on hot reload.
type Loader struct {
	mu sync.RWMutex

	registered  map[string]*protocol.ProtocolManifest
	searchRoots []string
	remote      RemoteFetcher
	disk        *DiskCache
	mode        protocol.ValidationMode

	cache   map[string]*cacheEntry
	watcher *fsnotify.Watcher
}

// Option configures a Loader at construction time.
type Option func(*Loader)

// WithSearchRoot appends a directory to the well-known local search path,
// tried after $AI_PROTOCOL_PATH and before any remote fetcher.
func WithSearchRoot(dir string) Option {
	return func(l *Loader) { l.searchRoots = append(l.searchRoots, dir) }
}

// WithRemoteFetcher enables the optional remote manifest repository layer.
func WithRemoteFetcher(f RemoteFetcher) Option {
	return func(l *Loader) { l.remote = f }
}

// WithDiskCache persists remote-fetched manifests under dir, so a process
// restart does not re-fetch manifests the repository already served. Local
// search roots are never disk-cached; they are already on disk.
func WithDiskCache(dir string) Option {
	return func(l *Loader) { l.disk = NewDiskCache(dir) }
}

// WithValidationMode sets the ValidationMode new manifests are validated
// under at load time. Hot-reloaded manifests keep using the mode that was
// active when they were first loaded.
func WithValidationMode(mode protocol.ValidationMode) Option {
	return func(l *Loader) { l.mode = mode }
}

// New builds a Loader. $AI_PROTOCOL_PATH, if set, is inserted ahead of any
// WithSearchRoot directories.
func New(opts ...Option) *Loader {
	l := &Loader{
		registered: make(map[string]*protocol.ProtocolManifest),
		cache:      make(map[string]*cacheEntry),
	}
	for _, opt := range opts {
		opt(l)
	}
	if envPath := os.Getenv("AI_PROTOCOL_PATH"); envPath != "" {
		l.searchRoots = append([]string{envPath}, l.searchRoots...)
	}
	return l
}

// Register adds an in-process manifest, the highest-priority resolution
// layer. It bypasses file lookup entirely but still runs full validation.
func (l *Loader) Register(m *protocol.ProtocolManifest) error {
	if err := m.Validate(l.mode); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.registered[m.ID] = m
	return nil
}

// Load resolves id to a manifest, trying each layer in priority order and
// returning the first hit. Results are cached by id.
func (l *Loader) Load(id string) (*protocol.ProtocolManifest, error) {
	l.mu.RLock()
	if m, ok := l.registered[id]; ok {
		l.mu.RUnlock()
		return m, nil
	}
	if entry, ok := l.cache[id]; ok {
		m := entry.manifest
		l.mu.RUnlock()
		return m, nil
	}
	l.mu.RUnlock()

	for _, root := range l.searchRoots {
		m, path, err := l.loadFromRoot(root, id)
		if err == nil {
			l.storeCache(id, m, path)
			return m, nil
		}
		var notFound *NotFoundError
		if !errors.As(err, &notFound) {
			// The manifest exists in this root but is invalid; surface the
			// validation error instead of falling through to not_found.
			return nil, err
		}
	}

	if l.remote != nil {
		if m := l.loadFromDiskCache(id); m != nil {
			return m, nil
		}

		raw, format, err := l.remote.Fetch(id)
		if err == nil {
			m, perr := parseByFormat(raw, format, l.mode)
			if perr != nil {
				return nil, perr
			}
			if l.disk != nil {
				_ = l.disk.Put(id, format, raw)
			}
			l.storeCache(id, m, "")
			return m, nil
		}
	}

	return nil, &NotFoundError{ID: id}
}

// loadFromDiskCache tries the on-disk dump of earlier remote fetches.
// Entries that no longer parse or validate are discarded silently, the same
// as corrupt ones.
func (l *Loader) loadFromDiskCache(id string) *protocol.ProtocolManifest {
	if l.disk == nil {
		return nil
	}
	raw, format, ok := l.disk.Get(id)
	if !ok {
		return nil
	}
	m, perr := parseByFormat(raw, format, l.mode)
	if perr != nil {
		l.disk.Discard(id)
		return nil
	}
	l.storeCache(id, m, "")
	return m
}

// loadFromRoot tries "dist/v1/providers/<id>.json" then
// "v1/providers/<id>.yaml" under root, in that order.
func (l *Loader) loadFromRoot(root, id string) (*protocol.ProtocolManifest, string, error) {
	jsonPath := filepath.Join(root, "dist", "v1", "providers", id+".json")
	if raw, err := os.ReadFile(jsonPath); err == nil {
		m, perr := protocol.ParseJSON(raw, l.mode)
		if perr != nil {
			return nil, "", perr
		}
		return m, jsonPath, nil
	}

	yamlPath := filepath.Join(root, "v1", "providers", id+".yaml")
	if raw, err := os.ReadFile(yamlPath); err == nil {
		m, perr := protocol.ParseYAML(raw, l.mode)
		if perr != nil {
			return nil, "", perr
		}
		return m, yamlPath, nil
	}

	return nil, "", &NotFoundError{ID: id}
}

func parseByFormat(raw []byte, format string, mode protocol.ValidationMode) (*protocol.ProtocolManifest, error) {
	if format == "yaml" {
		return protocol.ParseYAML(raw, mode)
	}
	return protocol.ParseJSON(raw, mode)
}

// Manifests returns a snapshot of every currently cached or registered
// manifest id, useful for diagnostics.
func (l *Loader) Manifests() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := make([]string, 0, len(l.registered)+len(l.cache))
	for id := range l.registered {
		ids = append(ids, id)
	}
	for id := range l.cache {
		ids = append(ids, id)
	}
	return ids
}
