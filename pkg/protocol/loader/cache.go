package loader

import (
	"log"
	"os"

	"github.com/fsnotify/fsnotify"

	"github.com/digitallysavvy/go-ai-core/pkg/protocol"
)

// cacheEntry holds a loaded manifest plus the mode it was validated under,
// so a later hot reload re-validates consistently rather than under
// whatever strictness happens to be configured at reload time.
type cacheEntry struct {
	manifest   *protocol.ProtocolManifest
	sourcePath string
	mode       protocol.ValidationMode
}

func (l *Loader) storeCache(id string, m *protocol.ProtocolManifest, sourcePath string) {
	l.mu.Lock()
	l.cache[id] = &cacheEntry{manifest: m, sourcePath: sourcePath, mode: l.mode}
	l.mu.Unlock()

	if sourcePath != "" && l.watcher != nil {
		_ = l.watcher.Add(sourcePath)
	}
}

// WatchForChanges starts an fsnotify watcher that reloads cached manifests
// when their backing file changes. Readers always observe either the old
// or the new manifest, never a partially updated one, because the swap
// replaces the map entry atomically under the write lock.
func (l *Loader) WatchForChanges() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	l.watcher = w

	go func() {
		for {
			select {
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					l.reloadBySourcePath(event.Name)
				}
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return nil
}

// Close stops the hot-reload watcher, if one is running.
func (l *Loader) Close() error {
	if l.watcher == nil {
		return nil
	}
	return l.watcher.Close()
}

func (l *Loader) reloadBySourcePath(path string) {
	l.mu.RLock()
	var id string
	var mode protocol.ValidationMode
	for candidateID, entry := range l.cache {
		if entry.sourcePath == path {
			id = candidateID
			mode = entry.mode
			break
		}
	}
	l.mu.RUnlock()
	if id == "" {
		return
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return
	}

	// A manifest re-validates under the mode active when it was first
	// loaded. If strictness has since been tightened, warn rather than
	// eagerly re-validating under the new mode (Open Question #3).
	if mode.StrictStreaming != l.mode.StrictStreaming && l.mode.StrictStreaming {
		log.Printf("protocol/loader: strictness tightened since %q was cached; reloading under original mode", id)
	}

	var m *protocol.ProtocolManifest
	var perr error
	if isYAMLPath(path) {
		m, perr = protocol.ParseYAML(raw, mode)
	} else {
		m, perr = protocol.ParseJSON(raw, mode)
	}
	if perr != nil {
		log.Printf("protocol/loader: hot reload of %q failed validation, keeping previous manifest: %v", path, perr)
		return
	}

	l.mu.Lock()
	l.cache[id] = &cacheEntry{manifest: m, sourcePath: path, mode: mode}
	l.mu.Unlock()
}

func isYAMLPath(path string) bool {
	for i := len(path) - 1; i >= 0 && i >= len(path)-5; i-- {
		if path[i] == '.' {
			return path[i:] == ".yaml" || path[i:] == ".yml"
		}
	}
	return false
}
