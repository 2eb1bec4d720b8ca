package fs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/fsnotify/fsnotify"

	"github.com/codefionn/directguard/internal/logger"
)

// FileInfo represents file metadata
type FileInfo struct {
	Path    string
	Size    int64
	ModTime time.Time
	IsDir   bool
}

// WorkspaceFS performs filesystem operations rooted in a workspace
// directory, with a directory listing cache invalidated by fsnotify.
// Relative paths are joined with securejoin so that even a path that slipped
// past earlier validation cannot address anything above the root.
type WorkspaceFS struct {
	root       string
	dirCache   map[string]*dirCacheEntry
	cacheMu    sync.RWMutex
	cacheTTL   time.Duration
	maxEntries int
	watcher    *fsnotify.Watcher
	stopWatch  chan struct{}
}

type dirCacheEntry struct {
	entries   []*FileInfo
	timestamp time.Time
}

// New creates a WorkspaceFS for root.
func New(root string, cacheTTL time.Duration, maxEntries int) *WorkspaceFS {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Global().Warn("failed to create file watcher: %v", err)
	}

	w := &WorkspaceFS{
		root:       root,
		dirCache:   make(map[string]*dirCacheEntry),
		cacheTTL:   cacheTTL,
		maxEntries: maxEntries,
		watcher:    watcher,
		stopWatch:  make(chan struct{}),
	}

	if watcher != nil {
		go w.watchFiles()
	}

	return w
}

// Close stops the watcher.
func (w *WorkspaceFS) Close() error {
	close(w.stopWatch)
	if w.watcher != nil {
		return w.watcher.Close()
	}
	return nil
}

func (w *WorkspaceFS) watchFiles() {
	for {
		select {
		case <-w.stopWatch:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			dir := filepath.Dir(event.Name)
			w.cacheMu.Lock()
			delete(w.dirCache, dir)
			w.cacheMu.Unlock()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Global().Error("filesystem watcher error: %v", err)
		}
	}
}

// absPath maps path into the workspace. Absolute paths are used as-is (they
// have already passed the guard); relative paths are securely joined so a
// symlinked segment cannot climb above the root.
func (w *WorkspaceFS) absPath(path string) (string, error) {
	if filepath.IsAbs(path) {
		return path, nil
	}
	return securejoin.SecureJoin(w.root, path)
}

// ReadFile reads the entire file; reads are never cached.
func (w *WorkspaceFS) ReadFile(ctx context.Context, path string) ([]byte, error) {
	abs, err := w.absPath(path)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(abs)
}

// WriteFile writes data, creating parent directories as needed.
func (w *WorkspaceFS) WriteFile(ctx context.Context, path string, data []byte) error {
	abs, err := w.absPath(path)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(abs, data, 0644); err != nil {
		return err
	}

	w.InvalidateDirCache(filepath.Dir(abs))

	if w.watcher != nil {
		if err := w.watcher.Add(filepath.Dir(abs)); err != nil {
			logger.Global().Warn("WorkspaceFS: failed to add watcher for %s: %v", abs, err)
		}
	}

	return nil
}

// Stat returns file information.
func (w *WorkspaceFS) Stat(ctx context.Context, path string) (*FileInfo, error) {
	abs, err := w.absPath(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	return &FileInfo{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
		IsDir:   info.IsDir(),
	}, nil
}

// Exists checks if a file exists.
func (w *WorkspaceFS) Exists(ctx context.Context, path string) (bool, error) {
	_, err := w.Stat(ctx, path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// ListDir lists directory contents, serving from cache when fresh. The
// audit directory is filtered from listings shown to the model.
func (w *WorkspaceFS) ListDir(ctx context.Context, path string) ([]*FileInfo, error) {
	abs, err := w.absPath(path)
	if err != nil {
		return nil, err
	}

	w.cacheMu.RLock()
	if entry, ok := w.dirCache[abs]; ok {
		if time.Since(entry.timestamp) < w.cacheTTL {
			w.cacheMu.RUnlock()
			return entry.entries, nil
		}
	}
	w.cacheMu.RUnlock()

	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, err
	}

	result := make([]*FileInfo, 0, len(entries))
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".direct") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		result = append(result, &FileInfo{
			Path:    filepath.Join(path, entry.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
			IsDir:   entry.IsDir(),
		})
	}

	w.cacheMu.Lock()
	if len(w.dirCache) >= w.maxEntries {
		var oldestKey string
		var oldestTime time.Time
		for k, v := range w.dirCache {
			if oldestKey == "" || v.timestamp.Before(oldestTime) {
				oldestKey = k
				oldestTime = v.timestamp
			}
		}
		delete(w.dirCache, oldestKey)
	}
	w.dirCache[abs] = &dirCacheEntry{
		entries:   result,
		timestamp: time.Now(),
	}
	w.cacheMu.Unlock()

	if w.watcher != nil {
		if err := w.watcher.Add(abs); err != nil {
			logger.Global().Warn("WorkspaceFS: failed to add watcher for %s: %v", abs, err)
		}
	}

	return result, nil
}

// InvalidateDirCache removes a directory from cache.
func (w *WorkspaceFS) InvalidateDirCache(path string) {
	abs, err := w.absPath(path)
	if err != nil {
		return
	}
	w.cacheMu.Lock()
	defer w.cacheMu.Unlock()
	delete(w.dirCache, abs)
}

// MkdirAll creates a directory and all parents.
func (w *WorkspaceFS) MkdirAll(ctx context.Context, path string, perm os.FileMode) error {
	abs, err := w.absPath(path)
	if err != nil {
		return err
	}
	return os.MkdirAll(abs, perm)
}
