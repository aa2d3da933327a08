// Package savestore keeps a directory of saves: atomic writes, validated
// uploads and a persisted summary cache kept fresh by file-system events.
package savestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	sl "github.com/samcharles93/tilesave/pkg/saveload"

	"github.com/samcharles93/tilesave/internal/chunks"
	"github.com/samcharles93/tilesave/internal/logger"
	"github.com/samcharles93/tilesave/internal/world"
)

// Ext is the file extension of stored saves.
const Ext = ".sav"

const maxNameLen = 128

var (
	ErrNotFound    = errors.New("savestore: save not found")
	ErrInvalidName = errors.New("savestore: invalid save name")
	ErrTooLarge    = errors.New("savestore: upload too large")
	ErrClosed      = errors.New("savestore: store closed")
)

// Options configure a Store.
type Options struct {
	// Dir holds the saves. It is created if missing.
	Dir string
	// Load applies to every check and load the store performs.
	Load sl.LoadOptions
	// MaxUpload caps Put; zero means unlimited.
	MaxUpload int64
	// Watch keeps the summary cache in step with changes made by other processes.
	Watch bool
	Log   logger.Logger
}

// Store is a directory of saves. It is safe for concurrent use.
type Store struct {
	dir  string
	opts Options
	log  logger.Logger

	mu     sync.Mutex
	cache  map[string]Info
	dirty  bool
	closed bool

	watcher *fsnotify.Watcher
	wg      sync.WaitGroup
}

// Open opens the store in opts.Dir.
func Open(opts Options) (*Store, error) {
	if opts.Dir == "" {
		return nil, errors.New("savestore: no directory")
	}
	if opts.Log == nil {
		opts.Log = logger.Nop()
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, err
	}
	s := &Store{dir: opts.Dir, opts: opts, log: opts.Log.With("component", "savestore")}

	cache, err := readCache(filepath.Join(s.dir, CacheFile))
	if err != nil {
		s.log.Warn("discarding summary cache", "error", err)
		cache = make(map[string]Info)
	}
	s.cache = cache

	if opts.Watch {
		if err := s.watch(); err != nil {
			return nil, fmt.Errorf("savestore: watch %s: %w", s.dir, err)
		}
	}
	return s, nil
}

// Dir returns the store directory.
func (s *Store) Dir() string { return s.dir }

// Close stops the watcher and writes the summary cache.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	var errs []error
	if s.watcher != nil {
		errs = append(errs, s.watcher.Close())
		s.wg.Wait()
	}
	errs = append(errs, s.flush())
	return errors.Join(errs...)
}

// ValidName reports whether name can be stored: a plain file name with the
// save extension.
func ValidName(name string) bool {
	switch {
	case len(name) <= len(Ext), len(name) > maxNameLen:
		return false
	case !strings.HasSuffix(name, Ext), strings.HasPrefix(name, "."):
		return false
	case strings.ContainsAny(name, `/\`), filepath.Base(name) != name:
		return false
	}
	return true
}

func (s *Store) path(name string) (string, error) {
	if !ValidName(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(s.dir, name), nil
}

func (s *Store) stat(name string) (string, fs.FileInfo, error) {
	p, err := s.path(name)
	if err != nil {
		return "", nil, err
	}
	st, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return "", nil, err
	}
	return p, st, nil
}

// List returns every save in the directory sorted by name.
func (s *Store) List(ctx context.Context) ([]Info, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var out []Info
	for _, e := range entries {
		if e.IsDir() || !ValidName(e.Name()) {
			continue
		}
		info, err := s.Info(ctx, e.Name())
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	slices.SortFunc(out, func(a, b Info) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

// Info returns the summary of a save, checking it if the cache is stale.
// A save that fails Check is reported through Info.Err.
func (s *Store) Info(ctx context.Context, name string) (Info, error) {
	p, st, err := s.stat(name)
	if err != nil {
		return Info{}, err
	}
	s.mu.Lock()
	cached, ok := s.cache[name]
	s.mu.Unlock()
	if ok && cached.fresh(st) {
		return cached, nil
	}

	f, err := OpenFile(p)
	if err != nil {
		return Info{}, err
	}
	defer func() { _ = f.Close() }()
	sum, checkErr := chunks.Check(ctx, f.Reader(), s.opts.Load)
	if checkErr != nil && !isFormatError(checkErr) {
		return Info{}, checkErr
	}
	info := newInfo(name, st, sum, checkErr)
	s.log.Debug("summary refreshed", "name", name, "ok", info.OK())

	s.mu.Lock()
	s.cache[name] = info
	s.dirty = true
	s.mu.Unlock()
	return info, nil
}

func isFormatError(err error) bool {
	return errors.Is(err, sl.ErrCorruptFormat) ||
		errors.Is(err, sl.ErrUnsupportedVersion) ||
		errors.Is(err, sl.ErrAllocationLimit)
}

// Save writes w under name.
func (s *Store) Save(ctx context.Context, name string, w *world.World, opts sl.SaveOptions) (Info, error) {
	err := s.writeAtomic(name, func(f *os.File) error {
		return chunks.Save(ctx, f, w, opts)
	}, nil)
	if err != nil {
		return Info{}, err
	}
	s.log.Info("save written", "name", name)
	return s.Info(ctx, name)
}

// Load reads the save called name.
func (s *Store) Load(ctx context.Context, name string) (*world.World, *sl.Summary, error) {
	f, err := s.Open(name)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = f.Close() }()
	return chunks.Load(ctx, f.Reader(), s.opts.Load)
}

// Open maps the save called name for reading.
func (s *Store) Open(name string) (*File, error) {
	p, _, err := s.stat(name)
	if err != nil {
		return nil, err
	}
	return OpenFile(p)
}

// Put stores the save read from r under name. The upload is checked before it
// replaces anything; a save that fails Check is never published.
func (s *Store) Put(ctx context.Context, name string, r io.Reader) (Info, error) {
	if s.opts.MaxUpload > 0 {
		r = io.LimitReader(r, s.opts.MaxUpload+1)
	}
	err := s.writeAtomic(name, func(f *os.File) error {
		n, err := io.Copy(f, r)
		if err != nil {
			return err
		}
		if s.opts.MaxUpload > 0 && n > s.opts.MaxUpload {
			return fmt.Errorf("%w: more than %d bytes", ErrTooLarge, s.opts.MaxUpload)
		}
		return nil
	}, func(tmp string) error {
		f, err := OpenFile(tmp)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		_, err = chunks.Check(ctx, f.Reader(), s.opts.Load)
		return err
	})
	if err != nil {
		return Info{}, err
	}
	s.log.Info("save uploaded", "name", name)
	return s.Info(ctx, name)
}

// Delete removes the save called name.
func (s *Store) Delete(name string) error {
	p, _, err := s.stat(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		return err
	}
	s.invalidate(name)
	return nil
}

// writeAtomic publishes name through WriteFileAtomic.
func (s *Store) writeAtomic(name string, fill func(*os.File) error, validate func(tmp string) error) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrClosed
	}
	if err := WriteFileAtomic(p, fill, validate); err != nil {
		return err
	}
	s.invalidate(name)
	return nil
}

// WriteFileAtomic fills a temporary file next to path, syncs it, runs validate
// on it when non-nil and only then renames it over path. On error path keeps
// its previous content and the temporary file is removed.
func WriteFileAtomic(path string, fill func(*os.File) error, validate func(tmp string) error) (err error) {
	tmp := filepath.Join(filepath.Dir(path), "."+uuid.NewString()+".tmp")
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	closed := false
	defer func() {
		if err != nil {
			if !closed {
				_ = f.Close()
			}
			_ = os.Remove(tmp)
		}
	}()

	if err = fill(f); err != nil {
		return err
	}
	if err = f.Sync(); err != nil {
		return err
	}
	closed = true
	if err = f.Close(); err != nil {
		return err
	}
	if validate != nil {
		if err = validate(tmp); err != nil {
			return err
		}
	}
	return os.Rename(tmp, path)
}

func (s *Store) invalidate(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cache[name]; ok {
		delete(s.cache, name)
		s.dirty = true
	}
}

func (s *Store) cached(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.cache[name]
	return ok
}

// flush persists the summary cache if it changed.
func (s *Store) flush() error {
	s.mu.Lock()
	if !s.dirty {
		s.mu.Unlock()
		return nil
	}
	snapshot := make(map[string]Info, len(s.cache))
	for k, v := range s.cache {
		snapshot[k] = v
	}
	s.dirty = false
	s.mu.Unlock()

	tmp := filepath.Join(s.dir, "."+uuid.NewString()+".tmp")
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if err := encodeCache(f, snapshot); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, filepath.Join(s.dir, CacheFile))
}

// Flush writes the summary cache now.
func (s *Store) Flush() error { return s.flush() }
