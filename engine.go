package phpreflect

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jward/phpreflect/internal/config"
	"github.com/jward/phpreflect/internal/extract"
	"github.com/jward/phpreflect/internal/grammar"
	"github.com/jward/phpreflect/internal/observability"
	"github.com/jward/phpreflect/internal/runtime"
	"github.com/jward/phpreflect/internal/store"
)

// Engine owns a registry: it indexes PHP source into it and hands out
// Reflectors over it.
type Engine struct {
	store     *store.Store
	reflector *Reflector
	runtime   *runtime.Runtime
	log       logrus.FieldLogger

	version      Version
	excludeDirs  []string
	excludeFiles []string
	exclude      *config.Excluder
	scriptsDir   string
	scriptsFS    fs.FS

	// useParallel enables the parallel extraction pipeline.
	useParallel bool
}

const metaPHPVersion = "php_version"

// Option configures an Engine.
type Option func(*Engine)

// WithVersion sets the PHP version the Reflector answers for. The default
// is DefaultVersion.
func WithVersion(v Version) Option {
	return func(e *Engine) {
		e.version = v
	}
}

// WithLogger sets the logger for indexing and scripts. The default is the
// logrus standard logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithParallel controls parallel extraction. When true (default), IndexFiles
// parses and extracts on a worker pool, with a single writer committing
// batches to SQLite. Set to false for serial mode.
func WithParallel(parallel bool) Option {
	return func(e *Engine) {
		e.useParallel = parallel
	}
}

// WithExcludes skips directories and files whose base name matches one of
// the glob patterns. Invalid patterns make New fail.
func WithExcludes(dirs, files []string) Option {
	return func(e *Engine) {
		e.excludeDirs = dirs
		e.excludeFiles = files
	}
}

// WithScriptsDir sets the directory RunScript loads scripts and imports
// from.
func WithScriptsDir(dir string) Option {
	return func(e *Engine) {
		e.scriptsDir = dir
	}
}

// WithScriptsFS loads scripts from fsys instead of a directory on disk.
func WithScriptsFS(fsys fs.FS) Option {
	return func(e *Engine) {
		e.scriptsFS = fsys
	}
}

// New creates an Engine backed by a SQLite database at dbPath. Pass
// MemoryPath for a throwaway registry.
func New(dbPath string, opts ...Option) (*Engine, error) {
	e := &Engine{
		version:     DefaultVersion,
		log:         logrus.StandardLogger(),
		excludeDirs: []string{".*", "vendor", "node_modules"},
		useParallel: true,
	}
	for _, opt := range opts {
		opt(e)
	}

	exclude, err := config.NewExcluder(e.excludeDirs, e.excludeFiles)
	if err != nil {
		return nil, fmt.Errorf("phpreflect: excludes: %w", err)
	}
	e.exclude = exclude

	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("phpreflect: create store: %w", err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("phpreflect: migrate: %w", err)
	}
	e.store = s
	e.reflector = NewReflector(s, e.version)

	if prev, err := s.GetMetadata(metaPHPVersion); err == nil && prev != "" && prev != e.version.String() {
		e.log.WithFields(logrus.Fields{
			"indexed_for": prev,
			"version":     e.version.String(),
		}).Info("registry was indexed for a different PHP version")
	}

	rtOpts := []runtime.RuntimeOption{runtime.WithLogger(e.log)}
	if e.scriptsFS != nil {
		rtOpts = append(rtOpts, runtime.WithRuntimeFS(e.scriptsFS))
	}
	e.runtime = runtime.NewRuntime(&scriptHost{r: e.reflector}, e.scriptsDir, rtOpts...)
	return e, nil
}

// Close releases the Engine's database resources.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Store returns the underlying registry.
func (e *Engine) Store() *Store {
	return e.store
}

// Reflector returns the Reflector over the registry.
func (e *Engine) Reflector() *Reflector {
	return e.reflector
}

// Version returns the PHP version of the Reflector.
func (e *Engine) Version() Version {
	return e.version
}

// IndexFiles indexes the given PHP files. Unchanged files (same content
// hash) are skipped; changed files replace what was recorded for them.
// Errors on individual files are logged and skipped; processing continues
// and the first error is returned at the end.
func (e *Engine) IndexFiles(ctx context.Context, paths []string) error {
	start := time.Now()
	defer func() {
		observability.IndexDuration.Observe(time.Since(start).Seconds())
		e.log.WithFields(logrus.Fields{
			"files":    len(paths),
			"duration": time.Since(start),
		}).Debug("indexing finished")
	}()

	if err := e.store.SetMetadata(metaPHPVersion, e.version.String()); err != nil {
		return fmt.Errorf("phpreflect: %w", err)
	}
	if e.useParallel {
		return e.indexFilesParallel(ctx, paths)
	}
	return e.indexFilesSerial(ctx, paths)
}

// IndexedVersion returns the PHP version the registry was last indexed
// for, or "" for a fresh registry.
func (e *Engine) IndexedVersion() (string, error) {
	return e.store.GetMetadata(metaPHPVersion)
}

func (e *Engine) indexFilesSerial(ctx context.Context, paths []string) error {
	var errs []error
	for _, path := range paths {
		if err := e.indexFile(ctx, path); err != nil {
			e.log.WithError(err).WithField("path", path).Warn("indexing failed")
			errs = append(errs, fmt.Errorf("index %s: %w", path, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("phpreflect: indexing had %d error(s): %w", len(errs), errs[0])
	}
	return nil
}

func (e *Engine) indexFile(ctx context.Context, path string) error {
	item, skip, err := e.prepareFile(ctx, path)
	if err != nil {
		observability.IndexErrorsTotal.WithLabelValues(observability.PhasePrepare).Inc()
		return err
	}
	if skip {
		return nil
	}

	start := time.Now()
	res, err := extract.File(ctx, e.store, item.fileID, item.content)
	observability.ParseDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		observability.IndexErrorsTotal.WithLabelValues(observability.PhaseExtract).Inc()
		return err
	}
	return e.finishFile(item, res)
}

// finishFile records what extraction learned about the file itself.
func (e *Engine) finishFile(item workItem, res *extract.Result) error {
	if err := e.store.UpdateFileNamespace(item.fileID, res.Imports.Namespace); err != nil {
		return err
	}
	observability.FilesIndexedTotal.Inc()
	observability.SymbolsExtractedTotal.Add(float64(res.Symbols))
	e.log.WithFields(logrus.Fields{
		"path":    item.path,
		"symbols": res.Symbols,
	}).Debug("indexed file")
	return nil
}

// RemoveFiles drops everything recorded for paths. Unknown paths are
// ignored.
func (e *Engine) RemoveFiles(paths []string) error {
	for _, path := range paths {
		f, err := e.store.FileByPath(path)
		if err != nil {
			return fmt.Errorf("phpreflect: lookup %s: %w", path, err)
		}
		if f == nil {
			continue
		}
		if err := e.store.DeleteFileData(f.ID); err != nil {
			return fmt.Errorf("phpreflect: remove %s: %w", path, err)
		}
	}
	return nil
}

// Refresh brings the registry up to date for paths reported by a file
// watcher: files that still exist are re-indexed and missing ones removed.
func (e *Engine) Refresh(ctx context.Context, paths []string) error {
	var present, gone []string
	for _, path := range paths {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			gone = append(gone, path)
		} else {
			present = append(present, path)
		}
	}
	if err := e.RemoveFiles(gone); err != nil {
		return err
	}
	if len(present) == 0 {
		return nil
	}
	return e.IndexFiles(ctx, present)
}

// IndexDirectory walks root and indexes all PHP files. If root is inside a
// git repository, uses git ls-files to respect .gitignore. Falls back to a
// filesystem walk if git is unavailable. Excluded directories and files are
// skipped either way.
func (e *Engine) IndexDirectory(ctx context.Context, root string) error {
	paths, err := e.gitListFiles(root)
	if err != nil {
		e.log.WithError(err).Debug("git ls-files unavailable, walking directory")
		paths, err = e.walkListFiles(root)
		if err != nil {
			return err
		}
	}
	return e.IndexFiles(ctx, paths)
}

// gitListFiles uses git ls-files to discover tracked and untracked (but not
// ignored) PHP files under root.
func (e *Engine) gitListFiles(root string) ([]string, error) {
	cmd := exec.Command("git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git ls-files: %w", err)
	}

	var paths []string
	for _, line := range strings.Split(stdout.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !grammar.IsPHPFile(line) || e.exclude.File(line) {
			continue
		}
		paths = append(paths, filepath.Join(root, line))
	}
	return paths, nil
}

// walkListFiles discovers PHP files by walking the filesystem.
func (e *Engine) walkListFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && e.exclude.Dir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if grammar.IsPHPFile(path) && !e.exclude.File(d.Name()) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("phpreflect: walk directory: %w", err)
	}
	return paths, nil
}

// RunScript executes a Risor script with the reflection globals.
func (e *Engine) RunScript(ctx context.Context, scriptPath string, extras map[string]any) error {
	return e.runtime.RunScript(ctx, scriptPath, extras)
}

// Eval executes Risor source and returns the value of its last expression.
func (e *Engine) Eval(ctx context.Context, source string) (any, error) {
	return e.runtime.Eval(ctx, source, nil)
}
