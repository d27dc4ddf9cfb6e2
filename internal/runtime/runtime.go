// Package runtime runs Risor scripts against an indexed PHP project. Scripts
// see the reflection API through a Host and get helpers that tokenize PHP
// source and sanitize doc comments.
package runtime

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/importer"
	"github.com/risor-io/risor/object"
	"github.com/sirupsen/logrus"
)

// Host answers reflection queries for scripts. Values are plain Go maps,
// slices and scalars so the runtime can convert them to Risor objects.
type Host interface {
	Class(ctx context.Context, name string) (map[string]any, error)
	UseStatements(ctx context.Context, className string) ([]map[string]any, error)
	ResolveDocType(ctx context.Context, className, short string) (string, bool, error)
	// Annotations of the class, or of a member written "method()",
	// "$property" or "CONSTANT" when member is set.
	Annotations(ctx context.Context, className, member string) ([]string, error)
	PHPVersion() string
}

// Runtime evaluates Risor scripts with the reflection globals.
type Runtime struct {
	host       Host
	scriptsDir string
	fsys       fs.FS
	log        logrus.FieldLogger
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithRuntimeFS loads scripts and resolves imports from fsys instead of
// scriptsDir.
func WithRuntimeFS(fsys fs.FS) RuntimeOption {
	return func(r *Runtime) {
		r.fsys = fsys
	}
}

// WithLogger backs the script "log" global with l.
func WithLogger(l logrus.FieldLogger) RuntimeOption {
	return func(r *Runtime) {
		r.log = l
	}
}

// NewRuntime creates a Runtime. host may be nil, in which case only the
// source helpers are available.
func NewRuntime(host Host, scriptsDir string, opts ...RuntimeOption) *Runtime {
	r := &Runtime{
		host:       host,
		scriptsDir: scriptsDir,
		log:        logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunScript loads and executes a Risor script with all standard globals
// plus any extra globals provided by the caller.
func (r *Runtime) RunScript(ctx context.Context, scriptPath string, extraGlobals map[string]any) error {
	src, err := r.LoadScript(scriptPath)
	if err != nil {
		return err
	}
	_, err = r.eval(ctx, src, scriptPath, extraGlobals)
	return err
}

// RunSource executes Risor source code directly.
func (r *Runtime) RunSource(ctx context.Context, source string, extraGlobals map[string]any) error {
	_, err := r.eval(ctx, source, "<inline>", extraGlobals)
	return err
}

// Eval executes source and returns the value of its last expression as a
// Go value.
func (r *Runtime) Eval(ctx context.Context, source string, extraGlobals map[string]any) (any, error) {
	result, err := r.eval(ctx, source, "<inline>", extraGlobals)
	if err != nil {
		return nil, err
	}
	return result.Interface(), nil
}

func (r *Runtime) eval(ctx context.Context, source, label string, extraGlobals map[string]any) (object.Object, error) {
	globals := r.buildGlobals(extraGlobals)

	var opts []risor.Option
	for name, val := range globals {
		opts = append(opts, risor.WithGlobal(name, val))
	}
	if imp := r.buildImporter(globals); imp != nil {
		opts = append(opts, risor.WithImporter(imp))
	}

	result, err := risor.Eval(ctx, source, opts...)
	if err != nil {
		return nil, fmt.Errorf("runtime: script %s: %w", label, err)
	}
	return result, nil
}

// buildImporter returns an importer for the configured script source, or
// nil when there is none.
func (r *Runtime) buildImporter(globals map[string]any) importer.Importer {
	globalNames := make([]string, 0, len(globals))
	for name := range globals {
		globalNames = append(globalNames, name)
	}

	if r.fsys != nil {
		return importer.NewFSImporter(importer.FSImporterOptions{
			GlobalNames: globalNames,
			SourceFS:    r.fsys,
			Extensions:  []string{".risor"},
		})
	}
	if r.scriptsDir != "" {
		return importer.NewLocalImporter(importer.LocalImporterOptions{
			GlobalNames: globalNames,
			SourceDir:   r.scriptsDir,
			Extensions:  []string{".risor"},
		})
	}
	return nil
}

// LoadScript reads a .risor file from the configured fs.FS, or relative to
// scriptsDir on disk.
func (r *Runtime) LoadScript(path string) (string, error) {
	if r.fsys != nil {
		fsPath := strings.TrimPrefix(filepath.ToSlash(path), "/")
		data, err := fs.ReadFile(r.fsys, fsPath)
		if err != nil {
			return "", fmt.Errorf("runtime: loading script %s from fs: %w", fsPath, err)
		}
		return string(data), nil
	}

	fullPath := path
	if !filepath.IsAbs(path) && r.scriptsDir != "" {
		fullPath = filepath.Join(r.scriptsDir, path)
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return "", fmt.Errorf("runtime: loading script %s: %w", fullPath, err)
	}
	return string(data), nil
}

func (r *Runtime) buildGlobals(extra map[string]any) map[string]any {
	globals := map[string]any{
		"tokens":      makeTokensFn(),
		"scan_uses":   makeScanUsesFn(),
		"sanitize":    makeSanitizeFn(),
		"split_types": makeSplitTypesFn(),
		"log":         mustProxy(&logObject{log: r.log}),
	}

	if r.host != nil {
		globals["php_version"] = object.NewString(r.host.PHPVersion())
		globals["class"] = makeClassFn(r.host)
		globals["uses"] = makeUsesFn(r.host)
		globals["resolve"] = makeResolveFn(r.host)
		globals["annotations"] = makeAnnotationsFn(r.host)
	}

	for k, v := range extra {
		globals[k] = v
	}
	return globals
}

func mustProxy(v any) object.Object {
	p, err := object.NewProxy(v)
	if err != nil {
		panic(fmt.Sprintf("runtime: proxy error: %v", err))
	}
	return p
}

// logObject provides log.Debug/Info/Warn/Error methods for Risor scripts.
type logObject struct {
	log logrus.FieldLogger
}

func (l *logObject) Debug(msg string) { l.log.WithField("source", "script").Debug(msg) }
func (l *logObject) Info(msg string)  { l.log.WithField("source", "script").Info(msg) }
func (l *logObject) Warn(msg string)  { l.log.WithField("source", "script").Warn(msg) }
func (l *logObject) Error(msg string) { l.log.WithField("source", "script").Error(msg) }
