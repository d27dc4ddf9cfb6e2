package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/phpreflect/internal/config"
)

type recorder struct {
	mu      sync.Mutex
	batches [][]string
}

func (r *recorder) onChange(paths []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, paths)
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, b := range r.batches {
		out = append(out, b...)
	}
	return out
}

func newTestWatcher(t *testing.T, root string, exclude *config.Excluder) *recorder {
	t.Helper()
	logger, _ := test.NewNullLogger()
	rec := &recorder{}
	w, err := New(50*time.Millisecond, exclude, logger, rec.onChange)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, w.Watch(ctx, []string{root}))
	return rec
}

func TestWatcher_DeliversPHPChanges(t *testing.T) {
	root := t.TempDir()
	rec := newTestWatcher(t, root, nil)

	path := filepath.Join(root, "User.php")
	require.NoError(t, os.WriteFile(path, []byte("<?php class User {}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644))

	assert.Eventually(t, func() bool {
		return assert.ObjectsAreEqual([]string{path}, dedupe(rec.all()))
	}, 2*time.Second, 20*time.Millisecond)
}

func TestWatcher_Debounces(t *testing.T) {
	root := t.TempDir()
	rec := newTestWatcher(t, root, nil)

	a := filepath.Join(root, "A.php")
	b := filepath.Join(root, "B.php")
	require.NoError(t, os.WriteFile(a, []byte("<?php"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("<?php"), 0o644))

	assert.Eventually(t, func() bool {
		return len(dedupe(rec.all())) == 2
	}, 2*time.Second, 20*time.Millisecond)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.LessOrEqual(t, len(rec.batches), 2)
}

func TestWatcher_ExcludedFiles(t *testing.T) {
	root := t.TempDir()
	x, err := config.NewExcluder(nil, []string{"*Test.php"})
	require.NoError(t, err)
	rec := newTestWatcher(t, root, x)

	require.NoError(t, os.WriteFile(filepath.Join(root, "UserTest.php"), []byte("<?php"), 0o644))
	kept := filepath.Join(root, "User.php")
	require.NoError(t, os.WriteFile(kept, []byte("<?php"), 0o644))

	assert.Eventually(t, func() bool {
		return len(rec.all()) > 0
	}, 2*time.Second, 20*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, []string{kept}, dedupe(rec.all()))
}

func TestWatcher_NewDirectory(t *testing.T) {
	root := t.TempDir()
	rec := newTestWatcher(t, root, nil)

	dir := filepath.Join(root, "src")
	require.NoError(t, os.Mkdir(dir, 0o755))
	// Let the watcher register the directory before writing into it.
	time.Sleep(100 * time.Millisecond)
	path := filepath.Join(dir, "Order.php")
	require.NoError(t, os.WriteFile(path, []byte("<?php"), 0o644))

	assert.Eventually(t, func() bool {
		for _, p := range rec.all() {
			if p == path {
				return true
			}
		}
		return false
	}, 2*time.Second, 20*time.Millisecond)
}

func TestNew_DefaultLogger(t *testing.T) {
	w, err := New(time.Millisecond, nil, nil, func([]string) {})
	require.NoError(t, err)
	defer w.Close()
	assert.Equal(t, logrus.StandardLogger(), w.log)
}

func dedupe(paths []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range paths {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
