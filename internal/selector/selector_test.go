package selector

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taigrr/randopen/internal/cache"
	"github.com/taigrr/randopen/internal/filesystem"
	"github.com/taigrr/randopen/internal/opener"
	"github.com/taigrr/randopen/internal/pathfilter"
	"github.com/taigrr/randopen/internal/types"
)

type recordingOpener struct {
	opened []string
	err    error
}

func (r *recordingOpener) Open(_ context.Context, path string) error {
	r.opened = append(r.opened, path)
	return r.err
}

type testEnv struct {
	root     string
	self     string
	store    *cache.Store
	opener   *recordingOpener
	out      *bytes.Buffer
	eligible []string
}

// newTestEnv creates a root holding the program binary and the given files.
func newTestEnv(t *testing.T, files ...string) *testEnv {
	t.Helper()
	root := t.TempDir()
	env := &testEnv{
		root:   root,
		self:   filepath.Join(root, "randopen"),
		store:  cache.New(filepath.Join(root, cache.DefaultName)),
		opener: &recordingOpener{},
		out:    &bytes.Buffer{},
	}
	require.NoError(t, os.WriteFile(env.self, []byte("#!/bin/true"), 0o755))
	for _, f := range files {
		full := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(f), 0o644))
		env.eligible = append(env.eligible, full)
	}
	return env
}

func (e *testEnv) selector(seed uint64, mutate ...func(*Config)) *Selector {
	pf := pathfilter.New(&types.PathFilterConfig{
		ExcludedPaths: []string{e.self, e.store.Path(), cache.LockPath(e.store.Path())},
	})
	cfg := Config{
		Files:  filesystem.New(e.root, pf, nil),
		Store:  e.store,
		Filter: pf,
		Opener: e.opener,
		Rand:   rand.New(rand.NewPCG(seed, seed+1)),
		Out:    e.out,
	}
	for _, m := range mutate {
		m(&cfg)
	}
	return New(cfg)
}

func TestSelector_CacheMissCreatesCache(t *testing.T) {
	env := newTestEnv(t, "a.txt", "b.mkv", "music/c.flac", "music/live/d.flac")

	sel, err := env.selector(1).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, types.CacheMiss, sel.State)
	assert.ElementsMatch(t, env.eligible, sel.Files)
	assert.Contains(t, env.eligible, sel.Chosen)
	assert.True(t, sel.Opened)
	assert.Equal(t, []string{sel.Chosen}, env.opener.opened)

	cached, err := env.store.Read()
	require.NoError(t, err)
	assert.Len(t, cached, len(env.eligible))
	assert.ElementsMatch(t, env.eligible, cached)
	assert.Equal(t, sel.Files, cached, "cache holds the shuffled order")

	out := env.out.String()
	assert.Contains(t, out, "Shuffle time!")
	assert.True(t, strings.HasSuffix(out, sel.Chosen+"\n"))
}

func TestSelector_CacheHitReusesCache(t *testing.T) {
	env := newTestEnv(t)
	entries := []string{"/media/a.mkv", "/media/b.mkv", "/media/c.mkv", "/media/d.mkv", "/media/e.mkv"}
	require.NoError(t, env.store.Write(entries))

	sel, err := env.selector(2).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, types.CacheHit, sel.State)
	assert.Contains(t, entries, sel.Chosen)
	assert.Equal(t, []string{sel.Chosen}, env.opener.opened)

	cached, err := env.store.Read()
	require.NoError(t, err)
	assert.Len(t, cached, len(entries))
	assert.ElementsMatch(t, entries, cached)
	assert.Contains(t, env.out.String(), "Cache detected. Choosing from cache...")
}

func TestSelector_CacheHitDoesNotWalk(t *testing.T) {
	env := newTestEnv(t, "on-disk.txt")
	require.NoError(t, env.store.Write([]string{"/elsewhere/only.txt"}))

	sel, err := env.selector(3).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/elsewhere/only.txt", sel.Chosen)
}

func TestSelector_CacheEvolvesAcrossRuns(t *testing.T) {
	env := newTestEnv(t, "1", "2", "3", "4", "5", "6", "7", "8")

	_, err := env.selector(4).Run(context.Background())
	require.NoError(t, err)
	first, err := env.store.Read()
	require.NoError(t, err)

	changed := false
	for seed := uint64(10); seed < 20 && !changed; seed++ {
		_, err := env.selector(seed).Run(context.Background())
		require.NoError(t, err)
		next, err := env.store.Read()
		require.NoError(t, err)
		require.ElementsMatch(t, first, next)
		changed = !assert.ObjectsAreEqual(first, next)
	}
	assert.True(t, changed, "cache order never changed across runs")
}

func TestSelector_NeverChoosesSelfOrCache(t *testing.T) {
	env := newTestEnv(t, "only.txt")

	for seed := range uint64(25) {
		require.NoError(t, os.RemoveAll(env.store.Path()))
		sel, err := env.selector(seed).Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, env.eligible[0], sel.Chosen)
		assert.NotContains(t, sel.Files, env.self)
		assert.NotContains(t, sel.Files, env.store.Path())
	}

	// A cache that somehow lists the excluded paths must not yield them.
	require.NoError(t, env.store.Write([]string{env.self, env.store.Path(), env.eligible[0]}))
	for seed := range uint64(25) {
		sel, err := env.selector(seed).Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, env.eligible[0], sel.Chosen)
	}
}

func TestSelector_EmptyDirectory(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.selector(5).Run(context.Background())
	require.ErrorIs(t, err, types.ErrEmptyFileSet)
	assert.Empty(t, env.opener.opened)

	exists, err := env.store.Exists()
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSelector_EmptyCache(t *testing.T) {
	env := newTestEnv(t, "ignored.txt")
	require.NoError(t, env.store.Write(nil))

	_, err := env.selector(6).Run(context.Background())
	require.ErrorIs(t, err, types.ErrEmptyFileSet)
	assert.Empty(t, env.opener.opened)
}

func TestSelector_Refresh(t *testing.T) {
	env := newTestEnv(t, "fresh.txt")
	require.NoError(t, env.store.Write([]string{"/stale/entry.txt"}))

	sel, err := env.selector(7, func(c *Config) { c.Refresh = true }).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.CacheMiss, sel.State)
	assert.Equal(t, env.eligible[0], sel.Chosen)

	cached, err := env.store.Read()
	require.NoError(t, err)
	assert.Equal(t, env.eligible, cached)
}

func TestSelector_DryRun(t *testing.T) {
	env := newTestEnv(t, "a.txt", "b.txt")

	sel, err := env.selector(8, func(c *Config) { c.DryRun = true }).Run(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, sel.Chosen)
	assert.False(t, sel.Opened)
	assert.Empty(t, env.opener.opened)

	exists, err := env.store.Exists()
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSelector_OpenFailureStillRewritesCache(t *testing.T) {
	env := newTestEnv(t)
	entries := []string{"/media/a.mkv", "/media/b.mkv", "/media/c.mkv"}
	require.NoError(t, env.store.Write(entries))
	env.opener.err = errors.New("no handler for .mkv")

	sel, err := env.selector(9).Run(context.Background())
	require.ErrorIs(t, err, types.ErrOpenHandler)
	assert.False(t, sel.Opened)

	cached, err := env.store.Read()
	require.NoError(t, err)
	assert.ElementsMatch(t, entries, cached)
	assert.Equal(t, sel.Files, cached)
}

func TestSelector_OpenFailureKeepsSentinel(t *testing.T) {
	env := newTestEnv(t, "a.txt")
	wrapped := opener.Func(func(_ context.Context, path string) error {
		return errors.Join(types.ErrOpenHandler, errors.New("launcher missing"))
	})

	_, err := env.selector(11, func(c *Config) { c.Opener = wrapped }).Run(context.Background())
	require.ErrorIs(t, err, types.ErrOpenHandler)
	assert.Equal(t, 1, strings.Count(err.Error(), types.ErrOpenHandler.Error()))
}

func TestSelector_MissingRoot(t *testing.T) {
	env := newTestEnv(t)
	s := env.selector(12, func(c *Config) {
		c.Files = filesystem.New(filepath.Join(env.root, "gone"), nil, nil)
	})

	_, err := s.Run(context.Background())
	require.ErrorIs(t, err, types.ErrFilesystemUnavailable)
	assert.Contains(t, err.Error(), "gone")
}

func TestSelector_Locked(t *testing.T) {
	env := newTestEnv(t, "a.txt")
	other := cache.New(env.store.Path())
	require.NoError(t, other.Lock(context.Background()))
	defer other.Unlock()

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err := env.selector(13, func(c *Config) { c.Logger = logger }).Run(ctx)
	require.ErrorIs(t, err, types.ErrCacheLocked)
	assert.Empty(t, env.opener.opened)
	assert.Contains(t, logs.String(), "waiting for cache lock")
}

func TestSelector_FreeLockIsQuiet(t *testing.T) {
	env := newTestEnv(t, "a.txt")
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	_, err := env.selector(15, func(c *Config) {
		c.Logger = logger
		c.DryRun = true
	}).Run(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, logs.String(), "waiting for cache lock")
}

func TestSelector_RebuildAndCached(t *testing.T) {
	env := newTestEnv(t, "x.txt", "y.txt", "z/z.txt")
	s := env.selector(14)

	cached, err := s.Cached(context.Background())
	require.NoError(t, err)
	assert.Nil(t, cached)

	files, err := s.Rebuild(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, env.eligible, files)
	assert.Empty(t, env.opener.opened)

	cached, err = s.Cached(context.Background())
	require.NoError(t, err)
	assert.Equal(t, files, cached)
}

func TestSelector_RebuildEmpty(t *testing.T) {
	env := newTestEnv(t)
	s := env.selector(16)

	files, err := s.Rebuild(context.Background())
	require.ErrorIs(t, err, types.ErrEmptyFileSet)
	assert.Nil(t, files)

	exists, err := env.store.Exists()
	require.NoError(t, err)
	assert.False(t, exists, "rebuild of an empty tree must not leave a cache behind")

	env.out.Reset()
	_, err = s.Run(context.Background())
	require.ErrorIs(t, err, types.ErrEmptyFileSet)
	assert.NotContains(t, env.out.String(), "Cache detected")
}

func TestSelector_RebuildEmptyKeepsPreviousCache(t *testing.T) {
	env := newTestEnv(t, "only.txt")
	s := env.selector(17)

	_, err := s.Rebuild(context.Background())
	require.NoError(t, err)
	require.NoError(t, os.Remove(env.eligible[0]))

	_, err = s.Rebuild(context.Background())
	require.ErrorIs(t, err, types.ErrEmptyFileSet)

	cached, err := env.store.Read()
	require.NoError(t, err)
	assert.Equal(t, env.eligible, cached)
}

func TestPick_Empty(t *testing.T) {
	_, err := Pick(NewRand(), nil)
	require.ErrorIs(t, err, types.ErrEmptyFileSet)
}

func TestPick_Uniform(t *testing.T) {
	files := []string{"a", "b", "c", "d", "e", "f"}
	r := rand.New(rand.NewPCG(42, 43))
	const draws = 60000

	counts := make(map[string]int)
	for range draws {
		f, err := Pick(r, files)
		require.NoError(t, err)
		counts[f]++
	}

	want := 1.0 / float64(len(files))
	for _, f := range files {
		got := float64(counts[f]) / draws
		assert.InDelta(t, want, got, 0.01, "frequency of %s", f)
	}
}

func TestShuffle_PreservesElements(t *testing.T) {
	files := []string{"a", "b", "c", "d", "e"}
	shuffled := append([]string(nil), files...)

	Shuffle(rand.New(rand.NewPCG(1, 2)), shuffled, types.DefaultShuffleRounds)
	assert.ElementsMatch(t, files, shuffled)

	Shuffle(NewRand(), nil, 3)
}
