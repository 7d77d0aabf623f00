// Package selector picks a random file, from the cache when one exists and
// from a fresh directory walk otherwise.
package selector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"

	"github.com/taigrr/randopen/internal/cache"
	"github.com/taigrr/randopen/internal/filesystem"
	"github.com/taigrr/randopen/internal/opener"
	"github.com/taigrr/randopen/internal/pathfilter"
	"github.com/taigrr/randopen/internal/types"
)

// Config wires a Selector to its collaborators.
type Config struct {
	Files  *filesystem.Service
	Store  *cache.Store
	Filter *pathfilter.PathFilter
	Opener opener.Opener

	// Rand defaults to a PCG source seeded from process entropy.
	Rand *rand.Rand
	// Out receives the audit trail of considered files.
	Out    io.Writer
	Logger *slog.Logger

	ShuffleRounds int
	// Refresh walks the tree even when a cache file exists.
	Refresh bool
	// DryRun selects and maintains the cache but never opens the file.
	DryRun bool
}

// Selector runs the cache hit / cache miss state machine.
type Selector struct {
	files  *filesystem.Service
	store  *cache.Store
	filter *pathfilter.PathFilter
	opener opener.Opener
	rng    *rand.Rand
	out    io.Writer
	logger *slog.Logger

	shuffleRounds int
	refresh       bool
	dryRun        bool
}

// New creates a Selector from cfg, filling in defaults.
func New(cfg Config) *Selector {
	s := &Selector{
		files:         cfg.Files,
		store:         cfg.Store,
		filter:        cfg.Filter,
		opener:        cfg.Opener,
		rng:           cfg.Rand,
		out:           cfg.Out,
		logger:        cfg.Logger,
		shuffleRounds: cfg.ShuffleRounds,
		refresh:       cfg.Refresh,
		dryRun:        cfg.DryRun,
	}
	if s.filter == nil {
		s.filter = pathfilter.New(nil)
	}
	if s.rng == nil {
		s.rng = NewRand()
	}
	if s.out == nil {
		s.out = io.Discard
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if s.shuffleRounds <= 0 {
		s.shuffleRounds = types.DefaultShuffleRounds
	}
	return s
}

// NewRand returns a non-cryptographic source seeded from process entropy.
func NewRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// Run performs one selection. It holds the cache lock for its whole
// duration.
func (s *Selector) Run(ctx context.Context) (types.Selection, error) {
	if err := s.lock(ctx); err != nil {
		return types.Selection{CachePath: s.store.Path()}, err
	}
	defer s.unlock()

	exists, err := s.store.Exists()
	if err != nil {
		return types.Selection{CachePath: s.store.Path()}, err
	}

	if exists && !s.refresh {
		s.logger.Debug("cache hit", "cache", s.store.Path())
		return s.fromCache(ctx)
	}
	s.logger.Debug("cache miss", "cache", s.store.Path(), "refresh", s.refresh)
	return s.fromTree(ctx)
}

// Rebuild walks the tree and rewrites the cache without picking a file.
func (s *Selector) Rebuild(ctx context.Context) ([]string, error) {
	if err := s.lock(ctx); err != nil {
		return nil, err
	}
	defer s.unlock()

	files, err := s.files.ListFiles(ctx)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: nothing eligible under %s", types.ErrEmptyFileSet, s.files.Root())
	}
	Shuffle(s.rng, files, s.shuffleRounds)
	if err := s.store.Write(files); err != nil {
		return nil, err
	}
	s.logger.Info("cache rebuilt", "cache", s.store.Path(), "files", len(files))
	return files, nil
}

// Cached returns the current cache contents, or nil when no cache exists.
func (s *Selector) Cached(ctx context.Context) ([]string, error) {
	if err := s.lock(ctx); err != nil {
		return nil, err
	}
	defer s.unlock()

	exists, err := s.store.Exists()
	if err != nil || !exists {
		return nil, err
	}
	files, err := s.store.Read()
	if err != nil {
		return nil, err
	}
	return s.filter.FilterPaths(files), nil
}

func (s *Selector) fromCache(ctx context.Context) (types.Selection, error) {
	sel := types.Selection{State: types.CacheHit, CachePath: s.store.Path()}

	cached, err := s.store.Read()
	if err != nil {
		return sel, err
	}
	files := s.filter.FilterPaths(cached)
	if dropped := len(cached) - len(files); dropped > 0 {
		s.logger.Warn("dropped excluded cache entries", "count", dropped)
	}

	fmt.Fprintln(s.out, "Cache detected. Choosing from cache...")
	fmt.Fprintln(s.out, "***")

	if len(files) == 0 {
		return sel, fmt.Errorf("%w: cache %s is empty", types.ErrEmptyFileSet, s.store.Path())
	}

	Shuffle(s.rng, files, 1)
	sel.Files = files

	chosen, err := Pick(s.rng, files)
	if err != nil {
		return sel, err
	}
	sel.Chosen = chosen
	fmt.Fprintln(s.out, chosen)

	openErr := s.open(ctx, &sel)
	if err := s.store.Write(files); err != nil {
		return sel, errors.Join(openErr, err)
	}
	return sel, openErr
}

func (s *Selector) fromTree(ctx context.Context) (types.Selection, error) {
	sel := types.Selection{State: types.CacheMiss, CachePath: s.store.Path()}

	files, err := s.files.ListFiles(ctx)
	if err != nil {
		return sel, err
	}

	for _, f := range files {
		fmt.Fprintln(s.out, f)
	}
	fmt.Fprintln(s.out, "****************")

	if len(files) == 0 {
		return sel, fmt.Errorf("%w: nothing eligible under %s", types.ErrEmptyFileSet, s.files.Root())
	}

	fmt.Fprintln(s.out, "Shuffle time!")
	Shuffle(s.rng, files, s.shuffleRounds)
	sel.Files = files

	if err := s.store.Write(files); err != nil {
		return sel, err
	}
	s.logger.Info("cache written", "cache", s.store.Path(), "files", len(files))

	for _, f := range files {
		fmt.Fprintln(s.out, f)
	}
	fmt.Fprintln(s.out, "***")

	chosen, err := Pick(s.rng, files)
	if err != nil {
		return sel, err
	}
	sel.Chosen = chosen
	fmt.Fprintln(s.out, chosen)

	return sel, s.open(ctx, &sel)
}

func (s *Selector) open(ctx context.Context, sel *types.Selection) error {
	if s.dryRun || s.opener == nil {
		s.logger.Debug("not opening file", "path", sel.Chosen, "dry_run", s.dryRun)
		return nil
	}
	if err := s.opener.Open(ctx, sel.Chosen); err != nil {
		if errors.Is(err, types.ErrOpenHandler) {
			return err
		}
		return fmt.Errorf("%w: %s: %v", types.ErrOpenHandler, sel.Chosen, err)
	}
	sel.Opened = true
	s.logger.Debug("requested open", "path", sel.Chosen)
	return nil
}

// lock takes the cache lock, announcing the wait when another run holds it.
func (s *Selector) lock(ctx context.Context) error {
	ok, err := s.store.TryLock()
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	s.logger.Info("waiting for cache lock", "lock", cache.LockPath(s.store.Path()))
	return s.store.Lock(ctx)
}

func (s *Selector) unlock() {
	if err := s.store.Unlock(); err != nil {
		s.logger.Warn("failed to release cache lock", "error", err)
	}
}

// Shuffle permutes files in place rounds times.
func Shuffle(r *rand.Rand, files []string, rounds int) {
	for range rounds {
		r.Shuffle(len(files), func(i, j int) {
			files[i], files[j] = files[j], files[i]
		})
	}
}

// Pick returns a uniformly chosen element of files.
func Pick(r *rand.Rand, files []string) (string, error) {
	if len(files) == 0 {
		return "", types.ErrEmptyFileSet
	}
	return files[r.IntN(len(files))], nil
}
