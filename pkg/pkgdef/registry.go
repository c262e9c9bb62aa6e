package pkgdef

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// definitionExt is the extension definition units are loaded by.
const definitionExt = ".vd"

// Registry maps package symbols to compiled descriptors. Lookups fall
// through to the builtin catalog, and on a full miss synthesize an
// ordinary default descriptor, so Lookup never fails.
type Registry struct {
	logger  zerolog.Logger
	catalog *Catalog

	mu          sync.RWMutex
	dir         string
	descriptors map[string]*Descriptor
	problems    []*DefinitionFormatError
}

// LoadRegistry compiles every definition unit under dir into a registry.
// A missing directory yields an empty registry; malformed units are
// recorded as problems and excluded, they never fail the load.
func LoadRegistry(ctx context.Context, dir string, logger zerolog.Logger) (*Registry, error) {
	r := &Registry{
		logger:  logger.With().Str("component", "pkgdef-registry").Logger(),
		catalog: DefaultCatalog(),
	}
	if err := r.load(ctx, dir); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) load(ctx context.Context, dir string) error {
	files, err := definitionFiles(dir)
	if err != nil {
		return err
	}

	// Units compile independently; the merge below is the only step
	// that has to see them in directory order.
	type result struct {
		desc *Descriptor
		err  *DefinitionFormatError
	}
	results := make([]result, len(files))

	var wg sync.WaitGroup
	for i, file := range files {
		wg.Add(1)
		go func(i int, file string) {
			defer wg.Done()
			desc, err := compileUnit(file, r.logger)
			if err != nil {
				var formatErr *DefinitionFormatError
				if !errors.As(err, &formatErr) {
					formatErr = &DefinitionFormatError{File: file, Reason: err.Error()}
				}
				results[i] = result{err: formatErr}
				return
			}
			results[i] = result{desc: desc}
		}(i, file)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}

	descriptors := make(map[string]*Descriptor, len(files))
	var problems []*DefinitionFormatError
	for _, res := range results {
		if res.err != nil {
			problems = append(problems, res.err)
			r.logger.Warn().Err(res.err).Str("path", res.err.File).Msg("Skipping definition unit")
			continue
		}
		if earlier, exists := descriptors[res.desc.Symbol]; exists {
			// Two units declared the same symbol. Later file wins.
			r.logger.Warn().
				Str("symbol", res.desc.Symbol).
				Str("kept", res.desc.Source).
				Str("shadowed", earlier.Source).
				Msg("Definition collision, later file wins")
		}
		descriptors[res.desc.Symbol] = res.desc
	}

	r.mu.Lock()
	r.dir = dir
	r.descriptors = descriptors
	r.problems = problems
	r.mu.Unlock()

	r.logger.Info().
		Int("definitions", len(descriptors)).
		Int("skipped", len(problems)).
		Str("dir", dir).
		Msg("Package definitions loaded")
	return nil
}

// definitionFiles lists definition units under dir in walk order, which
// is lexicographic and therefore the collision tie-break order.
func definitionFiles(dir string) ([]string, error) {
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to stat definitions dir: %w", err)
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, definitionExt) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk definitions dir: %w", err)
	}
	return files, nil
}

// Lookup resolves a symbol: registry descriptors shadow catalog entries,
// and unknown symbols get an ordinary synthesized descriptor.
func (r *Registry) Lookup(symbol string) *Descriptor {
	r.mu.RLock()
	desc, ok := r.descriptors[symbol]
	r.mu.RUnlock()
	if ok {
		return desc
	}
	if desc, ok := r.catalog.Lookup(symbol); ok {
		return desc
	}
	return Synthesize(symbol)
}

// Defined reports whether a symbol has an explicit descriptor, from a
// definition unit or the catalog.
func (r *Registry) Defined(symbol string) bool {
	r.mu.RLock()
	_, ok := r.descriptors[symbol]
	r.mu.RUnlock()
	if ok {
		return true
	}
	_, ok = r.catalog.Lookup(symbol)
	return ok
}

// Symbols returns every explicitly-defined symbol, definition units and
// catalog combined, sorted for stable display.
func (r *Registry) Symbols() []string {
	r.mu.RLock()
	seen := make(map[string]struct{}, len(r.descriptors)+len(r.catalog.entries))
	for s := range r.descriptors {
		seen[s] = struct{}{}
	}
	r.mu.RUnlock()
	for s := range r.catalog.entries {
		seen[s] = struct{}{}
	}
	symbols := make([]string, 0, len(seen))
	for s := range seen {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

// Problems returns the format errors recorded during the last load.
func (r *Registry) Problems() []*DefinitionFormatError {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*DefinitionFormatError{}, r.problems...)
}

// Reload recompiles the definition directory from scratch.
func (r *Registry) Reload(ctx context.Context) error {
	r.mu.RLock()
	dir := r.dir
	r.mu.RUnlock()
	return r.load(ctx, dir)
}

// Watch reloads the registry when definition units change on disk.
// Events are debounced so editors that write-then-rename trigger one
// reload. Watch blocks until the context is cancelled.
func (r *Registry) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	r.mu.RLock()
	dir := r.dir
	r.mu.RUnlock()
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	var debounce *time.Timer
	reload := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(event.Name, definitionExt) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(250*time.Millisecond, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn().Err(err).Msg("Watcher error")

		case <-reload:
			if err := r.Reload(ctx); err != nil {
				r.logger.Error().Err(err).Msg("Failed to reload definitions")
			}
		}
	}
}
