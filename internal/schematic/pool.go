package schematic

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/logger"
)

// JumpPrefix marks templates that may be used as jumps. Other templates,
// such as the spawn island, are only fetched by name.
const JumpPrefix = "parkour-"

var (
	// ErrNotFound is returned when a named template is not in the pool.
	ErrNotFound = errors.New("schematic: not found")

	// ErrNoCandidates is returned by Pick when no jump template is easy enough.
	ErrNoCandidates = errors.New("schematic: no jump schematic within difficulty")
)

// Pool holds the loaded templates by name.
type Pool struct {
	templates map[string]*Template
	disabled  map[string]bool
	mu        sync.RWMutex
}

// NewPool creates a pool holding the given templates.
func NewPool(templates ...*Template) *Pool {
	p := &Pool{
		templates: make(map[string]*Template, len(templates)),
		disabled:  make(map[string]bool),
	}
	for _, t := range templates {
		p.templates[t.Name()] = t
	}
	return p
}

// LoadDir loads every schematic file in dir. Files that fail to decode are
// logged and skipped so one broken schematic does not stop the server.
func LoadDir(dir string) (*Pool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read schematics directory: %w", err)
	}

	p := NewPool()
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), Extension) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		t, err := Load(path)
		if err != nil {
			logger.Stack("Error while trying to read schematic", "check that the file is a gzip structure file", err, "path", path)
			continue
		}
		p.Add(t)
	}

	logger.Info("Loaded schematics", "dir", dir, "count", p.Len())
	return p, nil
}

// Add inserts or replaces a template. A replaced template is enabled again.
func (p *Pool) Add(t *Template) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.templates[t.Name()] = t
	delete(p.disabled, t.Name())
}

// Disable stops a template from being picked as a jump. It stays available
// through Get.
func (p *Pool) Disable(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.templates[name]; ok && !p.disabled[name] {
		p.disabled[name] = true
		logger.Warning("Disabled jump schematic", "schematic", name)
	}
}

// Disabled reports whether Disable was called for name.
func (p *Pool) Disabled(name string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.disabled[name]
}

// Get returns a template by name.
func (p *Pool) Get(name string) (*Template, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	t, ok := p.templates[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return t, nil
}

// Len returns the number of templates.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.templates)
}

// Names returns the sorted template names.
func (p *Pool) Names() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, 0, len(p.templates))
	for name := range p.templates {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Jumps returns the enabled jump templates rated at most maxDifficulty,
// sorted by name.
func (p *Pool) Jumps(maxDifficulty float64) []*Template {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var out []*Template
	for name, t := range p.templates {
		if strings.HasPrefix(name, JumpPrefix) && !p.disabled[name] && t.Difficulty() <= maxDifficulty {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, func(a, b *Template) int {
		return strings.Compare(a.Name(), b.Name())
	})
	return out
}

// Pick returns a uniformly random jump template rated at most maxDifficulty.
func (p *Pool) Pick(rng *rand.Rand, maxDifficulty float64) (*Template, error) {
	candidates := p.Jumps(maxDifficulty)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %.2f", ErrNoCandidates, maxDifficulty)
	}
	return candidates[rng.Intn(len(candidates))], nil
}
