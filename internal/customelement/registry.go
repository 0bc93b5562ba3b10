package customelement

import (
	"encoding/json"
	"os"
	"sort"
	"sync"

	"github.com/strata-cms/strata/internal/database"
	"github.com/strata-cms/strata/internal/models"
	"gorm.io/gorm"
)

// Loader supplies the full definition set on refresh.
type Loader interface {
	LoadDefinitions() ([]*Definition, error)
}

// Registry caches custom element definitions for the whole process.
// Invalidation is whole-cache only: an explicit Refresh or any mutating
// operation drops everything and the next read reloads from the loader.
type Registry struct {
	mu     sync.RWMutex
	defs   map[string]*Definition
	loader Loader
	loaded bool
}

func NewRegistry(loader Loader) *Registry {
	return &Registry{loader: loader}
}

func (r *Registry) Refresh() error {
	defs, err := r.loader.LoadDefinitions()
	if err != nil {
		return err
	}

	byType := make(map[string]*Definition, len(defs))
	for _, def := range defs {
		byType[def.Type] = def
	}

	r.mu.Lock()
	r.defs = byType
	r.loaded = true
	r.mu.Unlock()
	return nil
}

// Invalidate drops the cache; the next read triggers a full reload.
func (r *Registry) Invalidate() {
	r.mu.Lock()
	r.defs = nil
	r.loaded = false
	r.mu.Unlock()
}

func (r *Registry) ensureLoaded() {
	r.mu.RLock()
	loaded := r.loaded
	r.mu.RUnlock()
	if !loaded {
		// A failed load leaves the registry empty; reads fall back to
		// "unknown type" which callers already tolerate for rendering.
		_ = r.Refresh()
	}
}

func (r *Registry) Definition(elementType string) (*Definition, bool) {
	r.ensureLoaded()
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[elementType]
	return def, ok
}

func (r *Registry) All() []*Definition {
	r.ensureLoaded()
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]*Definition, 0, len(r.defs))
	for _, def := range r.defs {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool {
		if defs[i].Position != defs[j].Position {
			return defs[i].Position < defs[j].Position
		}
		return defs[i].Type < defs[j].Type
	})
	return defs
}

func (r *Registry) ListByCategory(category string) []*Definition {
	var matched []*Definition
	for _, def := range r.All() {
		if def.Category == category {
			matched = append(matched, def)
		}
	}
	return matched
}

// DatabaseLoader reads definitions from the custom_element_definitions
// table. This is the loader production runs with. A nil DB resolves to
// the global connection at load time, so tests that swap database.DB
// between cases still read the right one.
type DatabaseLoader struct {
	DB *gorm.DB
}

func (l *DatabaseLoader) LoadDefinitions() ([]*Definition, error) {
	db := l.DB
	if db == nil {
		db = database.DB
	}

	var rows []models.CustomElementDefinition
	if err := db.Order("position asc, type asc").Find(&rows).Error; err != nil {
		return nil, err
	}

	defs := make([]*Definition, 0, len(rows))
	for i := range rows {
		def, err := FromModel(&rows[i])
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// FileLoader reads a JSON array of definitions, for seeding system
// elements from disk.
type FileLoader struct {
	Path string
}

func (l *FileLoader) LoadDefinitions() ([]*Definition, error) {
	raw, err := os.ReadFile(l.Path)
	if err != nil {
		return nil, err
	}

	var defs []*Definition
	if err := json.Unmarshal(raw, &defs); err != nil {
		return nil, err
	}
	return defs, nil
}
