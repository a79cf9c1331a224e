// Package categories keeps the set of known expense categories and the
// display color assigned to each of them.
//
// A Registry is an explicit value passed to whoever needs it; there is no
// package-level instance. It is safe for concurrent use.
package categories

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"

	"expensetracker/internal/core"
)

// MergePolicy controls how UpdateDynamic treats manually added categories.
type MergePolicy string

const (
	// Replace rebuilds the dynamic set from expense data only, dropping
	// manual additions no expense references yet.
	Replace MergePolicy = "replace"
	// Union keeps manual additions across UpdateDynamic calls.
	Union MergePolicy = "union"
)

// Generated colors keep every channel inside this range.
const (
	minChannel = 0.3
	maxChannel = 0.9
)

type builtIn struct {
	name  string
	color core.Color
}

var builtIns = []builtIn{
	{"Food", core.Color{R: 1.0, G: 0.584, B: 0.0}},
	{"Transport", core.Color{R: 0.0, G: 0.478, B: 1.0}},
	{"Shopping", core.Color{R: 1.0, G: 0.176, B: 0.333}},
	{"Bills", core.Color{R: 0.204, G: 0.78, B: 0.349}},
	{"Entertainment", core.Color{R: 0.686, G: 0.322, B: 0.871}},
	{"Health", core.Color{R: 1.0, G: 0.231, B: 0.188}},
	{"Other", core.Color{R: 0.557, G: 0.557, B: 0.576}},
}

// BuiltInNames returns the fixed categories in declared order.
func BuiltInNames() []string {
	names := make([]string, len(builtIns))
	for i, b := range builtIns {
		names[i] = b.name
	}
	return names
}

// IsBuiltIn reports whether name is one of the fixed categories.
func IsBuiltIn(name string) bool {
	for _, b := range builtIns {
		if b.name == name {
			return true
		}
	}
	return false
}

// ParseMergePolicy accepts "replace" or "union"; empty means Replace.
func ParseMergePolicy(s string) (MergePolicy, error) {
	switch MergePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", Replace:
		return Replace, nil
	case Union:
		return Union, nil
	default:
		return "", fmt.Errorf("unknown category merge policy %q", s)
	}
}

// Registry holds the dynamic category names and the color cache.
type Registry struct {
	mu      sync.Mutex
	policy  MergePolicy
	rnd     *rand.Rand // nil means the global source
	colors  map[string]core.Color
	dynamic []string // sorted
	manual  map[string]struct{}
}

// Option configures a Registry.
type Option func(*Registry)

// WithRand makes color generation draw from r instead of the global source.
func WithRand(r *rand.Rand) Option {
	return func(reg *Registry) { reg.rnd = r }
}

// WithMergePolicy selects how UpdateDynamic treats manual additions.
func WithMergePolicy(p MergePolicy) Option {
	return func(reg *Registry) { reg.policy = p }
}

// New returns a registry with no dynamic categories and the Replace policy
// unless opts say otherwise.
func New(opts ...Option) *Registry {
	r := &Registry{
		policy: Replace,
		colors: make(map[string]core.Color, len(builtIns)),
		manual: make(map[string]struct{}),
	}
	for _, b := range builtIns {
		r.colors[b.name] = b.color
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Policy returns the configured merge policy.
func (r *Registry) Policy() MergePolicy {
	return r.policy
}

// ColorFor returns the color of a category. Unknown names get a random
// mid-bright color on first use which is then kept for the registry's
// lifetime. Colors are not stable across process restarts.
func (r *Registry) ColorFor(name string) core.Color {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.colorLocked(name)
}

func (r *Registry) colorLocked(name string) core.Color {
	if c, ok := r.colors[name]; ok {
		return c
	}
	c := core.Color{R: r.channel(), G: r.channel(), B: r.channel()}
	r.colors[name] = c
	return c
}

func (r *Registry) channel() float64 {
	var f float64
	if r.rnd != nil {
		f = r.rnd.Float64()
	} else {
		f = rand.Float64()
	}
	return minChannel + f*(maxChannel-minChannel)
}

// CurrentCategories returns the built-in names in declared order followed
// by the dynamic names in sorted order.
func (r *Registry) CurrentCategories() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append(BuiltInNames(), r.dynamic...)
}

// Dynamic returns the dynamic names in sorted order.
func (r *Registry) Dynamic() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.dynamic)
}

// Entries returns every known category with its color, in CurrentCategories order.
func (r *Registry) Entries() []core.CategoryEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]core.CategoryEntry, 0, len(builtIns)+len(r.dynamic))
	for _, b := range builtIns {
		out = append(out, core.CategoryEntry{Name: b.name, Color: b.color, BuiltIn: true})
	}
	for _, name := range r.dynamic {
		out = append(out, core.CategoryEntry{Name: name, Color: r.colorLocked(name)})
	}
	return out
}

// UpdateDynamic recomputes the dynamic set from the categories referenced
// by expenses, minus the built-ins. Under the Replace policy the previous
// set, manual additions included, is discarded.
func (r *Registry) UpdateDynamic(expenses []core.Expense) {
	seen := make(map[string]struct{})
	for _, e := range expenses {
		if e.Category == "" || IsBuiltIn(e.Category) {
			continue
		}
		seen[e.Category] = struct{}{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.policy == Union {
		for name := range r.manual {
			seen[name] = struct{}{}
		}
	} else {
		clear(r.manual)
	}
	dynamic := make([]string, 0, len(seen))
	for name := range seen {
		dynamic = append(dynamic, name)
	}
	slices.Sort(dynamic)
	r.dynamic = dynamic
}

// AddCategory registers a user-declared category and assigns it a color.
// It reports false when name is empty, the form placeholder, built-in or
// already present.
func (r *Registry) AddCategory(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" || name == core.PlaceholderCategory || IsBuiltIn(name) {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	i, found := slices.BinarySearch(r.dynamic, name)
	if found {
		return false
	}
	r.dynamic = slices.Insert(r.dynamic, i, name)
	r.manual[name] = struct{}{}
	r.colorLocked(name)
	return true
}
