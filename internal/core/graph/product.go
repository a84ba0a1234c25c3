package graph

import (
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/mason/internal/core/env"
	"go.trai.ch/zerr"
)

// Product is one low-level build step derived from a target: a rule
// applied to inputs producing outputs, valid in a narrowed environment.
// Products are value objects; two products are equal iff every rendered
// field is equal.
type Product struct {
	env             *env.Environment
	outputs         []string
	implicitOutputs []string
	inputs          []string
	implicit        []string
	orderOnly       []string
	rule            string
	dyndep          string

	exposed  map[string]string
	symlinks []symlink
}

type symlink struct {
	source    string
	target    string
	orderOnly []string
}

// ProductConfig carries the optional fields of a new product.
type ProductConfig struct {
	ImplicitOutputs []string
	Inputs          []string
	// Implicit and OrderOnly extend the dependency sets accumulated in
	// the environment's structural keys.
	Implicit  []string
	OrderOnly []string
	Dyndep    string
}

// NewProduct creates a product. The environment is expected to already
// be narrowed to the keys the rule consumes.
func NewProduct(e *env.Environment, outputs []string, rule string, cfg ProductConfig) *Product {
	implicit := slices.Clone(e.MustGet(env.KeyImplicit))
	implicit = append(implicit, cfg.Implicit...)
	orderOnly := slices.Clone(e.MustGet(env.KeyOrderOnly))
	orderOnly = append(orderOnly, cfg.OrderOnly...)

	return &Product{
		env:             e,
		outputs:         slices.Clone(outputs),
		implicitOutputs: slices.Clone(cfg.ImplicitOutputs),
		inputs:          slices.Clone(cfg.Inputs),
		implicit:        sortedUnique(implicit),
		orderOnly:       sortedUnique(orderOnly),
		rule:            rule,
		dyndep:          cfg.Dyndep,
		exposed:         make(map[string]string),
	}
}

// Env returns the product's (narrowed) environment.
func (p *Product) Env() *env.Environment { return p.env }

// Outputs returns the declared output paths in order.
func (p *Product) Outputs() []string { return p.outputs }

// Rule returns the rule name.
func (p *Product) Rule() string { return p.rule }

// Expose marks an output as available for use as a source by other
// targets, under the given name. The path must be one of the product's
// outputs.
func (p *Product) Expose(path, name string) error {
	if !p.hasOutput(path) {
		return zerr.With(zerr.With(ErrUnknownOutput, "path", path),
			"rule", p.rule)
	}
	if _, ok := p.exposed[name]; ok {
		return zerr.With(zerr.New("duplicate exposed output name"), "name", name)
	}
	p.exposed[name] = path
	return nil
}

// Symlink declares a "latest" symlink at source pointing to target,
// which must be one of the product's outputs.
func (p *Product) Symlink(source, target string) error {
	if !p.hasOutput(target) {
		return zerr.With(zerr.With(ErrUnknownOutput, "path", target),
			"rule", p.rule)
	}
	for _, s := range p.symlinks {
		if s.source == source {
			return zerr.With(zerr.New("duplicate symlink source"), "source", source)
		}
	}
	p.symlinks = append(p.symlinks, symlink{source: source, target: target})
	return nil
}

// FindOutput returns the exposed output registered under name.
func (p *Product) FindOutput(name string) (string, bool) {
	path, ok := p.exposed[name]
	return path, ok
}

// Symlinks returns the declared (source, target) symlink pairs.
func (p *Product) Symlinks() [][2]string {
	out := make([][2]string, 0, len(p.symlinks))
	for _, s := range p.symlinks {
		out = append(out, [2]string{s.source, s.target})
	}
	return out
}

func (p *Product) hasOutput(path string) bool {
	return slices.Contains(p.outputs, path) ||
		slices.Contains(p.implicitOutputs, path)
}

// Variable is one rendered variable binding of a build edge.
type Variable struct {
	Name  string
	Value string
}

// BuildEdge is the rendered, comparable form of one build statement.
type BuildEdge struct {
	Outputs         []string
	ImplicitOutputs []string
	Rule            string
	Inputs          []string
	Implicit        []string
	OrderOnly       []string
	Dyndep          string
	Variables       []Variable
}

// Equal reports field-for-field equality.
func (e BuildEdge) Equal(o BuildEdge) bool {
	return e.Rule == o.Rule &&
		e.Dyndep == o.Dyndep &&
		slices.Equal(e.Outputs, o.Outputs) &&
		slices.Equal(e.ImplicitOutputs, o.ImplicitOutputs) &&
		slices.Equal(e.Inputs, o.Inputs) &&
		slices.Equal(e.Implicit, o.Implicit) &&
		slices.Equal(e.OrderOnly, o.OrderOnly) &&
		slices.Equal(e.Variables, o.Variables)
}

// OutputKey returns the canonical identity of the edge's output set,
// used for project-wide deduplication.
func (e BuildEdge) OutputKey() string {
	outputs := slices.Clone(e.Outputs)
	slices.Sort(outputs)
	return strings.Join(outputs, "\x00")
}

// Edges renders the product into one primary build edge plus one
// symlink edge per declared symlink. Output and input order is
// preserved; implicit and order-only sets were sorted at construction.
func (p *Product) Edges() []BuildEdge {
	primary := BuildEdge{
		Outputs:         p.outputs,
		ImplicitOutputs: p.implicitOutputs,
		Rule:            p.rule,
		Inputs:          p.inputs,
		Implicit:        p.implicit,
		OrderOnly:       p.orderOnly,
		Dyndep:          p.dyndep,
		Variables:       p.variables(),
	}

	edges := []BuildEdge{primary}
	for _, s := range p.symlinks {
		orderOnly := make([]string, 0,
			len(p.outputs)+len(p.implicitOutputs)+len(s.orderOnly))
		orderOnly = append(orderOnly, p.outputs...)
		orderOnly = append(orderOnly, p.implicitOutputs...)
		orderOnly = append(orderOnly, s.orderOnly...)

		rel, err := filepath.Rel(filepath.Dir(s.source), s.target)
		if err != nil {
			// Unrelatable paths fall back to the absolute target.
			rel = s.target
		}
		edges = append(edges, BuildEdge{
			Outputs:   []string{s.source},
			Rule:      SymlinkRule,
			OrderOnly: orderOnly,
			Variables: []Variable{{Name: "target", Value: rel}},
		})
	}
	return edges
}

// variables renders the environment's readout, minus the structural
// keys, which are conveyed through the dependency sections instead.
func (p *Product) variables() []Variable {
	var out []Variable
	for _, kv := range p.env.ReadoutAll() {
		if kv.Key == env.KeyImplicit || kv.Key == env.KeyOrderOnly {
			continue
		}
		value := strings.Join(nonEmpty(kv.Values), " ")
		if value == "" {
			continue
		}
		out = append(out, Variable{Name: kv.Key, Value: value})
	}
	return out
}

// ProductGroup is the set of products one (target, environment)
// evaluation yielded.
type ProductGroup struct {
	Target   *Target
	Env      *env.Environment
	Products []*Product
}

// Using is one target's contribution to its transitive dependents'
// environments, tagged with the evaluation it came from.
type Using struct {
	Target *Target
	Env    *env.Environment
	Delta  env.Delta
}

// Result is the memoized outcome of evaluating a target in one
// environment: the transitive upward contributions, dependencies'
// first and the target's own last, plus the transitive product groups.
// Both lists are ordered and deduplicated per (target, environment).
type Result struct {
	Usings []Using
	Groups []*ProductGroup
}

func sortedUnique(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	slices.Sort(values)
	return slices.Compact(values)
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
