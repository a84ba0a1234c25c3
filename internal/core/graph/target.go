package graph

import (
	"strings"

	"go.trai.ch/mason/internal/core/env"
	"go.trai.ch/zerr"
)

// Dep is one dependency edge: the identifier of the target depended on,
// optionally narrowed by a local delta applied to the environment handed
// down along this edge. Edge order is declaration order and is
// preserved through evaluation; using-delta merge order depends on it.
type Dep struct {
	Ident string
	Local env.Delta
}

// RootEnvFunc computes a concrete target's root environment,
// independent of any caller.
type RootEnvFunc func() (*env.Environment, error)

// BuildFunc is a target's pure evaluation function: given the effective
// environment and the dependencies' results, it produces the target's
// upward using-delta and its own products.
type BuildFunc func(*BuildContext) (env.Delta, []*Product, error)

// Target is a declarative, environment-parameterizable build target.
// Targets are immutable once declared. A concrete target computes its
// own root environment; a dependent target receives its environment
// from whichever target depends on it.
type Target struct {
	pkg     *Package
	name    string
	rootEnv RootEnvFunc // non-nil iff concrete
	deps    []Dep
	build   BuildFunc
}

// TargetConfig carries the declaration of a new target.
type TargetConfig struct {
	// Deps lists the dependency edges in declaration order. Identifiers
	// may be package-relative; they are made absolute at construction.
	Deps []Dep

	// Build computes the using-delta and products.
	Build BuildFunc

	// RootEnv, when non-nil, makes the target concrete.
	RootEnv RootEnvFunc
}

// NewTarget creates a target and registers it with its package.
func NewTarget(pkg *Package, name string, cfg TargetConfig) (*Target, error) {
	deps := make([]Dep, len(cfg.Deps))
	for i, d := range cfg.Deps {
		abs, err := pkg.MakeAbsolute(d.Ident)
		if err != nil {
			return nil, zerr.With(err, "target", name)
		}
		deps[i] = Dep{Ident: abs, Local: d.Local}
	}

	t := &Target{
		pkg:     pkg,
		name:    name,
		rootEnv: cfg.RootEnv,
		deps:    deps,
		build:   cfg.Build,
	}
	if err := pkg.AddTarget(t); err != nil {
		return nil, err
	}
	return t, nil
}

// Package returns the package the target was declared in.
func (t *Target) Package() *Package { return t.pkg }

// Name returns the target's name within its package.
func (t *Target) Name() string { return t.name }

// Concrete reports whether the target names its own environment and can
// be built without additional context.
func (t *Target) Concrete() bool { return t.rootEnv != nil }

// Deps returns the dependency edges in declaration order.
func (t *Target) Deps() []Dep { return t.deps }

// Ident returns the target's absolute identifier.
func (t *Target) Ident() string {
	return t.pkg.project.alias + "//" + t.pkg.identPath() + ":" + t.name
}

// InputEnv computes the environment the target evaluates under: its own
// root environment if concrete (the caller's environment is ignored),
// or the caller's environment otherwise.
func (t *Target) InputEnv(up *env.Environment) (*env.Environment, error) {
	if t.rootEnv != nil {
		return t.rootEnv()
	}
	return up, nil
}

// Evaluate invokes the target's evaluation function.
func (t *Target) Evaluate(ctx *BuildContext) (env.Delta, []*Product, error) {
	return t.build(ctx)
}

// BuildContext is the parameter object handed to a target's evaluation
// function.
type BuildContext struct {
	target *Target

	// Env is the effective environment: the target's input environment
	// with every dependency's using-delta merged in declaration order.
	Env *env.Environment

	// DepGroups holds the transitive product groups contributed by the
	// dependencies, in merge order.
	DepGroups []*ProductGroup
}

// NewBuildContext assembles the context the evaluator passes to a
// target's evaluation function.
func NewBuildContext(t *Target, effective *env.Environment, depGroups []*ProductGroup) *BuildContext {
	return &BuildContext{target: t, Env: effective, DepGroups: depGroups}
}

// Target returns the target under evaluation.
func (c *BuildContext) Target() *Target { return c.target }

// RewriteSources resolves a list of source references into concrete
// paths. A reference of the form 'ident#output' resolves to the exposed
// output of an already-evaluated dependency; anything else is treated as
// a path inside the declaring package.
func (c *BuildContext) RewriteSources(sources []string) ([]string, error) {
	out := make([]string, 0, len(sources))
	for _, s := range sources {
		isRef := (strings.HasPrefix(s, ":") || strings.Contains(s, "//")) &&
			strings.Contains(s, "#")
		if !isRef {
			out = append(out, c.target.pkg.InPath(s))
			continue
		}

		ident, outputName, _ := strings.Cut(s, "#")
		abs, err := c.target.pkg.MakeAbsolute(ident)
		if err != nil {
			return nil, err
		}
		path, err := c.findExposedOutput(abs, outputName)
		if err != nil {
			return nil, zerr.With(err, "source", s)
		}
		out = append(out, path)
	}
	return out, nil
}

func (c *BuildContext) findExposedOutput(ident, name string) (string, error) {
	for _, group := range c.DepGroups {
		if group.Target.Ident() != ident {
			continue
		}
		for _, prod := range group.Products {
			if path, ok := prod.FindOutput(name); ok {
				return path, nil
			}
		}
	}
	return "", zerr.With(zerr.With(ErrUnknownOutput, "output", name),
		"ident", ident)
}
