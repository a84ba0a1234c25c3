// Package graph models the project/package/target namespace and the
// products targets evaluate to. The structures here are built once by an
// external loader and are read-only during evaluation.
package graph

import (
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/mason/internal/core/env"
	"go.trai.ch/zerr"
)

// Rule is one low-level build rule registered with a project. Fields
// mirror the attributes of the output script's rule syntax.
type Rule struct {
	Command     string
	Description string
	Depfile     string
	Deps        string
	Pool        string
	Restat      bool
	Generator   bool
}

// SymlinkRule is the name of the built-in rule that maintains the
// "latest" symlink tree.
const SymlinkRule = "mason_symlink_product"

// Project is the root of a (possibly nested) build namespace: path
// roots, output directory, named environments, registered rules,
// subprojects, and packages.
type Project struct {
	root     string
	buildDir string
	alias    string

	subprojects map[string]*Project
	subOrder    []string
	namedEnvs   map[string]*env.Environment
	packages    map[string]*Package
	rules       map[string]Rule
	buildFiles  []string
}

// NewProject creates an empty project rooted at the given path.
func NewProject(root, buildDir, alias string) *Project {
	return &Project{
		root:        root,
		buildDir:    buildDir,
		alias:       alias,
		subprojects: make(map[string]*Project),
		namedEnvs:   make(map[string]*env.Environment),
		packages:    make(map[string]*Package),
		rules: map[string]Rule{
			SymlinkRule: {
				Command:     "ln -sf $target $out",
				Description: "SYMLINK $out",
			},
		},
	}
}

// Root returns the path to the root of the project tree.
func (p *Project) Root() string { return p.root }

// BuildDir returns the path to the build directory.
func (p *Project) BuildDir() string { return p.buildDir }

// Alias returns the name this project is registered under.
func (p *Project) Alias() string { return p.alias }

// InPath joins path components under the project root.
func (p *Project) InPath(parts ...string) string {
	return filepath.Join(append([]string{p.root}, parts...)...)
}

// OutPath joins path components under the per-environment output tree.
// The same product may be built under several environments and stored
// separately, so output paths are discriminated by the environment
// digest.
func (p *Project) OutPath(e *env.Environment, parts ...string) string {
	prefix := []string{p.buildDir, "env", p.alias, e.Digest()}
	return filepath.Join(append(prefix, parts...)...)
}

// LinkPath joins path components under the "latest" symlink tree, which
// tracks the most recently generated outputs independent of digest.
func (p *Project) LinkPath(parts ...string) string {
	prefix := []string{p.buildDir, "latest", p.alias}
	return filepath.Join(append(prefix, parts...)...)
}

// AddSubproject registers a nested project under its alias.
func (p *Project) AddSubproject(sub *Project) error {
	if _, ok := p.subprojects[sub.alias]; ok {
		return zerr.With(ErrDuplicateAlias, "alias", sub.alias)
	}
	p.subprojects[sub.alias] = sub
	p.subOrder = append(p.subOrder, sub.alias)
	return nil
}

// FindProject resolves an alias to a project by depth-first search of
// the subproject tree. The empty alias and the project's own alias
// resolve locally. The loader guarantees alias uniqueness, so the first
// match is the only match.
func (p *Project) FindProject(alias string) *Project {
	if alias == "" || alias == p.alias {
		return p
	}
	for _, name := range p.subOrder {
		if found := p.subprojects[name].FindProject(alias); found != nil {
			return found
		}
	}
	return nil
}

// AddPackage registers a package with the project.
func (p *Project) AddPackage(pkg *Package) error {
	if _, ok := p.packages[pkg.relPath]; ok {
		return zerr.With(ErrDuplicatePackage, "path", pkg.relPath)
	}
	p.packages[pkg.relPath] = pkg
	return nil
}

// DefineEnvironment registers a named environment. Named environments
// provide the roots that concrete targets derive from.
func (p *Project) DefineEnvironment(name string, e *env.Environment) error {
	if _, ok := p.namedEnvs[name]; ok {
		return zerr.With(ErrDuplicateEnvironment, "name", name)
	}
	p.namedEnvs[name] = e
	return nil
}

// FindEnvironment resolves a possibly alias-qualified environment name.
func (p *Project) FindEnvironment(ident string) (*env.Environment, error) {
	alias, name := "", ident
	if before, after, found := cutProjectAlias(ident); found {
		alias, name = before, after
	}
	project := p.FindProject(alias)
	if project == nil {
		return nil, zerr.With(ErrUnknownProject, "alias", alias)
	}
	e, ok := project.namedEnvs[name]
	if !ok {
		return nil, zerr.With(ErrUnknownEnvironment, "name", ident)
	}
	return e, nil
}

// AddRules extends the project's rule set. A rule registered twice must
// be identical both times.
func (p *Project) AddRules(rules map[string]Rule) error {
	for name, rule := range rules {
		if existing, ok := p.rules[name]; ok {
			if existing != rule {
				return zerr.With(ErrRuleConflict, "rule", name)
			}
			continue
		}
		p.rules[name] = rule
	}
	return nil
}

// Rules returns the registered rules keyed by name.
func (p *Project) Rules() map[string]Rule { return p.rules }

// AddBuildFile records a build-configuration file. These become implicit
// inputs of the self-regeneration step, so structural edits trigger
// regeneration.
func (p *Project) AddBuildFile(path string) {
	p.buildFiles = append(p.buildFiles, path)
}

// Files returns every build-configuration file transitively reachable
// from this project, sorted.
func (p *Project) Files() []string {
	var out []string
	p.collectFiles(&out)
	slices.Sort(out)
	return slices.Compact(out)
}

func (p *Project) collectFiles(out *[]string) {
	*out = append(*out, p.buildFiles...)
	for _, name := range p.subOrder {
		p.subprojects[name].collectFiles(out)
	}
}

// Packages returns the project's packages sorted by path.
func (p *Project) Packages() []*Package {
	paths := make([]string, 0, len(p.packages))
	for path := range p.packages {
		paths = append(paths, path)
	}
	slices.Sort(paths)
	out := make([]*Package, 0, len(paths))
	for _, path := range paths {
		out = append(out, p.packages[path])
	}
	return out
}

// ConcreteTargets returns the project's concrete targets sorted by
// identifier, for deterministic evaluation order.
func (p *Project) ConcreteTargets() []*Target {
	var out []*Target
	for _, pkg := range p.Packages() {
		for _, t := range pkg.Targets() {
			if t.Concrete() {
				out = append(out, t)
			}
		}
	}
	slices.SortFunc(out, func(a, b *Target) int {
		return strings.Compare(a.Ident(), b.Ident())
	})
	return out
}
