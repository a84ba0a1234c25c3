package graph

import (
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/mason/internal/core/env"
	"go.trai.ch/zerr"
)

// Package is a namespace holding targets, located at a path relative to
// its owning project.
type Package struct {
	project *Project
	relPath string
	targets map[string]*Target
}

// NewPackage creates a package and registers it with the project.
func NewPackage(project *Project, relPath string) (*Package, error) {
	pkg := &Package{
		project: project,
		relPath: filepath.Clean(relPath),
		targets: make(map[string]*Target),
	}
	if err := project.AddPackage(pkg); err != nil {
		return nil, err
	}
	return pkg, nil
}

// Project returns the owning project.
func (p *Package) Project() *Project { return p.project }

// RelPath returns the package path relative to the project root.
func (p *Package) RelPath() string { return p.relPath }

// AddTarget registers a target with the package.
func (p *Package) AddTarget(t *Target) error {
	if _, ok := p.targets[t.name]; ok {
		return zerr.With(zerr.With(ErrDuplicateTarget, "target", t.name),
			"package", p.relPath)
	}
	p.targets[t.name] = t
	return nil
}

// Targets returns the package's targets sorted by name.
func (p *Package) Targets() []*Target {
	names := make([]string, 0, len(p.targets))
	for name := range p.targets {
		names = append(names, name)
	}
	slices.Sort(names)
	out := make([]*Target, 0, len(names))
	for _, name := range names {
		out = append(out, p.targets[name])
	}
	return out
}

// InPath joins path components under the package's source directory.
func (p *Package) InPath(parts ...string) string {
	return p.project.InPath(append([]string{p.relPath}, parts...)...)
}

// OutPath joins path components under the package's per-environment
// output directory.
func (p *Package) OutPath(e *env.Environment, parts ...string) string {
	return p.project.OutPath(e, append([]string{p.relPath}, parts...)...)
}

// LinkPath joins path components under the package's "latest" symlink
// tree.
func (p *Package) LinkPath(parts ...string) string {
	return p.project.LinkPath(append([]string{p.relPath}, parts...)...)
}

// MakeAbsolute rewrites an identifier that may be package-relative
// (leading ':') or project-relative (leading '//') into an absolute one.
func (p *Package) MakeAbsolute(ident string) (string, error) {
	switch {
	case strings.HasPrefix(ident, ":"):
		return p.project.alias + "//" + p.identPath() + ident, nil
	case strings.HasPrefix(ident, "//"):
		return p.project.alias + ident, nil
	case strings.Contains(ident, "//"):
		return ident, nil
	default:
		return "", zerr.With(ErrMalformedIdent, "ident", ident)
	}
}

// FindTarget resolves an identifier relative to this package, enabling
// local ':name' references.
func (p *Package) FindTarget(ident string) (*Target, error) {
	abs, err := p.MakeAbsolute(ident)
	if err != nil {
		return nil, err
	}
	return p.project.FindTarget(abs)
}

// identPath is the package path as it appears inside identifiers, where
// the root package is spelled as the empty string.
func (p *Package) identPath() string {
	if p.relPath == "." {
		return ""
	}
	return p.relPath
}
