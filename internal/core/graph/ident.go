package graph

import (
	"path"
	"strings"

	"go.trai.ch/zerr"
)

// Identifiers have the form [alias]//package[:target]. A leading ':'
// marks a package-relative identifier, rewritten against the enclosing
// package before resolution.

// cutProjectAlias splits an identifier at the first "//".
func cutProjectAlias(ident string) (alias, rest string, found bool) {
	return strings.Cut(ident, "//")
}

// FindTarget resolves an absolute identifier rooted at this project.
func (p *Project) FindTarget(ident string) (*Target, error) {
	alias, rest, found := cutProjectAlias(ident)
	if !found {
		return nil, zerr.With(ErrMalformedIdent, "ident", ident)
	}

	if alias != "" && alias != p.alias {
		project := p.FindProject(alias)
		if project == nil {
			return nil, zerr.With(zerr.With(ErrUnknownProject, "alias", alias),
				"ident", ident)
		}
		return project.FindTarget("//" + rest)
	}

	var pkgPath, targetName string
	switch strings.Count(rest, ":") {
	case 0:
		// Target name defaults to the last path component.
		pkgPath = rest
		targetName = path.Base(rest)
	case 1:
		pkgPath, targetName, _ = strings.Cut(rest, ":")
	default:
		return nil, zerr.With(ErrMalformedIdent, "ident", ident)
	}

	if pkgPath == "" {
		// Targets declared at the project root live in the "." package.
		pkgPath = "."
	}
	pkg, ok := p.packages[pkgPath]
	if !ok {
		return nil, zerr.With(zerr.With(ErrUnknownPackage, "package", pkgPath),
			"ident", ident)
	}
	t, ok := pkg.targets[targetName]
	if !ok {
		return nil, zerr.With(zerr.With(ErrUnknownTarget, "target", targetName),
			"ident", ident)
	}
	return t, nil
}
