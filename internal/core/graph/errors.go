package graph

import "go.trai.ch/zerr"

var (
	// ErrMalformedIdent is returned for identifiers that don't match the
	// [alias]//package[:target] shape.
	ErrMalformedIdent = zerr.New("malformed target identifier")

	// ErrUnknownProject is returned when no project in the tree is
	// registered under the referenced alias.
	ErrUnknownProject = zerr.New("no project with alias")

	// ErrUnknownPackage is returned when an identifier references a
	// package the project doesn't contain.
	ErrUnknownPackage = zerr.New("reference to unknown package")

	// ErrUnknownTarget is returned when the package exists but the named
	// target doesn't.
	ErrUnknownTarget = zerr.New("target not found in package")

	// ErrUnknownEnvironment is returned when a named environment lookup
	// fails.
	ErrUnknownEnvironment = zerr.New("no environment with name")

	// ErrDuplicateAlias is returned when two subprojects share an alias.
	ErrDuplicateAlias = zerr.New("duplicate subproject alias")

	// ErrDuplicatePackage is returned when two packages share a path.
	ErrDuplicatePackage = zerr.New("duplicate package path")

	// ErrDuplicateTarget is returned when two targets in a package share
	// a name.
	ErrDuplicateTarget = zerr.New("duplicate target name")

	// ErrDuplicateEnvironment is returned when a named environment is
	// defined twice.
	ErrDuplicateEnvironment = zerr.New("duplicate environment name")

	// ErrRuleConflict is returned when a rule name is registered twice
	// with different definitions.
	ErrRuleConflict = zerr.New("rule defined incompatibly in multiple places")

	// ErrUnknownOutput is returned when a source reference names an
	// exposed output the producing target doesn't have.
	ErrUnknownOutput = zerr.New("exposed output not found in target")
)
