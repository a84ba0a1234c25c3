package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/mason/internal/core/graph"
)

func buildTree(t *testing.T) (*graph.Project, *graph.Package) {
	t.Helper()

	root := graph.NewProject("/src/root", "/src/root/build", "root")
	pkgAB, err := graph.NewPackage(root, "a/b")
	require.NoError(t, err)
	_, err = graph.NewTarget(pkgAB, "foo", graph.TargetConfig{})
	require.NoError(t, err)
	_, err = graph.NewTarget(pkgAB, "b", graph.TargetConfig{})
	require.NoError(t, err)

	sub := graph.NewProject("/src/root/vendor/sub", "/src/root/build", "sub")
	require.NoError(t, root.AddSubproject(sub))
	pkgX, err := graph.NewPackage(sub, "x")
	require.NoError(t, err)
	_, err = graph.NewTarget(pkgX, "y", graph.TargetConfig{})
	require.NoError(t, err)

	return root, pkgAB
}

func TestFindTarget_PackageRelative(t *testing.T) {
	_, pkgAB := buildTree(t)

	target, err := pkgAB.FindTarget(":foo")
	require.NoError(t, err)
	assert.Equal(t, "root//a/b:foo", target.Ident())
}

func TestFindTarget_DefaultTargetName(t *testing.T) {
	root, _ := buildTree(t)

	// Zero colons: the target name defaults to the last path component.
	target, err := root.FindTarget("//a/b")
	require.NoError(t, err)
	assert.Equal(t, "root//a/b:b", target.Ident())
}

func TestFindTarget_SubprojectAlias(t *testing.T) {
	root, pkgAB := buildTree(t)

	target, err := root.FindTarget("sub//x:y")
	require.NoError(t, err)
	assert.Equal(t, "sub//x:y", target.Ident())

	// Resolution through a package reaches the same target.
	same, err := pkgAB.FindTarget("sub//x:y")
	require.NoError(t, err)
	assert.Same(t, target, same)
}

func TestFindTarget_OwnAliasResolvesLocally(t *testing.T) {
	root, _ := buildTree(t)

	target, err := root.FindTarget("root//a/b:foo")
	require.NoError(t, err)
	assert.Equal(t, "root//a/b:foo", target.Ident())
}

func TestFindTarget_TooManyColons(t *testing.T) {
	root, _ := buildTree(t)

	_, err := root.FindTarget("//a:b:c")
	require.ErrorIs(t, err, graph.ErrMalformedIdent)
}

func TestFindTarget_NotFound(t *testing.T) {
	root, _ := buildTree(t)

	_, err := root.FindTarget("//nope:foo")
	require.ErrorIs(t, err, graph.ErrUnknownPackage)

	_, err = root.FindTarget("//a/b:nope")
	require.ErrorIs(t, err, graph.ErrUnknownTarget)

	_, err = root.FindTarget("ghost//a:foo")
	require.ErrorIs(t, err, graph.ErrUnknownProject)
}

func TestFindTarget_RootPackage(t *testing.T) {
	root := graph.NewProject("/src/p", "/src/p/build", "p")
	pkg, err := graph.NewPackage(root, ".")
	require.NoError(t, err)
	target, err := graph.NewTarget(pkg, "top", graph.TargetConfig{})
	require.NoError(t, err)

	assert.Equal(t, "p//:top", target.Ident())

	found, err := root.FindTarget("//:top")
	require.NoError(t, err)
	assert.Same(t, target, found)
}

func TestMakeAbsolute_RejectsBareNames(t *testing.T) {
	_, pkgAB := buildTree(t)

	_, err := pkgAB.MakeAbsolute("just-a-name")
	require.ErrorIs(t, err, graph.ErrMalformedIdent)
}

func TestDuplicateRegistration(t *testing.T) {
	root, pkgAB := buildTree(t)

	_, err := graph.NewPackage(root, "a/b")
	require.ErrorIs(t, err, graph.ErrDuplicatePackage)

	_, err = graph.NewTarget(pkgAB, "foo", graph.TargetConfig{})
	require.ErrorIs(t, err, graph.ErrDuplicateTarget)

	dup := graph.NewProject("/elsewhere", "/elsewhere/build", "sub")
	require.ErrorIs(t, root.AddSubproject(dup), graph.ErrDuplicateAlias)
}

func TestAddRules_ConflictDetection(t *testing.T) {
	root, _ := buildTree(t)

	rule := graph.Rule{Command: "cc -c -o $out $in"}
	require.NoError(t, root.AddRules(map[string]graph.Rule{"compile": rule}))

	// Identical re-registration is fine.
	require.NoError(t, root.AddRules(map[string]graph.Rule{"compile": rule}))

	clash := graph.Rule{Command: "clang -c -o $out $in"}
	err := root.AddRules(map[string]graph.Rule{"compile": clash})
	require.ErrorIs(t, err, graph.ErrRuleConflict)
}
