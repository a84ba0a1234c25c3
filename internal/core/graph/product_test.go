package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/mason/internal/core/env"
	"go.trai.ch/mason/internal/core/graph"
)

func productEnv(t *testing.T) *env.Environment {
	t.Helper()
	reg := env.NewRegistry()
	require.NoError(t, reg.Register(
		env.StringKey("cc", ""),
		env.AppendKey("c_flags", ""),
	))
	d, err := reg.NewDelta().
		Set("cc", "gcc").
		Add("c_flags", "-O2", "-g").
		Add(env.KeyImplicit, "tools/gen").
		Build()
	require.NoError(t, err)
	e, err := env.New(reg).Derive(d)
	require.NoError(t, err)
	return e
}

func TestProduct_PrimaryEdge(t *testing.T) {
	e := productEnv(t)

	p := graph.NewProduct(e, []string{"out/a.o"}, "compile_c_obj", graph.ProductConfig{
		Inputs:   []string{"src/a.c"},
		Implicit: []string{"src/a.h"},
	})

	edges := p.Edges()
	require.Len(t, edges, 1)
	edge := edges[0]

	assert.Equal(t, []string{"out/a.o"}, edge.Outputs)
	assert.Equal(t, "compile_c_obj", edge.Rule)
	assert.Equal(t, []string{"src/a.c"}, edge.Inputs)
	// Implicit deps merge the structural key with the extras, sorted.
	assert.Equal(t, []string{"src/a.h", "tools/gen"}, edge.Implicit)
	// Structural keys are not conveyed as variables.
	assert.Equal(t, []graph.Variable{
		{Name: "c_flags", Value: "-O2 -g"},
		{Name: "cc", Value: "gcc"},
	}, edge.Variables)
}

func TestProduct_SymlinkEdge(t *testing.T) {
	e := productEnv(t)

	p := graph.NewProduct(e, []string{"build/env/d1/app/prog"}, "link_c_program",
		graph.ProductConfig{})
	require.NoError(t, p.Symlink("build/latest/app/prog", "build/env/d1/app/prog"))

	edges := p.Edges()
	require.Len(t, edges, 2)
	link := edges[1]

	assert.Equal(t, []string{"build/latest/app/prog"}, link.Outputs)
	assert.Equal(t, graph.SymlinkRule, link.Rule)
	assert.Equal(t, []string{"build/env/d1/app/prog"}, link.OrderOnly)
	require.Len(t, link.Variables, 1)
	assert.Equal(t, "target", link.Variables[0].Name)
	assert.Equal(t, "../../env/d1/app/prog", link.Variables[0].Value)
}

func TestProduct_ExposeAndFind(t *testing.T) {
	e := productEnv(t)

	p := graph.NewProduct(e, []string{"out/prog"}, "link_c_program", graph.ProductConfig{})
	require.NoError(t, p.Expose("out/prog", "prog"))

	path, ok := p.FindOutput("prog")
	assert.True(t, ok)
	assert.Equal(t, "out/prog", path)

	_, ok = p.FindOutput("other")
	assert.False(t, ok)

	err := p.Expose("not-an-output", "bad")
	require.ErrorIs(t, err, graph.ErrUnknownOutput)
}

func TestProduct_SymlinkRequiresOwnOutput(t *testing.T) {
	e := productEnv(t)
	p := graph.NewProduct(e, []string{"out/prog"}, "link_c_program", graph.ProductConfig{})
	err := p.Symlink("latest/prog", "someone/elses/file")
	require.ErrorIs(t, err, graph.ErrUnknownOutput)
}

func TestBuildEdge_Equal(t *testing.T) {
	e := productEnv(t)
	mk := func(rule string) graph.BuildEdge {
		return graph.NewProduct(e, []string{"foo.o"}, rule, graph.ProductConfig{
			Inputs: []string{"foo.c"},
		}).Edges()[0]
	}

	assert.True(t, mk("compile_c_obj").Equal(mk("compile_c_obj")))
	assert.False(t, mk("compile_c_obj").Equal(mk("compile_cxx_obj")))
}

func TestBuildEdge_OutputKeyIsOrderInsensitive(t *testing.T) {
	a := graph.BuildEdge{Outputs: []string{"x", "y"}}
	b := graph.BuildEdge{Outputs: []string{"y", "x"}}
	assert.Equal(t, a.OutputKey(), b.OutputKey())
}
