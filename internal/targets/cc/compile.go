package cc

import (
	"path/filepath"

	"go.trai.ch/mason/internal/core/env"
	"go.trai.ch/mason/internal/core/graph"
	"go.trai.ch/zerr"
)

// ErrUnsupportedSource is returned for source files whose extension maps
// to no compile rule.
var ErrUnsupportedSource = zerr.New("no compile rule for source file type")

type fileType struct {
	rule string
	keys []string
}

var fileTypes = map[string]fileType{
	".c":   {rule: "compile_c_obj", keys: []string{KeyCC, KeyCFlags}},
	".cc":  {rule: "compile_cxx_obj", keys: []string{KeyCXX, KeyCXXFlags}},
	".cpp": {rule: "compile_cxx_obj", keys: []string{KeyCXX, KeyCXXFlags}},
	".S":   {rule: "assemble_obj_pp", keys: []string{KeyASPP, KeyASPPFlags}},
}

// compileObject creates the object-file product for one source. The
// product environment is narrowed to the keys its compile rule consumes,
// so objects coincide across environments differing only elsewhere.
func compileObject(pkg *graph.Package, source string, e *env.Environment) (*graph.Product, error) {
	ft, ok := fileTypes[filepath.Ext(source)]
	if !ok {
		return nil, zerr.With(ErrUnsupportedSource, "source", source)
	}

	oEnv, err := e.SubsetRequire(append(append([]string{}, compileKeys...), ft.keys...)...)
	if err != nil {
		return nil, err
	}

	// Shorten source names, in case an output serves as input.
	src := filepath.Base(source)
	return graph.NewProduct(oEnv,
		[]string{pkg.OutPath(oEnv, src+".o")}, ft.rule,
		graph.ProductConfig{Inputs: []string{source}}), nil
}

// compileObjects compiles every source and returns the products together
// with the flattened object paths.
func compileObjects(pkg *graph.Package, sources []string, e *env.Environment) ([]*graph.Product, []string, error) {
	products := make([]*graph.Product, 0, len(sources))
	objects := make([]string, 0, len(sources))
	for _, source := range sources {
		prod, err := compileObject(pkg, source, e)
		if err != nil {
			return nil, nil, err
		}
		products = append(products, prod)
		objects = append(objects, prod.Outputs()...)
	}
	return products, objects, nil
}
