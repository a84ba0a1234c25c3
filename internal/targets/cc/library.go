package cc

import (
	"go.trai.ch/mason/internal/core/env"
	"go.trai.ch/mason/internal/core/graph"
)

// LibraryConfig declares a C/C++ static library target.
type LibraryConfig struct {
	// Sources are the files to compile, package-relative or of the form
	// 'ident#output' to consume a dependency's exposed output.
	Sources []string

	// Deps lists dependency target identifiers.
	Deps []string

	// Local is applied to the environment each dependency is evaluated
	// under.
	Local env.Delta

	// Using is merged into the using-delta handed to dependers, ahead of
	// the library's own contribution.
	Using env.Delta
}

// Library creates an abstract library target. Dependers receive the
// library's objects (or archive) through c_link_srcs and as implicit
// dependencies.
func Library(pkg *graph.Package, name string, cfg LibraryConfig) (*graph.Target, error) {
	return graph.NewTarget(pkg, name, graph.TargetConfig{
		Deps: depEdges(cfg.Deps, cfg.Local),
		Build: func(ctx *graph.BuildContext) (env.Delta, []*graph.Product, error) {
			sources, err := ctx.RewriteSources(cfg.Sources)
			if err != nil {
				return env.Delta{}, nil, err
			}
			objects, objFiles, err := compileObjects(pkg, sources, ctx.Env)
			if err != nil {
				return env.Delta{}, nil, err
			}

			archive, err := ctx.Env.GetBool(KeyArchiveProducts)
			if err != nil {
				return env.Delta{}, nil, err
			}

			var outs, linkSrcs []string
			products := objects
			if archive && len(objFiles) > 0 {
				outs = []string{pkg.OutPath(ctx.Env, "lib"+name+".a")}

				// The archive step consumes the objects as plain inputs;
				// binding them to c_link_srcs as well folds them into the
				// archive's environment digest.
				arEnv, err := subsetDerive(ctx.Env, archiveKeys,
					func(b *env.Builder) *env.Builder {
						return b.Add(KeyLinkSrcs, objFiles...)
					})
				if err != nil {
					return env.Delta{}, nil, err
				}
				products = append(products, graph.NewProduct(arEnv, outs,
					"archive_c_library", graph.ProductConfig{Inputs: objFiles}))

				whole, err := ctx.Env.GetBool(KeyWholeArchive)
				if err != nil {
					return env.Delta{}, nil, err
				}
				if whole {
					linkSrcs = append([]string{"-Wl,-whole-archive"}, outs...)
					linkSrcs = append(linkSrcs, "-Wl,-no-whole-archive")
				} else {
					linkSrcs = outs
				}
			} else {
				// A bag of objects; users consume them directly.
				outs = objFiles
				linkSrcs = objFiles
			}

			contribution, err := ctx.Env.Registry().NewDelta().
				Add(env.KeyImplicit, outs...).
				Add(KeyLinkSrcs, linkSrcs...).
				Build()
			if err != nil {
				return env.Delta{}, nil, err
			}
			return env.Merge(cfg.Using, contribution), products, nil
		},
	})
}

// depEdges expands an identifier list into dependency edges sharing one
// local delta.
func depEdges(idents []string, local env.Delta) []graph.Dep {
	deps := make([]graph.Dep, 0, len(idents))
	for _, ident := range idents {
		deps = append(deps, graph.Dep{Ident: ident, Local: local})
	}
	return deps
}

// subsetDerive narrows e to the given keys plus the structural ones, then
// applies the bindings built by fn.
func subsetDerive(e *env.Environment, keys []string, fn func(*env.Builder) *env.Builder) (*env.Environment, error) {
	sub, err := e.SubsetRequire(keys...)
	if err != nil {
		return nil, err
	}
	delta, err := fn(e.Registry().NewDelta()).Build()
	if err != nil {
		return nil, err
	}
	return sub.Derive(delta)
}
