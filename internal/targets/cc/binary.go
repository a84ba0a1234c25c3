package cc

import (
	"go.trai.ch/mason/internal/core/env"
	"go.trai.ch/mason/internal/core/graph"
)

// BinaryConfig declares a linked C/C++ program target.
type BinaryConfig struct {
	// Env names the project environment the program is built in. Binary
	// targets are concrete: the caller's environment is ignored.
	Env string

	// Extra is applied on top of the named environment.
	Extra env.Delta

	// Sources and Deps as in LibraryConfig.
	Sources []string
	Deps    []string

	// Local is applied to the environment each dependency is evaluated
	// under.
	Local env.Delta
}

// Binary creates a concrete program target. The program is linked from
// the target's own objects and everything its dependencies accumulated
// in c_link_srcs, exposed under the target name, and symlinked into the
// stable latest/ tree.
func Binary(pkg *graph.Package, name string, cfg BinaryConfig) (*graph.Target, error) {
	return graph.NewTarget(pkg, name, graph.TargetConfig{
		RootEnv: func() (*env.Environment, error) {
			base, err := pkg.Project().FindEnvironment(cfg.Env)
			if err != nil {
				return nil, err
			}
			return base.Derive(cfg.Extra)
		},
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

			// The program's own objects ride in both the link sources and
			// the implicit deps rather than as plain inputs, so they
			// contribute to the program's environment digest.
			programEnv, err := subsetDerive(ctx.Env, linkKeys,
				func(b *env.Builder) *env.Builder {
					return b.Add(KeyLinkSrcs, objFiles...).
						Add(env.KeyImplicit, objFiles...)
				})
			if err != nil {
				return env.Delta{}, nil, err
			}

			programPath := pkg.OutPath(programEnv, name)
			program := graph.NewProduct(programEnv, []string{programPath},
				"link_c_program", graph.ProductConfig{})
			if err := program.Expose(programPath, name); err != nil {
				return env.Delta{}, nil, err
			}
			linkPath := pkg.LinkPath(name)
			if err := program.Symlink(linkPath, programPath); err != nil {
				return env.Delta{}, nil, err
			}

			// Dependers wanting "the program" depend on the stable
			// symlink, which in turn rebuilds the program itself.
			using, err := ctx.Env.Registry().NewDelta().
				Add(env.KeyImplicit, linkPath).
				Build()
			if err != nil {
				return env.Delta{}, nil, err
			}
			return using, append(objects, program), nil
		},
	})
}
