package cc

import "go.trai.ch/mason/internal/core/graph"

// Rules returns the rule definitions backing this package's products.
// Loaders register them on the project alongside Keys.
func Rules() map[string]graph.Rule {
	return map[string]graph.Rule{
		"compile_c_obj": {
			Command:     "$cc $c_deps_include_system -MF $depfile $c_flags -c -o $out $in",
			Description: "C $in",
			Depfile:     "$out.d",
			Deps:        "gcc",
		},
		"compile_cxx_obj": {
			Command:     "$cxx $c_deps_include_system -MF $depfile $cxx_flags -c -o $out $in",
			Description: "CXX $in",
			Depfile:     "$out.d",
			Deps:        "gcc",
		},
		"assemble_obj_pp": {
			Command:     "$aspp $c_deps_include_system -MF $depfile $aspp_flags -c -o $out $in",
			Description: "AS+CPP $in",
			Depfile:     "$out.d",
			Deps:        "gcc",
		},
		"link_c_program": {
			Command:     "$cxx $c_link_flags -o $out $in $c_link_srcs",
			Description: "LINK $out",
		},
		"archive_c_library": {
			Command:     "$ar rcs $out $in",
			Description: "AR $out",
		},
	}
}
