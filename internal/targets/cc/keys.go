// Package cc defines C and C++ build targets: per-source compilation,
// static library archiving, and program linking.
package cc

import "go.trai.ch/mason/internal/core/env"

// Environment key names contributed by this package.
const (
	KeyCC              = "cc"
	KeyCXX             = "cxx"
	KeyASPP            = "aspp"
	KeyAR              = "ar"
	KeyCFlags          = "c_flags"
	KeyCXXFlags        = "cxx_flags"
	KeyASPPFlags       = "aspp_flags"
	KeyLinkFlags       = "c_link_flags"
	KeyLinkSrcs        = "c_link_srcs"
	KeyDepsIncludeSys  = "c_deps_include_system"
	KeyArchiveProducts = "c_library_archive_products"
	KeyWholeArchive    = "c_library_whole_archive"
)

// Keys returns the key declarations. Loaders register them before any
// target of this package is constructed.
func Keys() []env.Key {
	return []env.Key{
		env.StringKey(KeyCC, "Path to the C compiler to use."),
		env.StringKey(KeyCXX, "Path to the C++ compiler to use (also used for link)."),
		env.StringKey(KeyASPP, "Path to the program to use to process .S files (often cc)."),
		env.StringKey(KeyAR, "Path to the system library archiver."),
		env.AppendKey(KeyCFlags, "Extra flags to pass to cc for C targets."),
		env.AppendKey(KeyCXXFlags, "Extra flags to pass to cxx for C++ targets."),
		env.AppendKey(KeyASPPFlags, "Extra flags to pass to aspp for .S targets."),
		env.AppendKey(KeyLinkFlags, "Extra flags to pass to cxx when used as linker."),
		// Post-order graph evaluation delivers dependency objects after
		// a target's own, but C linkers expect pre-order.
		env.PrependKey(KeyLinkSrcs, "Accumulates objects and archives for the link process."),
		env.BoolKey(KeyDepsIncludeSys, true, func(b bool) string {
			if b {
				return "-MD"
			}
			return "-MMD"
		}, "Whether to recompile in response to changes to system headers."),
		env.BoolKey(KeyArchiveProducts, true, nil,
			"Whether libraries produce .a archives or a bag of objects."),
		env.BoolKey(KeyWholeArchive, false, nil,
			"Whether to force inclusion of all of a library at link."),
	}
}

// Subset key sets per product kind. Narrowing the product environment to
// the keys its rule consumes is what makes project-wide deduplication
// effective: products differing only in irrelevant keys coincide.
var (
	compileKeys = []string{env.KeyOrderOnly, KeyDepsIncludeSys}
	linkKeys    = []string{env.KeyImplicit, KeyCXX, KeyLinkSrcs, KeyLinkFlags}
	archiveKeys = []string{KeyAR}
)
