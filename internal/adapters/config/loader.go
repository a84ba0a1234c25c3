// Package config provides the YAML configuration loader for mason. It
// is the reference external collaborator: the core never parses text,
// it receives a fully populated project graph.
package config

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"go.trai.ch/mason/internal/core/env"
	"go.trai.ch/mason/internal/core/graph"
	"go.trai.ch/mason/internal/core/ports"
	"go.trai.ch/mason/internal/targets/cc"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

const (
	// ConfFileName is the file marking a project root.
	ConfFileName = "BUILD.conf.yaml"
	// BuildFileName is the per-package target declaration file.
	BuildFileName = "BUILD.yaml"
)

var (
	// ErrUnknownTargetKind is returned for a target kind no constructor
	// is registered for.
	ErrUnknownTargetKind = zerr.New("unknown target kind")
	// ErrUnknownKeyKind is returned for a key declaration with an
	// unrecognized merge kind.
	ErrUnknownKeyKind = zerr.New("unknown environment key kind")
	// ErrBadValue is returned for a YAML value that cannot serve as an
	// environment binding.
	ErrBadValue = zerr.New("unsupported environment value")
)

// FileLoader implements ports.Loader on a tree of YAML files.
type FileLoader struct {
	log ports.Logger
}

// NewLoader creates a FileLoader.
func NewLoader(log ports.Logger) *FileLoader {
	return &FileLoader{log: log}
}

// Load reads the project tree rooted at the given directory.
func (l *FileLoader) Load(root string) (*graph.Project, error) {
	reg := env.NewRegistry()
	if err := reg.Register(cc.Keys()...); err != nil {
		return nil, err
	}
	return l.loadProject(root, reg)
}

func (l *FileLoader) loadProject(root string, reg *env.Registry) (*graph.Project, error) {
	confPath := filepath.Join(root, ConfFileName)
	data, err := os.ReadFile(confPath) //nolint:gosec // path is provided by user
	if err != nil {
		return nil, zerr.Wrap(err, "failed to read project configuration")
	}
	var conf ConfFile
	if err := yaml.Unmarshal(data, &conf); err != nil {
		return nil, zerr.Wrap(err, "failed to parse project configuration")
	}
	if conf.Alias == "" {
		return nil, zerr.With(zerr.New("project alias missing"), "file", confPath)
	}

	buildDir := conf.BuildDir
	if buildDir == "" {
		buildDir = "build"
	}
	proj := graph.NewProject(root, filepath.Join(root, buildDir), conf.Alias)
	proj.AddBuildFile(confPath)
	if err := proj.AddRules(cc.Rules()); err != nil {
		return nil, err
	}

	for _, dto := range conf.Keys {
		key, err := declareKey(dto)
		if err != nil {
			return nil, err
		}
		if err := reg.Register(key); err != nil {
			return nil, err
		}
	}

	for _, dto := range conf.Environments {
		base := env.New(reg)
		if dto.Base != "" {
			base, err = proj.FindEnvironment(dto.Base)
			if err != nil {
				return nil, zerr.With(err, "environment", dto.Name)
			}
		}
		delta, err := deltaFrom(reg, dto.Contents)
		if err != nil {
			return nil, zerr.With(err, "environment", dto.Name)
		}
		derived, err := base.Derive(delta)
		if err != nil {
			return nil, zerr.With(err, "environment", dto.Name)
		}
		if err := proj.DefineEnvironment(dto.Name, derived); err != nil {
			return nil, err
		}
	}

	for _, dto := range conf.Subprojects {
		sub, err := l.loadProject(filepath.Join(root, dto.Path), reg)
		if err != nil {
			return nil, zerr.With(err, "subproject", dto.Alias)
		}
		if sub.Alias() != dto.Alias {
			return nil, zerr.With(zerr.With(zerr.New("subproject alias mismatch"),
				"declared", dto.Alias), "actual", sub.Alias())
		}
		if err := proj.AddSubproject(sub); err != nil {
			return nil, err
		}
	}

	if err := l.loadPackages(proj, reg); err != nil {
		return nil, err
	}

	l.log.Info("loaded project " + proj.Alias())
	return proj, nil
}

// loadPackages discovers BUILD.yaml files under the project root. The
// build directory, hidden directories, and nested project roots are not
// descended into.
func (l *FileLoader) loadPackages(proj *graph.Project, reg *env.Registry) error {
	root := proj.Root()
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return zerr.Wrap(err, "failed to scan project tree")
		}
		if d.IsDir() {
			if path == root {
				return nil
			}
			if filepath.Base(path)[0] == '.' || path == proj.BuildDir() {
				return filepath.SkipDir
			}
			if _, err := os.Stat(filepath.Join(path, ConfFileName)); err == nil {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() != BuildFileName {
			return nil
		}
		return l.loadPackage(proj, reg, path)
	})
}

func (l *FileLoader) loadPackage(proj *graph.Project, reg *env.Registry, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the scan above
	if err != nil {
		return zerr.Wrap(err, "failed to read package file")
	}
	var file BuildFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to parse package file"), "file", path)
	}

	rel, err := filepath.Rel(proj.Root(), filepath.Dir(path))
	if err != nil {
		return zerr.Wrap(err, "package path outside project root")
	}
	pkg, err := graph.NewPackage(proj, rel)
	if err != nil {
		return err
	}
	proj.AddBuildFile(path)

	for _, dto := range file.Targets {
		if err := l.declareTarget(pkg, reg, dto); err != nil {
			return zerr.With(err, "file", path)
		}
	}
	return nil
}

func (l *FileLoader) declareTarget(pkg *graph.Package, reg *env.Registry, dto TargetDTO) error {
	local, err := deltaFrom(reg, dto.Local)
	if err != nil {
		return zerr.With(err, "target", dto.Name)
	}

	switch dto.Kind {
	case "c_library":
		using, err := deltaFrom(reg, dto.Using)
		if err != nil {
			return zerr.With(err, "target", dto.Name)
		}
		_, err = cc.Library(pkg, dto.Name, cc.LibraryConfig{
			Sources: dto.Sources,
			Deps:    dto.Deps,
			Local:   local,
			Using:   using,
		})
		return err
	case "c_binary":
		extra, err := deltaFrom(reg, dto.Extra)
		if err != nil {
			return zerr.With(err, "target", dto.Name)
		}
		_, err = cc.Binary(pkg, dto.Name, cc.BinaryConfig{
			Env:     dto.Env,
			Extra:   extra,
			Sources: dto.Sources,
			Deps:    dto.Deps,
			Local:   local,
		})
		return err
	default:
		return zerr.With(zerr.With(ErrUnknownTargetKind, "kind", dto.Kind),
			"target", dto.Name)
	}
}

func declareKey(dto KeyDTO) (env.Key, error) {
	switch dto.Kind {
	case "", "override":
		return env.StringKey(dto.Name, dto.Help), nil
	case "append":
		return env.AppendKey(dto.Name, dto.Help), nil
	case "prepend":
		return env.PrependKey(dto.Name, dto.Help), nil
	case "set":
		return env.SetKey(dto.Name, dto.Help), nil
	default:
		return env.Key{}, zerr.With(zerr.With(ErrUnknownKeyKind,
			"kind", dto.Kind), "key", dto.Name)
	}
}

// deltaFrom converts a YAML mapping into a validated delta. Map order is
// not preserved by the decoder, so bindings are applied sorted by key
// name.
func deltaFrom(reg *env.Registry, contents map[string]any) (env.Delta, error) {
	names := make([]string, 0, len(contents))
	for name := range contents {
		names = append(names, name)
	}
	sort.Strings(names)

	b := reg.NewDelta()
	for _, name := range names {
		values, err := yamlValues(contents[name])
		if err != nil {
			return env.Delta{}, zerr.With(err, "key", name)
		}
		b = b.Bind(name, values...)
	}
	return b.Build()
}

func yamlValues(v any) ([]string, error) {
	switch val := v.(type) {
	case string:
		return []string{val}, nil
	case bool:
		return []string{strconv.FormatBool(val)}, nil
	case int:
		return []string{strconv.Itoa(val)}, nil
	case float64:
		return []string{fmt.Sprintf("%g", val)}, nil
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			scalar, err := yamlValues(item)
			if err != nil {
				return nil, err
			}
			out = append(out, scalar...)
		}
		return out, nil
	default:
		return nil, zerr.With(ErrBadValue, "value", fmt.Sprintf("%v", v))
	}
}
