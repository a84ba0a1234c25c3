package emit

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"go.trai.ch/mason/internal/adapters/ninja"
	"go.trai.ch/mason/internal/core/graph"
	"go.trai.ch/mason/internal/core/ports"
	"go.trai.ch/mason/internal/engine/eval"
	"go.trai.ch/zerr"
)

// ScriptName is the file the generated script is written to, relative
// to the project root.
const ScriptName = "build.ninja"

// regenRule is the rule backing the self-regeneration step.
const regenRule = "mason_generate_ninja"

// Options configures one generation run.
type Options struct {
	// DumpEnvironments additionally emits every environment's full
	// readout as comments, keyed by digest.
	DumpEnvironments bool
}

// Generate evaluates every concrete target of the project, deduplicates
// the resulting build steps, and atomically writes the output script.
// Generation is all-or-nothing: on any failure the previous script is
// left untouched.
func Generate(ctx context.Context, tracer ports.Tracer, project *graph.Project, opts Options) error {
	collector, err := evaluateAll(ctx, tracer, project)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := render(&buf, project, collector, opts); err != nil {
		return err
	}

	_, span := tracer.Start(ctx, "write "+ScriptName)
	err = writeAtomic(filepath.Join(project.Root(), ScriptName), buf.Bytes())
	span.End(err)
	return err
}

// evaluateAll walks every concrete target. Targets are evaluated in
// parallel; evaluation functions are pure and the memo dedupes shared
// subgraphs, so naive fan-out is safe. Results feed the collector in
// deterministic (sorted) target order regardless of completion order.
func evaluateAll(ctx context.Context, tracer ports.Tracer, project *graph.Project) (*Collector, error) {
	targets := project.ConcreteTargets()
	results := make([]*graph.Result, len(targets))

	evaluator := eval.New()
	g, ctx := errgroup.WithContext(ctx)
	for i, target := range targets {
		g.Go(func() error {
			_, span := tracer.Start(ctx, "evaluate "+target.Ident())
			res, err := evaluator.Evaluate(target, nil)
			span.End(err)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	collector := NewCollector()
	for _, res := range results {
		if err := collector.Add(res); err != nil {
			return nil, err
		}
	}
	return collector, nil
}

func render(buf *bytes.Buffer, project *graph.Project, collector *Collector, opts Options) error {
	w := ninja.NewWriter(buf)

	w.Comment("Generated by 'mason init', do NOT edit by hand")
	// Downstream tools parse the project root out of this line to
	// relocate the project; keep it near the top of the file.
	w.CommentRaw("project_path=" + project.Root())
	w.Newline()

	w.Comment("Automatic regeneration")
	w.Rule(regenRule, ninja.Rule{
		Command:     "mason init --reinit " + project.Root(),
		Description: "(regenerating build script)",
		Generator:   true,
	})
	w.Build(ninja.Build{
		Outputs:  []string{ScriptName},
		Rule:     regenRule,
		Implicit: project.Files(),
	})
	w.Newline()

	writeRules(w, project)

	if opts.DumpEnvironments {
		writeEnvironmentListing(w, collector)
	}

	writeGroups(w, collector)
	return w.Err()
}

// writeRules emits every registered rule sorted by name, for
// reproducibility.
func writeRules(w *ninja.Writer, project *graph.Project) {
	rules := project.Rules()
	names := make([]string, 0, len(rules))
	for name := range rules {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		r := rules[name]
		w.Rule(name, ninja.Rule{
			Command:     r.Command,
			Description: r.Description,
			Depfile:     r.Depfile,
			Deps:        r.Deps,
			Pool:        r.Pool,
			Restat:      r.Restat,
			Generator:   r.Generator,
		})
		w.Newline()
	}
}

func writeEnvironmentListing(w *ninja.Writer, collector *Collector) {
	w.Comment("ENVIRONMENT LISTING")
	w.Newline()
	for _, group := range collector.Environments() {
		digest := group.Env.Digest()
		w.Comment("Environment " + digest)
		for _, kv := range group.Env.ReadoutAll() {
			w.CommentRaw(fmt.Sprintf("env[%s][%s] = %q", digest, kv.Key, kv.Values))
		}
		w.Newline()
	}
}

func writeGroups(w *ninja.Writer, collector *Collector) {
	for _, group := range collector.Groups() {
		// A target evaluated under a single environment doesn't need
		// its digest spelled out.
		if group.EnvCount == 1 {
			w.Comment("---- target " + group.Ident)
		} else {
			w.Comment("---- target " + group.Ident + " @ " + group.Digest)
		}
		for _, edge := range group.Edges {
			vars := make([]ninja.Variable, 0, len(edge.Variables))
			for _, v := range edge.Variables {
				vars = append(vars, ninja.Variable{Name: v.Name, Value: v.Value})
			}
			w.Build(ninja.Build{
				Outputs:         edge.Outputs,
				ImplicitOutputs: edge.ImplicitOutputs,
				Rule:            edge.Rule,
				Inputs:          edge.Inputs,
				Implicit:        edge.Implicit,
				OrderOnly:       edge.OrderOnly,
				Dyndep:          edge.Dyndep,
				Variables:       vars,
			})
		}
		w.Newline()
	}
}

// writeAtomic writes content to a temporary sibling and renames it over
// path, so a failure mid-write never corrupts a previously valid
// script. An unchanged script is not rewritten at all, preserving its
// mtime so the downstream executor doesn't reparse it.
func writeAtomic(path string, content []byte) error {
	if existing, err := os.ReadFile(path); err == nil {
		if xxhash.Sum64(existing) == xxhash.Sum64(content) &&
			bytes.Equal(existing, content) {
			return nil
		}
	}

	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".tmp")
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		return zerr.Wrap(err, "failed to write temporary script")
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return zerr.Wrap(err, "failed to move script into place")
	}
	return nil
}
