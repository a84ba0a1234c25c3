// Package eval implements the environment-specialized build graph
// evaluator.
package eval

import (
	"strings"
	"sync"

	"go.trai.ch/mason/internal/core/env"
	"go.trai.ch/mason/internal/core/graph"
	"go.trai.ch/zerr"
)

// ErrDependencyCycle is returned when a target transitively depends on
// itself under the same environment.
var ErrDependencyCycle = zerr.New("dependency cycle in build graph")

// Key identifies one memoized evaluation: a target and the digest of the
// environment it actually evaluated under.
type Key struct {
	Ident  string
	Digest string
}

// Evaluator memoizes target evaluations per (target, environment digest)
// so that each pair is computed at most once per generation run, even
// under diamond reconvergence or environment fan-out.
//
// The memo stores only completed results under a mutex with
// insert-if-absent semantics. Concurrent walks of a shared subgraph may
// redundantly recompute a pair; evaluation functions are pure, so the
// loser's identical result is discarded rather than merged.
type Evaluator struct {
	mu   sync.Mutex
	memo map[Key]*graph.Result
}

// New creates an empty Evaluator for one generation run.
func New() *Evaluator {
	return &Evaluator{memo: make(map[Key]*graph.Result)}
}

// Evaluate computes the target's result under the given environment
// (nil for concrete targets, which compute their own root environment).
func (e *Evaluator) Evaluate(t *graph.Target, up *env.Environment) (*graph.Result, error) {
	return e.evaluate(t, up, nil)
}

// Stats reports the number of distinct (target, environment) pairs
// evaluated so far.
func (e *Evaluator) Stats() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.memo)
}

func (e *Evaluator) evaluate(t *graph.Target, up *env.Environment, path []Key) (*graph.Result, error) {
	in, err := t.InputEnv(up)
	if err != nil {
		return nil, zerr.With(err, "ident", t.Ident())
	}

	key := Key{Ident: t.Ident(), Digest: in.Digest()}

	if cached, ok := e.lookup(key); ok {
		return cached, nil
	}
	for _, visiting := range path {
		if visiting == key {
			return nil, cycleError(path, key)
		}
	}
	path = append(path, key)

	// Visit dependencies in declaration order. Each edge hands down the
	// caller's input environment narrowed by the edge's local delta;
	// concrete dependencies ignore it and compute their own root.
	depResults := make([]*graph.Result, 0, len(t.Deps()))
	for _, edge := range t.Deps() {
		dep, err := t.Package().Project().FindTarget(edge.Ident)
		if err != nil {
			return nil, zerr.With(err, "dependent", t.Ident())
		}
		depEnv, err := in.Derive(edge.Local)
		if err != nil {
			return nil, zerr.With(err, "edge", t.Ident()+" -> "+edge.Ident)
		}
		res, err := e.evaluate(dep, depEnv, path)
		if err != nil {
			return nil, err
		}
		depResults = append(depResults, res)
	}

	// Merge the dependencies' transitive using-deltas into the
	// effective environment, in declaration order with each subtree's
	// contributions ahead of the subtree root's own. The order is
	// load-bearing: prepend-sequence keys rely on post-order
	// accumulation for link input ordering.
	usings := mergeUsings(depResults)
	effective := in
	for _, u := range usings {
		effective, err = effective.Derive(u.Delta)
		if err != nil {
			return nil, zerr.With(err, "ident", t.Ident())
		}
	}

	depGroups := mergeGroups(depResults)
	using, products, err := t.Evaluate(graph.NewBuildContext(t, effective, depGroups))
	if err != nil {
		return nil, zerr.With(err, "ident", t.Ident())
	}

	groups := append(depGroups, &graph.ProductGroup{
		Target:   t,
		Env:      in,
		Products: products,
	})
	result := &graph.Result{
		Usings: append(usings, graph.Using{Target: t, Env: in, Delta: using}),
		Groups: groups,
	}

	return e.insert(key, result), nil
}

// lookup returns a previously completed result.
func (e *Evaluator) lookup(key Key) (*graph.Result, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.memo[key]
	return r, ok
}

// insert stores the result unless another walk got there first, in which
// case the earlier result wins.
func (e *Evaluator) insert(key Key, result *graph.Result) *graph.Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	if existing, ok := e.memo[key]; ok {
		return existing
	}
	e.memo[key] = result
	return result
}

// mergeUsings concatenates the dependencies' transitive using-deltas in
// edge order, deduplicating shared subgraph evaluations by key. Each
// dependency's own contribution sits last in its result, so deeper
// contributions apply before the targets that consumed them.
func mergeUsings(results []*graph.Result) []graph.Using {
	var out []graph.Using
	seen := make(map[Key]struct{})
	for _, res := range results {
		for _, u := range res.Usings {
			key := Key{Ident: u.Target.Ident(), Digest: u.Env.Digest()}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, u)
		}
	}
	return out
}

// mergeGroups concatenates the dependencies' product groups in edge
// order, deduplicating shared subgraph evaluations by key.
func mergeGroups(results []*graph.Result) []*graph.ProductGroup {
	var out []*graph.ProductGroup
	seen := make(map[Key]struct{})
	for _, res := range results {
		for _, g := range res.Groups {
			key := Key{Ident: g.Target.Ident(), Digest: g.Env.Digest()}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, g)
		}
	}
	return out
}

func cycleError(path []Key, repeat Key) error {
	start := 0
	for i, k := range path {
		if k == repeat {
			start = i
			break
		}
	}
	var b strings.Builder
	for _, k := range path[start:] {
		b.WriteString(k.Ident)
		b.WriteString(" -> ")
	}
	b.WriteString(repeat.Ident)
	return zerr.With(ErrDependencyCycle, "cycle", b.String())
}
