// Package emit turns evaluated build graphs into the output script:
// project-wide product deduplication, conflict detection, and
// deterministic, atomic serialization.
package emit

import (
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/mason/internal/core/graph"
	"go.trai.ch/zerr"
)

// ErrProductConflict is returned when two structurally different build
// steps claim the same outputs.
var ErrProductConflict = zerr.New("conflicting rules produce the same outputs")

// groupKey orders emitted product groups: by owning target identifier,
// then by environment digest.
type groupKey struct {
	ident  string
	digest string
}

// Collector deduplicates build edges project-wide by their output sets
// and groups the survivors for emission. The first edge registered under
// an output set wins; later edges must be identical.
type Collector struct {
	byOutput map[uint64][]collected
	groups   map[groupKey][]graph.BuildEdge
	order    []groupKey
	envs     map[string]*graph.ProductGroup
}

type collected struct {
	outputKey string
	edge      graph.BuildEdge
}

// NewCollector creates an empty Collector for one generation run.
func NewCollector() *Collector {
	return &Collector{
		byOutput: make(map[uint64][]collected),
		groups:   make(map[groupKey][]graph.BuildEdge),
		envs:     make(map[string]*graph.ProductGroup),
	}
}

// Add feeds one evaluation result into the collector. Graphs converge
// after environment subsetting, so the same edge can arrive through
// several concrete targets; duplicates are dropped and genuine conflicts
// reported.
func (c *Collector) Add(res *graph.Result) error {
	for _, group := range res.Groups {
		key := groupKey{ident: group.Target.Ident(), digest: group.Env.Digest()}
		if _, ok := c.envs[key.digest]; !ok {
			c.envs[key.digest] = group
		}

		for _, prod := range group.Products {
			for _, edge := range prod.Edges() {
				fresh, err := c.register(edge)
				if err != nil {
					return err
				}
				if !fresh {
					continue
				}
				if _, ok := c.groups[key]; !ok {
					c.order = append(c.order, key)
				}
				c.groups[key] = append(c.groups[key], edge)
			}
		}
	}
	return nil
}

// register records the edge under its output-set key. It reports whether
// the edge was first, or an error if a different edge already owns the
// outputs.
func (c *Collector) register(edge graph.BuildEdge) (bool, error) {
	outputKey := edge.OutputKey()
	sum := xxhash.Sum64String(outputKey)

	for _, prev := range c.byOutput[sum] {
		if prev.outputKey != outputKey {
			// Fingerprint collision between distinct output sets.
			continue
		}
		if !prev.edge.Equal(edge) {
			return false, zerr.With(zerr.With(zerr.With(ErrProductConflict,
				"outputs", strings.Join(edge.Outputs, ", ")),
				"first_rule", prev.edge.Rule),
				"second_rule", edge.Rule)
		}
		return false, nil
	}
	c.byOutput[sum] = append(c.byOutput[sum], collected{outputKey: outputKey, edge: edge})
	return true, nil
}

// EdgeGroup is one emitted group: the surviving edges of one (target,
// environment) evaluation.
type EdgeGroup struct {
	Ident  string
	Digest string
	Edges  []graph.BuildEdge

	// EnvCount is the number of distinct environments the owning target
	// was evaluated under, across the whole run.
	EnvCount int
}

// Groups returns the deduplicated groups sorted by identifier, then by
// digest.
func (c *Collector) Groups() []EdgeGroup {
	keys := slices.Clone(c.order)
	slices.SortFunc(keys, func(a, b groupKey) int {
		if n := strings.Compare(a.ident, b.ident); n != 0 {
			return n
		}
		return strings.Compare(a.digest, b.digest)
	})

	perIdent := make(map[string]int)
	for _, k := range keys {
		perIdent[k.ident]++
	}

	out := make([]EdgeGroup, 0, len(keys))
	for _, k := range keys {
		out = append(out, EdgeGroup{
			Ident:    k.ident,
			Digest:   k.digest,
			Edges:    c.groups[k],
			EnvCount: perIdent[k.ident],
		})
	}
	return out
}

// Environments returns one representative product group per distinct
// environment digest, sorted by digest, for the diagnostic listing.
func (c *Collector) Environments() []*graph.ProductGroup {
	digests := make([]string, 0, len(c.envs))
	for d := range c.envs {
		digests = append(digests, d)
	}
	slices.Sort(digests)
	out := make([]*graph.ProductGroup, 0, len(digests))
	for _, d := range digests {
		out = append(out, c.envs[d])
	}
	return out
}
