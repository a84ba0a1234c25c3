package env

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strings"
	"sync"

	"go.trai.ch/zerr"
)

// Environment is an immutable mapping from registered key names to
// resolved values. Every transformation yields a new Environment; the
// digest is a canonical, order-independent hash used both as a cache key
// and as a filesystem-path discriminator for per-environment outputs.
type Environment struct {
	reg    *Registry
	values map[string][]string

	digestOnce sync.Once
	digest     string
}

// New creates an empty Environment over the given registry.
func New(reg *Registry) *Environment {
	return &Environment{reg: reg, values: map[string][]string{}}
}

// Registry returns the key registry this environment was built against.
func (e *Environment) Registry() *Registry { return e.reg }

// Get returns the resolved values for a key, falling back to the key's
// registered default when absent. The returned slice must not be
// modified.
func (e *Environment) Get(name string) ([]string, error) {
	k, err := e.reg.Lookup(name)
	if err != nil {
		return nil, err
	}
	if v, ok := e.values[name]; ok {
		return v, nil
	}
	return k.Default, nil
}

// GetBool interprets an override key's value as a boolean.
func (e *Environment) GetBool(name string) (bool, error) {
	v, err := e.Get(name)
	if err != nil {
		return false, err
	}
	return len(v) > 0 && v[0] == "true", nil
}

// Derive applies every binding of the delta using the target key's merge
// rule and returns the resulting Environment. Keys absent from the
// current environment start from their registered default.
func (e *Environment) Derive(delta Delta) (*Environment, error) {
	if delta.Empty() {
		return e, nil
	}
	values := make(map[string][]string, len(e.values)+len(delta.bindings))
	for name, v := range e.values {
		values[name] = v
	}
	for _, b := range delta.bindings {
		k, err := e.reg.Lookup(b.Key)
		if err != nil {
			return nil, err
		}
		existing, ok := values[b.Key]
		if !ok {
			existing = k.Default
		}
		values[b.Key] = mergeValues(k.Kind, existing, b.Values)
	}
	return &Environment{reg: e.reg, values: values}, nil
}

// SubsetRequire returns an Environment containing only the named keys,
// plus the structural keys. Narrowing before constructing a product makes
// the product's digest insensitive to unrelated configuration. The
// operation is idempotent.
func (e *Environment) SubsetRequire(keys ...string) (*Environment, error) {
	keep := make(map[string]struct{}, len(keys)+2)
	for _, name := range keys {
		if _, err := e.reg.Lookup(name); err != nil {
			return nil, err
		}
		keep[name] = struct{}{}
	}
	keep[KeyImplicit] = struct{}{}
	keep[KeyOrderOnly] = struct{}{}

	values := make(map[string][]string, len(keep))
	for name := range keep {
		if v, ok := e.values[name]; ok {
			values[name] = v
		}
	}
	return &Environment{reg: e.reg, values: values}, nil
}

// KV is one entry of an environment readout.
type KV struct {
	Key    string
	Values []string
}

// ReadoutAll returns the environment's resolved (key, readout-value)
// sequence, sorted by key name. This is the external view used for
// digesting, diagnostics, and emitting rule variable bindings.
func (e *Environment) ReadoutAll() []KV {
	names := make([]string, 0, len(e.values))
	for name := range e.values {
		names = append(names, name)
	}
	slices.Sort(names)

	out := make([]KV, 0, len(names))
	for _, name := range names {
		k := e.reg.keys[name]
		values := e.values[name]
		if k.Kind == KindSet {
			values = slices.Clone(values)
			slices.Sort(values)
		}
		out = append(out, KV{Key: name, Values: k.readout(values)})
	}
	return out
}

// Digest returns the canonical hash of the environment's resolved
// contents. Two environments built through different derivation paths
// share a digest iff their readouts are equal.
func (e *Environment) Digest() string {
	e.digestOnce.Do(func() {
		var builder strings.Builder
		for _, kv := range e.ReadoutAll() {
			builder.WriteString(kv.Key)
			builder.WriteString("=")
			for _, v := range kv.Values {
				builder.WriteString(v)
				builder.WriteString("\x00")
			}
			builder.WriteString(";")
		}
		hash := sha256.Sum256([]byte(builder.String()))
		e.digest = hex.EncodeToString(hash[:])
	})
	return e.digest
}

// MustGet is Get for keys the caller has already validated, typically the
// structural keys.
func (e *Environment) MustGet(name string) []string {
	v, err := e.Get(name)
	if err != nil {
		panic(zerr.Wrap(err, "lookup of pre-validated key failed"))
	}
	return v
}

func mergeValues(kind Kind, existing, incoming []string) []string {
	switch kind {
	case KindOverride:
		return slices.Clone(incoming)
	case KindAppend:
		return append(slices.Clone(existing), incoming...)
	case KindPrepend:
		return append(slices.Clone(incoming), existing...)
	case KindSet:
		merged := append(slices.Clone(existing), incoming...)
		slices.Sort(merged)
		return slices.Compact(merged)
	default:
		return slices.Clone(incoming)
	}
}
