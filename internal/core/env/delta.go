package env

import "go.trai.ch/zerr"

// Binding is one validated key/value entry of a Delta.
type Binding struct {
	Key    string
	Values []string
}

// Delta is a partial, ordered set of key/value updates. Deltas are built
// through a Builder so that every binding is validated against its key's
// declared kind at construction time, not at merge time.
type Delta struct {
	bindings []Binding
}

// Empty reports whether the delta carries no bindings.
func (d Delta) Empty() bool { return len(d.bindings) == 0 }

// Bindings returns the bindings in declaration order.
func (d Delta) Bindings() []Binding { return d.bindings }

// Merge concatenates deltas, preserving declaration order.
func Merge(deltas ...Delta) Delta {
	var out Delta
	for _, d := range deltas {
		out.bindings = append(out.bindings, d.bindings...)
	}
	return out
}

// Builder accumulates validated bindings. The first validation failure
// sticks and is reported by Build, so call sites can chain bindings
// without per-call error checks.
type Builder struct {
	reg      *Registry
	bindings []Binding
	err      error
}

// NewDelta starts building a Delta against this registry's declarations.
func (r *Registry) NewDelta() *Builder {
	return &Builder{reg: r}
}

// Set binds a single value to an override key.
func (b *Builder) Set(key, value string) *Builder {
	return b.bind(key, []string{value}, KindOverride)
}

// Add binds values to a sequence or set key.
func (b *Builder) Add(key string, values ...string) *Builder {
	if b.err != nil {
		return b
	}
	k, err := b.reg.Lookup(key)
	if err != nil {
		b.err = err
		return b
	}
	if k.Kind == KindOverride {
		b.err = zerr.With(zerr.With(ErrKeyKindMismatch, "key", key),
			"kind", k.Kind.String())
		return b
	}
	b.bindings = append(b.bindings, Binding{Key: key, Values: values})
	return b
}

// Bind binds values to a key of any kind, dispatching on the declared
// kind. Override keys accept exactly one value.
func (b *Builder) Bind(key string, values ...string) *Builder {
	if b.err != nil {
		return b
	}
	k, err := b.reg.Lookup(key)
	if err != nil {
		b.err = err
		return b
	}
	if k.Kind == KindOverride && len(values) != 1 {
		b.err = zerr.With(zerr.With(ErrKeyKindMismatch, "key", key),
			"kind", k.Kind.String())
		return b
	}
	b.bindings = append(b.bindings, Binding{Key: key, Values: values})
	return b
}

// Build finalizes the delta, reporting the first validation failure.
func (b *Builder) Build() (Delta, error) {
	if b.err != nil {
		return Delta{}, b.err
	}
	return Delta{bindings: b.bindings}, nil
}

func (b *Builder) bind(key string, values []string, want Kind) *Builder {
	if b.err != nil {
		return b
	}
	k, err := b.reg.Lookup(key)
	if err != nil {
		b.err = err
		return b
	}
	if k.Kind != want {
		b.err = zerr.With(zerr.With(ErrKeyKindMismatch, "key", key),
			"kind", k.Kind.String())
		return b
	}
	b.bindings = append(b.bindings, Binding{Key: key, Values: values})
	return b
}
