// Package env implements the immutable, content-addressed configuration
// model used to specialize build targets per environment.
package env

// Kind describes the merge rule applied when a key receives new values.
type Kind int

const (
	// KindOverride keys hold a single scalar value; deriving replaces it.
	KindOverride Kind = iota
	// KindAppend keys hold an ordered sequence; new values land after
	// existing ones.
	KindAppend
	// KindPrepend keys hold an ordered sequence; new values land before
	// existing ones. Used where post-order graph evaluation must place a
	// target's own contribution ahead of its dependencies', e.g. link
	// inputs.
	KindPrepend
	// KindSet keys hold an unordered set; deriving unions, readout is
	// sorted.
	KindSet
)

// String returns the kind name used in error metadata.
func (k Kind) String() string {
	switch k {
	case KindOverride:
		return "override"
	case KindAppend:
		return "append"
	case KindPrepend:
		return "prepend"
	case KindSet:
		return "set"
	default:
		return "unknown"
	}
}

// ReadoutFunc transforms a key's stored values into their external form,
// e.g. mapping a boolean to a command-line flag.
type ReadoutFunc func(values []string) []string

// Key declares one configuration field: its name, merge rule, default
// value, and optional readout transform.
type Key struct {
	Name    string
	Kind    Kind
	Default []string
	Readout ReadoutFunc
	Help    string
}

// readout applies the key's readout transform, or returns the values
// unchanged when none is declared.
func (k Key) readout(values []string) []string {
	if k.Readout == nil {
		return values
	}
	return k.Readout(values)
}

// compatible reports whether a re-registration of the key can be treated
// as a no-op.
func (k Key) compatible(other Key) bool {
	if k.Name != other.Name || k.Kind != other.Kind {
		return false
	}
	if len(k.Default) != len(other.Default) {
		return false
	}
	for i := range k.Default {
		if k.Default[i] != other.Default[i] {
			return false
		}
	}
	return true
}

// StringKey declares an override key holding a single string.
func StringKey(name string, help string) Key {
	return Key{Name: name, Kind: KindOverride, Help: help}
}

// BoolKey declares an override key holding "true" or "false". The
// readout function maps the parsed value to its external form, typically
// a command-line flag.
func BoolKey(name string, def bool, readout func(bool) string, help string) Key {
	k := Key{
		Name:    name,
		Kind:    KindOverride,
		Default: []string{formatBool(def)},
		Help:    help,
	}
	if readout != nil {
		k.Readout = func(values []string) []string {
			return []string{readout(len(values) > 0 && values[0] == "true")}
		}
	}
	return k
}

// AppendKey declares an append-sequence key.
func AppendKey(name string, help string) Key {
	return Key{Name: name, Kind: KindAppend, Help: help}
}

// PrependKey declares a prepend-sequence key.
func PrependKey(name string, help string) Key {
	return Key{Name: name, Kind: KindPrepend, Help: help}
}

// SetKey declares an unordered set key.
func SetKey(name string, help string) Key {
	return Key{Name: name, Kind: KindSet, Help: help}
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
