package env

import "go.trai.ch/zerr"

// Structural keys that track dependency edges on build products. They are
// registered in every Registry and survive every subset operation, so
// products never lose their implicit or order-only inputs.
const (
	KeyImplicit  = "__implicit__"
	KeyOrderOnly = "__order_only__"
)

// Registry holds the set of declared environment keys. It is populated
// once during the load phase and read-only during evaluation; there is no
// ambient global registry.
type Registry struct {
	keys map[string]Key
}

// NewRegistry creates a Registry with the structural keys pre-registered.
func NewRegistry() *Registry {
	r := &Registry{keys: make(map[string]Key)}
	r.keys[KeyImplicit] = SetKey(KeyImplicit,
		"Accumulates implicit dependency edges on build products.")
	r.keys[KeyOrderOnly] = SetKey(KeyOrderOnly,
		"Accumulates order-only dependency edges on build products. "+
			"Order-only dependencies only need to exist, rather than "+
			"needing to be up-to-date.")
	return r
}

// Register declares a key. Registering the same key twice is a no-op if
// the declarations are compatible, and an error otherwise.
func (r *Registry) Register(keys ...Key) error {
	for _, k := range keys {
		existing, ok := r.keys[k.Name]
		if ok {
			if !existing.compatible(k) {
				return zerr.With(zerr.With(ErrKeyRedeclared,
					"key", k.Name),
					"kinds", existing.Kind.String()+" vs "+k.Kind.String())
			}
			continue
		}
		r.keys[k.Name] = k
	}
	return nil
}

// Lookup returns the declaration for a key name.
func (r *Registry) Lookup(name string) (Key, error) {
	k, ok := r.keys[name]
	if !ok {
		return Key{}, zerr.With(ErrUnknownKey, "key", name)
	}
	return k, nil
}
