package authtoken

import (
	"fmt"
	"time"
)

// EntityType names a class of principal ("user", "admin", ...). Lifetimes
// are configured per entity type.
type EntityType string

// DefaultEntityType is used when no entity type is given.
const DefaultEntityType EntityType = "default"

func normalizeEntityType(t EntityType) EntityType {
	if t == "" {
		return DefaultEntityType
	}
	return t
}

type lifetimeKind uint8

const (
	lifetimeNone lifetimeKind = iota
	lifetimeUniform
	lifetimePerType
)

// Lifetime is the token lifetime policy. It is one of NoLifetime, Uniform or
// PerType; the zero value is NoLifetime.
type Lifetime struct {
	kind    lifetimeKind
	uniform time.Duration
	perType map[EntityType]time.Duration
}

// NoLifetime disables expiration for every entity type.
func NoLifetime() Lifetime {
	return Lifetime{kind: lifetimeNone}
}

// Uniform applies d to every entity type.
func Uniform(d time.Duration) Lifetime {
	return Lifetime{kind: lifetimeUniform, uniform: d}
}

// PerType assigns a lifetime per entity type. Types missing from m issue
// tokens without an exp claim and skip expiration checks.
func PerType(m map[EntityType]time.Duration) Lifetime {
	out := make(map[EntityType]time.Duration, len(m))
	for k, v := range m {
		out[normalizeEntityType(k)] = v
	}
	return Lifetime{kind: lifetimePerType, perType: out}
}

// For returns the lifetime for t and whether one is configured.
func (l Lifetime) For(t EntityType) (time.Duration, bool) {
	switch l.kind {
	case lifetimeUniform:
		return l.uniform, true
	case lifetimePerType:
		d, ok := l.perType[normalizeEntityType(t)]
		return d, ok
	default:
		return 0, false
	}
}

// Configured reports whether tokens for t expire.
func (l Lifetime) Configured(t EntityType) bool {
	_, ok := l.For(t)
	return ok
}

// IsPerType reports whether l was built with PerType.
func (l Lifetime) IsPerType() bool {
	return l.kind == lifetimePerType
}

func (l Lifetime) validate() error {
	switch l.kind {
	case lifetimeNone:
		return nil
	case lifetimeUniform:
		if l.uniform <= 0 {
			return fmt.Errorf("%w: lifetime must be > 0", ErrConfiguration)
		}
	case lifetimePerType:
		for t, d := range l.perType {
			if d <= 0 {
				return fmt.Errorf("%w: lifetime for entity type %q must be > 0", ErrConfiguration, t)
			}
		}
	default:
		return fmt.Errorf("%w: unknown lifetime kind", ErrConfiguration)
	}
	return nil
}

func (l Lifetime) String() string {
	switch l.kind {
	case lifetimeUniform:
		return l.uniform.String()
	case lifetimePerType:
		return fmt.Sprintf("per-type(%d)", len(l.perType))
	default:
		return "none"
	}
}
