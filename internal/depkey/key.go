package depkey

import "fmt"

// Aspect says whether a fact is part of a declaration's public interface or
// only of its implementation.
type Aspect uint8

const (
	Interface Aspect = iota
	Implementation
)

func (a Aspect) String() string {
	switch a {
	case Interface:
		return "interface"
	case Implementation:
		return "implementation"
	default:
		return fmt.Sprintf("Aspect(%d)", uint8(a))
	}
}

// Code returns the persisted aspect code.
func (a Aspect) Code() uint64 {
	return uint64(a)
}

// AspectFromCode maps a persisted aspect code back to an Aspect.
func AspectFromCode(code uint64) (Aspect, bool) {
	switch code {
	case 0:
		return Interface, true
	case 1:
		return Implementation, true
	default:
		return 0, false
	}
}

// ParseAspect maps "interface" or "implementation" to an Aspect. The empty
// string is read as Interface.
func ParseAspect(s string) (Aspect, error) {
	switch s {
	case "", "interface":
		return Interface, nil
	case "implementation":
		return Implementation, nil
	default:
		return 0, fmt.Errorf("unknown aspect %q", s)
	}
}

// Key identifies one fact in the dependency universe.
type Key struct {
	Aspect     Aspect
	Designator Designator
}

// NewKey is a convenience for Key{Aspect: aspect, Designator: d}.
func NewKey(aspect Aspect, d Designator) Key {
	return Key{Aspect: aspect, Designator: d}
}

// InterfaceOf returns the key depending on the interface of an external dependency.
func InterfaceOf(dep ExternalDependency) Key {
	return Key{Aspect: Interface, Designator: ExternalDependOn(dep)}
}

// Correspondent returns the key with the same designator and the opposite aspect.
func (k Key) Correspondent() Key {
	if k.Aspect == Interface {
		return Key{Aspect: Implementation, Designator: k.Designator}
	}
	return Key{Aspect: Interface, Designator: k.Designator}
}

func (k Key) String() string {
	return fmt.Sprintf("%s of %s", k.Aspect, k.Designator)
}

// Less orders keys by kind, aspect, context and name. It gives the
// deterministic ordering used for persisted output.
func (k Key) Less(other Key) bool {
	if k.Designator.kind != other.Designator.kind {
		return k.Designator.kind < other.Designator.kind
	}
	if k.Aspect != other.Aspect {
		return k.Aspect < other.Aspect
	}
	if k.Designator.context != other.Designator.context {
		return k.Designator.context < other.Designator.context
	}
	return k.Designator.name < other.Designator.name
}
