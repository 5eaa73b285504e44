package depkey

import (
	"errors"
	"fmt"
)

var (
	// ErrBogusNameOrContext is returned when a context or name is set on a
	// designator kind that requires it to be empty.
	ErrBogusNameOrContext = errors.New("bogus name or context")
	// ErrUnknownKind is returned for a kind code outside the eight known kinds.
	ErrUnknownKind = errors.New("unknown designator kind")
)

// Kind enumerates the designator variants. The numeric values are the kind
// codes used by the persisted graph format and must not be reordered.
type Kind uint8

const (
	TopLevel Kind = iota
	Nominal
	PotentialMember
	Member
	DynamicLookup
	ExternalDepend
	SourceFileProvide
	IncrementalExternalDependency
)

// KindCount is the number of designator kinds.
const KindCount = 8

var kindNames = [KindCount]string{
	TopLevel:                      "topLevel",
	Nominal:                       "nominal",
	PotentialMember:               "potentialMember",
	Member:                        "member",
	DynamicLookup:                 "dynamicLookup",
	ExternalDepend:                "externalDepend",
	SourceFileProvide:             "sourceFileProvide",
	IncrementalExternalDependency: "incrementalExternalDependency",
}

func (k Kind) String() string {
	if k >= KindCount {
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
	return kindNames[k]
}

// Code returns the persisted kind code.
func (k Kind) Code() uint64 {
	return uint64(k)
}

// KindFromCode maps a persisted kind code back to a Kind.
func KindFromCode(code uint64) (Kind, error) {
	if code >= KindCount {
		return 0, fmt.Errorf("%w: %d", ErrUnknownKind, code)
	}
	return Kind(code), nil
}

// ParseKind maps the textual kind name (as printed by Kind.String) to a Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// ExternalDependency identifies a dependency outside the current module, such
// as the interface file of an imported module. Equality is by path.
type ExternalDependency struct {
	Path string
}

// NewExternalDependency returns the external dependency named by path.
func NewExternalDependency(path string) ExternalDependency {
	return ExternalDependency{Path: path}
}

func (e ExternalDependency) String() string {
	return e.Path
}

// Designator is the kind-specific payload of a dependency fact. The zero
// value is topLevel with an empty name.
type Designator struct {
	kind    Kind
	context string
	name    string
}

// New builds a designator of the given kind, enforcing the kind's rule on
// which of context and name must be empty.
func New(kind Kind, context, name string) (Designator, error) {
	if err := validate(kind, context, name); err != nil {
		return Designator{}, err
	}
	return Designator{kind: kind, context: context, name: name}, nil
}

func validate(kind Kind, context, name string) error {
	mustBeEmpty := func(field, s string) error {
		if s != "" {
			return fmt.Errorf("%w: %s %s must be empty, got %q", ErrBogusNameOrContext, kind, field, s)
		}
		return nil
	}

	switch kind {
	case TopLevel, DynamicLookup, ExternalDepend, SourceFileProvide, IncrementalExternalDependency:
		return mustBeEmpty("context", context)
	case Nominal, PotentialMember:
		return mustBeEmpty("name", name)
	case Member:
		return nil
	default:
		return fmt.Errorf("%w: %d", ErrUnknownKind, uint8(kind))
	}
}

// TopLevelName designates a top-level declaration.
func TopLevelName(name string) Designator {
	return Designator{kind: TopLevel, name: name}
}

// NominalContext designates a nominal type.
func NominalContext(context string) Designator {
	return Designator{kind: Nominal, context: context}
}

// PotentialMemberOf designates an unspecified member of a nominal type.
func PotentialMemberOf(context string) Designator {
	return Designator{kind: PotentialMember, context: context}
}

// MemberOf designates a named member of a nominal type.
func MemberOf(context, name string) Designator {
	return Designator{kind: Member, context: context, name: name}
}

// DynamicLookupName designates a dynamically looked-up member name.
func DynamicLookupName(name string) Designator {
	return Designator{kind: DynamicLookup, name: name}
}

// ExternalDependOn designates an external dependency.
func ExternalDependOn(dep ExternalDependency) Designator {
	return Designator{kind: ExternalDepend, name: dep.Path}
}

// SourceFileProvideName designates the file-level node of a source unit.
func SourceFileProvideName(name string) Designator {
	return Designator{kind: SourceFileProvide, name: name}
}

// IncrementalExternalDependOn designates an incrementally tracked external dependency.
func IncrementalExternalDependOn(dep ExternalDependency) Designator {
	return Designator{kind: IncrementalExternalDependency, name: dep.Path}
}

// Kind returns the variant of the designator.
func (d Designator) Kind() Kind { return d.kind }

// Context returns the context field; empty for kinds without one.
func (d Designator) Context() string { return d.context }

// Name returns the name field; empty for kinds without one. For the two
// external kinds this is the dependency path.
func (d Designator) Name() string { return d.name }

// External returns the external dependency carried by externalDepend and
// incrementalExternalDependency designators.
func (d Designator) External() (ExternalDependency, bool) {
	switch d.kind {
	case ExternalDepend, IncrementalExternalDependency:
		return ExternalDependency{Path: d.name}, true
	default:
		return ExternalDependency{}, false
	}
}

func (d Designator) String() string {
	switch d.kind {
	case TopLevel:
		return fmt.Sprintf("top-level name '%s'", d.name)
	case Nominal:
		return fmt.Sprintf("type '%s'", d.context)
	case PotentialMember:
		return fmt.Sprintf("potential members of '%s'", d.context)
	case Member:
		return fmt.Sprintf("member '%s.%s'", d.context, d.name)
	case DynamicLookup:
		return fmt.Sprintf("AnyObject member '%s'", d.name)
	case ExternalDepend:
		return fmt.Sprintf("import '%s'", d.name)
	case SourceFileProvide:
		return fmt.Sprintf("source file %s", d.name)
	case IncrementalExternalDependency:
		return fmt.Sprintf("incremental import '%s'", d.name)
	default:
		return fmt.Sprintf("unknown designator %d", uint8(d.kind))
	}
}
