package summary

import (
	"context"
	"errors"

	"github.com/specialistvlad/fgdeps/internal/depkey"
	"github.com/specialistvlad/fgdeps/internal/node"
	"github.com/specialistvlad/fgdeps/internal/unit"
)

// ErrMalformed wraps every failure to decode a summary.
var ErrMalformed = errors.New("malformed dependency summary")

// Role says whether a fact provides a key or depends on one.
type Role uint8

const (
	Definition Role = iota
	Use
)

func (r Role) String() string {
	if r == Use {
		return "use"
	}
	return "def"
}

// Fact is one entry of a summary.
type Fact struct {
	Role        Role
	Key         depkey.Key
	Fingerprint node.Fingerprint
	// By is the unit's own key that does the using. Only meaningful for uses.
	By *depkey.Key
}

// Def returns a definition fact.
func Def(key depkey.Key, fingerprint node.Fingerprint) Fact {
	return Fact{Role: Definition, Key: key, Fingerprint: fingerprint}
}

// UseOf returns a use fact attributed to the unit's file-level node.
func UseOf(key depkey.Key) Fact {
	return Fact{Role: Use, Key: key}
}

// UseBy returns a use fact attributed to the unit's node for by.
func UseBy(key, by depkey.Key) Fact {
	return Fact{Role: Use, Key: key, By: &by}
}

// Source is anything the integrator can iterate facts from.
type Source interface {
	ForEachFact(visit func(Fact))
}

// Summary is an already decoded list of facts.
type Summary struct {
	Facts []Fact
}

// New returns a summary over facts.
func New(facts ...Fact) *Summary {
	return &Summary{Facts: facts}
}

// ForEachFact visits facts in order.
func (s *Summary) ForEachFact(visit func(Fact)) {
	if s == nil {
		return
	}
	for _, f := range s.Facts {
		visit(f)
	}
}

// Reader loads the summary a unit's compile job produced.
type Reader interface {
	Read(ctx context.Context, h unit.Handle) (*Summary, error)
}

// ReaderFunc adapts a function to Reader.
type ReaderFunc func(ctx context.Context, h unit.Handle) (*Summary, error)

// Read calls f.
func (f ReaderFunc) Read(ctx context.Context, h unit.Handle) (*Summary, error) {
	return f(ctx, h)
}
