package summary

import (
	"context"
	"fmt"
	"os"

	"github.com/specialistvlad/fgdeps/internal/ctxlog"
	"github.com/specialistvlad/fgdeps/internal/depkey"
	"github.com/specialistvlad/fgdeps/internal/node"
	"github.com/specialistvlad/fgdeps/internal/unit"
	"gopkg.in/yaml.v3"
)

type yamlKey struct {
	Aspect  string `yaml:"aspect,omitempty"`
	Kind    string `yaml:"kind"`
	Context string `yaml:"context,omitempty"`
	Name    string `yaml:"name,omitempty"`
}

type yamlFact struct {
	yamlKey     `yaml:",inline"`
	Role        string   `yaml:"role"`
	Fingerprint *string  `yaml:"fingerprint,omitempty"`
	By          *yamlKey `yaml:"by,omitempty"`
}

type yamlSummary struct {
	Facts []yamlFact `yaml:"facts"`
}

// FileReader reads YAML summaries from the file a handle names.
type FileReader struct{}

// Read implements Reader.
func (FileReader) Read(ctx context.Context, h unit.Handle) (*Summary, error) {
	logger := ctxlog.FromContext(ctx)
	if h.IsZero() {
		return nil, fmt.Errorf("%w: no summary file", ErrMalformed)
	}

	data, err := os.ReadFile(h.File())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	s, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", h.File(), err)
	}
	logger.Debug("Read dependency summary.", "file", h.File(), "facts", len(s.Facts))
	return s, nil
}

// Decode parses a YAML summary.
func Decode(data []byte) (*Summary, error) {
	var raw yamlSummary
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	s := &Summary{Facts: make([]Fact, 0, len(raw.Facts))}
	for i, rf := range raw.Facts {
		f, err := rf.fact()
		if err != nil {
			return nil, fmt.Errorf("%w: fact %d: %w", ErrMalformed, i, err)
		}
		s.Facts = append(s.Facts, f)
	}
	return s, nil
}

// Encode renders a summary in the format Decode reads.
func Encode(s *Summary) ([]byte, error) {
	raw := yamlSummary{Facts: make([]yamlFact, 0, len(s.Facts))}
	for _, f := range s.Facts {
		rf := yamlFact{yamlKey: fromKey(f.Key), Role: f.Role.String()}
		if v, ok := f.Fingerprint.Value(); ok {
			rf.Fingerprint = &v
		}
		if f.By != nil {
			by := fromKey(*f.By)
			rf.By = &by
		}
		raw.Facts = append(raw.Facts, rf)
	}
	return yaml.Marshal(raw)
}

func (rf yamlFact) fact() (Fact, error) {
	key, err := rf.yamlKey.key()
	if err != nil {
		return Fact{}, err
	}

	var f Fact
	switch rf.Role {
	case "def", "definition":
		f = Def(key, node.Fingerprint{})
	case "use":
		f = UseOf(key)
	default:
		return Fact{}, fmt.Errorf("unknown role %q", rf.Role)
	}

	if rf.Fingerprint != nil {
		f.Fingerprint = node.NewFingerprint(*rf.Fingerprint)
	}
	if rf.By != nil {
		if f.Role != Use {
			return Fact{}, fmt.Errorf("definition of %s cannot carry \"by\"", key)
		}
		by, err := rf.By.key()
		if err != nil {
			return Fact{}, fmt.Errorf("by: %w", err)
		}
		f.By = &by
	}
	return f, nil
}

func (k yamlKey) key() (depkey.Key, error) {
	aspect, err := depkey.ParseAspect(k.Aspect)
	if err != nil {
		return depkey.Key{}, err
	}
	kind, err := depkey.ParseKind(k.Kind)
	if err != nil {
		return depkey.Key{}, err
	}
	d, err := depkey.New(kind, k.Context, k.Name)
	if err != nil {
		return depkey.Key{}, err
	}
	return depkey.NewKey(aspect, d), nil
}

func fromKey(k depkey.Key) yamlKey {
	out := yamlKey{
		Kind:    k.Designator.Kind().String(),
		Context: k.Designator.Context(),
		Name:    k.Designator.Name(),
	}
	if k.Aspect != depkey.Interface {
		out.Aspect = k.Aspect.String()
	}
	return out
}
