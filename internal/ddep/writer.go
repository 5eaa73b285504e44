package ddep

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
	"github.com/specialistvlad/fgdeps/internal/ctxlog"
	"github.com/specialistvlad/fgdeps/internal/depkey"
	"github.com/specialistvlad/fgdeps/internal/diag"
	"github.com/specialistvlad/fgdeps/internal/node"
	"github.com/vmihailenco/msgpack/v5"
)

// Source is the part of the graph the writer reads.
type Source interface {
	ForEachNode(visit func(node.Node))
	OrderedUses(def depkey.Key) []node.Node
}

// Write serializes src and atomically replaces path with the result. On
// failure it reports "could not write driver dependency graph" to sink and
// returns the error; the caller must then invalidate its build record.
func Write(ctx context.Context, path string, src Source, compilerVersion string, sink diag.Sink) error {
	logger := ctxlog.FromContext(ctx)
	if sink == nil {
		sink = diag.Discard
	}

	data, err := Serialize(src, compilerVersion)
	if err == nil {
		err = os.MkdirAll(filepath.Dir(path), 0o755)
	}
	if err == nil {
		err = renameio.WriteFile(path, data, 0o644)
	}
	if err != nil {
		sink.Emit(diag.Errorf(path, "could not write driver dependency graph to %s", path))
		return fmt.Errorf("writing %s: %w", path, err)
	}

	logger.Debug("Wrote driver dependency graph.", "path", path, "bytes", len(data))
	return nil
}

type serializer struct {
	enc         *msgpack.Encoder
	identifiers []string
	codes       map[string]uint64
}

func (s *serializer) intern(str string) {
	if str == "" {
		return
	}
	if _, ok := s.codes[str]; ok {
		return
	}
	s.identifiers = append(s.identifiers, str)
	s.codes[str] = uint64(len(s.identifiers))
}

func (s *serializer) code(str string) uint64 {
	if str == "" {
		return 0
	}
	return s.codes[str]
}

// Serialize renders src in the DDEP format. Output is deterministic for a
// given graph.
func Serialize(src Source, compilerVersion string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(signature)
	s := &serializer{enc: msgpack.NewEncoder(&buf), codes: make(map[string]uint64)}

	var nodes []node.Node
	src.ForEachNode(func(n node.Node) { nodes = append(nodes, n) })

	sequence := make(map[node.Identity]uint64, len(nodes))
	for i, n := range nodes {
		sequence[n.Identity()] = uint64(i)
		s.intern(n.Owner.File())
		s.intern(n.Key.Designator.Context())
		s.intern(n.Key.Designator.Name())
	}

	// Uses are written once per definition key, after its first node.
	uses := make(map[node.Identity][]uint64)
	usesWritten := make(map[depkey.Key]bool)
	records := 1 + len(s.identifiers) + len(nodes)
	for _, n := range nodes {
		if n.Fingerprint.IsSet() {
			records++
		}
		if usesWritten[n.Key] {
			continue
		}
		usesWritten[n.Key] = true
		for _, user := range src.OrderedUses(n.Key) {
			seq, ok := sequence[user.Identity()]
			if !ok {
				return nil, fmt.Errorf("use of %s by %s: user is not in the graph", n.Key, user)
			}
			uses[n.Identity()] = append(uses[n.Identity()], seq)
			records++
		}
	}

	if err := s.writeBlockInfo(); err != nil {
		return nil, err
	}
	if err := s.array(recordBlockID, uint64(records)); err != nil {
		return nil, err
	}
	if err := s.writeMetadata(compilerVersion); err != nil {
		return nil, err
	}
	for _, str := range s.identifiers {
		if err := s.blobRecord(identifierRecord, str); err != nil {
			return nil, err
		}
	}
	for _, n := range nodes {
		if err := s.writeNode(n); err != nil {
			return nil, err
		}
		for _, seq := range uses[n.Identity()] {
			if err := s.array(uint64(useRecord), seq); err != nil {
				return nil, err
			}
		}
	}
	return buf.Bytes(), nil
}

func (s *serializer) writeBlockInfo() error {
	if err := s.enc.EncodeArrayLen(4); err != nil {
		return err
	}
	if err := s.enc.EncodeUint(blockInfoMarker); err != nil {
		return err
	}
	if err := s.enc.EncodeUint(recordBlockID); err != nil {
		return err
	}
	if err := s.enc.EncodeString(recordBlockName); err != nil {
		return err
	}
	if err := s.enc.EncodeArrayLen(len(recordNames)); err != nil {
		return err
	}
	for _, r := range recordNames {
		if err := s.enc.EncodeArrayLen(2); err != nil {
			return err
		}
		if err := s.enc.EncodeUint(uint64(r.id)); err != nil {
			return err
		}
		if err := s.enc.EncodeString(r.name); err != nil {
			return err
		}
	}
	return nil
}

func (s *serializer) writeMetadata(compilerVersion string) error {
	if err := s.enc.EncodeArrayLen(metadataFields); err != nil {
		return err
	}
	for _, f := range []uint64{uint64(metadataRecord), VersionMajor, VersionMinor} {
		if err := s.enc.EncodeUint(f); err != nil {
			return err
		}
	}
	return s.enc.EncodeBytes([]byte(compilerVersion))
}

func (s *serializer) writeNode(n node.Node) error {
	hasOwner := uint64(0)
	if !n.IsExpat() {
		hasOwner = 1
	}
	err := s.array(
		uint64(nodeRecord),
		n.Key.Designator.Kind().Code(),
		n.Key.Aspect.Code(),
		s.code(n.Key.Designator.Context()),
		s.code(n.Key.Designator.Name()),
		hasOwner,
		s.code(n.Owner.File()),
	)
	if err != nil {
		return err
	}
	if fp, ok := n.Fingerprint.Value(); ok {
		return s.blobRecord(fingerprintRecord, fp)
	}
	return nil
}

func (s *serializer) blobRecord(id recordID, blob string) error {
	if err := s.enc.EncodeArrayLen(2); err != nil {
		return err
	}
	if err := s.enc.EncodeUint(uint64(id)); err != nil {
		return err
	}
	return s.enc.EncodeBytes([]byte(blob))
}

// array writes fields as one msgpack array of unsigned integers.
func (s *serializer) array(fields ...uint64) error {
	if err := s.enc.EncodeArrayLen(len(fields)); err != nil {
		return err
	}
	for _, f := range fields {
		if err := s.enc.EncodeUint(f); err != nil {
			return err
		}
	}
	return nil
}
