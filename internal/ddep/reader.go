package ddep

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/specialistvlad/fgdeps/internal/ctxlog"
	"github.com/specialistvlad/fgdeps/internal/depkey"
	"github.com/specialistvlad/fgdeps/internal/graph"
	"github.com/specialistvlad/fgdeps/internal/inmemorystore"
	"github.com/specialistvlad/fgdeps/internal/inmemorytopology"
	"github.com/specialistvlad/fgdeps/internal/node"
	"github.com/specialistvlad/fgdeps/internal/unit"
	"github.com/vmihailenco/msgpack/v5"
)

// Read loads the graph file at path. A missing file is returned as an error
// matching fs.ErrNotExist; the caller starts from an empty graph.
func Read(ctx context.Context, path string, opts ...graph.Option) (graph.Graph, Metadata, error) {
	logger := ctxlog.FromContext(ctx)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Metadata{}, err
	}
	g, meta, err := Deserialize(data, opts...)
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("%s: %w", path, err)
	}
	logger.Debug("Read driver dependency graph.", "path", path, "nodes", g.Len(), "compiler", meta.CompilerVersion)
	return g, meta, nil
}

type pendingUse struct {
	def depkey.Key
	seq uint64
}

type deserializer struct {
	dec  *msgpack.Decoder
	g    graph.Graph
	meta *Metadata

	identifiers []string
	pending     *node.Node
	nodes       []node.Node
	uses        []pendingUse
}

// Deserialize decodes a graph from data. It never returns a partially
// populated graph: on any error the graph is nil.
func Deserialize(data []byte, opts ...graph.Option) (graph.Graph, Metadata, error) {
	if len(data) < len(signature) || string(data[:len(signature)]) != signature {
		return nil, Metadata{}, readErr(BadMagic, nil, "missing %q signature", signature)
	}
	r := bytes.NewReader(data[len(signature):])
	d := &deserializer{
		dec:         msgpack.NewDecoder(r),
		g:           graph.New(inmemorytopology.New(), inmemorystore.New(), opts...),
		identifiers: []string{""},
	}

	if err := d.readBlockInfo(); err != nil {
		return nil, Metadata{}, err
	}
	count, err := d.readBlockHeader()
	if err != nil {
		return nil, Metadata{}, err
	}
	for i := uint64(0); i < count; i++ {
		if err := d.readRecord(); err != nil {
			return nil, Metadata{}, err
		}
	}
	d.finalize()
	if r.Len() != 0 {
		return nil, Metadata{}, readErr(UnexpectedSubblock, nil, "%d trailing bytes after the record block", r.Len())
	}
	if d.meta == nil {
		return nil, Metadata{}, readErr(MalformedMetadataRecord, nil, "no metadata record")
	}
	for _, u := range d.uses {
		if u.seq >= uint64(len(d.nodes)) {
			return nil, Metadata{}, readErr(MalformedUseRecord, nil, "user %d of %d nodes", u.seq, len(d.nodes))
		}
		d.g.RecordDecodedUse(u.def, d.nodes[u.seq].Identity())
	}

	d.g.MarkLoaded()
	return d.g, *d.meta, nil
}

func (d *deserializer) readBlockInfo() error {
	fail := func(err error, format string, args ...any) error {
		return readErr(NoRecordBlock, err, format, args...)
	}

	n, err := d.dec.DecodeArrayLen()
	if err != nil || n != 4 {
		return fail(err, "block info")
	}
	marker, err := d.dec.DecodeUint64()
	if err != nil || marker != blockInfoMarker {
		return fail(err, "block info marker")
	}
	blockID, err := d.dec.DecodeUint64()
	if err != nil || blockID != recordBlockID {
		return fail(err, "block id")
	}
	if _, err := d.dec.DecodeString(); err != nil {
		return fail(err, "block name")
	}
	records, err := d.dec.DecodeArrayLen()
	if err != nil || records < 0 {
		return fail(err, "record names")
	}
	for i := 0; i < records; i++ {
		if n, err := d.dec.DecodeArrayLen(); err != nil || n != 2 {
			return fail(err, "record name %d", i)
		}
		if _, err := d.dec.DecodeUint64(); err != nil {
			return fail(err, "record name %d", i)
		}
		if _, err := d.dec.DecodeString(); err != nil {
			return fail(err, "record name %d", i)
		}
	}
	return nil
}

func (d *deserializer) readBlockHeader() (uint64, error) {
	n, err := d.dec.DecodeArrayLen()
	if err != nil || n != 2 {
		return 0, readErr(NoRecordBlock, err, "record block header")
	}
	blockID, err := d.dec.DecodeUint64()
	if err != nil {
		return 0, readErr(NoRecordBlock, err, "record block id")
	}
	if blockID != recordBlockID {
		return 0, readErr(UnexpectedSubblock, nil, "block %d", blockID)
	}
	count, err := d.dec.DecodeUint64()
	if err != nil {
		return 0, readErr(NoRecordBlock, err, "record count")
	}
	return count, nil
}

func (d *deserializer) readRecord() error {
	n, err := d.dec.DecodeArrayLen()
	if err != nil || n < 1 {
		return readErr(UnknownRecord, err, "record %d", len(d.nodes))
	}
	id, err := d.dec.DecodeUint64()
	if err != nil {
		return readErr(UnknownRecord, err, "record id")
	}

	switch recordID(id) {
	case metadataRecord:
		return d.readMetadata(n)
	case nodeRecord:
		return d.readNode(n)
	case fingerprintRecord:
		return d.readFingerprint(n)
	case identifierRecord:
		return d.readIdentifier(n)
	case useRecord:
		return d.readUse(n)
	default:
		return readErr(UnknownRecord, nil, "record id %d", id)
	}
}

func (d *deserializer) readMetadata(fields int) error {
	if d.meta != nil {
		return readErr(UnexpectedMetadataRecord, nil, "duplicate metadata")
	}
	if fields != metadataFields {
		return readErr(MalformedMetadataRecord, nil, "%d fields", fields)
	}
	major, err := d.dec.DecodeUint64()
	if err != nil || major > 0xFFFF {
		return readErr(MalformedMetadataRecord, err, "major version")
	}
	minor, err := d.dec.DecodeUint64()
	if err != nil || minor > 0xFFFF {
		return readErr(MalformedMetadataRecord, err, "minor version")
	}
	if major != VersionMajor || minor != VersionMinor {
		return readErr(UnsupportedVersion, nil, "version (%d, %d), expected (%d, %d)", major, minor, VersionMajor, VersionMinor)
	}
	version, err := d.blob()
	if err != nil {
		return readErr(MalformedMetadataRecord, err, "compiler version")
	}
	d.meta = &Metadata{Major: major, Minor: minor, CompilerVersion: version}
	return nil
}

func (d *deserializer) readIdentifier(fields int) error {
	if fields != identifierFields {
		return readErr(MalformedIdentifierRecord, nil, "%d fields", fields)
	}
	str, err := d.blob()
	if err != nil {
		return readErr(MalformedIdentifierRecord, err, "identifier %d", len(d.identifiers))
	}
	d.identifiers = append(d.identifiers, str)
	return nil
}

func (d *deserializer) readNode(fields int) error {
	d.finalize()
	if fields != nodeFields {
		return readErr(MalformedNodeRecord, nil, "%d fields", fields)
	}
	var v [nodeFields - 1]uint64
	for i := range v {
		x, err := d.dec.DecodeUint64()
		if err != nil {
			return readErr(MalformedNodeRecord, err, "field %d", i+1)
		}
		v[i] = x
	}
	kindCode, aspectCode, contextID, nameID, hasOwner, ownerID := v[0], v[1], v[2], v[3], v[4], v[5]

	aspect, ok := depkey.AspectFromCode(aspectCode)
	if !ok {
		return readErr(MalformedNodeRecord, nil, "aspect %d", aspectCode)
	}
	ctxName, ok := d.identifier(contextID)
	if !ok {
		return readErr(MalformedNodeRecord, nil, "context identifier %d", contextID)
	}
	name, ok := d.identifier(nameID)
	if !ok {
		return readErr(MalformedNodeRecord, nil, "name identifier %d", nameID)
	}
	kind, err := depkey.KindFromCode(kindCode)
	if err != nil {
		return readErr(UnknownKind, err, "node %d", len(d.nodes))
	}
	designator, err := depkey.New(kind, ctxName, name)
	if err != nil {
		return readErr(BogusNameOrContext, err, "node %d", len(d.nodes))
	}

	var owner unit.Handle
	switch hasOwner {
	case 0:
	case 1:
		file, ok := d.identifier(ownerID)
		if !ok || file == "" {
			return readErr(MalformedNodeRecord, nil, "owner identifier %d", ownerID)
		}
		owner = unit.NewHandle(file)
	default:
		return readErr(MalformedNodeRecord, nil, "owner flag %d", hasOwner)
	}

	n := node.New(depkey.NewKey(aspect, designator), node.Fingerprint{}, owner)
	d.pending = &n
	return nil
}

func (d *deserializer) readFingerprint(fields int) error {
	if fields != fingerprintFields || d.pending == nil || d.pending.Fingerprint.IsSet() {
		return readErr(MalformedFingerprintRecord, nil, "fingerprint without a node")
	}
	fp, err := d.blob()
	if err != nil {
		return readErr(MalformedFingerprintRecord, err, "fingerprint")
	}
	d.pending.Fingerprint = node.NewFingerprint(fp)
	return nil
}

func (d *deserializer) readUse(fields int) error {
	if fields != useFields {
		return readErr(MalformedUseRecord, nil, "%d fields", fields)
	}
	def, ok := d.lastNode()
	if !ok {
		return readErr(MalformedUseRecord, nil, "use without a definition")
	}
	seq, err := d.dec.DecodeUint64()
	if err != nil {
		return readErr(MalformedUseRecord, err, "user")
	}
	d.uses = append(d.uses, pendingUse{def: def.Key, seq: seq})
	return nil
}

// lastNode is the node the most recent node record described, whether or
// not it has been committed yet.
func (d *deserializer) lastNode() (node.Node, bool) {
	if d.pending != nil {
		return *d.pending, true
	}
	if len(d.nodes) > 0 {
		return d.nodes[len(d.nodes)-1], true
	}
	return node.Node{}, false
}

// finalize commits the pending node. A duplicate identity is an invariant
// violation and panics inside InsertDecoded.
func (d *deserializer) finalize() {
	if d.pending == nil {
		return
	}
	d.g.InsertDecoded(*d.pending)
	d.nodes = append(d.nodes, *d.pending)
	d.pending = nil
}

func (d *deserializer) identifier(code uint64) (string, bool) {
	if code >= uint64(len(d.identifiers)) {
		return "", false
	}
	return d.identifiers[code], true
}

var errNotUTF8 = errors.New("blob is not valid UTF-8")

func (d *deserializer) blob() (string, error) {
	b, err := d.dec.DecodeBytes()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", errNotUTF8
	}
	return string(b), nil
}
