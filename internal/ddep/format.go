package ddep

const (
	signature = "DDEP"

	blockInfoMarker = 0
	recordBlockID   = 8
	recordBlockName = "RECORD_BLOCK"

	// Version is the only (major, minor) pair this package reads and writes.
	VersionMajor = 1
	VersionMinor = 0
)

type recordID uint64

const (
	metadataRecord recordID = iota + 1
	nodeRecord
	fingerprintRecord
	identifierRecord
	useRecord
)

var recordNames = []struct {
	id   recordID
	name string
}{
	{metadataRecord, "METADATA"},
	{nodeRecord, "MODULE_DEP_GRAPH_NODE"},
	{fingerprintRecord, "FINGERPRINT_NODE"},
	{identifierRecord, "IDENTIFIER_NODE"},
	{useRecord, "USE_NODE"},
}

// Field counts, record ID included.
const (
	metadataFields    = 4
	nodeFields        = 7
	fingerprintFields = 2
	identifierFields  = 2
	useFields         = 2
)

// Metadata is the header of a graph file.
type Metadata struct {
	Major           uint64
	Minor           uint64
	CompilerVersion string
}
