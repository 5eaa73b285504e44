package ddep

import (
	"errors"
	"fmt"
)

var (
	// ErrStructural matches every read failure.
	ErrStructural = errors.New("malformed driver dependency graph")
	// ErrVersionMismatch matches a file of an unsupported format version.
	ErrVersionMismatch = errors.New("unsupported driver dependency graph version")
)

// ReadErrorKind classifies a read failure.
type ReadErrorKind int

const (
	BadMagic ReadErrorKind = iota
	NoRecordBlock
	MalformedMetadataRecord
	UnexpectedMetadataRecord
	MalformedFingerprintRecord
	MalformedIdentifierRecord
	MalformedNodeRecord
	MalformedUseRecord
	UnknownRecord
	UnexpectedSubblock
	BogusNameOrContext
	UnknownKind
	UnsupportedVersion
)

var readErrorNames = map[ReadErrorKind]string{
	BadMagic:                   "bad magic",
	NoRecordBlock:              "no record block",
	MalformedMetadataRecord:    "malformed metadata record",
	UnexpectedMetadataRecord:   "unexpected metadata record",
	MalformedFingerprintRecord: "malformed fingerprint record",
	MalformedIdentifierRecord:  "malformed identifier record",
	MalformedNodeRecord:        "malformed node record",
	MalformedUseRecord:         "malformed use record",
	UnknownRecord:              "unknown record",
	UnexpectedSubblock:         "unexpected subblock",
	BogusNameOrContext:         "bogus name or context",
	UnknownKind:                "unknown kind",
	UnsupportedVersion:         "unsupported version",
}

func (k ReadErrorKind) String() string {
	if name, ok := readErrorNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ReadErrorKind(%d)", int(k))
}

// ReadError is a structural failure to decode a graph file.
type ReadError struct {
	Kind   ReadErrorKind
	Detail string
	Err    error
}

func (e *ReadError) Error() string {
	msg := e.Kind.String()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// Is makes every ReadError match ErrStructural, and an UnsupportedVersion
// one also ErrVersionMismatch.
func (e *ReadError) Is(target error) bool {
	switch target {
	case ErrStructural:
		return true
	case ErrVersionMismatch:
		return e.Kind == UnsupportedVersion
	default:
		return false
	}
}

func readErr(kind ReadErrorKind, err error, format string, args ...any) *ReadError {
	return &ReadError{Kind: kind, Detail: fmt.Sprintf(format, args...), Err: err}
}
