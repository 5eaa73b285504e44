package buildrecord

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// CompatibleCompilers reports whether build state written by the compiler
// named written can be reused by current. Versions are compared by their
// last word as semantic versions; state is kept across patch releases.
func CompatibleCompilers(written, current string) bool {
	if written == current {
		return true
	}
	wv, werr := semver.NewVersion(lastWord(written))
	cv, cerr := semver.NewVersion(lastWord(current))
	if werr != nil || cerr != nil {
		return false
	}
	return wv.Major() == cv.Major() && wv.Minor() == cv.Minor()
}

func lastWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}
