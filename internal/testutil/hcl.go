package testutil

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ConfigDir is the project-relative directory the driver configuration is
// written to.
const ConfigDir = "config"

// ModuleHCL renders a module block named name whose build directory is
// build under dir, followed by one input block per source. Every input gets
// a summary at "<build_dir>/<stem>.swiftdeps.yaml".
func ModuleHCL(dir, name string, sources ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "module %q {\n  compiler_version = \"fgdeps 1.0.0\"\n  build_dir        = %q\n}\n",
		name, filepath.ToSlash(filepath.Join(dir, "build")))
	for _, src := range sources {
		fmt.Fprintf(&b, "\ninput %q {\n  summary = \"${build_dir}/${stem}.swiftdeps.yaml\"\n}\n",
			filepath.ToSlash(filepath.Join(dir, src)))
	}
	return b.String()
}

// SummaryName returns the project-relative summary path ModuleHCL assigns
// to source.
func SummaryName(source string) string {
	base := filepath.Base(source)
	return filepath.Join("build", strings.TrimSuffix(base, filepath.Ext(base))+".swiftdeps.yaml")
}
