// Package hcl provides the concrete HCL implementation of the config.Loader
// interface. It parses every .hcl file found under the given paths, decodes
// the `module` and `input` blocks, and evaluates summary expressions against
// the module's settings.
//
//	module "Demo" {
//	  compiler_version = "fgdeps 1.0.0"
//	  build_dir        = ".build"
//	}
//
//	input "src/main.swift" {
//	  summary = "${build_dir}/${stem}.swiftdeps.yaml"
//	}
package hcl
