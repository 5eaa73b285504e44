// Package config defines the format-agnostic configuration model of the
// driver, along with the Loader interface for reading it from a concrete
// format.
//
// The `config.Model` names the module being built and every source input
// with the location of its dependency summary. The HCL implementation lives
// in internal/hcl.
package config
