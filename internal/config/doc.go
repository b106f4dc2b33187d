// Package config defines the format-agnostic pipeline model and the Loader
// interface for reading it from disk.
//
// The config.Model is the single source of truth for the matrix, engine and
// publish packages. Concrete loaders (HCL in internal/hclcfg, YAML in
// internal/yamlcfg) normalize their formats into this model; conditional and
// argument expressions are always hcl.Expression, so the rest of the engine
// evaluates them uniformly regardless of the source format.
package config
