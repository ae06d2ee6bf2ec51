// Package configs provides the embedded configuration template written
// by `filesearch init`.
//
// The template is embedded at build time via //go:embed so it is
// available in every distribution (source build, binary release).
package configs

import _ "embed"

// ConfigTemplate is the starter .filesearch.yaml written by
// `filesearch init` into a project root.
//
//go:embed filesearch-config.example.yaml
var ConfigTemplate string
