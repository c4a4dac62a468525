// Package configs embeds the configuration template written by
// `kbsearch config init`.
//
// Edit config.example.yaml and rebuild to change it. The keys must stay
// in step with internal/config; a test loads the template to check.
package configs

import _ "embed"

// ConfigTemplate is the commented default configuration.
//
//go:embed config.example.yaml
var ConfigTemplate string
