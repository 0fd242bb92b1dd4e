// Package config loads, normalizes, and validates mkvauto configuration.
//
// Configuration is TOML. Load starts from Default, decodes the file over it,
// expands paths and environment fallbacks, then validates. Validation
// failures wrap ErrConfiguration and name the offending key.
package config
