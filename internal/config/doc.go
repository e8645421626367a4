// Package config loads, normalizes, and validates timeback configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// OPENROUTER_API_KEY and HF_TOKEN. The Config type centralizes every knob the
// silence and mistake paths need, so the CLI and tests resolve settings in one
// pass.
package config
