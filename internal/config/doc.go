// Package config loads, normalizes, and validates Argus configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// ARGUS_LLM_API_KEY. The Config type centralizes every knob the engine and CLI
// need so workspace directories, workflow limits, and external service
// credentials are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical depth labels, and clear validation errors.
package config
