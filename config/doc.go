// Package config loads and validates the daemon configuration.
//
// Configuration is a single JSON file composed of per-component sections.
// Each section's type lives with the component that consumes it; this
// package composes them, applies defaults and runs validation. Files are
// read through a hardened loader that rejects traversal paths, oversized
// files and pathologically nested JSON.
package config
