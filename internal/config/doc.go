// Package config loads, normalizes, and validates Overdub's TOML
// configuration.
//
// Configuration resolves from an explicit path, then
// ~/.config/overdub/config.toml, then a project-local overdub.toml. Missing
// files fall back to defaults so every command works out of the box. All
// path fields are tilde-expanded and made absolute during load.
package config
