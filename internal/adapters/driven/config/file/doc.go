// Package file loads CardioMind configuration from a TOML file.
//
// Configuration lives at ~/.cardiomind/config.toml by default. Every field
// has a working default; a missing file yields a fully defaulted config.
// Secrets (API keys) are never read from the file, only from the
// environment, so the config file can be checked into dotfiles safely.
package file
