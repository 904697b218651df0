// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem.
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage
//
// The package also assembles the typed discovery configuration from
// the flattened key space the store exposes.
package file
